package invoices

import (
	"fmt"
	"time"
)

// BillingPeriod identifies the month an invoice covers. It is the uniqueness
// key per tenant and the artifact directory namespace.
type BillingPeriod struct {
	Month string
	Year  int
}

// PeriodOf derives the billing period from an issue date.
func PeriodOf(date time.Time) BillingPeriod {
	return BillingPeriod{Month: date.Month().String(), Year: date.Year()}
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// DefaultDueDate is the first day of the month after the issue date,
// normalised to UTC.
func DefaultDueDate(issue time.Time) time.Time {
	issue = issue.UTC()
	return time.Date(issue.Year(), issue.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}

// NumberFromTime builds the timestamp-seeded invoice number.
func NumberFromTime(t time.Time) string {
	return "INV-" + t.UTC().Format("20060102150405")
}

// OverdueDays counts whole elapsed days since the due date. Zero when the
// due date has not passed.
func OverdueDays(now, due time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due).Hours() / 24)
}

// monthBounds returns the first instant of the month containing t and the
// first instant of the following month, in UTC.
func monthBounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// leaseApplies reports whether a lease overlaps the month containing now.
func leaseApplies(lease Lease, now time.Time) bool {
	start, end := monthBounds(now)
	if !lease.StartDate.IsZero() && !lease.StartDate.Before(end) {
		return false
	}
	if !lease.EndDate.IsZero() && lease.EndDate.Before(start) {
		return false
	}
	return true
}
