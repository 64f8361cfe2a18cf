package invoices

import (
	"fmt"
	"strings"
)

const dateLayout = "2006-01-02"

// ComposeMarkdown builds the structured text document for an invoice. The
// layout engine understands exactly the constructs used here: headings,
// full-bold lines, bullets and horizontal rules.
func ComposeMarkdown(inv Invoice) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# RENT INVOICE\n")
	fmt.Fprintf(&b, "**Invoice #: %s**\n", inv.Number)
	fmt.Fprintf(&b, "**Status: %s**\n", strings.ToUpper(string(inv.Status)))
	b.WriteString("\n---\n\n")

	b.WriteString("## Billing Details\n")
	fmt.Fprintf(&b, "- Tenant: %s\n", inv.TenantName)
	if inv.PropertyName != "" {
		fmt.Fprintf(&b, "- Property: %s\n", inv.PropertyName)
	}
	if inv.PropertyAddress != "" {
		fmt.Fprintf(&b, "- Address: %s\n", inv.PropertyAddress)
	}
	fmt.Fprintf(&b, "- Billing period: %s %d\n", inv.Month, inv.Year)
	fmt.Fprintf(&b, "- Issue date: %s\n", inv.IssueDate.Format(dateLayout))
	fmt.Fprintf(&b, "- Due date: %s\n", inv.DueDate.Format(dateLayout))
	b.WriteString("\n---\n\n")

	b.WriteString("## Amount\n")
	fmt.Fprintf(&b, "**Amount due: $%s**\n", inv.Amount.StringFixed(2))
	b.WriteString("\n")
	if inv.Description != "" {
		b.WriteString(inv.Description + "\n")
	}
	b.WriteString("\n---\n")
	b.WriteString("Please reference the invoice number with your payment.\n")

	return b.String()
}
