package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueInvoicing is the queue name for invoice batch jobs.
	QueueInvoicing = "invoicing"
	// TaskGenerateMonthly triggers the monthly invoice generation pass.
	TaskGenerateMonthly = "invoice:generate_monthly"
	// TaskMarkOverdue triggers the overdue sweep.
	TaskMarkOverdue = "invoice:mark_overdue"
)

// BatchPayload scopes an invoice batch job run. An empty ManagerID means the
// pass covers every property.
type BatchPayload struct {
	ManagerID    string    `json:"manager_id,omitempty"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewGenerateMonthlyTask constructs the generation task.
func NewGenerateMonthlyTask(managerID string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(BatchPayload{ManagerID: managerID, ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateMonthly, body, asynq.Queue(QueueInvoicing)), nil
}

// NewMarkOverdueTask constructs the overdue sweep task.
func NewMarkOverdueTask(managerID string, at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(BatchPayload{ManagerID: managerID, ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMarkOverdue, body, asynq.Queue(QueueInvoicing)), nil
}
