package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-invoicing/internal/billing/documents"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueExports holds document exports, which may wait on PDF rendering.
	QueueExports = "exports"

	// TaskDocumentExport renders a stored document and hands it to sinks.
	TaskDocumentExport = "documents:export"
	// TaskOverdueSweep flags sent invoices past their due date.
	TaskOverdueSweep = "documents:overdue-sweep"
	// TaskIdempotencyCleanup prunes old idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// OverdueSweepPayload carries the reference date of a sweep. A zero AsOf means
// the time the task runs.
type OverdueSweepPayload struct {
	AsOf time.Time `json:"as_of"`
}

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewDocumentExportTask constructs an Asynq task for a document export.
func NewDocumentExportTask(req documents.ExportRequest) (*asynq.Task, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDocumentExport, body,
		asynq.Queue(QueueExports),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	), nil
}

// NewOverdueSweepTask constructs an Asynq task for the overdue sweep.
func NewOverdueSweepTask(asOf time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueSweepPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask constructs an Asynq task pruning keys older than
// retention.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
