package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity verifies the posted journal still balances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskReportWarmup primes the cached trial balance and aging reports.
	TaskReportWarmup = "reports:warmup"
)

// datePayload carries the as-of date for report-shaped tasks. An empty date
// means "today".
type datePayload struct {
	AsOf string `json:"as_of,omitempty"`
}

// NewLedgerIntegrityTask constructs the integrity scan task.
func NewLedgerIntegrityTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(datePayload{AsOf: formatDate(asOf)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// NewReportWarmupTask constructs the report cache warmup task.
func NewReportWarmupTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(datePayload{AsOf: formatDate(asOf)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func asOfFromPayload(raw []byte) (time.Time, error) {
	var p datePayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return time.Time{}, err
		}
	}
	if p.AsOf == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse("2006-01-02", p.AsOf)
}
