package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/clouderp/simplebooks/internal/ledger/accounts"
	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/ledger/reports"
	jobmetrics "github.com/clouderp/simplebooks/internal/jobs"
)

// IntegrityChecker rebuilds the trial balance from the raw journal and
// verifies the books still balance. Postings are validated before commit, so
// a failure here means data was mutated outside the posting path.
type IntegrityChecker struct {
	logger   *slog.Logger
	accounts *accounts.Service
	journal  *journal.Service
	metrics  *jobmetrics.Metrics
}

// NewIntegrityChecker constructs an IntegrityChecker.
func NewIntegrityChecker(logger *slog.Logger, accountsService *accounts.Service, journalService *journal.Service, metrics *jobmetrics.Metrics) *IntegrityChecker {
	return &IntegrityChecker{logger: logger, accounts: accountsService, journal: journalService, metrics: metrics}
}

// Handle processes TaskLedgerIntegrity tasks.
func (c *IntegrityChecker) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := c.metrics.Track("ledger_integrity")

	asOf, err := asOfFromPayload(t.Payload())
	if err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	chart, err := c.accounts.List(ctx)
	if err != nil {
		return tracker.End(fmt.Errorf("jobs: list accounts: %w", err))
	}
	totals, err := c.journal.AccountTotals(ctx, asOf)
	if err != nil {
		return tracker.End(fmt.Errorf("jobs: account totals: %w", err))
	}

	tb := reports.BuildTrialBalance(asOf, chart, totals)
	if tb.TotalDebit != tb.TotalCredit {
		err := fmt.Errorf("jobs: journal out of balance: debit %d credit %d", tb.TotalDebit, tb.TotalCredit)
		c.logger.Error("ledger integrity scan failed",
			slog.Int64("total_debit", tb.TotalDebit),
			slog.Int64("total_credit", tb.TotalCredit))
		return tracker.End(err)
	}
	if !tb.EquationBalanced {
		c.logger.Error("accounting equation out of balance", slog.Time("as_of", asOf))
	}

	c.logger.Info("ledger integrity scan passed",
		slog.Time("as_of", asOf),
		slog.Int64("total_debit", tb.TotalDebit),
		slog.Int("accounts", len(tb.Rows)))
	return tracker.End(nil)
}
