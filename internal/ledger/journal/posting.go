package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/shared"
)

// Draft is the input to Build: candidate lines for one business event.
type Draft struct {
	EntryDate time.Time
	Source    Source
	SourceRef uuid.UUID
	Memo      string
	Lines     []DraftLine
}

// DraftLine is one candidate posting line.
type DraftLine struct {
	AccountID int64
	Debit     int64
	Credit    int64
}

// Build validates a draft and produces an entry ready for persistence.
// Lines hitting the same account are merged, lines that net to zero on both
// sides are dropped, and the result must carry at least one line with total
// debits equal to total credits.
func Build(d Draft) (Entry, error) {
	if d.EntryDate.IsZero() {
		return Entry{}, shared.Validation("entry_date", "entry date is required")
	}
	if d.Source == "" {
		return Entry{}, shared.Validation("source", "source is required")
	}
	if len(d.Lines) == 0 {
		return Entry{}, shared.Validation("lines", "at least one line is required")
	}

	merged := make(map[int64]*Line)
	order := make([]int64, 0, len(d.Lines))
	for _, l := range d.Lines {
		if l.AccountID == 0 {
			return Entry{}, shared.Validation("lines", "line is missing an account")
		}
		if l.Debit < 0 || l.Credit < 0 {
			return Entry{}, shared.Validation("lines", "line amounts must not be negative")
		}
		if l.Debit > 0 && l.Credit > 0 {
			return Entry{}, shared.Validation("lines", "line must be debit or credit, not both")
		}
		m, ok := merged[l.AccountID]
		if !ok {
			m = &Line{AccountID: l.AccountID}
			merged[l.AccountID] = m
			order = append(order, l.AccountID)
		}
		m.Debit += l.Debit
		m.Credit += l.Credit
	}

	var lines []Line
	var debit, credit int64
	for _, id := range order {
		m := merged[id]
		if m.Debit == 0 && m.Credit == 0 {
			continue
		}
		debit += m.Debit
		credit += m.Credit
		lines = append(lines, *m)
	}
	if len(lines) == 0 {
		return Entry{}, shared.Validation("lines", "entry has no nonzero lines")
	}
	if debit != credit {
		return Entry{}, shared.ErrUnbalancedEntry
	}

	return Entry{
		EntryDate: d.EntryDate,
		Source:    d.Source,
		SourceRef: d.SourceRef,
		Memo:      d.Memo,
		Lines:     lines,
	}, nil
}

// Reverse produces a draft that mirrors an entry with debit and credit sides
// swapped. Posting the result cancels the original's effect on every balance.
func Reverse(e Entry, date time.Time, source Source, memo string) Draft {
	lines := make([]DraftLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, DraftLine{AccountID: l.AccountID, Debit: l.Credit, Credit: l.Debit})
	}
	return Draft{
		EntryDate: date,
		Source:    source,
		SourceRef: e.SourceRef,
		Memo:      memo,
		Lines:     lines,
	}
}

// SumByAccount folds entries into net movement per account (debits positive).
func SumByAccount(entries []Entry) map[int64]int64 {
	net := make(map[int64]int64)
	for _, e := range entries {
		for _, l := range e.Lines {
			net[l.AccountID] += l.Debit - l.Credit
		}
	}
	return net
}
