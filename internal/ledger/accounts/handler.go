package accounts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clouderp/simplebooks/internal/ledger/journal"
	"github.com/clouderp/simplebooks/internal/platform/httpx"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Handler serves the chart of accounts with cumulative balances.
type Handler struct {
	logger  *slog.Logger
	service *Service
	journal *journal.Service
}

func NewHandler(logger *slog.Logger, service *Service, journalService *journal.Service) *Handler {
	return &Handler{logger: logger, service: service, journal: journalService}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger/accounts", h.list)
}

type accountView struct {
	ID       int64       `json:"id"`
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Type     AccountType `json:"type"`
	IsSystem bool        `json:"is_system"`
	IsActive bool        `json:"is_active"`
	Debit    int64       `json:"debit"`
	Credit   int64       `json:"credit"`
	Balance  int64       `json:"balance"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.RespondError(w, shared.Validation("as_of", "as_of must be formatted 2006-01-02"))
			return
		}
		asOf = parsed
	}

	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	totals, err := h.journal.AccountTotals(r.Context(), asOf)
	if err != nil {
		h.logger.Error("account totals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	byAccount := make(map[int64]journal.AccountTotal, len(totals))
	for _, t := range totals {
		byAccount[t.AccountID] = t
	}

	out := make([]accountView, 0, len(all))
	for _, a := range all {
		t := byAccount[a.ID]
		out = append(out, accountView{
			ID:       a.ID,
			Code:     a.Code,
			Name:     a.Name,
			Type:     a.Type,
			IsSystem: a.IsSystem,
			IsActive: a.IsActive,
			Debit:    t.Debit,
			Credit:   t.Credit,
			Balance:  t.Debit - t.Credit,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
