package payments

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clouderp/simplebooks/internal/platform/httpx"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Handler wires the payment registry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers payment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payments", h.list)
	r.Post("/payments", h.create)
}

type paymentForm struct {
	Direction      Direction `json:"direction"`
	Amount         int64     `json:"amount"`
	PaidAt         string    `json:"paid_at"`
	Method         string    `json:"method"`
	Reference      string    `json:"reference"`
	CounterpartyID *int64    `json:"counterparty_id"`
	Memo           string    `json:"memo"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := Filter{Direction: Direction(r.URL.Query().Get("direction"))}
	if raw := r.URL.Query().Get("document_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.RespondError(w, shared.Validation("document_id", "invalid document id"))
			return
		}
		f.DocumentID = id
	}
	if raw := r.URL.Query().Get("counterparty_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, shared.Validation("counterparty_id", "invalid counterparty id"))
			return
		}
		f.CounterpartyID = &id
	}
	out, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form paymentForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	p := Payment{
		Direction:      form.Direction,
		Amount:         form.Amount,
		Method:         form.Method,
		Reference:      form.Reference,
		CounterpartyID: form.CounterpartyID,
		Memo:           form.Memo,
	}
	if form.PaidAt != "" {
		paidAt, err := time.Parse("2006-01-02", form.PaidAt)
		if err != nil {
			httpx.RespondError(w, shared.Validation("paid_at", "paid_at must be formatted 2006-01-02"))
			return
		}
		p.PaidAt = paidAt
	}
	created, err := h.service.CreateStandalone(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}
