package orders

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/platform/httpx"
	"github.com/clouderp/simplebooks/internal/sales/invoices"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Handler wires sales order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/sales-orders", h.list)
	r.Post("/sales-orders", h.create)
	r.Get("/sales-orders/{id}", h.get)
	r.Patch("/sales-orders/{id}", h.update)
	r.Post("/sales-orders/{id}/confirm", h.confirm)
	r.Post("/sales-orders/{id}/invoice", h.convert)
	r.Post("/sales-orders/{id}/void", h.void)
}

type orderLineForm struct {
	ProductID       *int64           `json:"product_id"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *int64           `json:"unit_price"`
	Discount        int64            `json:"discount"`
	TaxPercent      *decimal.Decimal `json:"tax_percent"`
	TaxID           *int64           `json:"tax_id"`
	IncomeAccountID *int64           `json:"income_account_id"`
}

type orderForm struct {
	CustomerID int64           `json:"customer_id"`
	OrderDate  string          `json:"order_date"`
	Memo       string          `json:"memo"`
	Lines      []orderLineForm `json:"lines"`
}

func (f orderForm) toInput() (CreateInput, error) {
	in := CreateInput{CustomerID: f.CustomerID, Memo: f.Memo}
	if f.OrderDate != "" {
		parsed, err := time.Parse("2006-01-02", f.OrderDate)
		if err != nil {
			return CreateInput{}, shared.Validation("order_date", "order_date must be formatted 2006-01-02")
		}
		in.OrderDate = parsed
	}
	for _, l := range f.Lines {
		in.Lines = append(in.Lines, invoices.LineInput(l))
	}
	return in, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), Filter{Status: Status(r.URL.Query().Get("status"))})
	if err != nil {
		h.logger.Error("list sales orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form orderForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	in, err := form.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, o)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form orderForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	in, err := form.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.UpdateDraft(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form struct {
		DueDate string `json:"due_date"`
	}
	_ = httpx.DecodeJSON(r, &form)
	var dueDate time.Time
	if form.DueDate != "" {
		if dueDate, err = time.Parse("2006-01-02", form.DueDate); err != nil {
			httpx.RespondError(w, shared.Validation("due_date", "due_date must be formatted 2006-01-02"))
			return
		}
	}
	o, inv, err := h.service.ConvertToInvoice(r.Context(), id, dueDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order": o, "invoice": inv})
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	o, err := h.service.Void(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, shared.Validation("id", "invalid document id")
	}
	return id, nil
}
