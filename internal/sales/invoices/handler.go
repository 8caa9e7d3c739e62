package invoices

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/platform/httpx"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Handler wires invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.list)
	r.Post("/invoices", h.create)
	r.Get("/invoices/{id}", h.get)
	r.Patch("/invoices/{id}", h.update)
	r.Post("/invoices/{id}/issue", h.issue)
	r.Post("/invoices/{id}/payments", h.recordPayment)
	r.Post("/invoices/{id}/void", h.void)
}

type lineForm struct {
	ProductID       *int64           `json:"product_id"`
	Description     string           `json:"description"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *int64           `json:"unit_price"`
	Discount        int64            `json:"discount"`
	TaxPercent      *decimal.Decimal `json:"tax_percent"`
	TaxID           *int64           `json:"tax_id"`
	IncomeAccountID *int64           `json:"income_account_id"`
}

type invoiceForm struct {
	CustomerID int64      `json:"customer_id"`
	IssueDate  string     `json:"issue_date"`
	DueDate    string     `json:"due_date"`
	Memo       string     `json:"memo"`
	Lines      []lineForm `json:"lines"`
}

func (f invoiceForm) toInput() (CreateInput, error) {
	in := CreateInput{CustomerID: f.CustomerID, Memo: f.Memo}
	var err error
	if in.IssueDate, err = parseDate(f.IssueDate, "issue_date"); err != nil {
		return CreateInput{}, err
	}
	if in.DueDate, err = parseDate(f.DueDate, "due_date"); err != nil {
		return CreateInput{}, err
	}
	for _, l := range f.Lines {
		in.Lines = append(in.Lines, LineInput(l))
	}
	return in, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f := Filter{Status: Status(r.URL.Query().Get("status"))}
	out, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
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
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form invoiceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	in, err := form.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form invoiceForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	in, err := form.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := h.service.UpdateDraft(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) issue(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form struct {
		IssueDate string `json:"issue_date"`
	}
	// Body is optional; absence means issue today.
	_ = httpx.DecodeJSON(r, &form)
	var issueDate *time.Time
	if form.IssueDate != "" {
		parsed, err := parseDate(form.IssueDate, "issue_date")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		issueDate = &parsed
	}
	inv, err := h.service.Issue(r.Context(), id, issueDate)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form struct {
		Amount int64  `json:"amount"`
		PaidAt string `json:"paid_at"`
		Method string `json:"method"`
		Memo   string `json:"memo"`
	}
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	in := PaymentInput{Amount: form.Amount, Method: form.Method, Memo: form.Memo}
	if form.PaidAt != "" {
		if in.PaidAt, err = parseDate(form.PaidAt, "paid_at"); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	inv, err := h.service.RecordPayment(r.Context(), id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form struct {
		Reason string `json:"reason"`
	}
	_ = httpx.DecodeJSON(r, &form)
	inv, err := h.service.Void(r.Context(), id, form.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, shared.Validation("id", "invalid document id")
	}
	return id, nil
}

func parseDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, shared.Validationf(field, "%s must be formatted 2006-01-02", field)
	}
	return parsed, nil
}
