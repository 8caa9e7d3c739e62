package taxes

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/clouderp/simplebooks/internal/platform/httpx"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Handler wires tax rate endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers tax rate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tax-rates", h.list)
	r.Post("/tax-rates", h.create)
	r.Get("/tax-rates/{id}", h.get)
	r.Patch("/tax-rates/{id}", h.update)
}

// Percent stays outside validator's reach (decimal.Decimal); the service
// rejects negative rates.
type taxForm struct {
	Name     string          `json:"name" validate:"required,min=1,max=100"`
	Percent  decimal.Decimal `json:"percent"`
	IsActive *bool           `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	taxes, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list tax rates", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, taxes)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tax, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tax)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form taxForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	if err := httpx.Validate(h.validator, form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	active := true
	if form.IsActive != nil {
		active = *form.IsActive
	}
	tax, err := h.service.Create(r.Context(), Tax{Name: form.Name, Percent: form.Percent, IsActive: active})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tax)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	current, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	form := taxForm{Name: current.Name, Percent: current.Percent}
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	if err := httpx.Validate(h.validator, form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current.Name = form.Name
	current.Percent = form.Percent
	if form.IsActive != nil {
		current.IsActive = *form.IsActive
	}
	updated, err := h.service.Update(r.Context(), current)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.Validation("id", "invalid id")
	}
	return id, nil
}
