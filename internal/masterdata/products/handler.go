package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clouderp/simplebooks/internal/platform/httpx"
	"github.com/clouderp/simplebooks/internal/shared"
)

// Handler wires product endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Patch("/products/{id}", h.update)
}

type productForm struct {
	SKU             string `json:"sku" validate:"required,min=1,max=64"`
	Name            string `json:"name" validate:"required,min=1,max=200"`
	UnitPrice       int64  `json:"unit_price" validate:"gte=0"`
	IncomeAccountID *int64 `json:"income_account_id"`
	DefaultTaxID    *int64 `json:"default_tax_id"`
	IsService       *bool  `json:"is_service"`
	IsActive        *bool  `json:"is_active"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var form productForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	if err := httpx.Validate(h.validator, form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p := Product{
		SKU:             form.SKU,
		Name:            form.Name,
		UnitPrice:       form.UnitPrice,
		IncomeAccountID: form.IncomeAccountID,
		DefaultTaxID:    form.DefaultTaxID,
		IsActive:        true,
	}
	if form.IsService != nil {
		p.IsService = *form.IsService
	}
	if form.IsActive != nil {
		p.IsActive = *form.IsActive
	}
	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
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
	form := productForm{
		SKU:             current.SKU,
		Name:            current.Name,
		UnitPrice:       current.UnitPrice,
		IncomeAccountID: current.IncomeAccountID,
		DefaultTaxID:    current.DefaultTaxID,
	}
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("body", "invalid JSON body"))
		return
	}
	if err := httpx.Validate(h.validator, form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	current.SKU = form.SKU
	current.Name = form.Name
	current.UnitPrice = form.UnitPrice
	current.IncomeAccountID = form.IncomeAccountID
	current.DefaultTaxID = form.DefaultTaxID
	if form.IsService != nil {
		current.IsService = *form.IsService
	}
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
