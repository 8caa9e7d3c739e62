package journal

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

// Handler exposes the posted journal read-only.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger/entries", h.list)
	r.Get("/ledger/entries/{id}", h.get)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entries, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.Validation("id", "invalid entry id"))
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{Source: Source(q.Get("source"))}

	if raw := q.Get("source_ref"); raw != "" {
		ref, err := uuid.Parse(raw)
		if err != nil {
			return Filter{}, shared.Validation("source_ref", "invalid source reference")
		}
		f.SourceRef = ref
	}
	if raw := q.Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filter{}, shared.Validation("account_id", "invalid account id")
		}
		f.AccountID = id
	}
	var err error
	if f.From, err = parseDateParam(q.Get("from"), "from"); err != nil {
		return Filter{}, err
	}
	if f.To, err = parseDateParam(q.Get("to"), "to"); err != nil {
		return Filter{}, err
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return Filter{}, shared.Validation("limit", "invalid limit")
		}
		f.Limit = limit
	}
	return f, nil
}

func parseDateParam(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, shared.Validationf(field, "%s must be formatted 2006-01-02", field)
	}
	return &parsed, nil
}
