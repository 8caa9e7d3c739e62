package products

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, NewService(NewMemoryRepository()))
}

func TestCreateRejectsMissingSKU(t *testing.T) {
	h := newTestHandler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"name":"Standing desk","unit_price":450000}`))
	h.create(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	h := newTestHandler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"sku":"DESK-01","name":"Standing desk","unit_price":-1}`))
	h.create(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateAcceptsValidProduct(t *testing.T) {
	h := newTestHandler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"sku":"DESK-01","name":"Standing desk","unit_price":450000}`))
	h.create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
}
