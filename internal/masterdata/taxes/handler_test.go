package taxes

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

func TestCreateRejectsBlankName(t *testing.T) {
	h := newTestHandler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tax-rates",
		strings.NewReader(`{"name":"","percent":25}`))
	h.create(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateAcceptsValidRate(t *testing.T) {
	h := newTestHandler()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tax-rates",
		strings.NewReader(`{"name":"VAT 12%","percent":12}`))
	h.create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
}
