package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/clouderp/simplebooks/internal/shared"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMemoryRepository())

	user, err := service.Register(ctx, "Owner@Example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, "owner@example.com", user.Email)
	require.True(t, user.IsActive)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	got, err := service.Authenticate(ctx, "owner@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = service.Authenticate(ctx, "owner@example.com", "wrong password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = service.Authenticate(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewMemoryRepository())

	_, err := service.Register(ctx, "owner@example.com", "correct horse")
	require.NoError(t, err)
	_, err = service.Register(ctx, "OWNER@example.com", "another pass")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestInactiveUserCannotLogIn(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	service := NewService(repo)

	user, err := service.Register(ctx, "owner@example.com", "correct horse")
	require.NoError(t, err)
	user.IsActive = false
	repo.users[user.Email] = user

	_, err = service.Authenticate(ctx, user.Email, "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginEndpointSetsSessionUser(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "simplebooks_session", time.Hour, false)

	service := NewService(NewMemoryRepository())
	user, err := service.Register(ctx, "owner@example.com", "correct horse")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, service, sessions)

	body, err := json.Marshal(map[string]string{"email": user.Email, "password": "correct horse"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	sess, err := sessions.Load(ctx, req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.login(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "1", sess.User())

	// Wrong password maps to 401.
	body, err = json.Marshal(map[string]string{"email": user.Email, "password": "wrong password"})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res = httptest.NewRecorder()
	handler.login(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}
