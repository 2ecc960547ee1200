package session_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/session"
)

func TestUserFromContext(t *testing.T) {
	t.Parallel()

	_, ok := session.UserFromContext(context.Background())
	assert.False(t, ok)

	_, ok = session.UserFromContext(session.WithUser(context.Background(), &models.User{}))
	assert.False(t, ok)

	user, ok := session.UserFromContext(session.WithUser(context.Background(), &models.User{ID: "u1"}))
	require.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}

func TestRedisStore_Lookup(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	store := session.NewRedisStore(db, time.Hour)

	mock.ExpectGet("session:abc").SetVal(`{"id":"u1","email":"ana@example.com"}`)
	mock.ExpectExpire("session:abc", time.Hour).SetVal(true)

	user, err := store.Lookup(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ana@example.com", user.Email)

	mock.ExpectGet("session:gone").RedisNil()

	_, err = store.Lookup(context.Background(), "gone")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	mock.ExpectGet("session:broken").SetErr(errors.New("connection refused"))

	_, err = store.Lookup(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrSessionNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	store := session.NewRedisStore(db, time.Hour)

	mock.ExpectDel("session:abc").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type fakeStore map[string]*models.User

func (f fakeStore) Lookup(_ context.Context, sessionID string) (*models.User, error) {
	if user, ok := f[sessionID]; ok {
		return user, nil
	}

	return nil, session.ErrSessionNotFound
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Use(session.Middleware(fakeStore{"s1": {ID: "u1"}}, slog.Default()))
	app.Get("/whoami", func(c fiber.Ctx) error {
		user, ok := session.UserFromContext(c.Context())
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		return c.SendString(user.ID)
	})

	tests := []struct {
		name   string
		setup  func(r *httptestRequest)
		status int
	}{
		{"no session", func(*httptestRequest) {}, fiber.StatusUnauthorized},
		{"cookie session", func(r *httptestRequest) { r.cookie = "s1" }, fiber.StatusOK},
		{"header session", func(r *httptestRequest) { r.header = "s1" }, fiber.StatusOK},
		{"unknown session", func(r *httptestRequest) { r.cookie = "nope" }, fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &httptestRequest{}
			tt.setup(r)

			req := httptest.NewRequest("GET", "/whoami", nil)
			if r.cookie != "" {
				req.Header.Set("Cookie", session.CookieName+"="+r.cookie)
			}

			if r.header != "" {
				req.Header.Set(session.HeaderName, r.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

type httptestRequest struct {
	cookie string
	header string
}
