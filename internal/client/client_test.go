package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"transportdesk/internal/domain/models"
	api "transportdesk/internal/http"
	"transportdesk/internal/http/handlers"
	"transportdesk/internal/repositories"
	"transportdesk/internal/services"
	"transportdesk/internal/viewsync"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := services.RequestService{Store: repositories.NewMemoryStore(), Location: time.UTC}
	gate := services.NewAccessGate(services.NewStaticCredentialStore("dispatch", string(hash)), "client-test-secret", time.Hour, nil)
	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{}, handlers.New(svc, gate, nil)))
	t.Cleanup(srv.Close)
	return srv
}

func newRequest() NewRequest {
	return NewRequest{UnitName: "ICU", PersonnelName: "S. Kaya", PhoneNumber: "0555", MissionDate: "2025-06-01", Destination: "City Hospital"}
}

func TestClient_DispatcherFlow(t *testing.T) {
	srv := newTestAPI(t)
	store := FileSessionStore{Path: filepath.Join(t.TempDir(), "session.yaml")}
	c := New(srv.URL, store, nil)
	ctx := context.Background()

	created, token, err := c.Create(ctx, newRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.NotEmpty(t, token)

	_, err = c.Transition(ctx, created.ID, models.StatusApproved)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	sess, err := c.Login(ctx, "dispatch", "s3cret")
	require.NoError(t, err)
	assert.True(t, sess.Authorized)

	state, _, err := c.Session()
	require.NoError(t, err)
	assert.Equal(t, SessionValid, state)

	updated, err := c.Transition(ctx, created.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)

	pdf, filename, err := c.TripSheet(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, filename, ".pdf")

	_, err = c.Transition(ctx, created.ID, models.StatusRejected)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "conflict", apiErr.Code)

	require.NoError(t, c.Delete(ctx, created.ID))
	_, err = c.Get(ctx, created.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	require.NoError(t, c.Logout(ctx))
	state, _, err = c.Session()
	require.NoError(t, err)
	assert.Equal(t, SessionAbsent, state)
}

func TestClient_Withdraw(t *testing.T) {
	srv := newTestAPI(t)
	c := New(srv.URL, nil, nil)
	ctx := context.Background()

	created, token, err := c.Create(ctx, newRequest())
	require.NoError(t, err)

	err = c.Withdraw(ctx, created.ID, "wrong")
	assert.True(t, IsUnauthorized(err))

	require.NoError(t, c.Withdraw(ctx, created.ID, token))
	list, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestClient_LoginFailure(t *testing.T) {
	srv := newTestAPI(t)
	c := New(srv.URL, nil, nil)

	_, err := c.Login(context.Background(), "dispatch", "bad")
	assert.True(t, IsUnauthorized(err))

	state, _, err := c.Session()
	require.NoError(t, err)
	assert.Equal(t, SessionAbsent, state)
}

func TestClient_ExpiredSessionIsCleared(t *testing.T) {
	srv := newTestAPI(t)
	store := &MemorySessionStore{}
	c := New(srv.URL, store, nil)
	ctx := context.Background()

	sess, err := c.Login(ctx, "dispatch", "s3cret")
	require.NoError(t, err)

	c.Now = func() time.Time { return sess.ExpiresAt }
	_, err = c.Transition(ctx, 1, models.StatusApproved)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClient_ServerRejectedSessionIsCleared(t *testing.T) {
	srv := newTestAPI(t)
	store := &MemorySessionStore{}
	require.NoError(t, store.Save(Session{Authorized: true, Token: "forged", ExpiresAt: time.Now().Add(time.Hour)}))
	c := New(srv.URL, store, nil)

	created, _, err := c.Create(context.Background(), newRequest())
	require.NoError(t, err)

	_, err = c.Transition(context.Background(), created.ID, models.StatusApproved)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/api/auth/login", apiErr.Redirect)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestClient_FeedsView(t *testing.T) {
	srv := newTestAPI(t)
	c := New(srv.URL, nil, nil)
	ctx := context.Background()
	_, err := c.Login(ctx, "dispatch", "s3cret")
	require.NoError(t, err)

	first, _, err := c.Create(ctx, newRequest())
	require.NoError(t, err)

	var _ viewsync.Source = c
	var _ viewsync.Mutator = c
	v := viewsync.New(c, c, viewsync.Options{Interval: 10 * time.Millisecond})
	defer v.Close()
	require.NoError(t, v.Mount(ctx))
	require.Len(t, v.Snapshot().Requests, 1)

	_, _, err = c.Create(ctx, newRequest())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(v.Snapshot().Requests) == 2 }, time.Second, 5*time.Millisecond)

	_, err = v.Transition(ctx, first.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.Len(t, viewsync.History(v.Snapshot().Requests), 1)
}
