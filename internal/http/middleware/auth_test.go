package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"transportdesk/internal/domain"
	"transportdesk/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newGate(t *testing.T) *services.AccessGate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	return services.NewAccessGate(services.NewStaticCredentialStore("dispatch", string(hash)), "middleware-secret", time.Hour, nil)
}

func serve(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestResolveActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gate := newGate(t)
	sess, err := gate.Authorize(context.Background(), "dispatch", "pw")
	require.NoError(t, err)

	var got domain.Actor
	r := gin.New()
	r.GET("/x", ResolveActor(gate), func(c *gin.Context) {
		got, _ = ActorFrom(c)
		c.Status(http.StatusOK)
	})

	w := serve(r, map[string]string{"Authorization": "Bearer " + sess.Token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, got.IsDispatcher())

	w = serve(r, map[string]string{RequesterTokenHeader: "tok"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Anonymous("tok"), got)

	w = serve(r, map[string]string{"Authorization": "Bearer forged", RequesterTokenHeader: "tok"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.RoleAnonymous, got.Role)

	w = serve(r, map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)

	called := false
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		switch c.GetHeader("X-Test-Role") {
		case "dispatcher":
			c.Set(actorKey, domain.Actor{Role: domain.RoleDispatcher})
		case "anonymous":
			c.Set(actorKey, domain.Anonymous(""))
		case "auditor":
			c.Set(actorKey, domain.Actor{Role: domain.Role("auditor")})
		}
	}, RequireRoles(domain.RoleDispatcher), func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, map[string]string{"X-Test-Role": "anonymous"}).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, map[string]string{"X-Test-Role": "auditor"}).Code)
	assert.False(t, called)

	assert.Equal(t, http.StatusOK, serve(r, map[string]string{"X-Test-Role": "dispatcher"}).Code)
	assert.True(t, called)
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, BearerToken(c), header)
	}
}
