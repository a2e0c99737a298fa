package middleware

import (
	"net/http"
	"strings"

	"transportdesk/internal/domain"
	"transportdesk/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	actorKey = "actor"

	// RequesterTokenHeader carries the token handed out when a request was created.
	RequesterTokenHeader = "X-Requester-Token"

	// LoginPath is where unauthorized callers are sent.
	LoginPath = "/api/auth/login"
)

// BearerToken returns the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// ResolveActor puts the calling actor on the context. A valid bearer session yields the
// dispatcher; otherwise the caller is anonymous and may carry a requester token.
func ResolveActor(gate *services.AccessGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := domain.Anonymous(strings.TrimSpace(c.GetHeader(RequesterTokenHeader)))
		if token := BearerToken(c); token != "" {
			if state, a, _ := gate.CheckSession(token); state == services.SessionValid {
				actor = a
			} else if actor.RequesterToken == "" {
				AbortUnauthorized(c, sessionMessage(state))
				return
			}
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireDispatcher rejects the request before the handler runs unless it carries a valid
// dispatcher session.
func RequireDispatcher(gate *services.AccessGate) gin.HandlerFunc {
	roles := RequireRoles(domain.RoleDispatcher)
	return func(c *gin.Context) {
		actor, err := gate.RequireAuthority(BearerToken(c))
		if err != nil {
			AbortUnauthorized(c, err.Error())
			return
		}
		c.Set(actorKey, actor)
		roles(c)
	}
}

// RequireRoles only lets actors with one of roles through. It expects the actor to be on
// the context already.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			AbortUnauthorized(c, "login required")
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			if actor.Role == domain.RoleAnonymous {
				AbortUnauthorized(c, "login required")
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "role not allowed",
				"code":       "forbidden",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor resolved by the auth middleware.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// AbortUnauthorized answers 401 with the login redirect hint.
func AbortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="transportdesk"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      message,
		"code":       "unauthorized",
		"redirect":   LoginPath,
		"request_id": GetRequestID(c),
	})
}

func sessionMessage(state services.SessionState) string {
	if state == services.SessionExpired {
		return "session expired, please log in again"
	}
	return "login required"
}
