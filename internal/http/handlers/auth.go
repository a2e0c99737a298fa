package handlers

import (
	"net/http"
	"time"

	"transportdesk/internal/http/middleware"
	"transportdesk/internal/services"
	"transportdesk/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Username string `json:"username"`
	// Email is accepted for older login forms that post {email,password}.
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	username := utils.FirstNonEmpty(req.Username, req.Email)

	sess, err := h.Gate.Authorize(c.Request.Context(), username, req.Password)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type sessionResponse struct {
	State     services.SessionState `json:"state"`
	Username  string                `json:"username,omitempty"`
	ExpiresAt *time.Time            `json:"expiresAt,omitempty"`
}

// GET /api/auth/session
func (h *Handlers) Session(c *gin.Context) {
	state, actor, expires := h.Gate.CheckSession(middleware.BearerToken(c))
	resp := sessionResponse{State: state, Username: actor.Username}
	if !expires.IsZero() {
		resp.ExpiresAt = &expires
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/auth/logout
//
// Sessions live client-side; the server only records the event.
func (h *Handlers) Logout(c *gin.Context) {
	_, actor, _ := h.Gate.CheckSession(middleware.BearerToken(c))
	utils.LogEvent(h.Log, middleware.GetRequestID(c), "auth", "logout", "dispatcher logged out",
		zap.String("username", actor.Username))
	c.JSON(http.StatusOK, gin.H{"success": true, "redirect": middleware.LoginPath})
}
