package handlers

import (
	"transportdesk/internal/http/middleware"
	"transportdesk/internal/repositories"
	"transportdesk/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers carries the dependencies shared by every route.
type Handlers struct {
	Requests services.RequestService
	Gate     *services.AccessGate
	Store    repositories.TransportRequestStore
	Log      *zap.Logger
}

func New(requests services.RequestService, gate *services.AccessGate, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{Requests: requests, Gate: gate, Store: requests.Store, Log: log}
}

// requests returns the lifecycle engine tagged with the current request id.
func (h *Handlers) requests(c *gin.Context) services.RequestService {
	return h.Requests.WithRequestID(middleware.GetRequestID(c))
}
