package handlers

import (
	"net/http"

	"transportdesk/internal/domain"
	"transportdesk/internal/domain/models"
	"transportdesk/internal/http/middleware"
	"transportdesk/internal/services"

	"github.com/gin-gonic/gin"
)

// createRequestPayload accepts the current field names plus the ones the legacy request
// form posted (name, personnelId, withChair, withSeat). A status field is ignored.
type createRequestPayload struct {
	UnitName       *string   `json:"unitName"`
	Name           *string   `json:"name"`
	PersonnelName  *string   `json:"personnelName"`
	PersonnelID    *string   `json:"personnelId"`
	PhoneNumber    *string   `json:"phoneNumber"`
	Notes          *string   `json:"notes"`
	MissionDate    *string   `json:"missionDate"`
	MissionTime    *string   `json:"missionTime"`
	Destination    *string   `json:"destination"`
	WithWheelchair *FlexBool `json:"withWheelchair"`
	WithChair      *FlexBool `json:"withChair"`
	WithStretcher  *FlexBool `json:"withStretcher"`
	WithSeat       *FlexBool `json:"withSeat"`
}

func firstString(values ...*string) string {
	for _, v := range values {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}

func firstFlag(values ...*FlexBool) *bool {
	for _, v := range values {
		if v != nil {
			return v.ptr()
		}
	}
	return nil
}

func (p createRequestPayload) toInput() models.CreateInput {
	return models.CreateInput{
		UnitName:       firstString(p.UnitName, p.Name),
		PersonnelName:  firstString(p.PersonnelName, p.PersonnelID),
		PhoneNumber:    firstString(p.PhoneNumber),
		Notes:          p.Notes,
		MissionDate:    p.MissionDate,
		MissionTime:    p.MissionTime,
		Destination:    p.Destination,
		WithWheelchair: firstFlag(p.WithWheelchair, p.WithChair),
		WithStretcher:  firstFlag(p.WithStretcher, p.WithSeat),
	}
}

type statusPayload struct {
	Status string `json:"status"`
}

// POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var payload createRequestPayload
	if !BindJSONOrError(c, &payload) {
		return
	}

	created, err := h.requests(c).Create(c.Request.Context(), payload.toInput())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"data":           created,
		"requesterToken": created.RequesterToken,
	})
}

// GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	list, err := h.requests(c).List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if list == nil {
		list = []models.TransportRequest{}
	}
	respondOK(c, http.StatusOK, list)
}

// GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, err := services.ParseID(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	r, err := h.requests(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, r)
}

// PATCH /api/requests/:id
func (h *Handlers) UpdateRequestStatus(c *gin.Context) {
	var payload statusPayload
	if !BindJSONOrError(c, &payload) {
		return
	}
	h.transition(c, payload.Status)
}

// PUT /api/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.transition(c, string(models.StatusApproved))
}

// PUT /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.transition(c, string(models.StatusRejected))
}

func (h *Handlers) transition(c *gin.Context, status string) {
	id, err := services.ParseID(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	updated, err := h.requests(c).Transition(c.Request.Context(), id, status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, updated)
}

// DELETE /api/requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, err := services.ParseID(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		actor = domain.Anonymous("")
	}
	if err := h.requests(c).Remove(c.Request.Context(), id, actor); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// GET /api/requests/:id/trip-sheet
func (h *Handlers) GetTripSheet(c *gin.Context) {
	id, err := services.ParseID(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	pdfBytes, filename, err := h.requests(c).TripSheet(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
