package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"transportdesk/internal/domain"
	"transportdesk/internal/domain/models"
	"transportdesk/internal/repositories"
	"transportdesk/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resourceTransportRequest = "transport request"

// RequestService owns the transport request lifecycle: creation, status transitions and
// removal. Callers are expected to have passed the access gate for dispatcher operations.
type RequestService struct {
	Store     repositories.TransportRequestStore
	Log       *zap.Logger
	Location  *time.Location
	Now       func() time.Time
	NewToken  func() string
	RequestID string
}

// WithRequestID returns a copy that tags log lines with requestID.
func (s RequestService) WithRequestID(requestID string) RequestService {
	s.RequestID = requestID
	return s
}

func (s RequestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s RequestService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

func (s RequestService) newToken() string {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return uuid.NewString()
}

func (s RequestService) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

// Create stores a new request. Status is always PENDING whatever the caller sent.
func (s RequestService) Create(ctx context.Context, in models.CreateInput) (models.TransportRequest, error) {
	req := models.TransportRequest{
		UnitName:      strings.TrimSpace(in.UnitName),
		PersonnelName: strings.TrimSpace(in.PersonnelName),
		PhoneNumber:   strings.TrimSpace(in.PhoneNumber),
		Notes:         deref(in.Notes),
		MissionTime:   strings.TrimSpace(deref(in.MissionTime)),
		Destination:   strings.TrimSpace(deref(in.Destination)),
		Status:        models.StatusPending,
	}
	if in.WithWheelchair != nil {
		req.WithWheelchair = *in.WithWheelchair
	}
	if in.WithStretcher != nil {
		req.WithStretcher = *in.WithStretcher
	}

	switch {
	case req.UnitName == "":
		return req, domain.ValidationError{Field: "unitName", Msg: "is required"}
	case req.PersonnelName == "":
		return req, domain.ValidationError{Field: "personnelName", Msg: "is required"}
	case req.PhoneNumber == "":
		return req, domain.ValidationError{Field: "phoneNumber", Msg: "is required"}
	}

	now := s.now()
	if raw := deref(in.MissionDate); strings.TrimSpace(raw) != "" {
		date, err := utils.NormalizeDate(raw, s.location())
		if err != nil {
			return req, domain.ValidationError{Field: "missionDate", Msg: "must be a date (YYYY-MM-DD)", Err: err}
		}
		req.MissionDate = date
	} else {
		req.MissionDate = utils.FormatDate(now, s.location())
	}

	req.RequesterToken = s.newToken()
	req.CreatedAt = now
	req.UpdatedAt = now

	created, err := s.Store.Create(ctx, req)
	if err != nil {
		return req, s.storeFailure("create", 0, err)
	}
	utils.LogEvent(s.logger(), s.RequestID, "request", "create", "transport request created",
		zap.Int64("id", created.ID), zap.String("unit", created.UnitName))
	return created, nil
}

// Get loads a single request.
func (s RequestService) Get(ctx context.Context, id int64) (models.TransportRequest, error) {
	if err := validateID(id); err != nil {
		return models.TransportRequest{}, err
	}
	r, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return r, s.mapStoreError("get", id, err)
	}
	return r, nil
}

// List returns all requests, newest first.
func (s RequestService) List(ctx context.Context) ([]models.TransportRequest, error) {
	out, err := s.Store.List(ctx)
	if err != nil {
		return nil, s.storeFailure("list", 0, err)
	}
	return out, nil
}

// Transition moves a request to rawStatus. Only PENDING→APPROVED, PENDING→REJECTED and
// re-applying a decision are accepted; everything else is a conflict.
func (s RequestService) Transition(ctx context.Context, id int64, rawStatus string) (models.TransportRequest, error) {
	if err := validateID(id); err != nil {
		return models.TransportRequest{}, err
	}
	next, ok := models.ParseStatus(rawStatus)
	if !ok {
		return models.TransportRequest{}, domain.ValidationError{
			Field: "status",
			Msg:   fmt.Sprintf("must be one of %s, %s, %s", models.StatusPending, models.StatusApproved, models.StatusRejected),
		}
	}

	allowed := models.AllowedFrom(next)
	if len(allowed) == 0 {
		current, err := s.Store.GetByID(ctx, id)
		if err != nil {
			return current, s.mapStoreError("transition", id, err)
		}
		return current, domain.ConflictError{
			Resource: resourceTransportRequest,
			Msg:      fmt.Sprintf("cannot change status from %s to %s", current.Status, next),
		}
	}

	updated, err := s.Store.UpdateStatus(ctx, id, allowed, next, s.now())
	if err != nil {
		var mismatch repositories.StatusMismatchError
		if errors.As(err, &mismatch) {
			return updated, domain.ConflictError{
				Resource: resourceTransportRequest,
				Msg:      fmt.Sprintf("cannot change status from %s to %s", mismatch.Current, next),
				Err:      err,
			}
		}
		return updated, s.mapStoreError("transition", id, err)
	}

	utils.LogEvent(s.logger(), s.RequestID, "request", "transition", "transport request status changed",
		zap.Int64("id", id), zap.String("status", string(next)))
	return updated, nil
}

// Remove deletes a request. Dispatchers may delete any request; anonymous requesters must
// present the token issued at creation and the request must still be PENDING.
func (s RequestService) Remove(ctx context.Context, id int64, actor domain.Actor) error {
	if err := validateID(id); err != nil {
		return err
	}

	if actor.IsDispatcher() {
		if err := s.Store.Delete(ctx, id, nil); err != nil {
			return s.mapStoreError("delete", id, err)
		}
		utils.LogEvent(s.logger(), s.RequestID, "request", "delete", "transport request deleted by dispatcher",
			zap.Int64("id", id), zap.String("by", actor.Username))
		return nil
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !tokenMatches(current.RequesterToken, actor.RequesterToken) {
		return domain.UnauthorizedError{Msg: "requester token does not match this request"}
	}
	if !current.IsPending() {
		return domain.ConflictError{Resource: resourceTransportRequest, Msg: "only pending requests can be withdrawn"}
	}

	if err := s.Store.Delete(ctx, id, []models.Status{models.StatusPending}); err != nil {
		if errors.Is(err, repositories.ErrStatusMismatch) {
			return domain.ConflictError{Resource: resourceTransportRequest, Msg: "only pending requests can be withdrawn", Err: err}
		}
		return s.mapStoreError("delete", id, err)
	}
	utils.LogEvent(s.logger(), s.RequestID, "request", "withdraw", "transport request withdrawn by requester",
		zap.Int64("id", id))
	return nil
}

func (s RequestService) mapStoreError(op string, id int64, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return domain.NotFoundError{Resource: resourceTransportRequest, ID: id, Err: err}
	}
	return s.storeFailure(op, id, err)
}

func (s RequestService) storeFailure(op string, id int64, err error) error {
	s.logger().Error("record store failure",
		zap.String("request_id", s.RequestID),
		zap.String("op", op),
		zap.Int64("id", id),
		zap.Error(err),
	)
	return domain.InternalError{Msg: "the request store is unavailable, please try again", Err: err}
}

// ParseID validates a path id the way every operation expects it.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, domain.ValidationError{Field: "id", Msg: "must be a positive integer", Err: err}
	}
	if err := validateID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func validateID(id int64) error {
	if id <= 0 {
		return domain.ValidationError{Field: "id", Msg: "must be a positive integer"}
	}
	return nil
}

func tokenMatches(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
