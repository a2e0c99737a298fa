package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transportdesk/internal/domain/models"
)

var (
	ErrNotFound       = errors.New("transport request not found")
	ErrStatusMismatch = errors.New("transport request status mismatch")
)

// StatusMismatchError is returned when a conditional write finds the record in a status
// outside the allowed set.
type StatusMismatchError struct {
	ID      int64
	Current models.Status
}

func (e StatusMismatchError) Error() string {
	return fmt.Sprintf("transport request %d is %s", e.ID, e.Current)
}

func (e StatusMismatchError) Is(target error) bool { return target == ErrStatusMismatch }

// TransportRequestStore is the durable record store. Every method is atomic per record.
type TransportRequestStore interface {
	// Create persists r and returns it with the assigned id.
	Create(ctx context.Context, r models.TransportRequest) (models.TransportRequest, error)
	GetByID(ctx context.Context, id int64) (models.TransportRequest, error)
	// List returns every record, newest creation first.
	List(ctx context.Context) ([]models.TransportRequest, error)
	// UpdateStatus sets status and updated_at only when the current status is in allowed.
	UpdateStatus(ctx context.Context, id int64, allowed []models.Status, to models.Status, at time.Time) (models.TransportRequest, error)
	// Delete removes the record; a nil allowed set deletes regardless of status.
	Delete(ctx context.Context, id int64, allowed []models.Status) error
	Ping(ctx context.Context) error
}

func statusIn(s models.Status, allowed []models.Status) bool {
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}
