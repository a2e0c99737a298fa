package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a transport request.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// MissionDateLayout is the calendar date format used for mission dates.
const MissionDateLayout = "2006-01-02"

// ParseStatus normalizes s and reports whether it is one of the known statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal statuses accept no further decision.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether a request in status s may move to next.
// Re-applying a decision is allowed so repeated decisions are idempotent.
func (s Status) CanTransition(next Status) bool {
	if !s.Valid() || !next.Valid() || !next.Terminal() {
		return false
	}
	return s == StatusPending || s == next
}

// AllowedFrom lists the statuses a request may be in to move to next.
func AllowedFrom(next Status) []Status {
	out := make([]Status, 0, 2)
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// TransportRequest is a request for vehicle dispatch.
type TransportRequest struct {
	ID             int64     `json:"id"`
	UnitName       string    `json:"unitName"`
	PersonnelName  string    `json:"personnelName"`
	PhoneNumber    string    `json:"phoneNumber"`
	Notes          string    `json:"notes"`
	MissionDate    string    `json:"missionDate"`
	MissionTime    string    `json:"missionTime"`
	Destination    string    `json:"destination"`
	WithWheelchair bool      `json:"withWheelchair"`
	WithStretcher  bool      `json:"withStretcher"`
	Status         Status    `json:"status"`
	RequesterToken string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (r TransportRequest) IsPending() bool {
	return r.Status == StatusPending
}

// CreateInput carries the submitted fields of a new request. Pointer fields are optional.
type CreateInput struct {
	UnitName       string
	PersonnelName  string
	PhoneNumber    string
	Notes          *string
	MissionDate    *string
	MissionTime    *string
	Destination    *string
	WithWheelchair *bool
	WithStretcher  *bool
}
