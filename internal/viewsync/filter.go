package viewsync

import (
	"fmt"
	"strings"

	"transportdesk/internal/domain/models"
)

// Tab selects which part of the list a screen shows.
type Tab string

const (
	TabAll      Tab = "all"
	TabPending  Tab = "pending"
	TabApproved Tab = "approved"
	TabRejected Tab = "rejected"
	// TabHistory shows every decided request.
	TabHistory Tab = "history"
)

// ParseTab accepts a tab name case-insensitively.
func ParseTab(s string) (Tab, error) {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabAll, TabPending, TabApproved, TabRejected, TabHistory:
		return t, nil
	case "":
		return TabAll, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// Apply filters list for the tab, keeping order.
func (t Tab) Apply(list []models.TransportRequest) []models.TransportRequest {
	switch t {
	case TabPending:
		return ByStatus(list, models.StatusPending)
	case TabApproved:
		return ByStatus(list, models.StatusApproved)
	case TabRejected:
		return ByStatus(list, models.StatusRejected)
	case TabHistory:
		return History(list)
	default:
		return cloneRequests(list)
	}
}

func Pending(list []models.TransportRequest) []models.TransportRequest {
	return ByStatus(list, models.StatusPending)
}

// History returns approved and rejected requests.
func History(list []models.TransportRequest) []models.TransportRequest {
	return filter(list, func(r models.TransportRequest) bool { return r.Status.Terminal() })
}

func ByStatus(list []models.TransportRequest, status models.Status) []models.TransportRequest {
	return filter(list, func(r models.TransportRequest) bool { return r.Status == status })
}

func filter(list []models.TransportRequest, keep func(models.TransportRequest) bool) []models.TransportRequest {
	out := make([]models.TransportRequest, 0, len(list))
	for _, r := range list {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
