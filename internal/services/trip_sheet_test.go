package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"transportdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripSheet_ApprovedRequest(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	in := validInput()
	in.Notes = strPtr("Patient needs oxygen; çift kisi")
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, created.ID, "APPROVED")
	require.NoError(t, err)

	pdf, filename, err := svc.TripSheet(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.True(t, strings.HasPrefix(filename, "TRIP_SHEET_"))
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
}

func TestTripSheet_PendingRequestConflicts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	_, _, err = svc.TripSheet(ctx, created.ID)
	assert.True(t, domain.IsConflict(err), "got %v", err)

	_, _, err = svc.TripSheet(ctx, created.ID+100)
	assert.True(t, domain.IsNotFound(err))
}
