package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"transportdesk/internal/domain"
	"transportdesk/internal/domain/models"
	"transportdesk/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (RequestService, *fakeClock, *repositories.MemoryStore) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)}
	store := repositories.NewMemoryStore()
	svc := RequestService{
		Store:    store,
		Location: time.UTC,
		Now:      clock.Now,
		NewToken: func() string { return "requester-token" },
	}
	return svc, clock, store
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func validInput() models.CreateInput {
	return models.CreateInput{
		UnitName:      "A",
		PersonnelName: "B",
		PhoneNumber:   "555",
		MissionDate:   strPtr("2025-06-01"),
		MissionTime:   strPtr("10:00"),
		Destination:   strPtr("Clinic"),
	}
}

func TestRequestService_CreateAlwaysPending(t *testing.T) {
	svc, clock, _ := newTestService(t)

	got, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, got.Status)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "2025-06-01", got.MissionDate)
	assert.Equal(t, "10:00", got.MissionTime)
	assert.Equal(t, "Clinic", got.Destination)
	assert.Equal(t, clock.Now(), got.CreatedAt)
	assert.Equal(t, got.CreatedAt, got.UpdatedAt)
	assert.Equal(t, "requester-token", got.RequesterToken)
}

func TestRequestService_CreateFillsDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	got, err := svc.Create(context.Background(), models.CreateInput{UnitName: "A", PersonnelName: "B", PhoneNumber: "555"})
	require.NoError(t, err)

	assert.Equal(t, "", got.Notes)
	assert.Equal(t, "2025-05-30", got.MissionDate)
	assert.False(t, got.WithWheelchair)
	assert.False(t, got.WithStretcher)
}

func TestRequestService_CreateKeepsEquipmentFlags(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput()
	in.WithWheelchair = boolPtr(true)
	in.WithStretcher = boolPtr(true)
	in.Notes = strPtr("oxygen on board")

	got, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, got.WithWheelchair)
	assert.True(t, got.WithStretcher)
	assert.Equal(t, "oxygen on board", got.Notes)
}

func TestRequestService_CreateRequiresFields(t *testing.T) {
	svc, _, store := newTestService(t)

	for _, mutate := range []func(*models.CreateInput){
		func(in *models.CreateInput) { in.UnitName = " " },
		func(in *models.CreateInput) { in.PersonnelName = "" },
		func(in *models.CreateInput) { in.PhoneNumber = "" },
		func(in *models.CreateInput) { in.MissionDate = strPtr("June 1st") },
	} {
		in := validInput()
		mutate(&in)
		_, err := svc.Create(context.Background(), in)
		assert.True(t, domain.IsValidation(err), "got %v", err)
	}

	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRequestService_TransitionUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Transition(context.Background(), 42, "APPROVED")
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestRequestService_TransitionInvalidStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	for _, s := range []string{"", "DONE", "cancelled"} {
		_, err := svc.Transition(context.Background(), created.ID, s)
		assert.True(t, domain.IsValidation(err), "status %q: got %v", s, err)
	}

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestRequestService_TransitionIsIdempotent(t *testing.T) {
	svc, clock, _ := newTestService(t)
	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	first, err := svc.Transition(context.Background(), created.ID, "APPROVED")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	second, err := svc.Transition(context.Background(), created.ID, "APPROVED")
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, second.Status)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, clock.Now(), second.UpdatedAt)
}

func TestRequestService_PendingCannotBeReapplied(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	clock.Advance(time.Minute)

	_, err = svc.Transition(ctx, created.ID, "PENDING")
	assert.True(t, domain.IsConflict(err), "got %v", err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, got.UpdatedAt.Equal(created.UpdatedAt))

	_, err = svc.Transition(ctx, 999, "PENDING")
	assert.True(t, domain.IsNotFound(err), "got %v", err)
}

func TestRequestService_TerminalStatesRejectTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	approved, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.Transition(ctx, approved.ID, "APPROVED")
	require.NoError(t, err)

	_, err = svc.Transition(ctx, approved.ID, "REJECTED")
	assert.True(t, domain.IsConflict(err), "got %v", err)
	_, err = svc.Transition(ctx, approved.ID, "PENDING")
	assert.True(t, domain.IsConflict(err), "got %v", err)

	rejected, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.Transition(ctx, rejected.ID, "rejected")
	require.NoError(t, err)
	_, err = svc.Transition(ctx, rejected.ID, "APPROVED")
	assert.True(t, domain.IsConflict(err), "got %v", err)

	got, err := svc.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestRequestService_ListAfterDelete(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()
	dispatcher := domain.Actor{Username: "admin", Role: domain.RoleDispatcher}

	var ids []int64
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		r, err := svc.Create(ctx, validInput())
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	require.NoError(t, svc.Remove(ctx, ids[2], dispatcher))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}
	for _, r := range list {
		assert.NotEqual(t, ids[2], r.ID)
	}
}

func TestRequestService_DispatcherDeletesAnyStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.Transition(ctx, created.ID, "REJECTED")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, created.ID, domain.Actor{Role: domain.RoleDispatcher}))

	_, err = svc.Get(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(svc.Remove(ctx, created.ID, domain.Actor{Role: domain.RoleDispatcher})))
}

func TestRequestService_RequesterWithdraw(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	err = svc.Remove(ctx, created.ID, domain.Anonymous(""))
	assert.True(t, domain.IsUnauthorized(err), "got %v", err)
	err = svc.Remove(ctx, created.ID, domain.Anonymous("someone-else"))
	assert.True(t, domain.IsUnauthorized(err), "got %v", err)

	require.NoError(t, svc.Remove(ctx, created.ID, domain.Anonymous("requester-token")))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestRequestService_RequesterCannotWithdrawDecided(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.Transition(ctx, created.ID, "APPROVED")
	require.NoError(t, err)

	err = svc.Remove(ctx, created.ID, domain.Anonymous("requester-token"))
	assert.True(t, domain.IsConflict(err), "got %v", err)
}

type failingStore struct {
	repositories.TransportRequestStore
}

func (failingStore) List(context.Context) ([]models.TransportRequest, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Create(_ context.Context, r models.TransportRequest) (models.TransportRequest, error) {
	return r, errors.New("connection refused")
}

func TestRequestService_StoreFailureIsInternal(t *testing.T) {
	svc := RequestService{Store: failingStore{}}

	_, err := svc.List(context.Background())
	assert.True(t, domain.IsInternal(err))

	_, err = svc.Create(context.Background(), validInput())
	assert.True(t, domain.IsInternal(err))
}

func TestParseID(t *testing.T) {
	id, err := ParseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, raw := range []string{"", "abc", "0", "-3"} {
		_, err := ParseID(raw)
		assert.True(t, domain.IsValidation(err), raw)
	}
}
