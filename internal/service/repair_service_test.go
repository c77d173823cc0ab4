package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/logger"
	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/mq"
	"github.com/example/assetdesk/internal/notify"
	"github.com/example/assetdesk/internal/repository"
	"github.com/example/assetdesk/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routingKey)
	return p.err
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type chanNotifier chan notify.RepairNotice

func (c chanNotifier) Notify(_ context.Context, n notify.RepairNotice) error {
	c <- n
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, notify.RepairNotice) error {
	return errors.New("telegram down")
}

type repairFixture struct {
	db        *gorm.DB
	clock     *testutil.FixedClock
	publisher *recordingPublisher
	svc       *RepairService
}

func newRepairFixture(t *testing.T, notifier notify.Notifier) *repairFixture {
	t.Helper()
	database := testutil.NewDB(t)
	clock := testutil.NewFixedClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	publisher := &recordingPublisher{}
	svc := NewRepairService(
		repository.NewRepairRepository(database),
		repository.NewEquipmentRepository(database),
		publisher,
		notifier,
		clock.Now,
		logger.Discard(),
	)
	return &repairFixture{db: database, clock: clock, publisher: publisher, svc: svc}
}

func publicInput(asset string) CreateTicketInput {
	return CreateTicketInput{
		AssetNumber:        asset,
		ProblemDescription: "Screen broken",
		ReporterName:       "Dana",
		ReporterLocation:   "Room 12",
		ReporterContact:    "555-0100",
	}
}

func TestRepairService_StatusLifecycle(t *testing.T) {
	f := newRepairFixture(t, nil)
	ctx := context.Background()
	testutil.SeedEquipment(t, f.db, "EQ-001", "Monitor", "Display")

	ticket, err := f.svc.CreateTicket(ctx, publicInput("EQ-001"))
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusPending, ticket.Status)
	assert.Nil(t, ticket.AcceptedDate)
	assert.Nil(t, ticket.CompletedDate)

	f.clock.Advance(30 * time.Minute)
	t1 := f.clock.Now()
	view, err := f.svc.UpdateStatus(ctx, ticket.ID, UpdateStatusInput{Status: models.TicketStatusInProgress})
	require.NoError(t, err)
	require.NotNil(t, view.AcceptedDate)
	assert.WithinDuration(t, t1, *view.AcceptedDate, time.Second)

	f.clock.Advance(time.Hour)
	view, err = f.svc.UpdateStatus(ctx, ticket.ID, UpdateStatusInput{Status: models.TicketStatusInProgress})
	require.NoError(t, err)
	assert.WithinDuration(t, t1, *view.AcceptedDate, time.Second)

	f.clock.Advance(time.Hour)
	t2 := f.clock.Now()
	notes := "Replaced cable"
	view, err = f.svc.UpdateStatus(ctx, ticket.ID, UpdateStatusInput{Status: models.TicketStatusCompleted, SolutionNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusCompleted, view.Status)
	require.NotNil(t, view.CompletedDate)
	assert.WithinDuration(t, t2, *view.CompletedDate, time.Second)
	assert.False(t, view.CompletedDate.Before(*view.AcceptedDate))
	require.NotNil(t, view.SolutionNotes)
	assert.Equal(t, notes, *view.SolutionNotes)

	assert.Equal(t, []string{
		mq.EventRepairCreated,
		mq.EventRepairStatusChanged,
		mq.EventRepairStatusChanged,
		mq.EventRepairStatusChanged,
	}, f.publisher.Events())
}

func TestRepairService_CreateTicketUnknownAsset(t *testing.T) {
	f := newRepairFixture(t, nil)

	_, err := f.svc.CreateTicket(context.Background(), publicInput("NOPE"))
	assert.True(t, apperrors.IsNotFoundError(err))

	var n int64
	require.NoError(t, f.db.Model(&models.RepairTicket{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, f.publisher.Events())
}

func TestRepairService_CreateTicketValidation(t *testing.T) {
	f := newRepairFixture(t, nil)
	ctx := context.Background()
	testutil.SeedEquipment(t, f.db, "EQ-001", "Monitor", "Display")

	tests := []struct {
		name  string
		input CreateTicketInput
	}{
		{"missing asset number", CreateTicketInput{ProblemDescription: "x", ReporterName: "a", ReporterLocation: "b", ReporterContact: "c"}},
		{"blank problem", CreateTicketInput{AssetNumber: "EQ-001", ProblemDescription: "   ", ReporterName: "a", ReporterLocation: "b", ReporterContact: "c"}},
		{"public without contact", CreateTicketInput{AssetNumber: "EQ-001", ProblemDescription: "x", ReporterName: "a", ReporterLocation: "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateTicket(ctx, tt.input)
			assert.True(t, apperrors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestRepairService_AuthenticatedTicketSkipsReporterFields(t *testing.T) {
	f := newRepairFixture(t, nil)
	ctx := context.Background()
	testutil.SeedEquipment(t, f.db, "EQ-001", "Monitor", "Display")
	alice := testutil.SeedUser(t, f.db, "alice", models.RoleUser)

	ticket, err := f.svc.CreateTicket(ctx, CreateTicketInput{
		AssetNumber:        "EQ-001",
		ProblemDescription: "Flickers",
		ReporterName:       alice.FullName,
		UserID:             &alice.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.UserID)
	assert.Equal(t, alice.ID, *ticket.UserID)
	assert.Empty(t, ticket.ReporterLocation)
}

func TestRepairService_NotifiesStaffAsynchronously(t *testing.T) {
	notices := make(chanNotifier, 1)
	f := newRepairFixture(t, notices)
	testutil.SeedEquipment(t, f.db, "EQ-001", "Monitor", "Display")

	ticket, err := f.svc.CreateTicket(context.Background(), publicInput("EQ-001"))
	require.NoError(t, err)

	select {
	case n := <-notices:
		assert.Equal(t, ticket.ID, n.TicketID)
		assert.Equal(t, "EQ-001", n.AssetNumber)
		assert.Equal(t, "Monitor", n.AssetName)
		assert.Equal(t, "Room 12", n.ReporterLocation)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not dispatched")
	}
}

func TestRepairService_SideChannelFailuresDoNotFailCreate(t *testing.T) {
	f := newRepairFixture(t, failingNotifier{})
	f.publisher.err = errors.New("broker down")
	testutil.SeedEquipment(t, f.db, "EQ-001", "Monitor", "Display")

	ticket, err := f.svc.CreateTicket(context.Background(), publicInput("EQ-001"))
	require.NoError(t, err)
	assert.NotZero(t, ticket.ID)
}

func TestRepairService_UpdateStatusErrors(t *testing.T) {
	f := newRepairFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, 1, UpdateStatusInput{Status: "Closed"})
	assert.True(t, apperrors.IsValidationError(err))

	_, err = f.svc.UpdateStatus(ctx, 404, UpdateStatusInput{Status: models.TicketStatusCompleted})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestRepairService_ListTicketsScopesPlainUsers(t *testing.T) {
	f := newRepairFixture(t, nil)
	ctx := context.Background()
	testutil.SeedEquipment(t, f.db, "EQ-001", "Monitor", "Display")
	alice := testutil.SeedUser(t, f.db, "alice", models.RoleUser)
	tech := testutil.SeedUser(t, f.db, "tom", models.RoleTechnician)

	_, err := f.svc.CreateTicket(ctx, CreateTicketInput{AssetNumber: "EQ-001", ProblemDescription: "a", ReporterName: "Alice", UserID: &alice.ID})
	require.NoError(t, err)
	_, err = f.svc.CreateTicket(ctx, publicInput("EQ-001"))
	require.NoError(t, err)

	mine, err := f.svc.ListTickets(ctx, Actor{UserID: alice.ID, Role: models.RoleUser}, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Alice", mine[0].RequestUser)

	all, err := f.svc.ListTickets(ctx, Actor{UserID: tech.ID, Role: models.RoleTechnician}, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListTickets(ctx, Actor{UserID: tech.ID, Role: models.RoleTechnician}, "Closed")
	assert.True(t, apperrors.IsValidationError(err))
}
