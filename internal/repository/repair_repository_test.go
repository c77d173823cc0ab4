package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/testutil"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedTicket(t *testing.T, database *gorm.DB, equipmentID uint, userID *uint, requested time.Time) *models.RepairTicket {
	t.Helper()
	ticket := &models.RepairTicket{
		EquipmentID:        equipmentID,
		UserID:             userID,
		ReporterName:       "Walk-in",
		ProblemDescription: "Screen broken",
		RequestDate:        requested,
		Status:             models.TicketStatusPending,
	}
	require.NoError(t, NewRepairRepository(database).Create(context.Background(), ticket))
	return ticket
}

func TestRepairRepository_UpdateStatusStampsAcceptedOnce(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)
	ctx := context.Background()

	eq := testutil.SeedEquipment(t, database, "EQ-001", "Monitor", "Display")
	ticket := seedTicket(t, database, eq.ID, nil, t0)

	t1 := t0.Add(time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, StatusChange{Status: models.TicketStatusInProgress, At: t1}))
	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, StatusChange{Status: models.TicketStatusInProgress, At: t1.Add(time.Hour)}))

	got, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusInProgress, got.Status)
	require.NotNil(t, got.AcceptedDate)
	assert.WithinDuration(t, t1, *got.AcceptedDate, time.Second)
	assert.Nil(t, got.CompletedDate)
}

func TestRepairRepository_UpdateStatusCompletedRefreshesTimestamp(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)
	ctx := context.Background()

	eq := testutil.SeedEquipment(t, database, "EQ-001", "Monitor", "Display")
	ticket := seedTicket(t, database, eq.ID, nil, t0)

	first := t0.Add(2 * time.Hour)
	second := t0.Add(5 * time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, StatusChange{Status: models.TicketStatusCompleted, At: first}))
	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, StatusChange{Status: models.TicketStatusCompleted, At: second}))

	got, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompletedDate)
	assert.WithinDuration(t, second, *got.CompletedDate, time.Second)
	assert.Nil(t, got.AcceptedDate, "completing directly must not invent an accepted date")
}

func TestRepairRepository_UpdateStatusLeavesOtherColumns(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)
	ctx := context.Background()

	eq := testutil.SeedEquipment(t, database, "EQ-001", "Monitor", "Display")
	alice := testutil.SeedUser(t, database, "alice", models.RoleUser)
	tech := testutil.SeedUser(t, database, "tom", models.RoleTechnician)
	ticket := &models.RepairTicket{
		EquipmentID:        eq.ID,
		UserID:             &alice.ID,
		ReporterName:       "Alice",
		ReporterLocation:   "Room 12",
		ReporterContact:    "alice@example.com",
		ProblemDescription: "Screen broken",
		RequestDate:        t0,
		Status:             models.TicketStatusPending,
		TechnicianID:       &tech.ID,
	}
	require.NoError(t, repo.Create(ctx, ticket))

	notes := "Replaced panel"
	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, StatusChange{Status: models.TicketStatusInProgress, SolutionNotes: &notes, At: t0.Add(time.Hour)}))
	require.NoError(t, repo.UpdateStatus(ctx, ticket.ID, StatusChange{Status: models.TicketStatusCompleted, At: t0.Add(2 * time.Hour)}))

	got, err := repo.FindByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SolutionNotes)
	assert.Equal(t, "Replaced panel", *got.SolutionNotes)
	require.NotNil(t, got.TechnicianID)
	assert.Equal(t, tech.ID, *got.TechnicianID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, alice.ID, *got.UserID)
	assert.Equal(t, "Alice", got.ReporterName)
	assert.Equal(t, "Room 12", got.ReporterLocation)
	assert.Equal(t, "alice@example.com", got.ReporterContact)
	assert.Equal(t, "Screen broken", got.ProblemDescription)
	assert.WithinDuration(t, t0, got.RequestDate, time.Second)
	assert.Equal(t, eq.ID, got.EquipmentID)
}

func TestRepairRepository_UpdateStatusUnknownTicket(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)

	err := repo.UpdateStatus(context.Background(), 999, StatusChange{Status: models.TicketStatusCompleted, At: t0})
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestRepairRepository_ListFiltersAndOrder(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)
	ctx := context.Background()

	eq := testutil.SeedEquipment(t, database, "EQ-001", "Monitor", "Display")
	other := testutil.SeedEquipment(t, database, "EQ-002", "Printer", "Printer")
	alice := testutil.SeedUser(t, database, "alice", models.RoleUser)

	older := seedTicket(t, database, eq.ID, &alice.ID, t0)
	newer := seedTicket(t, database, other.ID, nil, t0.Add(time.Hour))
	require.NoError(t, repo.UpdateStatus(ctx, newer.ID, StatusChange{Status: models.TicketStatusInProgress, At: t0.Add(2 * time.Hour)}))

	all, err := repo.List(ctx, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, "EQ-002", all[0].AssetNumber)
	assert.Equal(t, "Walk-in", all[0].RequestUser)
	assert.Equal(t, "Alice", all[1].RequestUser)

	mine, err := repo.List(ctx, TicketFilter{UserID: &alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, older.ID, mine[0].ID)

	pending, err := repo.List(ctx, TicketFilter{Status: models.TicketStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, older.ID, pending[0].ID)

	history, err := repo.List(ctx, TicketFilter{EquipmentID: other.ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Printer", history[0].EquipmentName)
}

func TestRepairRepository_CompletedTicketsRequireBothTimestamps(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)
	ctx := context.Background()

	eq := testutil.SeedEquipment(t, database, "EQ-001", "Monitor", "Display")
	full := seedTicket(t, database, eq.ID, nil, t0)
	require.NoError(t, repo.UpdateStatus(ctx, full.ID, StatusChange{Status: models.TicketStatusInProgress, At: t0.Add(time.Hour)}))
	require.NoError(t, repo.UpdateStatus(ctx, full.ID, StatusChange{Status: models.TicketStatusCompleted, At: t0.Add(3 * time.Hour)}))

	skipped := seedTicket(t, database, eq.ID, nil, t0)
	require.NoError(t, repo.UpdateStatus(ctx, skipped.ID, StatusChange{Status: models.TicketStatusCompleted, At: t0.Add(time.Hour)}))

	seedTicket(t, database, eq.ID, nil, t0)

	rows, err := repo.CompletedTickets(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Display", rows[0].EquipmentType)
	assert.WithinDuration(t, t0.Add(time.Hour), rows[0].AcceptedDate, time.Second)
	assert.WithinDuration(t, t0.Add(3*time.Hour), rows[0].CompletedDate, time.Second)
}

func TestRepairRepository_DeleteAndCount(t *testing.T) {
	database := testutil.NewDB(t)
	repo := NewRepairRepository(database)
	ctx := context.Background()

	eq := testutil.SeedEquipment(t, database, "EQ-001", "Monitor", "Display")
	ticket := seedTicket(t, database, eq.ID, nil, t0)

	n, err := repo.CountByEquipment(ctx, eq.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, ticket.ID))
	assert.True(t, apperrors.IsNotFoundError(repo.Delete(ctx, ticket.ID)))

	_, err = repo.GetView(ctx, ticket.ID)
	assert.True(t, apperrors.IsNotFoundError(err))
}
