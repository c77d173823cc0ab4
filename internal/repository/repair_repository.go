package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/models"
)

const ticketViewColumns = `rr.id, rr.equipment_id, rr.user_id, e.asset_number, e.name AS equipment_name,
	rr.problem_description, rr.request_date, rr.accepted_date, rr.completed_date, rr.status,
	rr.reporter_location, rr.reporter_contact, rr.solution_notes,
	COALESCE(u.full_name, rr.reporter_name, 'N/A') AS request_user`

// TicketFilter narrows ticket listings. Zero values mean "any".
type TicketFilter struct {
	UserID      *uint
	EquipmentID uint
	Status      models.TicketStatus
}

// CompletedTicket carries the timestamps of one completed ticket for duration statistics.
type CompletedTicket struct {
	EquipmentType string
	RequestDate   time.Time
	AcceptedDate  time.Time
	CompletedDate time.Time
}

// RepairRepository provides persistence access for repair tickets.
type RepairRepository struct {
	db *gorm.DB
}

// NewRepairRepository constructs a repository using the provided gorm DB.
func NewRepairRepository(db *gorm.DB) *RepairRepository {
	return &RepairRepository{db: db}
}

func (r *RepairRepository) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db)
}

// Create persists the ticket instance.
func (r *RepairRepository) Create(ctx context.Context, ticket *models.RepairTicket) error {
	return errors.WithStack(r.conn(ctx).Create(ticket).Error)
}

// FindByID returns the raw ticket row by id.
func (r *RepairRepository) FindByID(ctx context.Context, id uint) (*models.RepairTicket, error) {
	var ticket models.RepairTicket
	if err := r.conn(ctx).First(&ticket, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("repair ticket not found")
		}
		return nil, errors.WithStack(err)
	}
	return &ticket, nil
}

func (r *RepairRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.conn(ctx).
		Table("repair_requests rr").
		Select(ticketViewColumns).
		Joins("JOIN equipment e ON rr.equipment_id = e.id").
		Joins("LEFT JOIN users u ON rr.user_id = u.id")
}

// GetView returns the ticket joined with its equipment and reporter.
func (r *RepairRepository) GetView(ctx context.Context, id uint) (*models.TicketView, error) {
	var views []models.TicketView
	if err := r.viewQuery(ctx).Where("rr.id = ?", id).Limit(1).Scan(&views).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	if len(views) == 0 {
		return nil, apperrors.NewNotFoundError("repair ticket not found")
	}
	return &views[0], nil
}

// List returns tickets matching the filter ordered by request date descending.
func (r *RepairRepository) List(ctx context.Context, filter TicketFilter) ([]models.TicketView, error) {
	q := r.viewQuery(ctx)
	if filter.UserID != nil {
		q = q.Where("rr.user_id = ?", *filter.UserID)
	}
	if filter.EquipmentID != 0 {
		q = q.Where("rr.equipment_id = ?", filter.EquipmentID)
	}
	if filter.Status != "" {
		q = q.Where("rr.status = ?", filter.Status)
	}
	views := []models.TicketView{}
	err := q.Order("rr.request_date DESC").Order("rr.id DESC").Scan(&views).Error
	return views, errors.WithStack(err)
}

// StatusChange is one transition applied by UpdateStatus. A nil SolutionNotes leaves the column as is.
type StatusChange struct {
	Status        models.TicketStatus
	SolutionNotes *string
	At            time.Time
}

// UpdateStatus applies a status change in a single statement. Entering In Progress stamps
// accepted_date only when it is still NULL; entering Completed always stamps completed_date.
// Reporter fields, the description, request_date and technician_id are never written here.
func (r *RepairRepository) UpdateStatus(ctx context.Context, id uint, change StatusChange) error {
	updates := map[string]any{"status": change.Status}
	switch change.Status {
	case models.TicketStatusInProgress:
		updates["accepted_date"] = gorm.Expr("COALESCE(accepted_date, ?)", change.At)
	case models.TicketStatusCompleted:
		updates["completed_date"] = change.At
	}
	if change.SolutionNotes != nil {
		updates["solution_notes"] = *change.SolutionNotes
	}

	res := r.conn(ctx).Model(&models.RepairTicket{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		// mysql reports zero affected rows when nothing changed, so confirm the row is really absent.
		return r.ensureExists(ctx, id)
	}
	return nil
}

// Delete removes a ticket.
func (r *RepairRepository) Delete(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.RepairTicket{}, id)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("repair ticket not found")
	}
	return nil
}

// CountByEquipment returns how many tickets reference the equipment.
func (r *RepairRepository) CountByEquipment(ctx context.Context, equipmentID uint) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.RepairTicket{}).Where("equipment_id = ?", equipmentID).Count(&n).Error
	return n, errors.WithStack(err)
}

// CompletedTickets returns completed tickets that carry both accepted and completed timestamps.
func (r *RepairRepository) CompletedTickets(ctx context.Context) ([]CompletedTicket, error) {
	rows := []CompletedTicket{}
	err := r.conn(ctx).
		Table("repair_requests rr").
		Select("COALESCE(e.type, '') AS equipment_type, rr.request_date, rr.accepted_date, rr.completed_date").
		Joins("JOIN equipment e ON rr.equipment_id = e.id").
		Where("rr.status = ? AND rr.accepted_date IS NOT NULL AND rr.completed_date IS NOT NULL", models.TicketStatusCompleted).
		Scan(&rows).Error
	return rows, errors.WithStack(err)
}

func (r *RepairRepository) ensureExists(ctx context.Context, id uint) error {
	var n int64
	if err := r.conn(ctx).Model(&models.RepairTicket{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return apperrors.NewNotFoundError("repair ticket not found")
	}
	return nil
}
