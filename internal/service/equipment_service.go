package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/mq"
	"github.com/example/assetdesk/internal/repository"
	"github.com/example/assetdesk/internal/transfer"
)

// EquipmentInput is the editable part of an equipment record.
type EquipmentInput struct {
	AssetNumber string `validate:"required,max=64"`
	Name        string `validate:"required,max=255"`
	Type        string `validate:"max=128"`
	Location    string `validate:"max=255"`
	Status      models.EquipmentStatus
}

// ListEquipmentQuery pages through the registry. Page or Limit below 1 lists everything.
type ListEquipmentQuery struct {
	Page   int
	Limit  int
	Search string
}

type Pagination struct {
	Page       int   `json:"page,omitempty"`
	Limit      int   `json:"limit,omitempty"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

type EquipmentPage struct {
	Data       []models.Equipment `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// EquipmentDetails is the public projection used to prefill the QR report form.
type EquipmentDetails struct {
	AssetNumber string                 `json:"assetNumber"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Location    string                 `json:"location"`
	Status      models.EquipmentStatus `json:"status"`
}

type EquipmentHistory struct {
	Details *models.Equipment   `json:"details"`
	History []models.TicketView `json:"history"`
}

// EquipmentService manages the equipment registry and its bulk transfer.
type EquipmentService struct {
	equipment   *repository.EquipmentRepository
	tickets     *repository.RepairRepository
	tx          *db.TransactionManager
	mq          mq.Publisher
	validate    *validator.Validate
	maxPageSize int
	log         *slog.Logger
}

func NewEquipmentService(equipment *repository.EquipmentRepository, tickets *repository.RepairRepository, tx *db.TransactionManager, publisher mq.Publisher, maxPageSize int, log *slog.Logger) *EquipmentService {
	return &EquipmentService{
		equipment:   equipment,
		tickets:     tickets,
		tx:          tx,
		mq:          publisher,
		validate:    validator.New(),
		maxPageSize: maxPageSize,
		log:         log,
	}
}

func (s *EquipmentService) normalize(in EquipmentInput) (EquipmentInput, error) {
	in.AssetNumber = strings.TrimSpace(in.AssetNumber)
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.TrimSpace(in.Type)
	in.Location = strings.TrimSpace(in.Location)
	if in.Status == "" {
		in.Status = models.EquipmentStatusNormal
	}
	if err := s.validate.Struct(in); err != nil {
		return in, apperrors.NewValidationError("invalid equipment data: assetNumber and name are required", err.Error())
	}
	if !in.Status.Valid() {
		return in, apperrors.NewValidationError("invalid equipment status", string(in.Status))
	}
	return in, nil
}

func (s *EquipmentService) Create(ctx context.Context, in EquipmentInput) (*models.Equipment, error) {
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	eq := &models.Equipment{
		AssetNumber: in.AssetNumber,
		Name:        in.Name,
		Type:        in.Type,
		Location:    in.Location,
		Status:      in.Status,
	}
	if err := s.equipment.Create(ctx, eq); err != nil {
		return nil, err
	}
	return eq, nil
}

func (s *EquipmentService) Update(ctx context.Context, id uint, in EquipmentInput) (*models.Equipment, error) {
	in, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	eq := &models.Equipment{
		ID:          id,
		AssetNumber: in.AssetNumber,
		Name:        in.Name,
		Type:        in.Type,
		Location:    in.Location,
		Status:      in.Status,
	}
	if err := s.equipment.Update(ctx, eq); err != nil {
		return nil, err
	}
	return s.equipment.FindByID(ctx, id)
}

// Delete removes equipment that no ticket references.
func (s *EquipmentService) Delete(ctx context.Context, id uint) error {
	if _, err := s.equipment.FindByID(ctx, id); err != nil {
		return err
	}
	n, err := s.tickets.CountByEquipment(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperrors.NewConflictError("equipment has repair history", fmt.Sprintf("%d tickets", n))
	}
	return s.equipment.Delete(ctx, id)
}

func (s *EquipmentService) Get(ctx context.Context, id uint) (*models.Equipment, error) {
	return s.equipment.FindByID(ctx, id)
}

// List returns one page when both Page and Limit are positive, else every record.
func (s *EquipmentService) List(ctx context.Context, q ListEquipmentQuery) (*EquipmentPage, error) {
	if q.Page < 1 || q.Limit < 1 {
		rows, total, err := s.equipment.List(ctx, repository.EquipmentQuery{Search: q.Search})
		if err != nil {
			return nil, err
		}
		return &EquipmentPage{Data: rows, Pagination: Pagination{TotalItems: total, TotalPages: 1}}, nil
	}

	limit := q.Limit
	if s.maxPageSize > 0 && limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	// Pages past the addressable range saturate instead of wrapping to a negative offset.
	offset := math.MaxInt
	if q.Page-1 <= math.MaxInt/limit {
		offset = (q.Page - 1) * limit
	}
	rows, total, err := s.equipment.List(ctx, repository.EquipmentQuery{
		Search: q.Search,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return &EquipmentPage{
		Data: rows,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: TotalPages(total, limit),
		},
	}, nil
}

// TotalPages is ceil(total/limit), never less than one.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

func (s *EquipmentService) Details(ctx context.Context, assetNumber string) (*EquipmentDetails, error) {
	eq, err := s.equipment.FindByAssetNumber(ctx, strings.TrimSpace(assetNumber))
	if err != nil {
		return nil, err
	}
	return &EquipmentDetails{
		AssetNumber: eq.AssetNumber,
		Name:        eq.Name,
		Type:        eq.Type,
		Location:    eq.Location,
		Status:      eq.Status,
	}, nil
}

// History returns the record and its tickets, newest first.
func (s *EquipmentService) History(ctx context.Context, assetNumber string) (*EquipmentHistory, error) {
	eq, err := s.equipment.FindByAssetNumber(ctx, strings.TrimSpace(assetNumber))
	if err != nil {
		return nil, err
	}
	history, err := s.tickets.List(ctx, repository.TicketFilter{EquipmentID: eq.ID})
	if err != nil {
		return nil, err
	}
	return &EquipmentHistory{Details: eq, History: history}, nil
}

// Import upserts every row by asset number inside one transaction; any invalid row or storage
// failure rolls the whole batch back.
func (s *EquipmentService) Import(ctx context.Context, rows []transfer.ImportRow) (int, error) {
	if len(rows) == 0 {
		return 0, apperrors.NewValidationError("CSV file is empty")
	}

	err := s.tx.RunInTransaction(ctx, func(ctx context.Context) error {
		for i, row := range rows {
			in, err := s.normalize(EquipmentInput{
				AssetNumber: row.AssetNumber,
				Name:        row.Name,
				Type:        row.Type,
				Location:    row.Location,
				Status:      models.EquipmentStatus(row.Status),
			})
			if err != nil {
				appErr := apperrors.GetAppError(err)
				return apperrors.NewValidationError(fmt.Sprintf("row %d: %s", i+2, appErr.Message), appErr.Details)
			}
			if err := s.equipment.Upsert(ctx, &models.Equipment{
				AssetNumber: in.AssetNumber,
				Name:        in.Name,
				Type:        in.Type,
				Location:    in.Location,
				Status:      in.Status,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("equipment import rolled back", "rows", len(rows), "error", err)
		return 0, err
	}

	if s.mq != nil {
		if err := s.mq.Publish(ctx, mq.EventEquipmentImported, map[string]any{"event": mq.EventEquipmentImported, "rows": len(rows)}); err != nil {
			s.log.Warn("publish event failed", "event", mq.EventEquipmentImported, "error", err)
		}
	}
	return len(rows), nil
}

// Export returns every record in id order.
func (s *EquipmentService) Export(ctx context.Context) ([]models.Equipment, error) {
	return s.equipment.All(ctx)
}
