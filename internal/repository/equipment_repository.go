package repository

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/models"
)

// EquipmentQuery describes a listing request. Limit <= 0 returns every matching row.
type EquipmentQuery struct {
	Search string
	Offset int
	Limit  int
}

// StatusCount is one row of a GROUP BY status aggregate.
type StatusCount struct {
	Status models.EquipmentStatus `json:"status"`
	Count  int64                  `json:"count"`
}

// TypeCount is one row of a GROUP BY type aggregate.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// EquipmentRepository provides persistence access for equipment records.
type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

func (r *EquipmentRepository) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db)
}

func duplicateAsset(err error) error {
	if apperrors.IsDuplicateError(err) {
		return apperrors.NewConflictError("asset number already exists")
	}
	return errors.WithStack(err)
}

func (r *EquipmentRepository) Create(ctx context.Context, eq *models.Equipment) error {
	if err := r.conn(ctx).Create(eq).Error; err != nil {
		return duplicateAsset(err)
	}
	return nil
}

// Update overwrites every editable column of the record identified by eq.ID.
func (r *EquipmentRepository) Update(ctx context.Context, eq *models.Equipment) error {
	res := r.conn(ctx).Model(&models.Equipment{}).Where("id = ?", eq.ID).Updates(map[string]any{
		"asset_number": eq.AssetNumber,
		"name":         eq.Name,
		"type":         eq.Type,
		"location":     eq.Location,
		"status":       eq.Status,
		"updated_at":   time.Now(),
	})
	if res.Error != nil {
		return duplicateAsset(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("equipment not found")
	}
	return nil
}

// Upsert inserts the record or, when the asset number already exists, updates it in place.
func (r *EquipmentRepository) Upsert(ctx context.Context, eq *models.Equipment) error {
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "type", "location", "status", "updated_at"}),
	}).Create(eq).Error
	return errors.WithStack(err)
}

func (r *EquipmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.Equipment{}, id)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("equipment not found")
	}
	return nil
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id uint) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.conn(ctx).First(&eq, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("equipment not found")
		}
		return nil, errors.WithStack(err)
	}
	return &eq, nil
}

func (r *EquipmentRepository) FindByAssetNumber(ctx context.Context, assetNumber string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.conn(ctx).Where("asset_number = ?", assetNumber).First(&eq).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("equipment not found")
		}
		return nil, errors.WithStack(err)
	}
	return &eq, nil
}

// likeEscaper quotes LIKE wildcards with '!'; a backslash literal parses differently on mysql.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// List returns one page of equipment, newest first, with the total count of matching rows.
// Search matches a case-insensitive literal substring of the asset number or name.
func (r *EquipmentRepository) List(ctx context.Context, q EquipmentQuery) ([]models.Equipment, int64, error) {
	base := r.conn(ctx).Model(&models.Equipment{})
	if term := strings.TrimSpace(q.Search); term != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		base = base.Where("LOWER(asset_number) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!'", like, like)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}

	rows := []models.Equipment{}
	if q.Limit > 0 && int64(q.Offset) >= total {
		return rows, total, nil
	}
	find := base.Session(&gorm.Session{}).Order("id DESC")
	if q.Limit > 0 {
		find = find.Limit(q.Limit).Offset(q.Offset)
	}
	if err := find.Find(&rows).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return rows, total, nil
}

// All returns every record in id order, for export.
func (r *EquipmentRepository) All(ctx context.Context) ([]models.Equipment, error) {
	rows := []models.Equipment{}
	err := r.conn(ctx).Order("id ASC").Find(&rows).Error
	return rows, errors.WithStack(err)
}

func (r *EquipmentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.conn(ctx).Model(&models.Equipment{}).Count(&n).Error
	return n, errors.WithStack(err)
}

func (r *EquipmentRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	rows := []StatusCount{}
	err := r.conn(ctx).Model(&models.Equipment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, errors.WithStack(err)
}

// CountByType groups non-empty types, most common first.
func (r *EquipmentRepository) CountByType(ctx context.Context) ([]TypeCount, error) {
	rows := []TypeCount{}
	err := r.conn(ctx).Model(&models.Equipment{}).
		Select("type, COUNT(*) AS count").
		Where("type IS NOT NULL AND type <> ''").
		Group("type").
		Order("count DESC").
		Order("type").
		Scan(&rows).Error
	return rows, errors.WithStack(err)
}
