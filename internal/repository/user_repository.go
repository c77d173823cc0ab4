package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/models"
)

// UserRepository provides persistence access for accounts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(ctx context.Context) *gorm.DB {
	return db.Conn(ctx, r.db)
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if err := r.conn(ctx).Create(u).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("username already taken")
		}
		return errors.WithStack(err)
	}
	return nil
}

// Save writes every column of an existing account.
func (r *UserRepository) Save(ctx context.Context, u *models.User) error {
	if err := r.conn(ctx).Save(u).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("username already taken")
		}
		return errors.WithStack(err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, errors.WithStack(err)
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.conn(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("user not found")
		}
		return nil, errors.WithStack(err)
	}
	return &u, nil
}

// UsernameTaken reports whether another account (not excludeID) already uses username.
func (r *UserRepository) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	var n int64
	err := r.conn(ctx).Model(&models.User{}).
		Where("username = ? AND id <> ?", username, excludeID).
		Count(&n).Error
	return n > 0, errors.WithStack(err)
}

// List returns every account, newest first.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := r.conn(ctx).Order("id DESC").Find(&users).Error
	return users, errors.WithStack(err)
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("user not found")
	}
	return nil
}
