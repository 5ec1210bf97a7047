package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/art_shop/internal/models"
)

func (r *GormRepo) GetAdminByUserID(ctx context.Context, userID uuid.UUID) (*models.AdminUser, error) {
	var admin models.AdminUser
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// EnsureAdmin grants admin membership to the user; granting twice is a no-op.
func (r *GormRepo) EnsureAdmin(ctx context.Context, userID uuid.UUID) (*models.AdminUser, error) {
	admin := models.AdminUser{UserID: userID}
	if err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&admin).Error; err != nil {
		return nil, err
	}
	existing, err := r.GetAdminByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("admin row missing after insert")
		}
		return nil, err
	}
	return existing, nil
}
