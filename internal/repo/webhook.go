package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/art_shop/internal/models"
)

func (r *GormRepo) WebhookProcessed(ctx context.Context, eventID string) (bool, error) {
	var ev models.WebhookEvent
	err := r.DB.WithContext(ctx).Where("event_id = ?", eventID).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *GormRepo) RecordWebhook(ctx context.Context, ev *models.WebhookEvent) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(ev).Error
}
