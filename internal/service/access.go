package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

// AdminCapability proves that RequireAdmin succeeded for UserID. Admin
// operations take it as an argument instead of looking the caller up again.
type AdminCapability struct {
	AdminUserID uuid.UUID
	UserID      uuid.UUID
}

type AccessService struct {
	Repo *repo.GormRepo
}

func NewAccessService(r *repo.GormRepo) *AccessService {
	return &AccessService{Repo: r}
}

// IsAdmin never fails; lookup errors are logged and reported as false.
func (s *AccessService) IsAdmin(ctx context.Context, userID uuid.UUID) bool {
	if userID == uuid.Nil {
		return false
	}
	_, err := s.Repo.GetAdminByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logging.FromContext(ctx).Error("is_admin_error", "user_id", userID, "error", err)
		}
		return false
	}
	return true
}

func (s *AccessService) RequireAdmin(ctx context.Context, userID uuid.UUID) (AdminCapability, error) {
	if userID == uuid.Nil {
		return AdminCapability{}, ErrUnauthenticated
	}

	admin, err := s.Repo.GetAdminByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdminCapability{}, fmt.Errorf("%w: admin access required", ErrUnauthorized)
		}
		return AdminCapability{}, fmt.Errorf("lookup admin: %w", err)
	}

	return AdminCapability{AdminUserID: admin.ID, UserID: admin.UserID}, nil
}
