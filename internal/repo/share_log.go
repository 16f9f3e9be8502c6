package repo

import (
	"VaultKeeper/internal/model"
	"context"

	"gorm.io/gorm"
)

// ShareLogRepository — журнал обращений к доступам. Только добавление и чтение.
type ShareLogRepository interface {
	Append(ctx context.Context, l *model.VaultShareLog) error
	// List возвращает записи от новых к старым.
	List(ctx context.Context, shareID string) ([]model.VaultShareLog, error)
}

type shareLogRepo struct {
	db *gorm.DB
}

func NewShareLogRepository(db *gorm.DB) ShareLogRepository {
	return &shareLogRepo{db: db}
}

func (r *shareLogRepo) Append(ctx context.Context, l *model.VaultShareLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *shareLogRepo) List(ctx context.Context, shareID string) ([]model.VaultShareLog, error) {
	var out []model.VaultShareLog
	err := r.db.WithContext(ctx).
		Where("share_id = ?", shareID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
