package repo

import (
	"VaultKeeper/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// APIKeyRepository — ключи доступа к API.
type APIKeyRepository interface {
	Create(ctx context.Context, key *model.APIKey) error
	ListByUser(ctx context.Context, userID int64) ([]model.APIKey, error)
	GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error)
	// Deactivate выключает ключ пользователя; чужой или несуществующий — ErrNotFound.
	Deactivate(ctx context.Context, userID, id int64) error
	Touch(ctx context.Context, id int64, at time.Time) error
}

type apiKeyRepo struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepo{db: db}
}

func (r *apiKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *apiKeyRepo) ListByUser(ctx context.Context, userID int64) ([]model.APIKey, error) {
	var out []model.APIKey
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *apiKeyRepo) GetByPrefix(ctx context.Context, prefix string) (*model.APIKey, error) {
	var k model.APIKey
	if err := r.db.WithContext(ctx).Where("prefix = ?", prefix).First(&k).Error; err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

func (r *apiKeyRepo) Deactivate(ctx context.Context, userID, id int64) error {
	tx := r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("active", false)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *apiKeyRepo) Touch(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
