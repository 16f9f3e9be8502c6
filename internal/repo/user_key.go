package repo

import (
	"VaultKeeper/internal/model"
	"context"

	"gorm.io/gorm"
)

// UserKeyRepository — версии персональных ключей пользователей.
type UserKeyRepository interface {
	Create(ctx context.Context, key *model.UserKey) error
	// Latest возвращает ключ с наибольшей версией.
	Latest(ctx context.Context, userID int64) (*model.UserKey, error)
	Get(ctx context.Context, userID, version int64) (*model.UserKey, error)
}

type userKeyRepo struct {
	db *gorm.DB
}

func NewUserKeyRepository(db *gorm.DB) UserKeyRepository {
	return &userKeyRepo{db: db}
}

func (r *userKeyRepo) Create(ctx context.Context, key *model.UserKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

func (r *userKeyRepo) Latest(ctx context.Context, userID int64) (*model.UserKey, error) {
	var k model.UserKey
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("version DESC").
		First(&k).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}

func (r *userKeyRepo) Get(ctx context.Context, userID, version int64) (*model.UserKey, error) {
	var k model.UserKey
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND version = ?", userID, version).
		First(&k).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &k, nil
}
