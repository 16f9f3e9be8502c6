package repo

import (
	"VaultKeeper/internal/model"
	"context"

	"gorm.io/gorm"
)

// VaultRepository — хранилища пользователей.
type VaultRepository interface {
	// Create сохраняет хранилище без тегов; теги задаются через SetTags.
	Create(ctx context.Context, v *model.Vault) error
	// GetByID возвращает хранилище вместе с тегами.
	GetByID(ctx context.Context, id string) (*model.Vault, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Vault, error)
	// ListByTag — все хранилища с тегом, без учёта владельца.
	ListByTag(ctx context.Context, tagID int64) ([]model.Vault, error)
	Rename(ctx context.Context, id, name string) error
	// UpdateKey перезаписывает обёртку ключа данных под новой версией ключа владельца.
	UpdateKey(ctx context.Context, id string, version int64, cipher, nonce []byte) error
	SetTags(ctx context.Context, id string, tagIDs []int64) error
	// Delete удаляет хранилище и всё, что от него зависит. Вызывать в транзакции.
	Delete(ctx context.Context, id string) error
}

type vaultRepo struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepo{db: db}
}

func (r *vaultRepo) Create(ctx context.Context, v *model.Vault) error {
	return r.db.WithContext(ctx).Omit("Tags").Create(v).Error
}

func (r *vaultRepo) GetByID(ctx context.Context, id string) (*model.Vault, error) {
	var v model.Vault
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&v).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *vaultRepo) ListByOwner(ctx context.Context, ownerID int64) ([]model.Vault, error) {
	var out []model.Vault
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *vaultRepo) ListByTag(ctx context.Context, tagID int64) ([]model.Vault, error) {
	var out []model.Vault
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&model.VaultTagLink{}).Select("vault_id").Where("tag_id = ?", tagID)).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *vaultRepo) Rename(ctx context.Context, id, name string) error {
	return r.update(ctx, id, map[string]any{"name": name})
}

func (r *vaultRepo) UpdateKey(ctx context.Context, id string, version int64, cipher, nonce []byte) error {
	return r.update(ctx, id, map[string]any{
		"key_version": version,
		"key_cipher":  cipher,
		"key_nonce":   nonce,
	})
}

func (r *vaultRepo) update(ctx context.Context, id string, updates map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&model.Vault{}).Where("id = ?", id).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *vaultRepo) SetTags(ctx context.Context, id string, tagIDs []int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("vault_id = ?", id).Delete(&model.VaultTagLink{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]model.VaultTagLink, 0, len(tagIDs))
	for _, tid := range tagIDs {
		links = append(links, model.VaultTagLink{VaultID: id, TagID: tid})
	}
	return db.Create(&links).Error
}

func (r *vaultRepo) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	shares := db.Model(&model.VaultShare{}).Select("id").Where("vault_id = ?", id)
	entries := db.Model(&model.VaultEntry{}).Select("id").Where("vault_id = ?", id)

	// порядок: сначала зависимые строки, потом родители
	steps := []func() error{
		func() error { return db.Where("share_id IN (?)", shares).Delete(&model.VaultInboxItem{}).Error },
		func() error { return db.Where("share_id IN (?)", shares).Delete(&model.VaultShareLog{}).Error },
		func() error { return db.Where("share_id IN (?)", shares).Delete(&model.VaultShareEntry{}).Error },
		func() error { return db.Where("entry_id IN (?)", entries).Delete(&model.VaultShareEntry{}).Error },
		func() error { return db.Where("vault_id = ?", id).Delete(&model.VaultShare{}).Error },
		func() error { return db.Where("vault_id = ?", id).Delete(&model.VaultEntry{}).Error },
		func() error { return db.Where("vault_id = ?", id).Delete(&model.VaultTagLink{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	tx := db.Where("id = ?", id).Delete(&model.Vault{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}
