package repo

import (
	"VaultKeeper/internal/model"
	"context"

	"gorm.io/gorm"
)

// EntryRepository — записи хранилищ.
type EntryRepository interface {
	Create(ctx context.Context, e *model.VaultEntry) error
	// Save перезаписывает существующую запись целиком.
	Save(ctx context.Context, e *model.VaultEntry) error
	GetByID(ctx context.Context, vaultID, id string) (*model.VaultEntry, error)
	GetByName(ctx context.Context, vaultID, name string) (*model.VaultEntry, error)
	ListByVault(ctx context.Context, vaultID string) ([]model.VaultEntry, error)
	// ListByShare возвращает ещё существующие записи, входящие в доступ.
	ListByShare(ctx context.Context, shareID string) ([]model.VaultEntry, error)
	// Delete удаляет запись и её связи с доступами.
	Delete(ctx context.Context, vaultID, id string) error
}

type entryRepo struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepo{db: db}
}

func (r *entryRepo) Create(ctx context.Context, e *model.VaultEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *entryRepo) Save(ctx context.Context, e *model.VaultEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *entryRepo) GetByID(ctx context.Context, vaultID, id string) (*model.VaultEntry, error) {
	var e model.VaultEntry
	err := r.db.WithContext(ctx).Where("id = ? AND vault_id = ?", id, vaultID).First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *entryRepo) GetByName(ctx context.Context, vaultID, name string) (*model.VaultEntry, error) {
	var e model.VaultEntry
	err := r.db.WithContext(ctx).Where("vault_id = ? AND name = ?", vaultID, name).First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *entryRepo) ListByVault(ctx context.Context, vaultID string) ([]model.VaultEntry, error) {
	var out []model.VaultEntry
	err := r.db.WithContext(ctx).Where("vault_id = ?", vaultID).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *entryRepo) ListByShare(ctx context.Context, shareID string) ([]model.VaultEntry, error) {
	var out []model.VaultEntry
	err := r.db.WithContext(ctx).
		Joins("JOIN vault_share_entries se ON se.entry_id = vault_entries.id").
		Where("se.share_id = ?", shareID).
		Order("vault_entries.name ASC").
		Find(&out).Error
	return out, err
}

func (r *entryRepo) Delete(ctx context.Context, vaultID, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("entry_id = ?", id).Delete(&model.VaultShareEntry{}).Error; err != nil {
		return err
	}
	tx := db.Where("id = ? AND vault_id = ?", id, vaultID).Delete(&model.VaultEntry{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}
