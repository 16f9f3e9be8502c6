package repo

import (
	"VaultKeeper/internal/model"
	"context"

	"gorm.io/gorm"
)

// TagRepository — глобальные теги хранилищ.
type TagRepository interface {
	Create(ctx context.Context, tag *model.VaultTag) error
	GetByName(ctx context.Context, name string) (*model.VaultTag, error)
	ListByNames(ctx context.Context, names []string) ([]model.VaultTag, error)
	List(ctx context.Context) ([]model.VaultTag, error)
	Delete(ctx context.Context, id int64) error
}

type tagRepo struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) Create(ctx context.Context, tag *model.VaultTag) error {
	return r.db.WithContext(ctx).Create(tag).Error
}

func (r *tagRepo) GetByName(ctx context.Context, name string) (*model.VaultTag, error) {
	var t model.VaultTag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (r *tagRepo) ListByNames(ctx context.Context, names []string) ([]model.VaultTag, error) {
	var out []model.VaultTag
	if len(names) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *tagRepo) List(ctx context.Context) ([]model.VaultTag, error) {
	var out []model.VaultTag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *tagRepo) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("tag_id = ?", id).Delete(&model.VaultTagLink{}).Error; err != nil {
		return err
	}
	tx := db.Delete(&model.VaultTag{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return notFound(gorm.ErrRecordNotFound)
	}
	return nil
}
