package repo

import (
	"VaultKeeper/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

// ShareRepository — доступы к записям хранилищ.
type ShareRepository interface {
	// Create сохраняет доступ вместе со списком входящих в него записей.
	Create(ctx context.Context, s *model.VaultShare, entryIDs []string) error
	GetByID(ctx context.Context, id string) (*model.VaultShare, error)
	ListByVault(ctx context.Context, vaultID string) ([]model.VaultShare, error)
	// Consume атомарно списывает одно обращение из бюджета.
	// false — бюджет исчерпан или доступ уже истёк/отозван.
	Consume(ctx context.Context, id string, now time.Time) (bool, error)
	// MarkExpired фиксирует момент истечения, если он ещё не зафиксирован.
	MarkExpired(ctx context.Context, id string, now time.Time) error
	// Revoke отзывает доступ; повторный отзыв ничего не меняет.
	Revoke(ctx context.Context, id string, now time.Time) error
}

type shareRepo struct {
	db *gorm.DB
}

func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepo{db: db}
}

func (r *shareRepo) Create(ctx context.Context, s *model.VaultShare, entryIDs []string) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(s).Error; err != nil {
		return err
	}
	links := make([]model.VaultShareEntry, 0, len(entryIDs))
	for _, id := range entryIDs {
		links = append(links, model.VaultShareEntry{ShareID: s.ID, EntryID: id})
	}
	if len(links) == 0 {
		return nil
	}
	return db.Create(&links).Error
}

func (r *shareRepo) GetByID(ctx context.Context, id string) (*model.VaultShare, error) {
	var s model.VaultShare
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *shareRepo) ListByVault(ctx context.Context, vaultID string) ([]model.VaultShare, error) {
	var out []model.VaultShare
	err := r.db.WithContext(ctx).
		Where("vault_id = ?", vaultID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *shareRepo) Consume(ctx context.Context, id string, now time.Time) (bool, error) {
	tx := consume(r.db.WithContext(ctx), id, now)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// consume — проверка и инкремент одним UPDATE, два параллельных обращения не пройдут оба.
// У CASE есть типизированная ветка expired_at: Postgres не выводит тип из одного параметра.
func consume(db *gorm.DB, id string, now time.Time) *gorm.DB {
	return db.Model(&model.VaultShare{}).
		Where("id = ? AND revoked_at IS NULL AND expired_at IS NULL AND accesses < iterations", id).
		Updates(map[string]any{
			"accesses":   gorm.Expr("accesses + 1"),
			"expired_at": gorm.Expr("CASE WHEN accesses + 1 >= iterations THEN ? ELSE expired_at END", now),
		})
}

func (r *shareRepo) MarkExpired(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.VaultShare{}).
		Where("id = ? AND expired_at IS NULL", id).
		Update("expired_at", now).Error
}

func (r *shareRepo) Revoke(ctx context.Context, id string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&model.VaultShare{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]any{
			"revoked_at": now,
			"expired_at": gorm.Expr("COALESCE(expired_at, ?)", now),
		}).Error
}
