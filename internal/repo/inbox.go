package repo

import (
	"VaultKeeper/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InboxRepository — ящики пользователей, доставленные доступы и журнал ящика.
type InboxRepository interface {
	// GetOrCreate возвращает ящик пользователя, создавая его при первом обращении.
	GetOrCreate(ctx context.Context, userID int64) (*model.VaultInbox, error)
	AddItem(ctx context.Context, item *model.VaultInboxItem) error
	ListItems(ctx context.Context, inboxID int64) ([]model.VaultInboxItem, error)
	GetItem(ctx context.Context, inboxID int64, id string) (*model.VaultInboxItem, error)
	AppendLog(ctx context.Context, l *model.VaultInboxLog) error
	// Logs возвращает записи журнала от новых к старым.
	Logs(ctx context.Context, inboxID int64) ([]model.VaultInboxLog, error)
}

type inboxRepo struct {
	db *gorm.DB
}

func NewInboxRepository(db *gorm.DB) InboxRepository {
	return &inboxRepo{db: db}
}

func (r *inboxRepo) GetOrCreate(ctx context.Context, userID int64) (*model.VaultInbox, error) {
	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.VaultInbox{UserID: userID}).Error
	if err != nil {
		return nil, err
	}
	var in model.VaultInbox
	if err := db.Where("user_id = ?", userID).First(&in).Error; err != nil {
		return nil, notFound(err)
	}
	return &in, nil
}

func (r *inboxRepo) AddItem(ctx context.Context, item *model.VaultInboxItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *inboxRepo) ListItems(ctx context.Context, inboxID int64) ([]model.VaultInboxItem, error) {
	var out []model.VaultInboxItem
	err := r.db.WithContext(ctx).
		Where("inbox_id = ?", inboxID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *inboxRepo) GetItem(ctx context.Context, inboxID int64, id string) (*model.VaultInboxItem, error) {
	var it model.VaultInboxItem
	err := r.db.WithContext(ctx).Where("id = ? AND inbox_id = ?", id, inboxID).First(&it).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func (r *inboxRepo) AppendLog(ctx context.Context, l *model.VaultInboxLog) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *inboxRepo) Logs(ctx context.Context, inboxID int64) ([]model.VaultInboxLog, error) {
	var out []model.VaultInboxLog
	err := r.db.WithContext(ctx).
		Where("inbox_id = ?", inboxID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
