package repo

import (
	"VaultKeeper/internal/common"
	"context"
	"errors"

	"gorm.io/gorm"
)

// Manager выдаёт репозитории, привязанные к одному подключению или транзакции.
type Manager interface {
	Users() UserRepository
	UserKeys() UserKeyRepository
	APIKeys() APIKeyRepository
	Vaults() VaultRepository
	Tags() TagRepository
	Entries() EntryRepository
	Blobs() BlobRepository
	Shares() ShareRepository
	ShareLogs() ShareLogRepository
	Inboxes() InboxRepository

	// Transaction выполняет fn в транзакции; репозитории tx видят её изменения.
	Transaction(ctx context.Context, fn func(tx Manager) error) error
}

type gormManager struct {
	db *gorm.DB
}

// NewManager создаёт менеджер репозиториев поверх gorm.
func NewManager(db *gorm.DB) Manager {
	return &gormManager{db: db}
}

func (m *gormManager) Users() UserRepository         { return NewUserRepository(m.db) }
func (m *gormManager) UserKeys() UserKeyRepository   { return NewUserKeyRepository(m.db) }
func (m *gormManager) APIKeys() APIKeyRepository     { return NewAPIKeyRepository(m.db) }
func (m *gormManager) Vaults() VaultRepository       { return NewVaultRepository(m.db) }
func (m *gormManager) Tags() TagRepository           { return NewTagRepository(m.db) }
func (m *gormManager) Entries() EntryRepository      { return NewEntryRepository(m.db) }
func (m *gormManager) Blobs() BlobRepository         { return NewBlobRepository(m.db) }
func (m *gormManager) Shares() ShareRepository       { return NewShareRepository(m.db) }
func (m *gormManager) ShareLogs() ShareLogRepository { return NewShareLogRepository(m.db) }
func (m *gormManager) Inboxes() InboxRepository      { return NewInboxRepository(m.db) }

func (m *gormManager) Transaction(ctx context.Context, fn func(tx Manager) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormManager{db: tx})
	})
}

// notFound переводит ошибку gorm в общую ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return common.ErrNotFound
	}
	return err
}
