package model

import (
	"fmt"
	"time"
)

// VaultInbox — почтовый ящик пользователя для доставленных ему доступов.
type VaultInbox struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VaultInbox) TableName() string { return "vault_inboxes" }

// VaultInboxItem — доставленный доступ. Токен доступа обёрнут персональным
// ключом получателя версии KeyVersion.
type VaultInboxItem struct {
	ID       string `gorm:"primaryKey;type:uuid"`
	InboxID  int64  `gorm:"not null;index"`
	ShareID  string `gorm:"not null;index"`
	SenderID int64  `gorm:"not null"`
	Note     string

	KeyVersion  int64  `gorm:"not null"`
	TokenCipher []byte `gorm:"not null"`
	TokenNonce  []byte `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VaultInboxItem) TableName() string { return "vault_inbox_items" }

func (i *VaultInboxItem) Sealed() ([]byte, []byte) { return i.TokenCipher, i.TokenNonce }
func (i *VaultInboxItem) Seal(c, n []byte)         { i.TokenCipher, i.TokenNonce = c, n }
func (i *VaultInboxItem) AAD() []byte {
	return []byte(fmt.Sprintf("inbox/%d/%s", i.InboxID, i.ID))
}

// VaultInboxLog — неизменяемая запись журнала ящика.
type VaultInboxLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	InboxID   int64     `gorm:"not null;index"`
	Message   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (VaultInboxLog) TableName() string { return "vault_inbox_logs" }
