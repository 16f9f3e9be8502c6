package model

import "time"

// Vault — контейнер секретов пользователя.
// Ключ данных хранилища обёрнут персональным ключом владельца версии KeyVersion.
type Vault struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	OwnerID int64  `gorm:"not null;index"`
	Name    string `gorm:"not null"`

	KeyVersion int64  `gorm:"not null;default:1"`
	KeyCipher  []byte `gorm:"not null"`
	KeyNonce   []byte `gorm:"not null"`

	Tags []VaultTag `gorm:"many2many:vault_tag_links;joinForeignKey:VaultID;joinReferences:TagID"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Vault) TableName() string { return "vaults" }

func (v *Vault) Sealed() ([]byte, []byte) { return v.KeyCipher, v.KeyNonce }
func (v *Vault) Seal(c, n []byte)         { v.KeyCipher, v.KeyNonce = c, n }
func (v *Vault) AAD() []byte              { return []byte("vault/" + v.ID) }

func (v *Vault) TagNames() []string {
	names := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		names = append(names, t.Name)
	}
	return names
}

// VaultTag — глобально уникальная метка.
type VaultTag struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VaultTag) TableName() string { return "vault_tags" }

// VaultTagLink — связь хранилища с тегом.
type VaultTagLink struct {
	VaultID string `gorm:"primaryKey;type:uuid"`
	TagID   int64  `gorm:"primaryKey"`
}

func (VaultTagLink) TableName() string { return "vault_tag_links" }
