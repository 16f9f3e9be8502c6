package model

import "time"

// EntryKind — тип записи хранилища.
type EntryKind string

const (
	EntryField EntryKind = "field"
	EntryFile  EntryKind = "file"
)

func (k EntryKind) Valid() bool { return k == EntryField || k == EntryFile }

// VaultEntry — отдельный секрет хранилища.
// Для field шифртекст лежит в самой записи, для file — в blob-хранилище по BlobID.
type VaultEntry struct {
	ID      string    `gorm:"primaryKey;type:uuid"`
	VaultID string    `gorm:"not null;index"`
	Name    string    `gorm:"not null"`
	Kind    EntryKind `gorm:"not null"`

	FileName string
	BlobID   *string
	Size     int64 `gorm:"not null;default:0"`

	Cipher []byte
	Nonce  []byte

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (VaultEntry) TableName() string { return "vault_entries" }

func (e *VaultEntry) Sealed() ([]byte, []byte) { return e.Cipher, e.Nonce }
func (e *VaultEntry) Seal(c, n []byte)         { e.Cipher, e.Nonce = c, n }
func (e *VaultEntry) AAD() []byte              { return []byte("entry/" + e.ID) }
