package model

import (
	"fmt"
	"time"
)

// User — учётная запись сервера.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Login    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"` // bcrypt

	// TOTP-секрет зашифрован мастер-ключом сервера
	OTPCipher  []byte
	OTPNonce   []byte
	OTPEnabled bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) Sealed() ([]byte, []byte) { return u.OTPCipher, u.OTPNonce }
func (u *User) Seal(c, n []byte)         { u.OTPCipher, u.OTPNonce = c, n }
func (u *User) AAD() []byte              { return []byte(fmt.Sprintf("user-otp/%d", u.ID)) }

// UserKey — версия персонального ключа пользователя, обёрнутая мастер-ключом.
// Версии не удаляются: по ним расшифровываются старые обёртки.
type UserKey struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	UserID  int64 `gorm:"not null;index"`
	Version int64 `gorm:"not null;default:1"`

	Cipher []byte `gorm:"not null"`
	Nonce  []byte `gorm:"not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserKey) TableName() string { return "user_keys" }

func (k *UserKey) Sealed() ([]byte, []byte) { return k.Cipher, k.Nonce }
func (k *UserKey) Seal(c, n []byte)         { k.Cipher, k.Nonce = c, n }
func (k *UserKey) AAD() []byte {
	return []byte(fmt.Sprintf("user-key/%d/%d", k.UserID, k.Version))
}

// APIKey — ключ доступа к API. Сам ключ не хранится, только префикс и хеш.
type APIKey struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	UserID int64  `gorm:"not null;index"`
	Name   string `gorm:"not null"`
	Prefix string `gorm:"uniqueIndex;not null"`
	Hash   []byte `gorm:"not null"`
	Active bool   `gorm:"not null;default:true"`

	CreatedAt  time.Time `gorm:"autoCreateTime"`
	LastUsedAt *time.Time
}

func (APIKey) TableName() string { return "api_keys" }
