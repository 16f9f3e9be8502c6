package model

import "time"

// DefaultShareIterations — бюджет обращений к доступу, если он не задан.
const DefaultShareIterations int64 = 4000

// ShareState — состояние доступа.
type ShareState string

const (
	ShareActive  ShareState = "active"
	ShareExpired ShareState = "expired"
)

// VaultShare — ограниченный по времени и числу обращений доступ к части записей хранилища.
// Сам токен не хранится: только его хеш и соль, из которых на входе выводится
// ключ, открывающий обёртку ключа данных хранилища.
type VaultShare struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	VaultID string `gorm:"not null;index"`
	OwnerID int64  `gorm:"not null;index"`

	TokenHash []byte `gorm:"not null"`
	Salt      []byte `gorm:"not null"`
	KeyCipher []byte `gorm:"not null"`
	KeyNonce  []byte `gorm:"not null"`

	Iterations   int64 `gorm:"not null;default:4000"`
	Accesses     int64 `gorm:"not null;default:0"`
	DelaySeconds int64 `gorm:"not null"`

	ExpiresAt time.Time `gorm:"not null"`
	RevokedAt *time.Time
	ExpiredAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VaultShare) TableName() string { return "vault_shares" }

func (s *VaultShare) Sealed() ([]byte, []byte) { return s.KeyCipher, s.KeyNonce }
func (s *VaultShare) Seal(c, n []byte)         { s.KeyCipher, s.KeyNonce = c, n }
func (s *VaultShare) AAD() []byte              { return []byte("share/" + s.ID) }

// State вычисляет состояние на момент now. Истечение — пассивный предикат,
// вернуться в active нельзя: счётчик только растёт, а время только идёт.
func (s *VaultShare) State(now time.Time) ShareState {
	if s.RevokedAt != nil || s.ExpiredAt != nil {
		return ShareExpired
	}
	if s.Accesses >= s.Iterations || !now.Before(s.ExpiresAt) {
		return ShareExpired
	}
	return ShareActive
}

// Remaining — сколько обращений ещё доступно.
func (s *VaultShare) Remaining() int64 {
	if s.Accesses >= s.Iterations {
		return 0
	}
	return s.Iterations - s.Accesses
}

// VaultShareEntry — запись, входящая в доступ.
type VaultShareEntry struct {
	ShareID string `gorm:"primaryKey;type:uuid"`
	EntryID string `gorm:"primaryKey;type:uuid"`
}

func (VaultShareEntry) TableName() string { return "vault_share_entries" }

// VaultShareLog — неизменяемая запись журнала обращений к доступу.
type VaultShareLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	ShareID   string    `gorm:"not null;index"`
	Success   bool      `gorm:"not null"`
	Message   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (VaultShareLog) TableName() string { return "vault_share_logs" }
