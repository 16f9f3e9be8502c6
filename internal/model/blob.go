package model

// Blob — зашифрованное бинарное содержимое файловой записи.
type Blob struct {
	ID string `gorm:"primaryKey;type:uuid"`

	Cipher []byte `gorm:"not null"`
	Nonce  []byte `gorm:"not null"`
}

func (Blob) TableName() string { return "blobs" }
