package model

// Encryptable — сущность, хранящая значение только в зашифрованном виде.
// AAD привязывает шифртекст к конкретной записи, чтобы его нельзя было
// переставить в другую строку.
type Encryptable interface {
	Sealed() (cipher, nonce []byte)
	Seal(cipher, nonce []byte)
	AAD() []byte
}

// Taggable — сущность, помеченная тегами.
type Taggable interface {
	TagNames() []string
}

// HasTag проверяет наличие тега у сущности.
func HasTag(t Taggable, name string) bool {
	for _, n := range t.TagNames() {
		if n == name {
			return true
		}
	}
	return false
}
