package service

import (
	"VaultKeeper/internal/crypto"
	"VaultKeeper/internal/model"
)

// seal шифрует plain ключом key и кладёт шифртекст в сущность.
func seal(obj model.Encryptable, plain, key []byte) error {
	c, n, err := crypto.Encrypt(plain, key, obj.AAD())
	if err != nil {
		return err
	}
	obj.Seal(c, n)
	return nil
}

// unseal расшифровывает значение сущности.
func unseal(obj model.Encryptable, key []byte) ([]byte, error) {
	c, n := obj.Sealed()
	return crypto.Decrypt(c, n, key, obj.AAD())
}
