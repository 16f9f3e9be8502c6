// Package blobstore хранит зашифрованное содержимое файловых записей:
// в таблице blobs или в S3-совместимом бакете.
package blobstore

import (
	"VaultKeeper/internal/repo"
	"context"
)

// Store — хранилище шифртекстов файлов. Открытых данных сюда не попадает.
type Store interface {
	Put(ctx context.Context, id string, cipher, nonce []byte) error
	// Get возвращает common.ErrNotFound, если объекта нет.
	Get(ctx context.Context, id string) (cipher, nonce []byte, err error)
	// Delete идемпотентен.
	Delete(ctx context.Context, id string) error
}

// DBStore кладёт файлы в таблицу blobs той же БД.
type DBStore struct {
	repo repo.BlobRepository
}

func NewDBStore(r repo.BlobRepository) *DBStore {
	return &DBStore{repo: r}
}

func (s *DBStore) Put(ctx context.Context, id string, cipher, nonce []byte) error {
	_, err := s.repo.CreateIfAbsent(ctx, id, cipher, nonce)
	return err
}

func (s *DBStore) Get(ctx context.Context, id string) ([]byte, []byte, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b.Cipher, b.Nonce, nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
