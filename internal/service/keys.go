package service

import (
	"VaultKeeper/internal/crypto"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/repo"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// KeyService управляет версиями персональных ключей пользователей.
// Ключ пользователя — 32 случайных байта, обёрнутых мастер-ключом сервера.
type KeyService struct {
	master []byte
	repos  repo.Manager
	logger *zap.SugaredLogger
}

func NewKeyService(master []byte, repos repo.Manager, logger *zap.SugaredLogger) *KeyService {
	return &KeyService{master: master, repos: repos, logger: logger}
}

// create генерирует ключ версии version и сохраняет его через r.
func (s *KeyService) create(ctx context.Context, r repo.Manager, userID, version int64) ([]byte, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	uk := &model.UserKey{UserID: userID, Version: version}
	if err := seal(uk, key, s.master); err != nil {
		return nil, err
	}
	if err := r.UserKeys().Create(ctx, uk); err != nil {
		return nil, fmt.Errorf("create user key v%d: %w", version, err)
	}
	return key, nil
}

func (s *KeyService) unwrap(uk *model.UserKey) ([]byte, error) {
	key, err := unseal(uk, s.master)
	if err != nil {
		return nil, fmt.Errorf("unwrap user key %d/v%d: %w", uk.UserID, uk.Version, err)
	}
	return key, nil
}

// Current возвращает последнюю версию ключа пользователя.
func (s *KeyService) Current(ctx context.Context, userID int64) (int64, []byte, error) {
	return s.currentIn(ctx, s.repos, userID)
}

func (s *KeyService) currentIn(ctx context.Context, r repo.Manager, userID int64) (int64, []byte, error) {
	uk, err := r.UserKeys().Latest(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	key, err := s.unwrap(uk)
	return uk.Version, key, err
}

// Key возвращает ключ конкретной версии.
func (s *KeyService) Key(ctx context.Context, userID, version int64) ([]byte, error) {
	return s.keyIn(ctx, s.repos, userID, version)
}

func (s *KeyService) keyIn(ctx context.Context, r repo.Manager, userID, version int64) ([]byte, error) {
	uk, err := r.UserKeys().Get(ctx, userID, version)
	if err != nil {
		return nil, err
	}
	return s.unwrap(uk)
}

// Rotate выпускает следующую версию ключа и переоборачивает ею ключи данных
// всех хранилищ пользователя. Записи не трогаются, старые версии остаются.
func (s *KeyService) Rotate(ctx context.Context, userID int64) (int64, error) {
	var version int64
	err := s.repos.Transaction(ctx, func(tx repo.Manager) error {
		latest, err := tx.UserKeys().Latest(ctx, userID)
		if err != nil {
			return err
		}
		version = latest.Version + 1
		newKey, err := s.create(ctx, tx, userID, version)
		if err != nil {
			return err
		}

		vaults, err := tx.Vaults().ListByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for i := range vaults {
			v := &vaults[i]
			oldKey, err := s.keyIn(ctx, tx, userID, v.KeyVersion)
			if err != nil {
				return err
			}
			dek, err := unseal(v, oldKey)
			if err != nil {
				return fmt.Errorf("unwrap vault %s key: %w", v.ID, err)
			}
			if err := seal(v, dek, newKey); err != nil {
				return err
			}
			if err := tx.Vaults().UpdateKey(ctx, v.ID, version, v.KeyCipher, v.KeyNonce); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infow("user key rotated", "user_id", userID, "version", version)
	return version, nil
}
