package service

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/crypto"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/repo"
	"context"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// apiKeyScheme — префикс выдаваемых ключей: vk_<prefix>_<secret>.
const apiKeyScheme = "vk"

// APIKeyService выдаёт и проверяет ключи доступа к API.
type APIKeyService struct {
	keys repo.APIKeyRepository
	now  func() time.Time
}

func NewAPIKeyService(keys repo.APIKeyRepository) *APIKeyService {
	return &APIKeyService{keys: keys, now: func() time.Time { return time.Now().UTC() }}
}

// Create выпускает ключ. Открытое значение возвращается один раз и нигде не хранится.
func (s *APIKeyService) Create(ctx context.Context, userID int64, name string) (string, *model.APIKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, invalid("api key name is required")
	}
	raw, err := crypto.RandomBytes(4)
	if err != nil {
		return "", nil, err
	}
	prefix := hex.EncodeToString(raw)
	secret, err := crypto.RandomToken(24)
	if err != nil {
		return "", nil, err
	}
	plain := apiKeyScheme + "_" + prefix + "_" + secret

	k := &model.APIKey{UserID: userID, Name: name, Prefix: prefix, Hash: crypto.HashToken(plain), Active: true}
	if err := s.keys.Create(ctx, k); err != nil {
		return "", nil, err
	}
	return plain, k, nil
}

func (s *APIKeyService) List(ctx context.Context, userID int64) ([]model.APIKey, error) {
	return s.keys.ListByUser(ctx, userID)
}

func (s *APIKeyService) Deactivate(ctx context.Context, userID, id int64) error {
	return s.keys.Deactivate(ctx, userID, id)
}

// Authenticate возвращает владельца активного ключа.
func (s *APIKeyService) Authenticate(ctx context.Context, key string) (int64, error) {
	parts := strings.SplitN(key, "_", 3)
	if len(parts) != 3 || parts[0] != apiKeyScheme {
		return 0, common.ErrAccessDenied
	}
	k, err := s.keys.GetByPrefix(ctx, parts[1])
	if errors.Is(err, common.ErrNotFound) {
		return 0, common.ErrAccessDenied
	}
	if err != nil {
		return 0, err
	}
	if !k.Active || !crypto.EqualHash(k.Hash, crypto.HashToken(key)) {
		return 0, common.ErrAccessDenied
	}
	if err := s.keys.Touch(ctx, k.ID, s.now()); err != nil {
		return 0, err
	}
	return k.UserID, nil
}
