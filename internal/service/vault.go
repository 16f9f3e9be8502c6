package service

import (
	"VaultKeeper/internal/blobstore"
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/crypto"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/repo"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EntryInput — новое значение записи хранилища.
type EntryInput struct {
	Name     string
	Kind     model.EntryKind
	Value    []byte
	FileName string
}

// EntryValue — запись вместе с расшифрованным значением.
type EntryValue struct {
	Entry model.VaultEntry
	Value []byte
}

// VaultService — хранилища, теги и записи.
// Значения шифруются ключом данных хранилища, открытый текст не сохраняется.
type VaultService struct {
	repos   repo.Manager
	keys    *KeyService
	blobs   blobstore.Store
	policy  Policy
	maxBlob int64
	logger  *zap.SugaredLogger
}

func NewVaultService(
	repos repo.Manager,
	keys *KeyService,
	blobs blobstore.Store,
	policy Policy,
	maxBlobBytes int64,
	logger *zap.SugaredLogger,
) *VaultService {
	return &VaultService{repos: repos, keys: keys, blobs: blobs, policy: policy, maxBlob: maxBlobBytes, logger: logger}
}

// authorize загружает хранилище и спрашивает политику.
func (s *VaultService) authorize(ctx context.Context, userID int64, vaultID string, action Action) (*model.Vault, error) {
	v, err := s.repos.Vaults().GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if !s.policy.Allow(ctx, userID, v, action) {
		return nil, common.ErrAccessDenied
	}
	return v, nil
}

// dataKey разворачивает ключ данных хранилища ключом владельца нужной версии.
func (s *VaultService) dataKey(ctx context.Context, v *model.Vault) ([]byte, error) {
	uk, err := s.keys.Key(ctx, v.OwnerID, v.KeyVersion)
	if err != nil {
		return nil, err
	}
	dek, err := unseal(v, uk)
	if err != nil {
		return nil, fmt.Errorf("unwrap vault %s key: %w", v.ID, err)
	}
	return dek, nil
}

func (s *VaultService) resolveTags(ctx context.Context, r repo.Manager, names []string) ([]int64, error) {
	uniq := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		uniq = append(uniq, n)
	}
	tags, err := r.Tags().ListByNames(ctx, uniq)
	if err != nil {
		return nil, err
	}
	if len(tags) != len(uniq) {
		return nil, invalid("unknown tag")
	}
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// CreateVault создаёт хранилище с новым ключом данных, обёрнутым текущим ключом владельца.
func (s *VaultService) CreateVault(ctx context.Context, userID int64, name string, tags []string) (*model.Vault, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("vault name is required")
	}
	version, uk, err := s.keys.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	dek, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	v := &model.Vault{ID: uuid.NewString(), OwnerID: userID, Name: name, KeyVersion: version}
	if err := seal(v, dek, uk); err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		ids, err := s.resolveTags(ctx, tx, tags)
		if err != nil {
			return err
		}
		if err := tx.Vaults().Create(ctx, v); err != nil {
			return err
		}
		return tx.Vaults().SetTags(ctx, v.ID, ids)
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Vaults().GetByID(ctx, v.ID)
}

// ListVaults — хранилища пользователя; tag != "" оставляет только помеченные им.
func (s *VaultService) ListVaults(ctx context.Context, userID int64, tag string) ([]model.Vault, error) {
	all, err := s.repos.Vaults().ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return all, nil
	}
	out := make([]model.Vault, 0, len(all))
	for i := range all {
		if model.HasTag(&all[i], tag) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *VaultService) GetVault(ctx context.Context, userID int64, id string) (*model.Vault, error) {
	return s.authorize(ctx, userID, id, ActionRead)
}

// UpdateVault меняет имя и/или набор тегов. nil — поле не меняется.
func (s *VaultService) UpdateVault(ctx context.Context, userID int64, id string, name *string, tags *[]string) (*model.Vault, error) {
	if _, err := s.authorize(ctx, userID, id, ActionWrite); err != nil {
		return nil, err
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return nil, invalid("vault name is required")
	}
	err := s.repos.Transaction(ctx, func(tx repo.Manager) error {
		if name != nil {
			if err := tx.Vaults().Rename(ctx, id, strings.TrimSpace(*name)); err != nil {
				return err
			}
		}
		if tags != nil {
			ids, err := s.resolveTags(ctx, tx, *tags)
			if err != nil {
				return err
			}
			return tx.Vaults().SetTags(ctx, id, ids)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Vaults().GetByID(ctx, id)
}

// DeleteVault удаляет хранилище со всеми записями, доступами и их журналами.
func (s *VaultService) DeleteVault(ctx context.Context, userID int64, id string) error {
	if _, err := s.authorize(ctx, userID, id, ActionDelete); err != nil {
		return err
	}
	entries, err := s.repos.Entries().ListByVault(ctx, id)
	if err != nil {
		return err
	}
	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		return tx.Vaults().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	for _, e := range entries {
		s.dropBlob(ctx, e.BlobID)
	}
	s.logger.Infow("vault deleted", "vault_id", id, "user_id", userID)
	return nil
}

// dropBlob удаляет файл после коммита. Ошибка не откатывает удаление записи, только логируется.
func (s *VaultService) dropBlob(ctx context.Context, blobID *string) {
	if blobID == nil {
		return
	}
	if err := s.blobs.Delete(ctx, *blobID); err != nil {
		s.logger.Errorw("failed to delete blob", "blob_id", *blobID, "error", err)
	}
}

// CreateTag создаёт глобально уникальный тег.
func (s *VaultService) CreateTag(ctx context.Context, name string) (*model.VaultTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("tag name is required")
	}
	_, err := s.repos.Tags().GetByName(ctx, name)
	if err == nil {
		return nil, invalid("tag %q already exists", name)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	t := &model.VaultTag{Name: name}
	if err := s.repos.Tags().Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *VaultService) ListTags(ctx context.Context) ([]model.VaultTag, error) {
	return s.repos.Tags().List(ctx)
}

// DeleteTag удаляет тег, только если вызывающему можно менять все помеченные им хранилища.
func (s *VaultService) DeleteTag(ctx context.Context, userID, id int64) error {
	return s.repos.Transaction(ctx, func(tx repo.Manager) error {
		vaults, err := tx.Vaults().ListByTag(ctx, id)
		if err != nil {
			return err
		}
		for i := range vaults {
			if !s.policy.Allow(ctx, userID, &vaults[i], ActionWrite) {
				return fmt.Errorf("tag %d is used by vault %s: %w", id, vaults[i].ID, common.ErrAccessDenied)
			}
		}
		return tx.Tags().Delete(ctx, id)
	})
}

// PutEntry добавляет запись или заменяет значение записи с тем же именем.
func (s *VaultService) PutEntry(ctx context.Context, userID int64, vaultID string, in EntryInput) (*model.VaultEntry, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("entry name is required")
	}
	if !in.Kind.Valid() {
		return nil, invalid("unknown entry kind %q", in.Kind)
	}
	if in.Kind == model.EntryFile && s.maxBlob > 0 && int64(len(in.Value)) > s.maxBlob {
		return nil, invalid("file is larger than %d bytes", s.maxBlob)
	}

	v, err := s.authorize(ctx, userID, vaultID, ActionWrite)
	if err != nil {
		return nil, err
	}
	dek, err := s.dataKey(ctx, v)
	if err != nil {
		return nil, err
	}

	e, err := s.repos.Entries().GetByName(ctx, vaultID, in.Name)
	isNew := errors.Is(err, common.ErrNotFound)
	if err != nil && !isNew {
		return nil, err
	}
	if isNew {
		e = &model.VaultEntry{ID: uuid.NewString(), VaultID: vaultID, Name: in.Name}
	}
	oldBlob := e.BlobID

	e.Kind = in.Kind
	e.Size = int64(len(in.Value))
	switch in.Kind {
	case model.EntryField:
		e.FileName, e.BlobID = "", nil
		if err := seal(e, in.Value, dek); err != nil {
			return nil, err
		}
	case model.EntryFile:
		c, n, err := crypto.Encrypt(in.Value, dek, e.AAD())
		if err != nil {
			return nil, err
		}
		blobID := uuid.NewString()
		if err := s.blobs.Put(ctx, blobID, c, n); err != nil {
			return nil, err
		}
		e.FileName = in.FileName
		if e.FileName == "" {
			e.FileName = in.Name
		}
		e.BlobID = &blobID
		e.Cipher, e.Nonce = nil, nil
	}

	if isNew {
		err = s.repos.Entries().Create(ctx, e)
	} else {
		err = s.repos.Entries().Save(ctx, e)
	}
	if err != nil {
		s.dropBlob(ctx, e.BlobID)
		return nil, err
	}
	if oldBlob != nil {
		s.dropBlob(ctx, oldBlob)
	}
	return e, nil
}

// GetEntry возвращает запись и её расшифрованное значение.
func (s *VaultService) GetEntry(ctx context.Context, userID int64, vaultID, entryID string) (*EntryValue, error) {
	v, err := s.authorize(ctx, userID, vaultID, ActionRead)
	if err != nil {
		return nil, err
	}
	e, err := s.repos.Entries().GetByID(ctx, vaultID, entryID)
	if err != nil {
		return nil, err
	}
	dek, err := s.dataKey(ctx, v)
	if err != nil {
		return nil, err
	}
	val, err := s.decryptEntry(ctx, e, dek)
	if err != nil {
		return nil, err
	}
	return &EntryValue{Entry: *e, Value: val}, nil
}

func (s *VaultService) decryptEntry(ctx context.Context, e *model.VaultEntry, dek []byte) ([]byte, error) {
	if e.Kind != model.EntryFile {
		val, err := unseal(e, dek)
		if err != nil {
			return nil, fmt.Errorf("decrypt entry %s: %w", e.ID, err)
		}
		return val, nil
	}
	if e.BlobID == nil {
		return nil, fmt.Errorf("file entry %s has no blob", e.ID)
	}
	c, n, err := s.blobs.Get(ctx, *e.BlobID)
	if err != nil {
		return nil, err
	}
	val, err := crypto.Decrypt(c, n, dek, e.AAD())
	if err != nil {
		return nil, fmt.Errorf("decrypt file entry %s: %w", e.ID, err)
	}
	return val, nil
}

// ListEntries — только метаданные, без расшифровки.
func (s *VaultService) ListEntries(ctx context.Context, userID int64, vaultID string) ([]model.VaultEntry, error) {
	if _, err := s.authorize(ctx, userID, vaultID, ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Entries().ListByVault(ctx, vaultID)
}

func (s *VaultService) DeleteEntry(ctx context.Context, userID int64, vaultID, entryID string) error {
	if _, err := s.authorize(ctx, userID, vaultID, ActionWrite); err != nil {
		return err
	}
	e, err := s.repos.Entries().GetByID(ctx, vaultID, entryID)
	if err != nil {
		return err
	}
	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		return tx.Entries().Delete(ctx, vaultID, entryID)
	})
	if err != nil {
		return err
	}
	s.dropBlob(ctx, e.BlobID)
	return nil
}
