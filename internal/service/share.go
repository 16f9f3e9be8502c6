package service

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/crypto"
	"VaultKeeper/internal/metrics"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/ratelimit"
	"VaultKeeper/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// shareKeyInfo — контекст HKDF для ключа доступа.
	shareKeyInfo  = "vaultkeeper/share"
	shareTokenLen = 32
	shareSaltLen  = 16
)

// MaxShareDelay — предельный срок доступа.
const MaxShareDelay = 100 * 365 * 24 * time.Hour

// ShareDefaults — значения для доступа, у которого не заданы срок и бюджет.
type ShareDefaults struct {
	Delay      time.Duration
	Iterations int64
}

// ShareService — доступы к части записей хранилища по токену.
// Доступ активен сразу после создания; срок отсчитывается от момента создания.
type ShareService struct {
	repos    repo.Manager
	vaults   *VaultService
	limiter  *ratelimit.Limiter
	rec      metrics.Recorder
	logger   *zap.SugaredLogger
	defaults ShareDefaults
	now      func() time.Time
}

func NewShareService(
	repos repo.Manager,
	vaults *VaultService,
	limiter *ratelimit.Limiter,
	rec metrics.Recorder,
	defaults ShareDefaults,
	logger *zap.SugaredLogger,
) *ShareService {
	if defaults.Iterations <= 0 {
		defaults.Iterations = model.DefaultShareIterations
	}
	return &ShareService{
		repos:    repos,
		vaults:   vaults,
		limiter:  limiter,
		rec:      rec,
		logger:   logger,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateShare создаёт доступ к записям entryIDs хранилища vaultID.
// Возвращает открытый токен; сохраняется только его хеш.
func (s *ShareService) CreateShare(ctx context.Context, userID int64, vaultID string, entryIDs []string, delay time.Duration, iterations int64) (*model.VaultShare, string, error) {
	if delay < 0 {
		return nil, "", invalid("delay must not be negative")
	}
	if iterations < 0 {
		return nil, "", invalid("iterations must not be negative")
	}
	if delay > MaxShareDelay {
		return nil, "", invalid("delay must not exceed %s", MaxShareDelay)
	}
	if delay == 0 {
		delay = s.defaults.Delay
	}
	if iterations == 0 {
		iterations = s.defaults.Iterations
	}
	if delay <= 0 {
		return nil, "", invalid("delay is required")
	}

	ids := make([]string, 0, len(entryIDs))
	seen := map[string]bool{}
	for _, id := range entryIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, "", invalid("at least one entry is required")
	}

	v, err := s.vaults.authorize(ctx, userID, vaultID, ActionShare)
	if err != nil {
		return nil, "", err
	}
	for _, id := range ids {
		if _, err := s.repos.Entries().GetByID(ctx, vaultID, id); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, "", invalid("entry %s is not in vault", id)
			}
			return nil, "", err
		}
	}
	dek, err := s.vaults.dataKey(ctx, v)
	if err != nil {
		return nil, "", err
	}

	token, err := crypto.RandomToken(shareTokenLen)
	if err != nil {
		return nil, "", err
	}
	salt, err := crypto.RandomBytes(shareSaltLen)
	if err != nil {
		return nil, "", err
	}
	key, err := crypto.DeriveKey([]byte(token), salt, shareKeyInfo)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	sh := &model.VaultShare{
		ID:           uuid.NewString(),
		VaultID:      vaultID,
		OwnerID:      v.OwnerID,
		TokenHash:    crypto.HashToken(token),
		Salt:         salt,
		Iterations:   iterations,
		DelaySeconds: int64(delay / time.Second),
		ExpiresAt:    now.Add(delay),
		CreatedAt:    now,
	}
	if err := seal(sh, dek, key); err != nil {
		return nil, "", err
	}
	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		return tx.Shares().Create(ctx, sh, ids)
	})
	if err != nil {
		return nil, "", err
	}
	s.logger.Infow("share created", "share_id", sh.ID, "vault_id", vaultID, "entries", len(ids), "iterations", iterations, "expires_at", sh.ExpiresAt)
	return sh, token, nil
}

type clientCtxKey struct{}

// WithClient помечает контекст адресом клиента. Бюджет неверных токенов
// считается по паре (доступ, клиент), чужие ошибки не блокируют владельца токена.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, clientCtxKey{}, client)
}

func failureKey(ctx context.Context, shareID string) string {
	client, _ := ctx.Value(clientCtxKey{}).(string)
	return shareID + "|" + client
}

// errBudgetSpent — атомарное списание не прошло: бюджет исчерпан конкурентом.
var errBudgetSpent = errors.New("share budget spent")

// ConsumeShare проверяет токен, списывает одно обращение и возвращает
// расшифрованные записи доступа. Каждая попытка по существующему доступу
// оставляет запись в журнале, в том числе отказы.
func (s *ShareService) ConsumeShare(ctx context.Context, shareID, token string) ([]EntryValue, error) {
	attempt := failureKey(ctx, shareID)
	sh, err := s.repos.Shares().GetByID(ctx, shareID)
	if errors.Is(err, common.ErrNotFound) {
		s.limiter.Fail(attempt)
		s.rec.ShareAccess(metrics.ResultDenied)
		return nil, common.ErrAccessDenied
	}
	if err != nil {
		return nil, err
	}

	if s.limiter.Blocked(attempt) {
		s.rec.ShareAccess(metrics.ResultRateLimited)
		s.appendLog(ctx, shareID, false, "rate limited")
		return nil, common.ErrRateLimited
	}
	if token == "" || !crypto.EqualHash(sh.TokenHash, crypto.HashToken(token)) {
		s.limiter.Fail(attempt)
		s.rec.ShareAccess(metrics.ResultDenied)
		s.appendLog(ctx, shareID, false, "invalid token")
		s.logger.Warnw("share access denied", "share_id", shareID)
		return nil, common.ErrAccessDenied
	}
	s.limiter.Reset(attempt)

	now := s.now()
	if sh.State(now) == model.ShareExpired {
		return nil, s.expired(ctx, sh, now)
	}

	key, err := crypto.DeriveKey([]byte(token), sh.Salt, shareKeyInfo)
	if err != nil {
		return nil, err
	}
	dek, err := unseal(sh, key)
	if err != nil {
		return nil, fmt.Errorf("unwrap share %s key: %w", shareID, err)
	}

	var entries []model.VaultEntry
	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		ok, err := tx.Shares().Consume(ctx, shareID, now)
		if err != nil {
			return err
		}
		if !ok {
			return errBudgetSpent
		}
		if err := tx.ShareLogs().Append(ctx, &model.VaultShareLog{
			ShareID: shareID, Success: true, Message: "access granted", CreatedAt: now,
		}); err != nil {
			return err
		}
		entries, err = tx.Entries().ListByShare(ctx, shareID)
		return err
	})
	if errors.Is(err, errBudgetSpent) {
		return nil, s.expired(ctx, sh, now)
	}
	if err != nil {
		return nil, err
	}
	s.rec.ShareAccess(metrics.ResultSuccess)

	out := make([]EntryValue, 0, len(entries))
	for i := range entries {
		val, err := s.vaults.decryptEntry(ctx, &entries[i], dek)
		if err != nil {
			return nil, err
		}
		out = append(out, EntryValue{Entry: entries[i], Value: val})
	}
	return out, nil
}

// expired фиксирует истечение и пишет отказ в журнал.
func (s *ShareService) expired(ctx context.Context, sh *model.VaultShare, now time.Time) error {
	if err := s.repos.Shares().MarkExpired(ctx, sh.ID, now); err != nil {
		s.logger.Errorw("failed to mark share expired", "share_id", sh.ID, "error", err)
	}
	s.rec.ShareAccess(metrics.ResultExpired)
	s.appendLog(ctx, sh.ID, false, "share expired")
	s.logger.Infow("share expired", "share_id", sh.ID, "accesses", sh.Accesses, "iterations", sh.Iterations)
	return common.ErrShareExpired
}

func (s *ShareService) appendLog(ctx context.Context, shareID string, success bool, msg string) {
	err := s.repos.ShareLogs().Append(ctx, &model.VaultShareLog{
		ShareID: shareID, Success: success, Message: msg, CreatedAt: s.now(),
	})
	if err != nil {
		s.logger.Errorw("failed to write share log", "share_id", shareID, "error", err)
	}
}

// ownShare загружает доступ и проверяет права на его хранилище.
func (s *ShareService) ownShare(ctx context.Context, userID int64, shareID string) (*model.VaultShare, error) {
	sh, err := s.repos.Shares().GetByID(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if _, err := s.vaults.authorize(ctx, userID, sh.VaultID, ActionShare); err != nil {
		return nil, err
	}
	return sh, nil
}

// RevokeShare переводит доступ в expired навсегда.
func (s *ShareService) RevokeShare(ctx context.Context, userID int64, shareID string) error {
	if _, err := s.ownShare(ctx, userID, shareID); err != nil {
		return err
	}
	if err := s.repos.Shares().Revoke(ctx, shareID, s.now()); err != nil {
		return err
	}
	s.logger.Infow("share revoked", "share_id", shareID, "user_id", userID)
	return nil
}

func (s *ShareService) ListShares(ctx context.Context, userID int64, vaultID string) ([]model.VaultShare, error) {
	if _, err := s.vaults.authorize(ctx, userID, vaultID, ActionShare); err != nil {
		return nil, err
	}
	return s.repos.Shares().ListByVault(ctx, vaultID)
}

// ShareLogs — журнал доступа от новых записей к старым.
func (s *ShareService) ShareLogs(ctx context.Context, userID int64, shareID string) ([]model.VaultShareLog, error) {
	if _, err := s.ownShare(ctx, userID, shareID); err != nil {
		return nil, err
	}
	return s.repos.ShareLogs().List(ctx, shareID)
}

// checkOwnerToken проверяет, что владелец доступа знает его токен и доступ ещё жив.
func (s *ShareService) checkOwnerToken(ctx context.Context, userID int64, shareID, token string) (*model.VaultShare, error) {
	sh, err := s.ownShare(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	if !crypto.EqualHash(sh.TokenHash, crypto.HashToken(token)) {
		return nil, common.ErrAccessDenied
	}
	if sh.State(s.now()) == model.ShareExpired {
		return nil, common.ErrShareExpired
	}
	return sh, nil
}
