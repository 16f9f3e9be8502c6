package service

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/repo"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InboxService доставляет доступы другим пользователям.
// Токен доступа в ящике обёрнут ключом получателя.
type InboxService struct {
	repos  repo.Manager
	shares *ShareService
	keys   *KeyService
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewInboxService(repos repo.Manager, shares *ShareService, keys *KeyService, logger *zap.SugaredLogger) *InboxService {
	return &InboxService{
		repos:  repos,
		shares: shares,
		keys:   keys,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Deliver кладёт доступ в ящик получателя. Отправитель должен владеть доступом и знать токен.
func (s *InboxService) Deliver(ctx context.Context, senderID int64, shareID, token, recipientLogin, note string) (*model.VaultInboxItem, error) {
	sh, err := s.shares.checkOwnerToken(ctx, senderID, shareID, token)
	if err != nil {
		return nil, err
	}
	recipient, err := s.repos.Users().GetUserByLogin(ctx, recipientLogin)
	if errors.Is(err, common.ErrNotFound) || (err == nil && recipient == nil) {
		return nil, invalid("unknown recipient %q", recipientLogin)
	}
	if err != nil {
		return nil, err
	}
	version, key, err := s.keys.Current(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	var item *model.VaultInboxItem
	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		in, err := tx.Inboxes().GetOrCreate(ctx, recipient.ID)
		if err != nil {
			return err
		}
		item = &model.VaultInboxItem{
			ID:         uuid.NewString(),
			InboxID:    in.ID,
			ShareID:    sh.ID,
			SenderID:   senderID,
			Note:       note,
			KeyVersion: version,
		}
		if err := seal(item, []byte(token), key); err != nil {
			return err
		}
		if err := tx.Inboxes().AddItem(ctx, item); err != nil {
			return err
		}
		return tx.Inboxes().AppendLog(ctx, &model.VaultInboxLog{
			InboxID:   in.ID,
			Message:   fmt.Sprintf("delivered share %s from user %d", sh.ID, senderID),
			CreatedAt: s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("share delivered", "share_id", sh.ID, "from", senderID, "to", recipient.ID)
	return item, nil
}

// List — доставленные пользователю доступы, новые первыми.
func (s *InboxService) List(ctx context.Context, userID int64) ([]model.VaultInboxItem, error) {
	in, err := s.repos.Inboxes().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repos.Inboxes().ListItems(ctx, in.ID)
}

// Open разворачивает токен элемента ящика и обращается по нему к доступу.
func (s *InboxService) Open(ctx context.Context, userID int64, itemID string) ([]EntryValue, error) {
	in, err := s.repos.Inboxes().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repos.Inboxes().GetItem(ctx, in.ID, itemID)
	if err != nil {
		return nil, err
	}
	key, err := s.keys.Key(ctx, userID, item.KeyVersion)
	if err != nil {
		return nil, err
	}
	token, err := unseal(item, key)
	if err != nil {
		return nil, fmt.Errorf("unwrap inbox item %s: %w", item.ID, err)
	}

	entries, err := s.shares.ConsumeShare(ctx, item.ShareID, string(token))
	msg := fmt.Sprintf("opened share %s", item.ShareID)
	if err != nil {
		msg = fmt.Sprintf("open failed for share %s: %v", item.ShareID, err)
	}
	if lerr := s.repos.Inboxes().AppendLog(ctx, &model.VaultInboxLog{InboxID: in.ID, Message: msg, CreatedAt: s.now()}); lerr != nil {
		s.logger.Errorw("failed to write inbox log", "inbox_id", in.ID, "error", lerr)
	}
	return entries, err
}

// Logs — журнал ящика, новые записи первыми.
func (s *InboxService) Logs(ctx context.Context, userID int64) ([]model.VaultInboxLog, error) {
	in, err := s.repos.Inboxes().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repos.Inboxes().Logs(ctx, in.ID)
}
