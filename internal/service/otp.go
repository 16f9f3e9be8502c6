package service

import (
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/repo"
	"context"
	"fmt"

	"github.com/pquerna/otp/totp"
)

// OTPIssuer попадает в otpauth:// URL и отображается в приложении-аутентификаторе.
const OTPIssuer = "VaultKeeper"

// OTPService — одноразовые коды TOTP для входа.
// Секрет хранится зашифрованным мастер-ключом сервера.
type OTPService struct {
	users  repo.UserRepository
	master []byte
}

func NewOTPService(users repo.UserRepository, master []byte) *OTPService {
	return &OTPService{users: users, master: master}
}

// Setup генерирует новый секрет. Коды не требуются, пока секрет не подтверждён.
// Включённые коды сначала выключаются через Disable с действующим кодом.
func (s *OTPService) Setup(ctx context.Context, userID int64) (secret, url string, err error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	if u.OTPEnabled {
		return "", "", invalid("one-time codes are already enabled")
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: OTPIssuer, AccountName: u.Login})
	if err != nil {
		return "", "", fmt.Errorf("generate totp: %w", err)
	}
	if err := seal(u, []byte(key.Secret()), s.master); err != nil {
		return "", "", err
	}
	if err := s.users.UpdateOTP(ctx, u.ID, u.OTPCipher, u.OTPNonce, false); err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// Confirm включает коды, если code подходит к сохранённому секрету.
func (s *OTPService) Confirm(ctx context.Context, userID int64, code string) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.Verify(u, code) {
		return invalid("wrong one-time code")
	}
	return s.users.UpdateOTP(ctx, u.ID, u.OTPCipher, u.OTPNonce, true)
}

// Disable выключает коды и стирает секрет.
func (s *OTPService) Disable(ctx context.Context, userID int64, code string) error {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.OTPEnabled {
		return invalid("one-time codes are not enabled")
	}
	if !s.Verify(u, code) {
		return invalid("wrong one-time code")
	}
	return s.users.UpdateOTP(ctx, u.ID, nil, nil, false)
}

// Verify проверяет код по секрету пользователя.
func (s *OTPService) Verify(u *model.User, code string) bool {
	if len(u.OTPCipher) == 0 || code == "" {
		return false
	}
	secret, err := unseal(u, s.master)
	if err != nil {
		return false
	}
	return totp.Validate(code, string(secret))
}
