package service

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/metrics"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/ratelimit"
	"VaultKeeper/internal/repo"
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService — регистрация и вход.
type UserService struct {
	repos   repo.Manager
	keys    *KeyService
	otp     *OTPService
	limiter *ratelimit.Limiter
	rec     metrics.Recorder
	logger  *zap.SugaredLogger
}

func NewUserService(
	repos repo.Manager,
	keys *KeyService,
	otp *OTPService,
	limiter *ratelimit.Limiter,
	rec metrics.Recorder,
	logger *zap.SugaredLogger,
) *UserService {
	return &UserService{repos: repos, keys: keys, otp: otp, limiter: limiter, rec: rec, logger: logger}
}

// Register создаёт пользователя и первую версию его ключа.
func (s *UserService) Register(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if n := utf8.RuneCountInString(login); n < 3 || n > 64 {
		return nil, invalid("login must be 3..64 characters")
	}
	if password == "" {
		return nil, invalid("password is required")
	}

	existing, err := s.repos.Users().GetUserByLogin(ctx, login)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrLoginTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.repos.Transaction(ctx, func(tx repo.Manager) error {
		u, err := tx.Users().CreateUser(ctx, &model.User{Login: login, Password: string(hash)})
		if err != nil {
			return err
		}
		if _, err := s.keys.create(ctx, tx, u.ID, 1); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("user registered", "user_id", user.ID, "login", login)
	return user, nil
}

// Login проверяет пароль и, если включены, одноразовый код.
// Неудачи по логину расходуют бюджет попыток; при пустом бюджете — ErrRateLimited.
func (s *UserService) Login(ctx context.Context, login, password, code string) (*model.User, error) {
	if s.limiter.Blocked(login) {
		s.rec.Login(metrics.ResultRateLimited)
		s.logger.Warnw("login rate limited", "login", login)
		return nil, common.ErrRateLimited
	}

	u, err := s.repos.Users().GetUserByLogin(ctx, login)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, s.loginFailed(login, "bad password")
	}
	if u.OTPEnabled && !s.otp.Verify(u, code) {
		return nil, s.loginFailed(login, "bad one-time code")
	}

	s.limiter.Reset(login)
	s.rec.Login(metrics.ResultSuccess)
	return u, nil
}

func (s *UserService) loginFailed(login, reason string) error {
	s.limiter.Fail(login)
	s.rec.Login(metrics.ResultDenied)
	s.logger.Infow("login failed", "login", login, "reason", reason)
	return ErrInvalidCredentials
}

// GetUser возвращает пользователя по id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repos.Users().GetUserByID(ctx, id)
}
