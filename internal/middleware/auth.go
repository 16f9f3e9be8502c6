package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName — имя cookie с токеном сессии.
const CookieName = "auth_token"

// DefaultTokenTTL — срок жизни токена, если в конфигурации он не задан.
const DefaultTokenTTL = 24 * time.Hour

// APIKeyHeader — заголовок для входа по API-ключу.
const APIKeyHeader = "X-API-Key"

type ctxKey int

const userIDKey ctxKey = iota

// Claims — содержимое JWT.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// BuildToken подписывает токен HS256 для пользователя.
func BuildToken(userID int64, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})
	return token.SignedString([]byte(secret))
}

// ParseToken проверяет подпись и срок, возвращает user_id.
func ParseToken(tokenString, secret string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, errors.New("invalid token")
	}
	return claims.UserID, nil
}

// IssueCookie выпускает токен и кладёт его в cookie. Токен возвращается для тела ответа.
func IssueCookie(w http.ResponseWriter, userID int64, secret string, ttl time.Duration, secure bool) (string, error) {
	token, err := BuildToken(userID, secret, ttl)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(ttl),
	})
	return token, nil
}

// WithAuth кладёт user_id в контекст, если запрос несёт валидный токен
// (cookie или Authorization: Bearer). Без токена запрос идёт дальше анонимно.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(CookieName); err == nil {
					token = c.Value
				}
			}
			if token != "" {
				if uid, err := ParseToken(token, secret); err == nil {
					r = r.WithContext(WithUserID(r.Context(), uid))
				} else if logger != nil {
					logger.Debugw("invalid auth token", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// APIKeyAuthenticator проверяет API-ключ и возвращает владельца.
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, key string) (int64, error)
}

// WithAPIKey аутентифицирует по заголовку X-API-Key, если сессии ещё нет.
func WithAPIKey(auth APIKeyAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if _, ok := GetUserIDFromContext(r.Context()); !ok && key != "" {
				if uid, err := auth.Authenticate(r.Context(), key); err == nil {
					r = r.WithContext(WithUserID(r.Context(), uid))
				} else if logger != nil {
					logger.Infow("api key rejected", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth отвечает 401 анонимным запросам.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID возвращает контекст с user_id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext достаёт user_id, положенный WithAuth или WithAPIKey.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(userIDKey).(int64)
	return uid, ok
}
