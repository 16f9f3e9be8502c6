package handlers

import (
	"VaultKeeper/internal/config"
	"VaultKeeper/internal/middleware"
	"VaultKeeper/internal/service"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// UserHandler — регистрация, вход, одноразовые коды и ротация ключа.
type UserHandler struct {
	UserService *service.UserService
	OTPService  *service.OTPService
	KeyService  *service.KeyService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

func NewUserHandler(
	users *service.UserService,
	otp *service.OTPService,
	keys *service.KeyService,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *UserHandler {
	return &UserHandler{UserService: users, OTPService: otp, KeyService: keys, Logger: logger, Config: cfg}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

type sessionResponse struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Token string `json:"token"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// Register создаёт пользователя и сразу открывает сессию.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, h.Logger, "Register", &req) {
		return
	}
	u, err := h.UserService.Register(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, h.Logger, "Register", err)
		return
	}
	h.startSession(w, u.ID, u.Login)
}

// Login проверяет пароль и код, выдаёт токен в cookie и в теле ответа.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, h.Logger, "Login", &req) {
		return
	}
	u, err := h.UserService.Login(r.Context(), req.Login, req.Password, req.OTP)
	if err != nil {
		writeError(w, h.Logger, "Login", err)
		return
	}
	h.startSession(w, u.ID, u.Login)
}

func (h *UserHandler) startSession(w http.ResponseWriter, userID int64, login string) {
	ttl := h.Config.TokenTTL
	if ttl <= 0 {
		ttl = middleware.DefaultTokenTTL
	}
	token, err := middleware.IssueCookie(w, userID, h.Config.AuthSecret, ttl, h.Config.EnableHTTPS)
	if err != nil {
		h.Logger.Errorw("failed to issue token", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: userID, Login: login, Token: token})
}

// Status сообщает, под кем выполнен запрос.
func (h *UserHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"result": "anonymous"})
		return
	}
	resp := map[string]any{"result": fmt.Sprintf("User ID = %d", uid)}
	if u, err := h.UserService.GetUser(r.Context(), uid); err == nil {
		resp["login"] = u.Login
		resp["otp_enabled"] = u.OTPEnabled
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) SetupOTP(w http.ResponseWriter, r *http.Request) {
	secret, url, err := h.OTPService.Setup(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.Logger, "SetupOTP", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"secret": secret, "url": url})
}

func (h *UserHandler) ConfirmOTP(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeJSON(w, r, h.Logger, "ConfirmOTP", &req) {
		return
	}
	if err := h.OTPService.Confirm(r.Context(), currentUser(r), req.Code); err != nil {
		writeError(w, h.Logger, "ConfirmOTP", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"otp_enabled": true})
}

func (h *UserHandler) DisableOTP(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if !decodeJSON(w, r, h.Logger, "DisableOTP", &req) {
		return
	}
	if err := h.OTPService.Disable(r.Context(), currentUser(r), req.Code); err != nil {
		writeError(w, h.Logger, "DisableOTP", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"otp_enabled": false})
}

// RotateKey выпускает новую версию ключа пользователя.
func (h *UserHandler) RotateKey(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	version, err := h.KeyService.Rotate(r.Context(), uid)
	if err != nil {
		writeError(w, h.Logger, "RotateKey", err)
		return
	}
	h.Logger.Infow("user key rotated", "user_id", uid, "version", version)
	writeJSON(w, http.StatusOK, map[string]int64{"version": version})
}
