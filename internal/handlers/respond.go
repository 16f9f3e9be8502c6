package handlers

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/middleware"
	"VaultKeeper/internal/service"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf сопоставляет ошибку сервиса коду ответа.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrLoginTaken):
		return http.StatusConflict
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrShareExpired):
		return http.StatusGone
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает кодом по ошибке. Текст внутренних ошибок наружу не отдаётся.
func writeError(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Errorw(op+": service error", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	logger.Debugw(op+": request rejected", "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON читает тело запроса; при ошибке сам отвечает 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, op string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warnw(op+": invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return false
	}
	return true
}

func currentUser(r *http.Request) int64 {
	uid, _ := middleware.GetUserIDFromContext(r.Context())
	return uid
}

// uuidParam возвращает параметр пути, если это корректный UUID. Иначе 404.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if _, err := uuid.Parse(v); err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: common.ErrNotFound.Error()})
		return "", false
	}
	return v, true
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: common.ErrNotFound.Error()})
		return 0, false
	}
	return v, true
}

// clientAddr — адрес клиента без порта, ключ бюджета неудачных попыток.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
