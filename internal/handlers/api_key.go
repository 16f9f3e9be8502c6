package handlers

import (
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/service"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type APIKeyHandler struct {
	APIKeyService *service.APIKeyService
	Logger        *zap.SugaredLogger
}

func NewAPIKeyHandler(keys *service.APIKeyService, logger *zap.SugaredLogger) *APIKeyHandler {
	return &APIKeyHandler{APIKeyService: keys, Logger: logger}
}

type apiKeyDTO struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	// Key заполняется только в ответе на создание
	Key string `json:"key,omitempty"`
}

func toAPIKeyDTO(k *model.APIKey) apiKeyDTO {
	return apiKeyDTO{
		ID:         k.ID,
		Name:       k.Name,
		Prefix:     k.Prefix,
		Active:     k.Active,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, h.Logger, "CreateAPIKey", &req) {
		return
	}
	plain, k, err := h.APIKeyService.Create(r.Context(), currentUser(r), req.Name)
	if err != nil {
		writeError(w, h.Logger, "CreateAPIKey", err)
		return
	}
	dto := toAPIKeyDTO(k)
	dto.Key = plain
	writeJSON(w, http.StatusCreated, dto)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.APIKeyService.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.Logger, "ListAPIKeys", err)
		return
	}
	out := make([]apiKeyDTO, 0, len(keys))
	for i := range keys {
		out = append(out, toAPIKeyDTO(&keys[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *APIKeyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.APIKeyService.Deactivate(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.Logger, "DeactivateAPIKey", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
