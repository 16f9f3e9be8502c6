package handlers

import (
	"VaultKeeper/internal/common"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/service"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShareHandler — доступы к записям по токену и их доставка в ящики.
type ShareHandler struct {
	ShareService *service.ShareService
	InboxService *service.InboxService
	Logger       *zap.SugaredLogger
}

func NewShareHandler(shares *service.ShareService, inbox *service.InboxService, logger *zap.SugaredLogger) *ShareHandler {
	return &ShareHandler{ShareService: shares, InboxService: inbox, Logger: logger}
}

type shareDTO struct {
	ID         string     `json:"id"`
	VaultID    string     `json:"vault_id"`
	State      string     `json:"state"`
	Iterations int64      `json:"iterations"`
	Accesses   int64      `json:"accesses"`
	Remaining  int64      `json:"remaining"`
	Delay      int64      `json:"delay"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	// Token отдаётся один раз, при создании
	Token string `json:"token,omitempty"`
}

func toShareDTO(sh *model.VaultShare, now time.Time) shareDTO {
	return shareDTO{
		ID:         sh.ID,
		VaultID:    sh.VaultID,
		State:      string(sh.State(now)),
		Iterations: sh.Iterations,
		Accesses:   sh.Accesses,
		Remaining:  sh.Remaining(),
		Delay:      sh.DelaySeconds,
		ExpiresAt:  sh.ExpiresAt,
		RevokedAt:  sh.RevokedAt,
		CreatedAt:  sh.CreatedAt,
	}
}

type shareLogDTO struct {
	ID        int64     `json:"id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// shareRequest: delay в секундах, 0 — значение по умолчанию.
type shareRequest struct {
	EntryIDs   []string `json:"entry_ids"`
	Delay      int64    `json:"delay"`
	Iterations int64    `json:"iterations"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type deliverRequest struct {
	Token     string `json:"token"`
	Recipient string `json:"recipient"`
	Note      string `json:"note"`
}

func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req shareRequest
	if !decodeJSON(w, r, h.Logger, "CreateShare", &req) {
		return
	}
	for _, id := range req.EntryIDs {
		if _, err := uuid.Parse(id); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entry id " + id})
			return
		}
	}
	// секунды в time.Duration без переполнения
	if req.Delay > int64(service.MaxShareDelay/time.Second) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "delay is too large"})
		return
	}
	sh, token, err := h.ShareService.CreateShare(r.Context(), currentUser(r), vaultID, req.EntryIDs,
		time.Duration(req.Delay)*time.Second, req.Iterations)
	if err != nil {
		writeError(w, h.Logger, "CreateShare", err)
		return
	}
	dto := toShareDTO(sh, time.Now().UTC())
	dto.Token = token
	writeJSON(w, http.StatusCreated, dto)
}

func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	shares, err := h.ShareService.ListShares(r.Context(), currentUser(r), vaultID)
	if err != nil {
		writeError(w, h.Logger, "ListShares", err)
		return
	}
	now := time.Now().UTC()
	out := make([]shareDTO, 0, len(shares))
	for i := range shares {
		out = append(out, toShareDTO(&shares[i], now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.ShareService.RevokeShare(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.Logger, "RevokeShare", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShareHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	logs, err := h.ShareService.ShareLogs(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, h.Logger, "ShareLogs", err)
		return
	}
	out := make([]shareLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, shareLogDTO{ID: l.ID, Success: l.Success, Message: l.Message, CreatedAt: l.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// Access — обращение к доступу по токену, сессия не нужна.
// Несуществующий доступ неотличим от неверного токена.
func (h *ShareHandler) Access(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, h.Logger, "AccessShare", common.ErrAccessDenied)
		return
	}
	var req tokenRequest
	if !decodeJSON(w, r, h.Logger, "AccessShare", &req) {
		return
	}
	values, err := h.ShareService.ConsumeShare(service.WithClient(r.Context(), clientAddr(r)), id, req.Token)
	if err != nil {
		writeError(w, h.Logger, "AccessShare", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryValues(values)})
}

// Deliver кладёт доступ в ящик другого пользователя.
func (h *ShareHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req deliverRequest
	if !decodeJSON(w, r, h.Logger, "DeliverShare", &req) {
		return
	}
	item, err := h.InboxService.Deliver(r.Context(), currentUser(r), id, req.Token, req.Recipient, req.Note)
	if err != nil {
		writeError(w, h.Logger, "DeliverShare", err)
		return
	}
	writeJSON(w, http.StatusCreated, toInboxItemDTO(item))
}
