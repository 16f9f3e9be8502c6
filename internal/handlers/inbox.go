package handlers

import (
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/service"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type InboxHandler struct {
	InboxService *service.InboxService
	Logger       *zap.SugaredLogger
}

func NewInboxHandler(inbox *service.InboxService, logger *zap.SugaredLogger) *InboxHandler {
	return &InboxHandler{InboxService: inbox, Logger: logger}
}

type inboxItemDTO struct {
	ID        string    `json:"id"`
	ShareID   string    `json:"share_id"`
	SenderID  int64     `json:"sender_id"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toInboxItemDTO(i *model.VaultInboxItem) inboxItemDTO {
	return inboxItemDTO{ID: i.ID, ShareID: i.ShareID, SenderID: i.SenderID, Note: i.Note, CreatedAt: i.CreatedAt}
}

type inboxLogDTO struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.InboxService.List(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.Logger, "ListInbox", err)
		return
	}
	out := make([]inboxItemDTO, 0, len(items))
	for i := range items {
		out = append(out, toInboxItemDTO(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Open обращается к доступу из ящика и возвращает его записи.
func (h *InboxHandler) Open(w http.ResponseWriter, r *http.Request) {
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	values, err := h.InboxService.Open(service.WithClient(r.Context(), clientAddr(r)), currentUser(r), itemID)
	if err != nil {
		writeError(w, h.Logger, "OpenInboxItem", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryValues(values)})
}

func (h *InboxHandler) Logs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.InboxService.Logs(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, h.Logger, "InboxLogs", err)
		return
	}
	out := make([]inboxLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, inboxLogDTO{ID: l.ID, Message: l.Message, CreatedAt: l.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}
