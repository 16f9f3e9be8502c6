package handlers

import (
	"VaultKeeper/internal/config"
	"VaultKeeper/internal/model"
	"VaultKeeper/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// VaultHandler обслуживает хранилища, их записи и теги.
type VaultHandler struct {
	VaultService *service.VaultService
	Logger       *zap.SugaredLogger
	Config       *config.Config
}

func NewVaultHandler(vaults *service.VaultService, logger *zap.SugaredLogger, cfg *config.Config) *VaultHandler {
	return &VaultHandler{VaultService: vaults, Logger: logger, Config: cfg}
}

type vaultDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Tags       []string  `json:"tags"`
	KeyVersion int64     `json:"key_version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toVaultDTO(v *model.Vault) vaultDTO {
	return vaultDTO{
		ID:         v.ID,
		Name:       v.Name,
		Tags:       v.TagNames(),
		KeyVersion: v.KeyVersion,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

type tagDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// entryDTO — запись хранилища. Value (base64) есть только там, где значение расшифровано.
type entryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	FileName  string    `json:"file_name,omitempty"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	Value     []byte    `json:"value,omitempty"`
}

func toEntryDTO(e *model.VaultEntry) entryDTO {
	return entryDTO{
		ID:        e.ID,
		Name:      e.Name,
		Kind:      string(e.Kind),
		FileName:  e.FileName,
		Size:      e.Size,
		UpdatedAt: e.UpdatedAt,
	}
}

func toEntryValues(values []service.EntryValue) []entryDTO {
	out := make([]entryDTO, 0, len(values))
	for i := range values {
		dto := toEntryDTO(&values[i].Entry)
		dto.Value = values[i].Value
		out = append(out, dto)
	}
	return out
}

type vaultRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// vaultPatch — частичное изменение: отсутствующее поле не трогаем.
type vaultPatch struct {
	Name *string   `json:"name"`
	Tags *[]string `json:"tags"`
}

type entryRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Value    []byte `json:"value"`
	FileName string `json:"file_name"`
}

func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vaultRequest
	if !decodeJSON(w, r, h.Logger, "CreateVault", &req) {
		return
	}
	v, err := h.VaultService.CreateVault(r.Context(), currentUser(r), req.Name, req.Tags)
	if err != nil {
		writeError(w, h.Logger, "CreateVault", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVaultDTO(v))
}

// List отдаёт хранилища пользователя, ?tag= оставляет только помеченные.
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	vaults, err := h.VaultService.ListVaults(r.Context(), currentUser(r), r.URL.Query().Get("tag"))
	if err != nil {
		writeError(w, h.Logger, "ListVaults", err)
		return
	}
	out := make([]vaultDTO, 0, len(vaults))
	for i := range vaults {
		out = append(out, toVaultDTO(&vaults[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	v, err := h.VaultService.GetVault(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, h.Logger, "GetVault", err)
		return
	}
	writeJSON(w, http.StatusOK, toVaultDTO(v))
}

func (h *VaultHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req vaultPatch
	if !decodeJSON(w, r, h.Logger, "UpdateVault", &req) {
		return
	}
	v, err := h.VaultService.UpdateVault(r.Context(), currentUser(r), id, req.Name, req.Tags)
	if err != nil {
		writeError(w, h.Logger, "UpdateVault", err)
		return
	}
	writeJSON(w, http.StatusOK, toVaultDTO(v))
}

func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.VaultService.DeleteVault(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.Logger, "DeleteVault", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutEntry создаёт запись или заменяет значение записи с тем же именем.
func (h *VaultHandler) PutEntry(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	// Лимит тела с учётом base64 и полей запроса
	maxBody := h.Config.BlobMaxBytes()*4/3 + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Logger.Warnw("PutEntry: payload too large", "vault_id", vaultID, "limit", maxBody)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "payload too large"})
			return
		}
		h.Logger.Warnw("PutEntry: invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
		return
	}

	e, err := h.VaultService.PutEntry(r.Context(), currentUser(r), vaultID, service.EntryInput{
		Name:     req.Name,
		Kind:     model.EntryKind(req.Kind),
		Value:    req.Value,
		FileName: req.FileName,
	})
	if err != nil {
		writeError(w, h.Logger, "PutEntry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(e))
}

func (h *VaultHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.VaultService.ListEntries(r.Context(), currentUser(r), vaultID)
	if err != nil {
		writeError(w, h.Logger, "ListEntries", err)
		return
	}
	out := make([]entryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryDTO(&entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *VaultHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := uuidParam(w, r, "entryID")
	if !ok {
		return
	}
	ev, err := h.VaultService.GetEntry(r.Context(), currentUser(r), vaultID, entryID)
	if err != nil {
		writeError(w, h.Logger, "GetEntry", err)
		return
	}
	dto := toEntryDTO(&ev.Entry)
	dto.Value = ev.Value
	writeJSON(w, http.StatusOK, dto)
}

func (h *VaultHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	vaultID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	entryID, ok := uuidParam(w, r, "entryID")
	if !ok {
		return
	}
	if err := h.VaultService.DeleteEntry(r.Context(), currentUser(r), vaultID, entryID); err != nil {
		writeError(w, h.Logger, "DeleteEntry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, h.Logger, "CreateTag", &req) {
		return
	}
	t, err := h.VaultService.CreateTag(r.Context(), req.Name)
	if err != nil {
		writeError(w, h.Logger, "CreateTag", err)
		return
	}
	writeJSON(w, http.StatusCreated, tagDTO{ID: t.ID, Name: t.Name})
}

func (h *VaultHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.VaultService.ListTags(r.Context())
	if err != nil {
		writeError(w, h.Logger, "ListTags", err)
		return
	}
	out := make([]tagDTO, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagDTO{ID: t.ID, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *VaultHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := h.VaultService.DeleteTag(r.Context(), currentUser(r), id); err != nil {
		writeError(w, h.Logger, "DeleteTag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
