package service

import (
	"VaultKeeper/internal/model"
	"context"
)

// Action — что пользователь собирается сделать с хранилищем.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionShare  Action = "share"
	ActionDelete Action = "delete"
)

// Policy решает, можно ли пользователю выполнить действие над хранилищем.
type Policy interface {
	Allow(ctx context.Context, userID int64, v *model.Vault, action Action) bool
}

// OwnerPolicy разрешает всё владельцу и ничего остальным.
type OwnerPolicy struct{}

func (OwnerPolicy) Allow(_ context.Context, userID int64, v *model.Vault, _ Action) bool {
	return v != nil && v.OwnerID == userID
}
