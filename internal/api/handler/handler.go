package handler

import (
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/storage"
)

// Handler bundles the hub and its collaborators for the HTTP routes.
type Handler struct {
	Hub   *chathub.Hub
	Store storage.Storage
	JWT   config.JWTConfig
}

func NewHandler(hub *chathub.Hub, store storage.Storage, jwtCfg config.JWTConfig) *Handler {
	return &Handler{Hub: hub, Store: store, JWT: jwtCfg}
}
