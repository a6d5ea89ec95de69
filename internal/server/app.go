package server

import (
	"cmms/internal/archive"
	"cmms/internal/auth"
	"cmms/internal/config"
	"cmms/internal/store"
	"cmms/internal/websocket"
)

// ContextKey is the type used for request context keys.
type ContextKey string

const (
	// CtxUsername holds who made the request: "apikey:<prefix>" for bearer
	// tokens, absent for open (keyless) access.
	CtxUsername ContextKey = "username"
)

// App holds shared dependencies for the application.
type App struct {
	Store     *store.Store
	Hub       *websocket.Hub
	Validator *auth.Validator
	Archive   archive.Archiver
	Config    config.Config
}
