// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/mdvault/mdvault/internal/server/handlers"
	"github.com/mdvault/mdvault/internal/storage"
	"github.com/mdvault/mdvault/internal/storage/assets"
	"github.com/mdvault/mdvault/internal/watch"
)

// NewRouter creates and configures the HTTP router for the store API.
func NewRouter(store *storage.Store, assetSvc *assets.Service, watcher *watch.Watcher, cfg *storage.ServerConfig, version string) http.Handler {
	mux := &http.ServeMux{}

	dh := handlers.NewDocumentHandler(store)
	dirh := handlers.NewDirectoryHandler(store)
	ah := handlers.NewAssetHandler(assetSvc)
	authh := handlers.NewAuthHandler(cfg.JWTSecret, cfg.EditPasswordHash)
	eh := handlers.NewEventsHandler(watcher)
	hh := handlers.NewHealthHandler(version)

	mux.Handle("GET /api/health", Wrap(hh.Health))
	mux.Handle("POST /api/auth/login", Wrap(authh.Login))

	mux.Handle("GET /api/documents", Wrap(dh.ListDocuments))
	mux.Handle("POST /api/documents", Wrap(dh.CreateDocument))
	mux.Handle("GET /api/documents/{path...}", Wrap(dh.ReadDocument))
	mux.Handle("PUT /api/documents/{path...}", Wrap(dh.WriteDocument))
	mux.Handle("DELETE /api/documents/{path...}", Wrap(dh.DeleteDocument))
	mux.Handle("POST /api/move", Wrap(dh.MoveEntry))

	mux.Handle("POST /api/directories", Wrap(dirh.CreateDirectory))
	mux.Handle("GET /api/directories/{path...}", Wrap(dirh.ListDirectory))
	mux.Handle("DELETE /api/directories/{path...}", Wrap(dirh.DeleteDirectory))

	mux.Handle("POST /api/assets", http.HandlerFunc(ah.UploadHandler))
	mux.Handle("GET /api/assets", Wrap(ah.ListAssets))
	mux.Handle("GET /api/assets/recover-name", Wrap(ah.RecoverName))
	mux.Handle("GET /api/assets/{path...}", http.HandlerFunc(ah.ServeHandler))
	mux.Handle("DELETE /api/assets/{path...}", Wrap(ah.DeleteAsset))

	mux.Handle("GET /api/events", http.HandlerFunc(eh.StreamHandler))

	var handler http.Handler = mux
	handler = AuthMiddleware(cfg.JWTSecret, cfg.EditPasswordHash != "")(handler)
	handler = RateLimitMiddleware(cfg.WriteRatePerMin)(handler)
	return handler
}
