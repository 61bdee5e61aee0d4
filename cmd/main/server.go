package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Sundew/pkg/manifest"
	"github.com/CTAG07/Sundew/pkg/site"
)

// Server is the preview server: the built site at / and the API under /api/.
type Server struct {
	logger      *slog.Logger
	builder     *site.Builder
	serverAPI   *ServerAPI
	templateAPI *TemplateAPI
	statsAPI    *StatsAPI
	mux         *http.ServeMux
}

// NewServer wires the API handlers and the static file handler together.
// store may be nil.
func NewServer(config *ConfigManager, logger *slog.Logger, builder *site.Builder, worker *buildWorker, store *manifest.Store, actionChan chan string) *Server {
	server := &Server{
		logger:      logger,
		builder:     builder,
		serverAPI:   NewServerAPI(config, actionChan, logger),
		templateAPI: NewTemplateAPI(builder, logger),
		statsAPI:    NewStatsAPI(store, worker, logger),
		mux:         http.NewServeMux(),
	}

	server.serverAPI.RegisterRoutes(server.mux)
	server.templateAPI.RegisterRoutes(server.mux)
	server.statsAPI.RegisterRoutes(server.mux)
	server.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not Found")
	})

	static := http.FileServer(http.Dir(builder.OutputDir()))
	server.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		setPreviewHeaders(w)
		static.ServeHTTP(w, r)
	})
	return server
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
	s.mux.ServeHTTP(w, r)
}

// setPreviewHeaders keeps browsers from caching pages that change on every
// rebuild.
func setPreviewHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
