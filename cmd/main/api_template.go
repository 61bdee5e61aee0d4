package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Sundew/pkg/site"
	"github.com/CTAG07/Sundew/pkg/templating"
)

// maxRenderBody limits the template text accepted by /api/render.
const maxRenderBody = 1 << 20

// TemplateAPI holds the dependencies for the template API handlers.
type TemplateAPI struct {
	builder *site.Builder
	logger  *slog.Logger
}

// NewTemplateAPI creates a new instance of the TemplateAPI.
func NewTemplateAPI(builder *site.Builder, logger *slog.Logger) *TemplateAPI {
	return &TemplateAPI{
		builder: builder,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routing for the template endpoints.
func (t *TemplateAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/templates", t.handleList)
	mux.HandleFunc("/api/render", t.handleRender)
}

// handleList returns the names of the templates loaded by the last build.
func (t *TemplateAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	names, err := t.builder.TemplateNames()
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, names)
}

// handleRender renders the request body as a template against the variables
// and collections of the last build.
func (t *TemplateAPI) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRenderBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Failed to read request body: %v", err))
		return
	}

	var buf bytes.Buffer
	err = t.builder.Preview(&buf, string(body))
	var se *templating.SyntaxError
	var re *templating.ResourceError
	switch {
	case errors.Is(err, site.ErrNotBuilt):
		respondWithError(w, http.StatusConflict, err.Error())
		return
	case errors.As(err, &se), errors.As(err, &re):
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Template execution failed: %v", err))
		return
	case err != nil:
		t.logger.Error("Failed to render preview", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to render preview: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
