package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Wikitext/pkg/importer"
)

// ImportAPI triggers descriptor imports.
type ImportAPI struct {
	importer *importer.Importer
	logger   *slog.Logger
}

func NewImportAPI(imp *importer.Importer, logger *slog.Logger) *ImportAPI {
	return &ImportAPI{
		importer: imp,
		logger:   logger,
	}
}

// RegisterRoutes sets up the routing for all /api/import endpoints.
func (a *ImportAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/import/run", a.handleRun)
}

// handleRun imports every descriptor in the source directory and returns one
// report per file.
func (a *ImportAPI) handleRun(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeImportRun) {
		return
	}
	if a.importer == nil {
		respondWithError(w, http.StatusServiceUnavailable, "No import source directory configured")
		return
	}

	reports, err := a.importer.ImportAll(r.Context())
	if err != nil {
		a.logger.Error("Import run failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Import run failed: "+err.Error())
		return
	}

	failed := 0
	for _, report := range reports {
		if report.Error != "" {
			failed++
		}
	}
	a.logger.Info("Import run finished", "files", len(reports), "failed", failed)
	respondWithJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"failed":  failed,
	})
}
