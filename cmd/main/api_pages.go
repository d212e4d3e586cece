package main

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/CTAG07/Wikitext/pkg/pagestore"
	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

// PagesAPI holds the dependencies for the page store handlers.
type PagesAPI struct {
	store  *pagestore.Store
	logger *slog.Logger
}

// SaveResponse is returned after a page was saved.
type SaveResponse struct {
	Title    string             `json:"title"`
	Revision pagestore.Revision `json:"revision"`
	Issues   []wikitext.Issue   `json:"issues"`
}

func NewPagesAPI(store *pagestore.Store, logger *slog.Logger) *PagesAPI {
	return &PagesAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the page, backup and stats endpoints.
func (p *PagesAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/pages", p.handleList)
	mux.HandleFunc("/api/pages/", p.handlePage)
	mux.HandleFunc("/api/backup", p.handleBackup)
	mux.HandleFunc("/api/stats/summary", p.handleSummary)
}

func (p *PagesAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopePagesRead) {
		return
	}

	titles, err := p.store.ListPages(r.Context())
	if err != nil {
		p.logger.Error("Failed to list pages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	respondWithJSON(w, http.StatusOK, titles)
}

// handlePage dispatches /api/pages/{title}, /api/pages/{title}/records and
// /api/pages/{title}/history.
func (p *PagesAPI) handlePage(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	sub := ""
	for _, suffix := range []string{"/records", "/history"} {
		if strings.HasSuffix(title, suffix) {
			title, sub = strings.TrimSuffix(title, suffix), suffix
			break
		}
	}
	title = strings.TrimSuffix(title, "/")
	if title == "" {
		respondWithError(w, http.StatusBadRequest, "Missing page title in URL")
		return
	}

	switch {
	case sub == "/records" && r.Method == http.MethodGet:
		p.getRecords(w, r, title)
	case sub == "/history" && r.Method == http.MethodGet:
		p.getHistory(w, r, title)
	case sub != "":
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	case r.Method == http.MethodGet:
		p.getPage(w, r, title)
	case r.Method == http.MethodPut:
		p.putPage(w, r, title)
	case r.Method == http.MethodDelete:
		p.deletePage(w, r, title)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// respondStoreError maps store errors onto HTTP status codes.
func (p *PagesAPI) respondStoreError(w http.ResponseWriter, title string, err error) {
	switch {
	case errors.Is(err, pagestore.ErrPageNotFound):
		respondWithError(w, http.StatusNotFound, "Page not found")
	case errors.Is(err, pagestore.ErrInvalidTitle):
		respondWithError(w, http.StatusBadRequest, "Invalid page title")
	default:
		p.logger.Error("Page store operation failed", "title", title, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Page store operation failed")
	}
}

func (p *PagesAPI) getPage(w http.ResponseWriter, r *http.Request, title string) {
	if !requireScope(w, r, scopePagesRead) {
		return
	}
	page, err := p.store.GetPage(r.Context(), title)
	if err != nil {
		p.respondStoreError(w, title, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func (p *PagesAPI) getRecords(w http.ResponseWriter, r *http.Request, title string) {
	if !requireScope(w, r, scopePagesRead) {
		return
	}
	doc, issues, err := p.store.Records(r.Context(), title)
	if err != nil {
		p.respondStoreError(w, title, err)
		return
	}
	if doc == nil {
		doc = wikitext.Document{}
	}
	respondWithJSON(w, http.StatusOK, ParseResponse{Records: doc, Issues: nonNil(issues)})
}

func (p *PagesAPI) getHistory(w http.ResponseWriter, r *http.Request, title string) {
	if !requireScope(w, r, scopePagesRead) {
		return
	}
	revs, err := p.store.History(r.Context(), title)
	if err != nil {
		p.respondStoreError(w, title, err)
		return
	}
	respondWithJSON(w, http.StatusOK, revs)
}

// putPage saves a new revision. A JSON or YAML body is read as a document and
// rendered; any other body is stored as raw markup.
func (p *PagesAPI) putPage(w http.ResponseWriter, r *http.Request, title string) {
	if !requireScope(w, r, scopePagesWrite) {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		rev    pagestore.Revision
		issues []wikitext.Issue
		err    error
	)
	switch mediaType {
	case "application/json", "application/yaml", "application/x-yaml", "text/yaml":
		var doc wikitext.Document
		doc, issues, err = wikitext.ReadDocument(body)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid document: "+err.Error())
			return
		}
		rev, err = p.store.SaveDocument(r.Context(), title, doc)
	default:
		var markup []byte
		markup, err = io.ReadAll(body)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to read request body")
			return
		}
		rev, err = p.store.SaveWikitext(r.Context(), title, string(markup))
	}
	if err != nil {
		p.respondStoreError(w, title, err)
		return
	}

	normalized, _ := pagestore.NormalizeTitle(title)
	respondWithJSON(w, http.StatusOK, SaveResponse{Title: normalized, Revision: rev, Issues: nonNil(issues)})
}

func (p *PagesAPI) deletePage(w http.ResponseWriter, r *http.Request, title string) {
	if !requireScope(w, r, scopePagesWrite) {
		return
	}
	if err := p.store.DeletePage(r.Context(), title); err != nil {
		p.respondStoreError(w, title, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBackup exports every page on GET and restores an export on POST.
func (p *PagesAPI) handleBackup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopePagesRead) {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="pages.json"`)
		if err := p.store.Export(r.Context(), w); err != nil {
			p.logger.Error("Failed to export pages", "error", err)
		}
	case http.MethodPost:
		if !requireScope(w, r, scopePagesWrite) {
			return
		}
		n, err := p.store.Import(r.Context(), r.Body)
		if err != nil {
			p.logger.Error("Failed to import pages", "imported", n, "error", err)
			respondWithError(w, http.StatusBadRequest, "Import failed: "+err.Error())
			return
		}
		p.logger.Info("Pages restored from backup", "count", n)
		respondWithJSON(w, http.StatusOK, map[string]int{"imported": n})
	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (p *PagesAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeStatsRead) {
		return
	}
	summary, err := p.store.Summary(r.Context())
	if err != nil {
		p.logger.Error("Failed to get summary stats", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve stats summary")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}
