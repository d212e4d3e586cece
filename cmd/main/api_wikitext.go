package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

// maxBodySize caps request bodies accepted by the conversion endpoints.
const maxBodySize = 8 << 20

// WikitextAPI exposes the conversion engine over HTTP.
type WikitextAPI struct {
	cm     *ConfigManager
	logger *slog.Logger
}

// RenderResponse is returned by the render, template and function endpoints.
type RenderResponse struct {
	Wikitext string           `json:"wikitext"`
	Issues   []wikitext.Issue `json:"issues"`
}

// ParseResponse is returned by the parse endpoint.
type ParseResponse struct {
	Records wikitext.Document `json:"records"`
	Issues  []wikitext.Issue  `json:"issues"`
}

// CallRequest is the body of the template and function endpoints.
type CallRequest struct {
	Name           string          `json:"name"`
	Main           *string         `json:"main,omitempty"`
	Params         json.RawMessage `json:"params"`
	Multiline      bool            `json:"multiline"`
	EscapeDisabled bool            `json:"escape_disabled"`
}

func NewWikitextAPI(cm *ConfigManager, logger *slog.Logger) *WikitextAPI {
	return &WikitextAPI{
		cm:     cm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/wikitext endpoints.
func (a *WikitextAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/wikitext/render", a.handleRender)
	mux.HandleFunc("/api/wikitext/parse", a.handleParse)
	mux.HandleFunc("/api/wikitext/escape", a.handleEscape)
	mux.HandleFunc("/api/wikitext/template", a.handleTemplate)
	mux.HandleFunc("/api/wikitext/function", a.handleFunction)
	mux.HandleFunc("/api/wikitext/settings", a.handleSettings)
}

// nonNil keeps empty issue lists as [] in JSON responses.
func nonNil(issues []wikitext.Issue) []wikitext.Issue {
	if issues == nil {
		return []wikitext.Issue{}
	}
	return issues
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", "POST")
	respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// handleRender renders a document given in its JSON or YAML collection form.
// With ?raw=1 parameter values are written without escaping.
func (a *WikitextAPI) handleRender(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeWikitextUse) {
		return
	}

	doc, issues, err := wikitext.ReadDocument(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid document: "+err.Error())
		return
	}

	escapeDisabled := r.URL.Query().Get("raw") == "1"
	respondWithJSON(w, http.StatusOK, RenderResponse{
		Wikitext: wikitext.Render(doc, escapeDisabled),
		Issues:   nonNil(issues),
	})
}

// handleParse parses the raw request body as markup.
func (a *WikitextAPI) handleParse(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeWikitextUse) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	doc, issues := wikitext.Parse(string(body))
	if doc == nil {
		doc = wikitext.Document{}
	}
	a.logger.Debug("Parsed markup", "records", len(doc), "issues", len(issues))
	respondWithJSON(w, http.StatusOK, ParseResponse{Records: doc, Issues: nonNil(issues)})
}

func (a *WikitextAPI) handleEscape(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeWikitextUse) {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"text": wikitext.Escape(req.Text)})
}

// decodeCall reads a CallRequest and its params, reporting dropped params as issues.
func decodeCall(w http.ResponseWriter, r *http.Request) (CallRequest, *wikitext.ParamMap, []wikitext.Issue, bool) {
	var req CallRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return req, nil, nil, false
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'name'")
		return req, nil, nil, false
	}

	params, issues, err := wikitext.DecodeParamsJSON(req.Params, 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid 'params': "+err.Error())
		return req, nil, nil, false
	}
	return req, params, issues, true
}

func (a *WikitextAPI) handleTemplate(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeWikitextUse) {
		return
	}
	req, params, issues, ok := decodeCall(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, RenderResponse{
		Wikitext: wikitext.RenderTemplate(req.Name, params, req.Multiline, req.EscapeDisabled),
		Issues:   nonNil(issues),
	})
}

func (a *WikitextAPI) handleFunction(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeWikitextUse) {
		return
	}
	req, params, issues, ok := decodeCall(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, RenderResponse{
		Wikitext: wikitext.RenderFunction(req.Name, params, req.Main, req.Multiline, req.EscapeDisabled),
		Issues:   nonNil(issues),
	})
}

// handleSettings reads or merges the formatting settings. Changes are
// persisted to the config file and used by every later render.
func (a *WikitextAPI) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeWikitextUse) {
			return
		}
		respondWithJSON(w, http.StatusOK, wikitext.GetSettings())
	case http.MethodPatch, http.MethodPut:
		if !requireScope(w, r, scopeWikitextAdmin) {
			return
		}
		var overrides wikitext.Overrides
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&overrides); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		settings, err := a.cm.UpdateWikitext(overrides)
		if err != nil {
			a.logger.Error("Failed to persist wikitext settings", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Settings applied but could not be saved")
			return
		}
		respondWithJSON(w, http.StatusOK, settings)
	default:
		w.Header().Set("Allow", "GET, PATCH, PUT")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
