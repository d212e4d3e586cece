package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Wikitext/pkg/sparql"
	"github.com/CTAG07/Wikitext/pkg/wikitext"
)

// SparqlAPI turns SPARQL query results into template calls.
type SparqlAPI struct {
	client *sparql.Client
	logger *slog.Logger
}

// ConvertRequest is the body of /api/sparql/convert.
type ConvertRequest struct {
	Results  *sparql.Results `json:"results"`
	Template string          `json:"template"`
	Renames  []sparql.Rename `json:"renames"`
}

// QueryRequest is the body of /api/sparql/query. Without a template the raw
// results are returned.
type QueryRequest struct {
	Query    string          `json:"query"`
	Template string          `json:"template"`
	Renames  []sparql.Rename `json:"renames"`
}

// ConvertResponse carries the converted rows both as records and as markup.
type ConvertResponse struct {
	Rows     int               `json:"rows"`
	Records  wikitext.Document `json:"records"`
	Wikitext string            `json:"wikitext"`
}

// NewSparqlAPI creates the handlers. client may be nil when no endpoint is
// configured; the query endpoint then answers 503.
func NewSparqlAPI(client *sparql.Client, logger *slog.Logger) *SparqlAPI {
	return &SparqlAPI{
		client: client,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/sparql endpoints.
func (a *SparqlAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sparql/convert", a.handleConvert)
	mux.HandleFunc("/api/sparql/query", a.handleQuery)
}

func convertResults(res *sparql.Results, template string, renames []sparql.Rename) ConvertResponse {
	doc := res.ToDocument(template, renames)
	return ConvertResponse{
		Rows:     len(doc),
		Records:  doc,
		Wikitext: wikitext.Render(doc, false),
	}
}

func (a *SparqlAPI) handleConvert(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeWikitextUse) {
		return
	}

	var req ConvertRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Results == nil || req.Template == "" {
		respondWithError(w, http.StatusBadRequest, "Both 'results' and 'template' are required")
		return
	}
	respondWithJSON(w, http.StatusOK, convertResults(req.Results, req.Template, req.Renames))
}

func (a *SparqlAPI) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) || !requireScope(w, r, scopeSparqlQuery) {
		return
	}
	if a.client == nil {
		respondWithError(w, http.StatusServiceUnavailable, "No SPARQL endpoint configured")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.Query == "" {
		respondWithError(w, http.StatusBadRequest, "Missing 'query'")
		return
	}

	res, err := a.client.Query(r.Context(), req.Query)
	if err != nil {
		a.logger.Warn("SPARQL query failed", "error", err)
		respondWithError(w, http.StatusBadGateway, "SPARQL query failed: "+err.Error())
		return
	}
	if req.Template == "" {
		respondWithJSON(w, http.StatusOK, res)
		return
	}
	respondWithJSON(w, http.StatusOK, convertResults(res, req.Template, req.Renames))
}
