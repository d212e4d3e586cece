package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/CTAG07/Wikitext/pkg/importer"
	"github.com/CTAG07/Wikitext/pkg/pagestore"
	"github.com/CTAG07/Wikitext/pkg/sparql"
)

// Server wires the page store, importer and SPARQL client to their API handlers.
type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	store       *pagestore.Store
	importer    *importer.Importer
	sparql      *sparql.Client
	authAPI     *AuthAPI
	wikitextAPI *WikitextAPI
	pagesAPI    *PagesAPI
	sparqlAPI   *SparqlAPI
	importAPI   *ImportAPI
	serverAPI   *ServerAPI
	apiMux      *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	// Both the store and the importer follow the process-wide wikitext
	// settings, which the ConfigManager keeps in line with the config.
	store, err := pagestore.NewStore(db, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create page store: %w", err)
	}

	var imp *importer.Importer
	if dir := config.Server.ImportSourceDir; dir != "" {
		if err = os.MkdirAll(dir, 0755); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create import source directory: %w", err)
		}
		var sink importer.Sink = store
		if config.Server.ImportOutputDir != "" {
			sink = importer.FileSink{Dir: config.Server.ImportOutputDir}
		}
		imp = importer.New(dir, nil, sink, logger)
	}

	var client *sparql.Client
	if config.Server.SparqlEndpoint != "" {
		opts := []sparql.Option{
			sparql.WithLogger(logger),
			sparql.WithUserAgent("Wikitext/" + Version),
		}
		if config.Server.SparqlToken != "" {
			opts = append(opts, sparql.WithToken(config.Server.SparqlToken))
		}
		client = sparql.NewClient(config.Server.SparqlEndpoint, opts...)
	}

	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		store:       store,
		importer:    imp,
		sparql:      client,
		authAPI:     NewAuthAPI(db, logger),
		wikitextAPI: NewWikitextAPI(cm, logger),
		pagesAPI:    NewPagesAPI(store, logger),
		sparqlAPI:   NewSparqlAPI(client, logger),
		importAPI:   NewImportAPI(imp, logger),
		serverAPI:   NewServerAPI(cm, db, actionChan, logger),
		apiMux:      http.NewServeMux(),
	}

	apiMux := http.NewServeMux()

	server.authAPI.RegisterRoutes(apiMux)
	server.wikitextAPI.RegisterRoutes(apiMux)
	server.pagesAPI.RegisterRoutes(apiMux)
	server.sparqlAPI.RegisterRoutes(apiMux)
	server.importAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(apiMux)
	// ... except for the health check, which is unauthed so something like docker can use it
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", authedAPI)

	return server, nil
}

// Close releases the page store's statements. The database is closed by the caller.
func (s *Server) Close() {
	s.store.Close()
}
