// Package api exposes the jurisdiction lookups and the search pipeline over
// HTTP, mirroring the cascading select boxes of the eCourts site: each lookup
// endpoint returns the options for one hierarchy level given its parents.
package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/causelist"
	"github.com/coolbeans/adalat/pkg/jurisdiction"
)

// DefaultListenAddr is the default bind address for the API server.
const DefaultListenAddr = ":8080"

// ServerConfig configures a Server.
type ServerConfig struct {
	// Engine runs searches and bulk runs. Required.
	Engine *causelist.Engine

	// Resolver answers the lookup endpoints. Required.
	Resolver *jurisdiction.Resolver

	// Logger receives request diagnostics. Default: zap.NewNop().
	Logger *zap.Logger
}

// Server routes API requests to the engine and resolver.
type Server struct {
	router   *http.ServeMux
	engine   *causelist.Engine
	resolver *jurisdiction.Resolver
	logger   *zap.Logger
}

// NewServer creates a Server and registers its routes.
func NewServer(config ServerConfig) *Server {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	server := &Server{
		router:   http.NewServeMux(),
		engine:   config.Engine,
		resolver: config.Resolver,
		logger:   logger,
	}

	server.router.HandleFunc("GET /api/states", server.handleStates)
	server.router.HandleFunc("GET /api/districts/{state}", server.handleDistricts)
	server.router.HandleFunc("GET /api/complexes/{state}/{district}", server.handleComplexes)
	server.router.HandleFunc("GET /api/courts/{state}/{district}/{complex}", server.handleCourts)
	server.router.HandleFunc("POST /api/search", server.handleSearch)
	server.router.HandleFunc("POST /api/bulk", server.handleBulk)
	return server
}

// Handler returns the server's root handler, for mounting and for tests.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Start binds the server to the address and serves until failure.
func (server *Server) Start(listenAddr string) error {
	if listenAddr == "" {
		listenAddr = DefaultListenAddr
	}
	server.logger.Info("api server listening", zap.String("addr", listenAddr))
	return http.ListenAndServe(listenAddr, server.router)
}
