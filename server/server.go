// Package server is a development stand-in for the dashboard backends. It
// implements login, token refresh, a few protected resources and the
// "Token expired" session signal so the access layer can be exercised
// end to end without the real services.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/internal/config"
	"github.com/storkych/ccj-frontend-sub000/server/loginsession"
	"github.com/storkych/ccj-frontend-sub000/server/refreshtokens"
)

// Config is what the stub server reads from the application configuration.
type Config interface {
	config.EnvConfig
	config.StubConfig
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config Config

	users         *UserDirectory
	tokens        *TokenIssuer
	refreshTokens *refreshtokens.Manager
	loginSessions loginsession.Repo
	rotateRefresh atomic.Bool
	refreshCalls  atomic.Int64

	objectsLock  sync.RWMutex
	objects      map[int64]Object
	nextObjectID int64
}

func New(cfg Config, users *UserDirectory) (*Server, error) {
	if cfg.GetSigningKey() == "" {
		return nil, fmt.Errorf("[Server New] signing key is required")
	}

	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		users:         users,
		tokens:        NewTokenIssuer([]byte(cfg.GetSigningKey()), cfg.GetAccessTokenExpiry()),
		refreshTokens: refreshtokens.NewManager(refreshtokens.NewInMemoryRepo(), cfg.GetRefreshTokenExpiry()),
		loginSessions: loginsession.NewInMemoryLoginSessionRepo(),
		objects:       make(map[int64]Object),
		nextObjectID:  1,
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// SetRefreshRotation makes the refresh endpoint issue a new refresh token
// on every call instead of leaving the client with its current one.
func (s *Server) SetRefreshRotation(rotate bool) {
	s.rotateRefresh.Store(rotate)
}

// RefreshCalls reports how many refresh requests the server has received.
func (s *Server) RefreshCalls() int64 {
	return s.refreshCalls.Load()
}

// Routes returns the registered route patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s] %s", colourMethod(method), path)
}
