package backend

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	"github.com/storkych/ccj-frontend-sub000/internal/config"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/sessions"
	"github.com/storkych/ccj-frontend-sub000/token/refresh"
)

// Set holds one client per backend, all sharing a credential store, refresh
// coordinator and session guard.
type Set struct {
	Store       *credentials.Store
	Coordinator *refresh.Coordinator
	Guard       *sessions.Guard

	clients map[Tag]*Client
}

// Endpoints builds the endpoint list from configuration.
func Endpoints(cfg config.BackendsConfig) []Endpoint {
	return []Endpoint{
		{Tag: TagAPI, BaseURL: cfg.GetAPIURL()},
		{Tag: TagNotifications, BaseURL: cfg.GetNotificationsURL()},
		{Tag: TagVisits, BaseURL: cfg.GetVisitsURL()},
		{Tag: TagTickets, BaseURL: cfg.GetTicketsURL()},
		{Tag: TagAI, BaseURL: cfg.GetAIURL()},
		{Tag: TagFiles, BaseURL: cfg.GetFilesURL()},
	}
}

// NewSet wires a client for every configured backend. Token refreshes always
// go to the core API backend.
func NewSet(cfg config.Config, store *credentials.Store, httpClient *http.Client, logger *zerolog.Logger) *Set {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.GetHTTPTimeout()}
	}
	l := log.Logger
	if logger != nil {
		l = *logger
	}

	refreshOpts := []refresh.Option{refresh.WithLogger(l)}
	if !cfg.GetRefreshSingleFlight() {
		refreshOpts = append(refreshOpts, refresh.WithoutSingleFlight())
	}

	guard := sessions.NewGuard(store, cfg.GetLoginRoute())
	guard.SetLogger(l)

	s := &Set{
		Store:       store,
		Coordinator: refresh.NewCoordinator(cfg.GetAPIURL(), httpClient, refreshOpts...),
		Guard:       guard,
		clients:     make(map[Tag]*Client),
	}
	for _, ep := range Endpoints(cfg) {
		s.clients[ep.Tag] = NewClient(ep, store, s.Coordinator, guard, WithHTTPClient(httpClient), WithLogger(l))
	}
	return s
}

// Client returns the client for tag.
func (s *Set) Client(tag Tag) (*Client, error) {
	c, ok := s.clients[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ierrors.ErrUnknownBackend, tag)
	}
	return c, nil
}

func (s *Set) mustClient(tag Tag) *Client {
	c, err := s.Client(tag)
	if err != nil {
		panic(err)
	}
	return c
}

func (s *Set) API() *Client           { return s.mustClient(TagAPI) }
func (s *Set) Notifications() *Client { return s.mustClient(TagNotifications) }
func (s *Set) Visits() *Client        { return s.mustClient(TagVisits) }
func (s *Set) Tickets() *Client       { return s.mustClient(TagTickets) }
func (s *Set) AI() *Client            { return s.mustClient(TagAI) }
func (s *Set) Files() *Client         { return s.mustClient(TagFiles) }
