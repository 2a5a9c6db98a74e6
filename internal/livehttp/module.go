// Package livehttp serves a loopback JSON API over the shuffle search and
// the launcher catalog, for scripts and tools running next to the app.
package livehttp

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Module is a Wails-bound service owning the loopback server's lifecycle.
// A zero port leaves the server disabled.
type Module struct {
	server *Server
	port   int
	token  string
}

// NewModule constructs the module but does not start the HTTP server.
func NewModule(ctrl Controller, items ItemLister, port int, token string, logger zerolog.Logger) *Module {
	m := &Module{port: port, token: token}
	if port > 0 {
		m.server = New(ctrl, items, port, token, logger)
	}
	return m
}

// Startup starts the HTTP server if enabled.
func (m *Module) Startup(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Start()
}

// Shutdown stops the HTTP server.
func (m *Module) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}

// Info describes where the API listens, for a Settings/About view.
type Info struct {
	Enabled      bool   `json:"enabled"`
	URL          string `json:"url"`
	TokenEnabled bool   `json:"tokenEnabled"`
}

// Info returns the loopback base URL and whether a token is required.
func (m *Module) Info() Info {
	if m.server == nil {
		return Info{}
	}
	return Info{
		Enabled:      true,
		URL:          fmt.Sprintf("http://127.0.0.1:%d", m.port),
		TokenEnabled: m.token != "",
	}
}
