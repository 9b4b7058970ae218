// internal/server/timeouts.go
//
// HTTP server helper with explicit timeouts.
//
// Defaults (overridable through Timeouts):
//
//   • ReadTimeout        – abort slow-loris headers (10 s)
//   • ReadHeaderTimeout  – same bound, applied to headers alone
//   • WriteTimeout       – cap total response time (5 m; design generation
//                          is a long synchronous upstream call)
//   • IdleTimeout        – close keep-alives on idle clients (60 s)
//
// This helper centralises those defaults so cmd/web doesn’t repeat boilerplate.
//

package server

import (
	"net/http"
	"time"
)

// Timeouts overrides the server defaults.  Zero fields keep the default.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// DefaultTimeouts fits a server whose slowest handler waits on generation.
var DefaultTimeouts = Timeouts{
	Read:  10 * time.Second,
	Write: 5 * time.Minute,
	Idle:  60 * time.Second,
}

// New constructs an *http.Server with the given timeouts.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	if t.Read == 0 {
		t.Read = DefaultTimeouts.Read
	}
	if t.Write == 0 {
		t.Write = DefaultTimeouts.Write
	}
	if t.Idle == 0 {
		t.Idle = DefaultTimeouts.Idle
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: t.Read,
		WriteTimeout:      t.Write,
		IdleTimeout:       t.Idle,
	}
}
