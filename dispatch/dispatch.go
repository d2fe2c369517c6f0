// Package dispatch exposes the scheduler over HTTP: the surface N worker
// processes poll to pull work and report completion.
//
// Grounded on distr1-distri's autobuilder/repobrowser control-plane
// handlers: a bare http.ServeMux, no router library, JSON in/out via
// encoding/json, and a background goroutine driving graceful shutdown
// rather than calling os.Exit from inside a request handler.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"rpmsynth/auditdb"
	"rpmsynth/cycle"
	"rpmsynth/log"
	"rpmsynth/scheduler"
)

// ErrDispatchProtocol is the sentinel DispatchProtocolError wraps.
var ErrDispatchProtocol = errors.New("dispatch protocol error")

// DispatchProtocolError reports a malformed /notifybuild/ request: a
// missing field, or a status outside {0, -1}.
type DispatchProtocolError struct {
	Reason string
}

func (e *DispatchProtocolError) Error() string {
	return fmt.Sprintf("dispatch protocol error: %s", e.Reason)
}

func (e *DispatchProtocolError) Unwrap() error {
	return ErrDispatchProtocol
}

// notifyBody is the wire shape POSTed to /notifybuild/.
type notifyBody struct {
	Package string `json:"package"`
	Status  int    `json:"status"`
}

// notifyWire mirrors notifyBody for decoding only, with Status as a pointer
// so a request that omits the field can be told apart from one that sends
// status: 0 (success) — encoding/json leaves an absent field as the zero
// value otherwise, which would silently treat "no status" as "succeeded".
type notifyWire struct {
	Package string `json:"package"`
	Status  *int   `json:"status"`
}

// Constants is the JSON snapshot served at /constants/ — whatever
// configuration knobs a worker needs to mirror the coordinator's view of the
// world (paths, arch, feature flags). The dispatch server treats it as an
// opaque value supplied by the caller at construction.
type Constants map[string]any

// Server is the HTTP front end for one coordinator run. It holds no
// scheduling logic itself — everything funnels through *scheduler.State —
// and appends to the audit log only after releasing whatever lock produced
// the value being logged.
type Server struct {
	state      *scheduler.State
	pkgToCycle cycle.MapPackageToCycle
	constants  Constants
	audit      *auditdb.DB
	logger     log.LibraryLogger

	httpServer *http.Server

	shutdownOnce sync.Once
}

// New builds a Server. audit may be nil, in which case audit events are
// silently skipped (useful in tests that don't care about the log).
func New(addr string, state *scheduler.State, pkgToCycle cycle.MapPackageToCycle, constants Constants, audit *auditdb.DB, logger log.LibraryLogger) *Server {
	s := &Server{
		state:      state,
		pkgToCycle: pkgToCycle,
		constants:  constants,
		audit:      audit,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/package/", s.handlePackage)
	mux.HandleFunc("/notifybuild/", s.handleNotifyBuild)
	mux.HandleFunc("/donelist/", s.handleDoneList)
	mux.HandleFunc("/mappackagetocycle/", s.handleMapPackageToCycle)
	mux.HandleFunc("/constants/", s.handleConstants)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// ListenAndServe runs the server until Shutdown is called or an
// unrecoverable error occurs.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the address the underlying http.Server was configured with.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	base, ok := s.state.NextPackage()
	if !ok {
		if s.state.IsComplete() {
			s.logger.Info("all packages dispatched and accounted for, shutting down")
			s.triggerShutdown()
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.appendAudit(base, auditdb.EventDispatched)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, base)
}

func (s *Server) handleNotifyBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var wire notifyWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		s.writeProtocolError(w, fmt.Sprintf("malformed body: %v", err))
		return
	}
	if wire.Package == "" {
		s.writeProtocolError(w, "missing package field")
		return
	}
	if wire.Status == nil {
		s.writeProtocolError(w, "missing status field")
		return
	}

	body := notifyBody{Package: wire.Package, Status: *wire.Status}
	switch body.Status {
	case 0:
		s.state.NotifySuccess(body.Package)
		s.appendAudit(body.Package, auditdb.EventNotifiedSuccess)
		s.logger.Info("package %s succeeded", body.Package)
	case -1:
		s.state.NotifyFailure(body.Package)
		s.appendAudit(body.Package, auditdb.EventNotifiedFailure)
		s.logger.Info("package %s failed", body.Package)
	default:
		http.Error(w, (&DispatchProtocolError{Reason: fmt.Sprintf("status %d out of range", body.Status)}).Error(), http.StatusNotAcceptable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDoneList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{"packages": s.state.DoneList()})
}

func (s *Server) handleMapPackageToCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.pkgToCycle)
}

func (s *Server) handleConstants(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.constants)
}

func (s *Server) writeProtocolError(w http.ResponseWriter, reason string) {
	http.Error(w, (&DispatchProtocolError{Reason: reason}).Error(), http.StatusBadRequest)
}

func (s *Server) appendAudit(base, event string) {
	if s.audit == nil {
		return
	}
	if _, err := s.audit.Append(base, event, time.Now()); err != nil {
		s.logger.Info("audit append failed for %s/%s: %v", base, event, err)
	}
}

// triggerShutdown initiates orderly shutdown from a background goroutine,
// never from inside a handler still holding the scheduler lock — by the
// time this runs, NextPackage has already released it.
func (s *Server) triggerShutdown() {
	s.shutdownOnce.Do(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.logger.Info("shutdown error: %v", err)
			}
		}()
	})
}

// Shutdown gracefully stops the server; exposed for callers (e.g. signal
// handlers in cmd/build.go) that need to force shutdown outside the normal
// completion path.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
