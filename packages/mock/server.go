// Package mock serves an offline stand-in for the time API so the bundled
// suite can run without network access.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/builtin"
	"github.com/abdul-hamid-achik/timecheck/packages/fixture"
	"github.com/abdul-hamid-achik/timecheck/resources"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPort is the port used by Start when none is configured.
	DefaultPort = 3000
	// BasePath mirrors the service's /api prefix.
	BasePath = "/api"
	// ZonesFixture names the bundled table the zone list is read from.
	ZonesFixture = "TimeZones.csv"
)

// Server emulates the time zone list, current time and increment endpoints.
type Server struct {
	router *Router
	port   int
	delay  time.Duration
	logger *logrus.Logger
	clock  builtin.Clock
	zones  []string
}

type Option func(*Server)

func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithDelay holds every response for d, which makes latency checks fail on
// purpose.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithClock(clock builtin.Clock) Option {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithZones replaces the advertised zone list.
func WithZones(zones []string) Option {
	return func(s *Server) {
		s.zones = append([]string(nil), zones...)
	}
}

// NewServer builds a server. Without WithZones the zone list comes from the
// bundled fixture.
func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		router: NewRouter(BasePath),
		port:   DefaultPort,
		clock:  builtin.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.SetOutput(io.Discard)
	}

	if s.zones == nil {
		zones, err := BundledZones()
		if err != nil {
			return nil, err
		}
		s.zones = zones
	}

	s.router.AddRoute(&Route{Method: http.MethodGet, Path: "/TimeZone/AvailableTimeZones", Name: "availableTimeZones", Handler: s.availableTimeZones})
	s.router.AddRoute(&Route{Method: http.MethodGet, Path: "/Time/current/zone", Name: "currentTime", Handler: s.currentTime})
	s.router.AddRoute(&Route{Method: http.MethodPost, Path: "/Calculation/current/increment", Name: "increment", Handler: s.increment})

	return s, nil
}

// BundledZones reads the zone fixture shipped with the binary.
func BundledZones() ([]string, error) {
	table, err := fixture.NewLoader(resources.FS).Table(ZonesFixture)
	if err != nil {
		return nil, err
	}
	zones, err := table.Values()
	if err != nil {
		return nil, errors.Wrap(err, "reading zone fixture")
	}
	return zones, nil
}

func (s *Server) Routes() []*Route {
	return s.router.Routes()
}

func (s *Server) Zones() []string {
	return append([]string(nil), s.zones...)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	route, allowed := s.router.Match(r.Method, r.URL.Path)
	entry := s.logger.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path})

	if route == nil {
		status := http.StatusNotFound
		if !allowed {
			status = http.StatusMethodNotAllowed
		}
		http.Error(w, http.StatusText(status), status)
		entry.WithField("status", status).Info("no route")
		return
	}

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	route.Handler(rec, r)

	entry.WithFields(logrus.Fields{
		"route":       route.Name,
		"status":      rec.status,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("served")
}

// Start listens on the configured port until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return errors.Wrapf(err, "listening on port %d", s.port)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.WithFields(logrus.Fields{
		"addr":   ln.Addr().String(),
		"routes": len(s.router.Routes()),
	}).Info("mock server listening")

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
