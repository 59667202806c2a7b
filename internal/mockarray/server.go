// Package mockarray serves a FlashArray or FlashBlade REST API from
// in-memory state for tests and demonstrations.
package mockarray

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nholik/flash-sentinel/internal/purity"
	"github.com/rs/zerolog"
)

// APIVersion is the only collection version served.
const APIVersion = "2.21"

// DefaultPageLimit applies when a request carries no limit.
const DefaultPageLimit = 100

var advertisedVersions = []string{"1.19", "2.0", "2.1", "2.4", "2.10", "2.17", APIVersion}

var unsupportedParams = []string{"filter", "ids", "names", "sort"}

// Server is a concurrent mock of the array API. All state is owned by the
// instance and guarded by mu.
type Server struct {
	logger zerolog.Logger
	now    func() time.Time

	mu         sync.Mutex
	apiTokens  map[string]struct{}
	sessions   map[string]struct{}
	cursors    map[string]cursor
	faults     map[string]int
	requests   map[string]int
	data       *fixture
	blade      *bladeFixture
	bladeMode  bool
	nextDrive  int
	forceLimit int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithClock replaces time.Now for fixture timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithAPIToken adds an accepted API token.
func WithAPIToken(token string) Option {
	return func(s *Server) { s.apiTokens[token] = struct{}{} }
}

// WithPageLimit caps every page at limit items regardless of the request.
func WithPageLimit(limit int) Option {
	return func(s *Server) { s.forceLimit = limit }
}

// New returns a Server with the default fixture. Without WithAPIToken a
// random token is generated, see APIToken.
func New(opts ...Option) *Server {
	s := &Server{
		logger:    zerolog.Nop(),
		now:       time.Now,
		apiTokens: make(map[string]struct{}),
		sessions:  make(map[string]struct{}),
		cursors:   make(map[string]cursor),
		faults:    make(map[string]int),
		requests:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.apiTokens) == 0 {
		s.apiTokens[uuid.NewString()] = struct{}{}
	}
	s.data = newFixture(s.now())
	if s.bladeMode {
		s.blade = newBladeFixture(s.now())
	}
	return s
}

// APIToken returns one accepted API token.
func (s *Server) APIToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token := range s.apiTokens {
		return token
	}
	return ""
}

// Requests returns how many collection requests hit resource.
func (s *Server) Requests(resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[resource]
}

// OpenCursors returns the number of cursors not yet drained.
func (s *Server) OpenCursors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cursors)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("mock request")

	switch {
	case r.URL.Path == "/api/api_version":
		s.handleVersions(w, r)
	case r.URL.Path == "/api/login":
		s.handleLogin(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/"+APIVersion+"/"):
		s.handleCollection(w, r, strings.TrimPrefix(r.URL.Path, "/api/"+APIVersion+"/"))
	default:
		writeErrors(w, http.StatusNotFound, r.URL.Path, "not found")
	}
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrors(w, http.StatusMethodNotAllowed, "api_version", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"version": advertisedVersions})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrors(w, http.StatusMethodNotAllowed, "login", "method not allowed")
		return
	}

	s.mu.Lock()
	_, ok := s.apiTokens[r.Header.Get("api-token")]
	session := ""
	if ok {
		session = uuid.NewString()
		s.sessions[session] = struct{}{}
	}
	s.mu.Unlock()

	if !ok {
		writeErrors(w, http.StatusUnauthorized, "login", "invalid api token")
		return
	}
	w.Header().Set("x-auth-token", session)
	writeJSON(w, http.StatusOK, map[string]any{"items": []map[string]string{{"username": "pureuser"}}})
}

// cursor holds the unread tail of a collection and the size of the whole
// collection, which every page reports.
type cursor struct {
	remaining []json.RawMessage
	total     int
}

type pageResponse struct {
	Items             []json.RawMessage `json:"items"`
	ContinuationToken *string           `json:"continuation_token"`
	TotalItemCount    int               `json:"total_item_count"`
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request, resource string) {
	if r.Method != http.MethodGet {
		writeErrors(w, http.StatusMethodNotAllowed, resource, "method not allowed")
		return
	}

	query := r.URL.Query()
	for _, param := range unsupportedParams {
		if query.Has(param) {
			writeErrors(w, http.StatusBadRequest, resource, fmt.Sprintf("the %s parameter is not supported by the mock", param))
			return
		}
	}

	limit, offset, err := pageParams(query.Get("limit"), query.Get("offset"))
	if err != nil {
		writeErrors(w, http.StatusBadRequest, resource, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[r.Header.Get("x-auth-token")]; !ok {
		writeErrors(w, http.StatusUnauthorized, resource, "missing or invalid x-auth-token")
		return
	}

	s.requests[resource]++
	if status, ok := s.faults[resource]; ok {
		writeErrors(w, status, resource, "injected fault")
		return
	}

	if s.forceLimit > 0 && limit > s.forceLimit {
		limit = s.forceLimit
	}

	var remaining []json.RawMessage
	var total int
	if token := query.Get("continuation_token"); token != "" {
		c, ok := s.cursors[token]
		if !ok {
			writeErrors(w, http.StatusBadRequest, resource, "unknown continuation_token")
			return
		}
		delete(s.cursors, token)
		remaining = c.remaining
		total = c.total
	} else {
		items, err := s.collection(resource, query)
		if err != nil {
			status := http.StatusNotFound
			if errors.Is(err, errBadQuery) {
				status = http.StatusBadRequest
			}
			writeErrors(w, status, resource, err.Error())
			return
		}
		total = len(items)
		if offset > len(items) {
			offset = len(items)
		}
		remaining = items[offset:]
	}

	page := pageResponse{Items: remaining, TotalItemCount: total}
	if len(remaining) > limit {
		page.Items = remaining[:limit]
		next := uuid.NewString()
		s.cursors[next] = cursor{remaining: remaining[limit:], total: total}
		page.ContinuationToken = &next
	}
	if page.Items == nil {
		page.Items = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, page)
}

func pageParams(rawLimit, rawOffset string) (int, int, error) {
	limit := DefaultPageLimit
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", rawLimit)
		}
		limit = n
	}
	offset := 0
	if rawOffset != "" {
		n, err := strconv.Atoi(rawOffset)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", rawOffset)
		}
		offset = n
	}
	return limit, offset, nil
}

var errUnknownResource = errors.New("unknown resource")

// collection snapshots resource as encoded items. Callers hold mu.
func (s *Server) collection(resource string, query url.Values) ([]json.RawMessage, error) {
	if s.blade != nil {
		return s.bladeCollection(resource, query)
	}
	d := s.data
	switch resource {
	case purity.ResourceHardware:
		return encodeAll(d.hardwareView())
	case purity.ResourceDrives:
		return encodeAll(d.drives)
	case purity.ResourceControllers:
		return encodeAll(d.controllers)
	case purity.ResourceArrays:
		return encodeAll(d.arrays)
	case purity.ResourceAlerts:
		return encodeAll(d.alerts)
	case purity.ResourceCertificates:
		return encodeAll(d.certificates)
	case purity.ResourceAdminSettings:
		return encodeAll(d.adminSettings)
	case purity.ResourceAPITokens:
		return encodeAll(d.apiTokens)
	case purity.ResourceSMTPServers:
		return encodeAll(d.smtpServers)
	case purity.ResourceDNS:
		return encodeAll(d.dns)
	case purity.ResourceArrayConnections:
		return encodeAll(d.arrayConnections)
	case purity.ResourceInterfaces:
		return encodeAll(d.interfaces)
	case purity.ResourcePortDetails:
		return encodeAll(d.ports)
	case purity.ResourceHosts:
		return encodeAll(d.hosts)
	case purity.ResourceVolumes:
		return encodeAll(d.volumes)
	case purity.ResourceSupport:
		return encodeAll(d.support)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownResource, resource)
	}
}

func encodeAll[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrors(w http.ResponseWriter, status int, context, message string) {
	writeJSON(w, status, map[string][]purity.ErrorDetail{
		"errors": {{Context: context, Message: message}},
	})
}
