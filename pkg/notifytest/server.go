package notifytest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/notifystream/pkg/broadcast"
	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// DefaultListLimit matches the size of the marketplace's recent list.
const DefaultListLimit = 5

// Server is a running fake. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	paths     notifications.Paths
	csrfToken string
	session   *http.Cookie
	listLimit int
	logger    *slog.Logger
	hub       *broadcast.MemoryBroadcaster[[]byte]

	unauthorized   atomic.Bool
	rejectMarkRead atomic.Bool
	seq            atomic.Int64

	mu             sync.Mutex
	items          []notifications.Notification // newest first
	streamRequests []*http.Request
	markReadIDs    []string
}

// Option configures a Server.
type Option func(*Server)

// WithCSRFToken makes POST endpoints require X-CSRFToken.
func WithCSRFToken(token string) Option {
	return func(s *Server) { s.csrfToken = token }
}

// WithSession makes every endpoint require the given cookie.
func WithSession(name, value string) Option {
	return func(s *Server) { s.session = &http.Cookie{Name: name, Value: value} }
}

// WithListLimit caps the recent list. Zero returns everything.
func WithListLimit(n int) Option {
	return func(s *Server) { s.listLimit = n }
}

func WithPaths(p notifications.Paths) Option {
	return func(s *Server) { s.paths = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer starts a fake marketplace. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		paths:     notifications.DefaultPaths(),
		listLimit: DefaultListLimit,
		logger:    logger.Discard(),
		hub:       broadcast.NewMemoryBroadcaster[[]byte](64),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(s.paths.Stream, s.stream)
	r.Get(s.paths.List, s.list)
	r.Get(s.paths.UnreadCount, s.unreadCount)
	r.Post(s.paths.MarkAllRead, s.markAllRead)
	r.Post(strings.TrimSuffix(s.paths.MarkRead, "/")+"/{id}/", s.markRead)

	s.Server = httptest.NewServer(r)
	return s
}

// Close drops every stream and shuts the server down.
func (s *Server) Close() {
	_ = s.hub.Close()
	s.Server.Close()
}

// Seed stores notifications without pushing them.
func (s *Server) Seed(items ...notifications.Notification) []notifications.Notification {
	out := make([]notifications.Notification, 0, len(items))
	for _, n := range items {
		out = append(out, s.store(n))
	}
	return out
}

// Publish stores n and pushes it to every open stream. Missing ids and
// creation times are filled in. It returns the stored notification and the
// number of streams that received it.
func (s *Server) Publish(n notifications.Notification) (notifications.Notification, int) {
	n = s.store(n)
	data, err := json.Marshal(n)
	if err != nil {
		panic(err)
	}
	return n, s.push(data)
}

// PublishRaw pushes data as-is, e.g. a malformed payload.
func (s *Server) PublishRaw(data string) int {
	return s.push([]byte(data))
}

// DropConnections ends every open stream and returns how many were closed.
func (s *Server) DropConnections() int {
	return s.hub.Disconnect()
}

// SetUnauthorized makes every endpoint answer 401 while on.
func (s *Server) SetUnauthorized(on bool) {
	s.unauthorized.Store(on)
}

// SetRejectMarkRead makes mark-read answer {"status": "error"} while on.
func (s *Server) SetRejectMarkRead(on bool) {
	s.rejectMarkRead.Store(on)
}

// Streams is the number of currently open streams.
func (s *Server) Streams() int {
	return s.hub.Len()
}

// WaitForStreams blocks until n streams are open or ctx is done.
func (s *Server) WaitForStreams(ctx context.Context, n int) bool {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for s.hub.Len() < n {
		select {
		case <-ctx.Done():
			return false
		case <-tick.C:
		}
	}
	return true
}

// StreamRequests is the number of stream handshakes received, accepted or not.
func (s *Server) StreamRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streamRequests)
}

// LastEventIDs returns the Last-Event-ID header of every stream handshake.
func (s *Server) LastEventIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.streamRequests))
	for i, r := range s.streamRequests {
		ids[i] = r.Header.Get("Last-Event-ID")
	}
	return ids
}

// MarkReadIDs lists the ids of accepted mark-read calls in order.
func (s *Server) MarkReadIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.markReadIDs)
}

// Notification returns the server-side copy of id.
func (s *Server) Notification(id notifications.ID) (notifications.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return notifications.Notification{}, false
	}
	return s.items[i], true
}

func (s *Server) store(n notifications.Notification) notifications.Notification {
	if n.ID == "" {
		n.ID = notifications.ID(uuid.NewString())
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(n.ID); i >= 0 {
		s.items[i] = n
	} else {
		s.items = slices.Insert(s.items, 0, n)
	}
	return n
}

func (s *Server) push(data []byte) int {
	id := strconv.FormatInt(s.seq.Add(1), 10)
	return s.hub.Broadcast(context.Background(), broadcast.Message[[]byte]{ID: id, Data: data})
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.streamRequests = append(s.streamRequests, r.Clone(context.Background()))
	s.mu.Unlock()

	if !s.authorized(r) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	sub := s.hub.Subscribe(r.Context())
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Receive():
			if !ok {
				return
			}
			var opts []datastar.SSEEventOption
			if msg.ID != "" {
				opts = append(opts, datastar.WithSSEEventId(msg.ID))
			}
			lines := strings.Split(string(msg.Data), "\n")
			if err := sse.Send(datastar.EventType("message"), lines, opts...); err != nil {
				s.logger.Debug("stream write failed", logger.Error(err))
				return
			}
		}
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	items := slices.Clone(s.items)
	s.mu.Unlock()
	if s.listLimit > 0 && len(items) > s.listLimit {
		items = items[:s.listLimit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	count := 0
	for _, n := range s.items {
		if !n.IsRead {
			count++
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	if !s.acceptPost(w, r) {
		return
	}
	if s.rejectMarkRead.Load() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error"})
		return
	}

	id := notifications.ID(chi.URLParam(r, "id"))
	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.items[i].IsRead = true
		s.markReadIDs = append(s.markReadIDs, string(id))
	}
	s.mu.Unlock()

	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "Notification not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	if !s.acceptPost(w, r) {
		return
	}

	s.mu.Lock()
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// acceptPost applies the session, CSRF and XHR checks of the JSON endpoints.
func (s *Server) acceptPost(w http.ResponseWriter, r *http.Request) bool {
	switch {
	case !s.authorized(r):
		http.Error(w, "authentication required", http.StatusUnauthorized)
	case s.csrfToken != "" && r.Header.Get("X-CSRFToken") != s.csrfToken:
		http.Error(w, "CSRF verification failed", http.StatusForbidden)
	case r.Header.Get("X-Requested-With") != "XMLHttpRequest":
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "ajax only"})
	default:
		return true
	}
	return false
}

func (s *Server) authorized(r *http.Request) bool {
	if s.unauthorized.Load() {
		return false
	}
	if s.session == nil {
		return true
	}
	ck, err := r.Cookie(s.session.Name)
	return err == nil && ck.Value == s.session.Value
}

// indexOf must be called with s.mu held.
func (s *Server) indexOf(id notifications.ID) int {
	return slices.IndexFunc(s.items, func(n notifications.Notification) bool { return n.ID == id })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
