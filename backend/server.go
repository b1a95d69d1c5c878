// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/c2FmZQ/storage"
)

const (
	// Also bounds /api/event, since LOAD_GAME carries a whole document.
	maxImportSize = 20 * 1048576

	// How long a request waits for the session before giving up.
	sessionWait = 5 * time.Second
	retryAfter  = "2"
)

func generateETag(data []byte) string {
	return fmt.Sprintf("\"%x\"", sha256.Sum256(data))
}

func sessionBusyResponse(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrSessionClosed) {
		http.Error(w, "Service Unavailable: Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Retry-After", retryAfter)
	http.Error(w, "Too Many Requests: Server is busy", http.StatusTooManyRequests)
}

// ExportFilename is the download name for an export made at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("baseball_score_%s.json", t.Format("2006-01-02"))
}

// Options represent server options.
type Options struct {
	Addr        string
	Cert        *tls.Certificate
	DataDir     string
	UseMockAuth bool
	Debug       bool
	Storage     *storage.Storage
	GameStore   *GameStore
	Listener    net.Listener

	// Game Options
	Lineups        LineupSource
	ReplayInterval time.Duration

	// Auth Options
	AuthCookieName string
	AuthJWKSURL    string

	// Access Control Options
	Scorekeepers string
}

// EventResponse is the reply to POST /api/event.
type EventResponse struct {
	Changed bool      `json:"changed"`
	State   GameState `json:"state"`
}

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	session    *Session
}

// Shutdown gracefully shuts down the HTTP server and then the session.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.session.Close()
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}

// StartServer starts the web server and registers the API handlers.
func StartServer(opts Options) (*Server, error) {
	session, handler := NewServerHandler(opts)

	httpServer := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Cert},
		}
	}

	ln := opts.Listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", opts.Addr); err != nil {
			session.Close()
			return nil, fmt.Errorf("listen %s: %w", opts.Addr, err)
		}
	}

	go func() {
		var err error
		if httpServer.TLSConfig != nil {
			log.Printf("Starting HTTPS server on %s...", ln.Addr())
			err = httpServer.ServeTLS(ln, "", "")
		} else {
			log.Printf("Starting HTTP server on %s...", ln.Addr())
			err = httpServer.Serve(ln)
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return &Server{
		httpServer: httpServer,
		session:    session,
	}, nil
}

// NewServerHandler creates the game session and the HTTP handler serving it.
func NewServerHandler(opts Options) (*Session, http.Handler) {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(opts.DataDir, nil)
	}
	store := opts.GameStore
	if store == nil {
		store = NewGameStore(opts.DataDir, opts.Storage)
		store.Debug = opts.Debug
	}
	lineups := opts.Lineups
	if lineups == nil {
		pool, err := LoadNamePool("")
		if err != nil {
			log.Fatalf("Failed to load built-in roster: %v", err)
		}
		lineups = NewRandomLineups(pool, 0)
	}
	accessControl := NewAccessControl(opts.Scorekeepers)
	if !accessControl.Restricted() {
		log.Println("Warning: No scorekeepers configured. Anyone can change the game.")
	}

	session := NewSession(SessionOptions{
		Reducer:        NewReducer(lineups),
		ReplayInterval: opts.ReplayInterval,
		Debug:          opts.Debug,
	})

	debugf := func(string, ...any) {}
	if opts.Debug {
		debugf = func(f string, a ...any) {
			log.Printf("[DEBUG BACKEND] "+f, a...)
		}
	}

	// requireWrite rejects callers who may not change the game.
	requireWrite := func(w http.ResponseWriter, r *http.Request) bool {
		if ok, msg := accessControl.CanWrite(getUserID(r)); !ok {
			http.Error(w, msg, http.StatusForbidden)
			return false
		}
		return true
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("Error encoding response: %v", err)
		}
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/me", func(w http.ResponseWriter, r *http.Request) {
		userId := getUserID(r)
		canWrite, msg := accessControl.CanWrite(userId)
		writeJSON(w, map[string]any{
			"id":       userId,
			"canWrite": canWrite,
			"message":  msg,
		})
	})

	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		state, err := session.State(ctx)
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		data, err := json.Marshal(state)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		etag := generateETag(data)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	mux.HandleFunc("/api/linescore", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		state, err := session.State(ctx)
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		ls := Summarize(state.Snapshot)
		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			io.WriteString(w, ls.String())
			return
		}
		writeJSON(w, ls)
	})

	mux.HandleFunc("/api/event", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		if !requireWrite(w, r) {
			return
		}
		var ev Event
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportSize)).Decode(&ev); err != nil {
			http.Error(w, "Bad Request: Malformed JSON", http.StatusBadRequest)
			return
		}
		if err := ValidateEvent(ev); err != nil {
			log.Printf("Invalid event from user %s: %v", maskEmail(getUserID(r)), err)
			http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		state, changed, err := session.Dispatch(ctx, ev)
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		debugf("event %s changed=%v", ev.Type, changed)
		writeJSON(w, EventResponse{Changed: changed, State: state})
	})

	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		data, err := session.Export(ctx)
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename(time.Now())))
		w.Write(data)
	})

	mux.HandleFunc("/api/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		if !requireWrite(w, r) {
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
		if err != nil {
			http.Error(w, "Bad Request: Could not read body", http.StatusBadRequest)
			return
		}
		if err := ValidateGameDocument(body); err != nil {
			http.Error(w, "Bad Request: Data validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		state, err := session.Import(ctx, body)
		if errors.Is(err, ErrInvalidGameDocument) {
			http.Error(w, "Bad Request: Data validation failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		writeJSON(w, state)
	})

	mux.HandleFunc("/api/save", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		if !requireWrite(w, r) {
			return
		}
		name := r.URL.Query().Get("name")
		if !ValidGameName(name) {
			http.Error(w, "Bad Request: name is missing or invalid", http.StatusBadRequest)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		state, err := session.State(ctx)
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		if err := store.SaveGame(name, state); err != nil {
			log.Printf("Internal Server Error during SaveGame: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Game %s saved successfully", name)
	})

	// GET returns a saved game; POST loads it into the session.
	mux.HandleFunc("/api/load/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		name, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/api/load/"))
		if err != nil || !ValidGameName(name) {
			http.Error(w, "Bad Request: name is missing or invalid", http.StatusBadRequest)
			return
		}
		data, err := store.LoadGame(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				http.Error(w, "Not Found: Game not found", http.StatusNotFound)
				return
			}
			log.Printf("Internal Server Error during LoadGame: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if r.Method == http.MethodGet {
			etag := generateETag(data)
			if r.Header.Get("If-None-Match") == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("ETag", etag)
			w.Header().Set("Content-Type", "application/json")
			w.Write(data)
			return
		}

		if !requireWrite(w, r) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		state, err := session.Import(ctx, data)
		if err != nil {
			if errors.Is(err, ErrSessionClosed) || errors.Is(err, context.DeadlineExceeded) {
				sessionBusyResponse(w, err)
				return
			}
			log.Printf("Saved game %q failed validation: %v", name, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, state)
	})

	mux.HandleFunc("/api/list-games", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		games := []GameMetadata{}
		for meta, err := range store.FindGames(r.URL.Query().Get("q")) {
			if err != nil {
				log.Printf("Error listing games: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			games = append(games, meta)
		}
		writeJSON(w, games)
	})

	mux.HandleFunc("/api/delete-game", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		if !requireWrite(w, r) {
			return
		}
		name := r.URL.Query().Get("name")
		if !ValidGameName(name) {
			http.Error(w, "Bad Request: name is missing or invalid", http.StatusBadRequest)
			return
		}
		if err := store.DeleteGame(name); err != nil {
			log.Printf("Internal Server Error during DeleteGame: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Game %s deleted successfully", name)
	})

	mux.HandleFunc("/api/replay/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		if !requireWrite(w, r) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		replaying, err := session.StartReplay(ctx)
		if err != nil {
			sessionBusyResponse(w, err)
			return
		}
		writeJSON(w, map[string]bool{"replaying": replaying})
	})

	mux.HandleFunc("/api/replay/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
			return
		}
		if !requireWrite(w, r) {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), sessionWait)
		defer cancel()
		if err := session.StopReplay(ctx); err != nil {
			sessionBusyResponse(w, err)
			return
		}
		writeJSON(w, map[string]bool{"replaying": false})
	})

	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWS(session, accessControl, w, r, debugf)
	})

	handler := http.Handler(mux)
	if opts.UseMockAuth {
		handler = mockAuthMiddleware(handler)
	} else {
		handler = jwtAuthMiddleware(opts, handler)
	}
	handler = loggingMiddleware(handler)
	handler = securityMiddleware(handler)
	handler = cacheControlMiddleware(handler)

	return session, handler
}

// cacheControlMiddleware keeps API responses out of shared caches.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		}
		next.ServeHTTP(w, r)
	})
}

// securityMiddleware adds HTTP security headers to responses.
func securityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs the method and URL path of every incoming HTTP request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
