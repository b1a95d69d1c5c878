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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/c2FmZQ/storage"
)

const (
	keeperID = "keeper@example.com"
	fanID    = "fan@example.com"
)

func newTestHandler(t *testing.T, scorekeepers string) (*Session, http.Handler) {
	t.Helper()
	tempDir := t.TempDir()
	session, handler := NewServerHandler(Options{
		DataDir:        tempDir,
		Storage:        storage.New(tempDir, nil),
		UseMockAuth:    true,
		Lineups:        fixedLineups{},
		ReplayInterval: time.Hour,
		Scorekeepers:   scorekeepers,
	})
	t.Cleanup(session.Close)
	return session, handler
}

func TestHTTPHandlers(t *testing.T) {
	_, handler := newTestHandler(t, "Keeper@Example.com")

	// Helper to make authenticated requests
	makeRequest := func(userId, method, url, body string, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, url, strings.NewReader(body))
		if userId != "" {
			req.AddCookie(&http.Cookie{Name: "mock_auth_user", Value: userId})
		}
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}
	dispatch := func(t *testing.T, e Event) EventResponse {
		t.Helper()
		body, _ := json.Marshal(e)
		w := makeRequest(keeperID, "POST", "/api/event", string(body))
		if w.Code != http.StatusOK {
			t.Fatalf("POST /api/event %s: %d - %s", e.Type, w.Code, w.Body.String())
		}
		var resp EventResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		return resp
	}

	t.Run("Me", func(t *testing.T) {
		tests := []struct {
			userId   string
			canWrite bool
			message  string
		}{
			{keeperID, true, ""},
			{fanID, false, "Forbidden: Only scorekeepers can change the game"},
			{"", false, "Unauthenticated: Login required"},
		}
		for _, tt := range tests {
			w := makeRequest(tt.userId, "GET", "/api/me", "")
			var me struct {
				ID       string `json:"id"`
				CanWrite bool   `json:"canWrite"`
				Message  string `json:"message"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
				t.Fatalf("json.Unmarshal: %v", err)
			}
			if me.ID != tt.userId || me.CanWrite != tt.canWrite || me.Message != tt.message {
				t.Errorf("/api/me for %q = %+v", tt.userId, me)
			}
		}
	})

	t.Run("Event", func(t *testing.T) {
		resp := dispatch(t, NewEvent(EventStartGame, StartGamePayload{UserTeam: TeamGuest, UserTeamName: "Tigers", OpponentTeamName: "Lions"}))
		if !resp.Changed || !resp.State.GameStarted {
			t.Errorf("START_GAME response = %+v", resp)
		}
		resp = dispatch(t, ev(EventHitDouble))
		if resp.State.GuestHits != 1 {
			t.Errorf("guestHits = %d, want 1", resp.State.GuestHits)
		}
		if resp = dispatch(t, ev(EventRedo)); resp.Changed {
			t.Errorf("REDO with an empty future reported a change")
		}

		tests := []struct {
			name   string
			userId string
			method string
			body   string
			want   int
		}{
			{"Fan", fanID, "POST", `{"type":"STRIKEOUT"}`, http.StatusForbidden},
			{"Anonymous", "", "POST", `{"type":"STRIKEOUT"}`, http.StatusForbidden},
			{"Malformed", keeperID, "POST", `{"type":`, http.StatusBadRequest},
			{"Unknown type", keeperID, "POST", `{"type":"BUNT"}`, http.StatusBadRequest},
			{"Bad payload", keeperID, "POST", `{"type":"SELECT_BASE","payload":7}`, http.StatusBadRequest},
			{"GET", keeperID, "GET", "", http.StatusMethodNotAllowed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if w := makeRequest(tt.userId, tt.method, "/api/event", tt.body); w.Code != tt.want {
					t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
				}
			})
		}
	})

	t.Run("State", func(t *testing.T) {
		w := makeRequest(fanID, "GET", "/api/state", "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET /api/state: %d", w.Code)
		}
		var state GameState
		if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if state.GuestHits != 1 || state.PastStates.Len() != 2 {
			t.Errorf("state = %+v", state.Snapshot)
		}
		etag := w.Header().Get("ETag")
		if etag == "" {
			t.Fatal("missing ETag")
		}
		if w := makeRequest(fanID, "GET", "/api/state", "", "If-None-Match", etag); w.Code != http.StatusNotModified {
			t.Errorf("conditional GET: %d, want 304", w.Code)
		}
		if got := w.Header().Get("Cache-Control"); got != "private, no-cache, no-transform" {
			t.Errorf("Cache-Control = %q", got)
		}
		if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
			t.Errorf("X-Frame-Options = %q", got)
		}
	})

	t.Run("LineScore", func(t *testing.T) {
		w := makeRequest("", "GET", "/api/linescore?format=text", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), " |  R  H  E LOB") {
			t.Errorf("text line score: %d\n%s", w.Code, w.Body.String())
		}
		w = makeRequest("", "GET", "/api/linescore", "")
		var ls LineScore
		if err := json.Unmarshal(w.Body.Bytes(), &ls); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if ls.Guest.Name != "Tigers" || ls.Guest.Hits != 1 || len(ls.Guest.Innings) != DefaultTotalInnings {
			t.Errorf("line score = %+v", ls)
		}
	})

	t.Run("ExportImport", func(t *testing.T) {
		dispatch(t, ev(EventWalk))
		dispatch(t, ev(EventUndo))

		w := makeRequest(fanID, "GET", "/api/export", "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET /api/export: %d", w.Code)
		}
		if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "baseball_score_") {
			t.Errorf("Content-Disposition = %q", cd)
		}
		exported := w.Body.String()

		dispatch(t, ev(EventResetGame))

		if w := makeRequest(fanID, "POST", "/api/import", exported); w.Code != http.StatusForbidden {
			t.Errorf("import by a fan: %d, want 403", w.Code)
		}
		if w := makeRequest(keeperID, "POST", "/api/import", `{"inning": 1}`); w.Code != http.StatusBadRequest {
			t.Errorf("invalid import: %d, want 400", w.Code)
		}
		fractional := strings.Replace(exported, `"inning":1,`, `"inning":1.5,`, 1)
		if w := makeRequest(keeperID, "POST", "/api/import", fractional); w.Code != http.StatusBadRequest {
			t.Errorf("import with a fractional inning: %d, want 400", w.Code)
		}
		w = makeRequest(keeperID, "POST", "/api/import", exported)
		if w.Code != http.StatusOK {
			t.Fatalf("POST /api/import: %d - %s", w.Code, w.Body.String())
		}
		var state GameState
		if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if !state.GameStarted || state.GuestHits != 1 || state.FutureStates.Len() != 0 {
			t.Errorf("imported state = %+v", state.Snapshot)
		}
	})

	t.Run("SavedGames", func(t *testing.T) {
		if w := makeRequest(keeperID, "POST", "/api/save?name=", ""); w.Code != http.StatusBadRequest {
			t.Errorf("save without a name: %d, want 400", w.Code)
		}
		if w := makeRequest(fanID, "POST", "/api/save?name=opener", ""); w.Code != http.StatusForbidden {
			t.Errorf("save by a fan: %d, want 403", w.Code)
		}
		if w := makeRequest(keeperID, "POST", "/api/save?name=opener", ""); w.Code != http.StatusOK {
			t.Fatalf("POST /api/save: %d - %s", w.Code, w.Body.String())
		}

		w := makeRequest(fanID, "GET", "/api/list-games", "")
		var games []GameMetadata
		if err := json.Unmarshal(w.Body.Bytes(), &games); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if len(games) != 1 || games[0].Name != "opener" || games[0].UserTeamName != "Tigers" {
			t.Errorf("list-games = %+v", games)
		}

		w = makeRequest(fanID, "GET", "/api/list-games?q=team:bears", "")
		if err := json.Unmarshal(w.Body.Bytes(), &games); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if len(games) != 0 {
			t.Errorf("list-games?q=team:bears = %+v, want none", games)
		}

		w = makeRequest(fanID, "GET", "/api/load/opener", "")
		if w.Code != http.StatusOK {
			t.Fatalf("GET /api/load/opener: %d", w.Code)
		}
		if err := ValidateGameDocument(w.Body.Bytes()); err != nil {
			t.Errorf("saved game does not validate: %v", err)
		}

		dispatch(t, ev(EventResetGame))
		if w := makeRequest(fanID, "POST", "/api/load/opener", ""); w.Code != http.StatusForbidden {
			t.Errorf("load by a fan: %d, want 403", w.Code)
		}
		w = makeRequest(keeperID, "POST", "/api/load/opener", "")
		if w.Code != http.StatusOK {
			t.Fatalf("POST /api/load/opener: %d - %s", w.Code, w.Body.String())
		}
		var state GameState
		if err := json.Unmarshal(w.Body.Bytes(), &state); err != nil {
			t.Fatalf("json.Unmarshal: %v", err)
		}
		if !state.GameStarted || state.GuestHits != 1 {
			t.Errorf("loaded state = %+v", state.Snapshot)
		}

		if w := makeRequest(keeperID, "POST", "/api/delete-game?name=opener", ""); w.Code != http.StatusOK {
			t.Errorf("POST /api/delete-game: %d", w.Code)
		}
		if w := makeRequest(fanID, "GET", "/api/load/opener", ""); w.Code != http.StatusNotFound {
			t.Errorf("load after delete: %d, want 404", w.Code)
		}
	})

	t.Run("Replay", func(t *testing.T) {
		dispatch(t, ev(EventJumpToStart))

		w := makeRequest(keeperID, "POST", "/api/replay/start", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replaying":true`) {
			t.Fatalf("POST /api/replay/start: %d - %s", w.Code, w.Body.String())
		}
		if w := makeRequest(fanID, "POST", "/api/replay/stop", ""); w.Code != http.StatusForbidden {
			t.Errorf("stop by a fan: %d, want 403", w.Code)
		}
		w = makeRequest(keeperID, "POST", "/api/replay/stop", "")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"replaying":false`) {
			t.Errorf("POST /api/replay/stop: %d - %s", w.Code, w.Body.String())
		}
	})
}

func TestOpenAccess(t *testing.T) {
	_, handler := newTestHandler(t, "")
	req := httptest.NewRequest("POST", "/api/event", strings.NewReader(`{"type":"ADD_SCORE"}`))
	req.AddCookie(&http.Cookie{Name: "mock_auth_user", Value: fanID})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("POST /api/event without scorekeepers: %d - %s", w.Code, w.Body.String())
	}
}

func TestSessionClosedResponse(t *testing.T) {
	session, handler := newTestHandler(t, "")
	session.Close()

	req := httptest.NewRequest("GET", "/api/state", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("GET /api/state after Close: %d, want 503", w.Code)
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2026, 4, 3, 22, 10, 0, 0, time.UTC))
	if got != "baseball_score_2026-04-03.json" {
		t.Errorf("ExportFilename = %q", got)
	}
}
