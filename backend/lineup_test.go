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
	"slices"
	"testing"
)

func lineupNames(lineup []Player) []string {
	var out []string
	for _, p := range lineup {
		out = append(out, p.Name)
	}
	return out
}

func TestStartGame(t *testing.T) {
	r := newTestReducer()

	tests := []struct {
		name        string
		payload     StartGamePayload
		wantChanged bool
		wantLineup  int
		wantInnings int
	}{
		{"Defaults", StartGamePayload{UserTeam: TeamHome}, true, 9, 7},
		{"Long lineup", StartGamePayload{UserTeam: TeamGuest, LineupSize: 12, TotalInnings: 9}, true, 12, 9},
		{"Short lineup size", StartGamePayload{UserTeam: TeamGuest, LineupSize: 5}, true, 9, 7},
		{"Bad team", StartGamePayload{UserTeam: "AWAY"}, false, 9, 7},
		{"Short explicit lineup", StartGamePayload{UserTeam: TeamHome, Lineup: fixedLineups{}.Lineup(4)}, false, 9, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, changed := r.apply(NewGame(fixedLineups{}), NewEvent(EventStartGame, tt.payload))
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if len(g.Lineup) != tt.wantLineup || g.TotalInnings != tt.wantInnings {
				t.Errorf("lineup %d innings %d, want %d %d", len(g.Lineup), g.TotalInnings, tt.wantLineup, tt.wantInnings)
			}
			if changed && (!g.GameStarted || g.UserTeam != tt.payload.UserTeam) {
				t.Errorf("gameStarted = %v userTeam = %s", g.GameStarted, g.UserTeam)
			}
		})
	}

	t.Run("Explicit lineup", func(t *testing.T) {
		lineup := fixedLineups{}.Lineup(10)
		slices.Reverse(lineup)
		g := r.Apply(NewGame(fixedLineups{}), NewEvent(EventStartGame, StartGamePayload{
			UserTeam:         TeamGuest,
			UserTeamName:     "Tigers",
			OpponentTeamName: "Lions",
			Lineup:           lineup,
		}))
		if g.Lineup[0].Name != "Player 10" || g.Lineup[0].Order != 1 || g.Lineup[9].Order != 10 {
			t.Errorf("lineup = %+v", g.Lineup)
		}
		if g.UserTeamName != "Tigers" || g.OpponentTeamName != "Lions" {
			t.Errorf("names = %q %q", g.UserTeamName, g.OpponentTeamName)
		}
	})
}

func TestLineupEdits(t *testing.T) {
	r := newTestReducer()
	g := NewGame(fixedLineups{})

	g = r.Apply(g, ev(EventAddPlayer))
	if len(g.Lineup) != 10 || g.Lineup[9].Order != 10 || g.Lineup[9].Name != "Player 10" {
		t.Fatalf("after ADD_PLAYER lineup = %+v", g.Lineup)
	}

	g.CurrentBatterIndex = 9
	g = r.Apply(g, ev(EventRemovePlayer))
	if len(g.Lineup) != 9 {
		t.Fatalf("after REMOVE_PLAYER len = %d, want 9", len(g.Lineup))
	}
	if g.CurrentBatterIndex != 0 {
		t.Errorf("currentBatterIndex = %d, want 0", g.CurrentBatterIndex)
	}
	if _, changed := r.apply(g, ev(EventRemovePlayer)); changed {
		t.Errorf("REMOVE_PLAYER went below nine")
	}

	g = r.Apply(g, NewEvent(EventMovePlayer, MovePlayerPayload{FromIndex: 0, ToIndex: 2}))
	if got := lineupNames(g.Lineup)[:4]; !slices.Equal(got, []string{"Player 2", "Player 3", "Player 1", "Player 4"}) {
		t.Errorf("after MOVE_PLAYER lineup = %q", got)
	}
	for i, p := range g.Lineup {
		if p.Order != i+1 {
			t.Errorf("lineup[%d].Order = %d", i, p.Order)
		}
	}
	if _, changed := r.apply(g, NewEvent(EventMovePlayer, MovePlayerPayload{FromIndex: 0, ToIndex: 9})); changed {
		t.Errorf("MOVE_PLAYER out of range changed the state")
	}

	g = r.Apply(g, ev(EventConfirmLineup))
	if !g.LineupConfirmed {
		t.Errorf("lineupConfirmed = false")
	}
}

func TestUpdatePlayer(t *testing.T) {
	r := newTestReducer()
	start := NewGame(fixedLineups{})

	tests := []struct {
		name        string
		payload     UpdatePlayerPayload
		wantChanged bool
		wantName    string
		wantNumber  JerseyNumber
	}{
		{"Name", UpdatePlayerPayload{Index: 0, Field: "name", Value: "Ace"}, true, "Ace", 1},
		{"Number", UpdatePlayerPayload{Index: 0, Field: "number", Value: " 42 "}, true, "Player 1", 42},
		{"Clear number", UpdatePlayerPayload{Index: 0, Field: "number", Value: ""}, true, "Player 1", 0},
		{"Bad number", UpdatePlayerPayload{Index: 0, Field: "number", Value: "forty"}, false, "Player 1", 1},
		{"Negative number", UpdatePlayerPayload{Index: 0, Field: "number", Value: "-3"}, false, "Player 1", 1},
		{"Unknown field", UpdatePlayerPayload{Index: 0, Field: "position", Value: "SS"}, false, "Player 1", 1},
		{"Bad index", UpdatePlayerPayload{Index: 20, Field: "name", Value: "Ace"}, false, "Player 1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, changed := r.apply(start, NewEvent(EventUpdatePlayer, tt.payload))
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if p := g.Lineup[0]; p.Name != tt.wantName || p.Number != tt.wantNumber {
				t.Errorf("lineup[0] = %+v", p)
			}
			if start.Lineup[0].Name != "Player 1" {
				t.Errorf("UPDATE_PLAYER modified its input")
			}
		})
	}
}

func TestResetGame(t *testing.T) {
	r := newTestReducer()
	g := applyAll(r, startedGame(t, r, TeamGuest), ev(EventHitHomeRun), ev(EventStrikeout))
	past := g.PastStates.Len()

	g = r.Apply(g, ev(EventResetGame))
	if g.GameStarted || g.GuestScore != 0 || len(g.History) != 0 || g.Outs != 0 {
		t.Errorf("RESET_GAME left %+v", g.Snapshot)
	}
	if g.PastStates.Len() != past+1 {
		t.Errorf("RESET_GAME is not undoable")
	}
	g = r.Apply(g, ev(EventUndo))
	if g.GuestScore != 1 || g.Outs != 1 {
		t.Errorf("undo after reset: guestScore %d outs %d", g.GuestScore, g.Outs)
	}
}
