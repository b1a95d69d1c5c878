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
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// fixedLineups is a LineupSource with predictable players.
type fixedLineups struct{}

func (fixedLineups) Lineup(n int) []Player {
	lineup := make([]Player, n)
	for i := range lineup {
		lineup[i] = fixedLineups{}.NewPlayer(i + 1)
	}
	return lineup
}

func (fixedLineups) Bench() []Player {
	return []Player{
		{ID: "b1", Name: "Bench 1", Number: 51},
		{ID: "b2", Name: "Bench 2", Number: 52},
		{ID: "b3", Name: "Bench 3", Number: 53},
	}
}

func (fixedLineups) NewPlayer(order int) Player {
	return Player{
		ID:     fmt.Sprintf("p%d", order),
		Order:  order,
		Name:   fmt.Sprintf("Player %d", order),
		Number: JerseyNumber(order),
	}
}

func newTestReducer() *Reducer {
	return NewReducer(fixedLineups{})
}

// startedGame returns a game in progress where userTeam is the scored team.
// With GUEST the user bats first.
func startedGame(t *testing.T, r *Reducer, userTeam Team) GameState {
	t.Helper()
	g := r.Apply(NewGame(r.Lineups), NewEvent(EventStartGame, StartGamePayload{
		UserTeam:         userTeam,
		UserTeamName:     "Tigers",
		OpponentTeamName: "Lions",
	}))
	if !g.GameStarted {
		t.Fatalf("START_GAME did not start the game")
	}
	return g
}

func applyAll(r *Reducer, g GameState, events ...Event) GameState {
	for _, ev := range events {
		g = r.Apply(g, ev)
	}
	return g
}

func ev(eventType string) Event {
	return Event{Type: eventType}
}

// withBases returns g with the named runners on first, second and third.
// An empty name leaves the base empty.
func withBases(g GameState, first, second, third string) GameState {
	g.Snapshot = g.Snapshot.Clone()
	g.Bases = Bases{}
	for i, name := range []string{first, second, third} {
		if name != "" {
			g.Bases[i] = runner(name)
		}
	}
	return g
}

func baseNames(b Bases) [3]string {
	var out [3]string
	for i, r := range b {
		if r != nil {
			out[i] = *r
		}
	}
	return out
}

func sum(v []int) int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}

// jsonDiff returns a unified diff of the JSON encodings of want and got, or
// "" when they are equal.
func jsonDiff(t *testing.T, want, got any) string {
	t.Helper()
	w, err := json.MarshalIndent(want, "", "  ")
	if err != nil {
		t.Fatalf("json.Marshal(want): %v", err)
	}
	g, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("json.Marshal(got): %v", err)
	}
	if bytes.Equal(w, g) {
		return ""
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(w)),
		B:        difflib.SplitLines(string(g)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	return diff
}
