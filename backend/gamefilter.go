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
	"iter"
	"strings"
	"time"

	"github.com/ttbt-io/linescore/backend/search"
)

// FindGames is ListGames restricted to the games matching query, for
// example `team:Tigers inning:>=7 saved:2026-04`. An empty query matches
// every game.
func (gs *GameStore) FindGames(query string) iter.Seq2[GameMetadata, error] {
	q := search.Parse(query)
	return func(yield func(GameMetadata, error) bool) {
		for meta, err := range gs.ListGames() {
			if err == nil && !matchGame(meta, q) {
				continue
			}
			if !yield(meta, err) {
				return
			}
		}
	}
}

// matchGame reports whether meta satisfies every filter and contains every
// free text word. Unknown filter keys match nothing.
func matchGame(meta GameMetadata, q search.Query) bool {
	for _, f := range q.Filters {
		var ok bool
		switch f.Key {
		case "name":
			ok = f.MatchText(meta.Name)
		case "team":
			ok = f.MatchText(meta.UserTeamName) || f.MatchText(meta.OpponentTeamName)
		case "inning":
			ok = f.MatchInt(meta.Inning)
		case "runs":
			ok = f.MatchInt(meta.GuestScore + meta.HomeScore)
		case "moves":
			ok = f.MatchInt(meta.Moves)
		case "saved":
			ok = f.MatchPrefix(time.UnixMilli(meta.SavedAt).UTC().Format(time.DateOnly))
		}
		if !ok {
			return false
		}
	}
	text := strings.ToLower(meta.Name + " " + meta.UserTeamName + " " + meta.OpponentTeamName)
	for _, word := range q.FreeText {
		if !strings.Contains(text, strings.ToLower(word)) {
			return false
		}
	}
	return true
}
