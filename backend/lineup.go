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
	"strconv"
	"strings"
)

// LineupSource supplies players for new games and lineup edits.
type LineupSource interface {
	// Lineup returns n players with batting order positions 1..n.
	Lineup(n int) []Player
	// Bench returns the substitutes available at the start of a game.
	Bench() []Player
	// NewPlayer returns a placeholder player batting at order.
	NewPlayer(order int) Player
}

func (r *Reducer) startGame(s Snapshot, ev Event) (Snapshot, bool) {
	var p StartGamePayload
	if !ev.decodePayload(&p) {
		return s, false
	}
	if p.UserTeam != TeamHome && p.UserTeam != TeamGuest {
		return s, false
	}
	if len(p.Lineup) > 0 && len(p.Lineup) < MinLineupSize {
		return s, false
	}
	n := s.Clone()
	n.GameStarted = true
	n.UserTeam = p.UserTeam
	if p.UserTeamName != "" {
		n.UserTeamName = p.UserTeamName
	}
	if p.OpponentTeamName != "" {
		n.OpponentTeamName = p.OpponentTeamName
	}
	n.TotalInnings = DefaultTotalInnings
	if p.TotalInnings > 0 {
		n.TotalInnings = p.TotalInnings
	}
	if len(p.Lineup) > 0 {
		n.Lineup = renumber(cloneSlice(p.Lineup))
	} else {
		n.Lineup = r.Lineups.Lineup(max(p.LineupSize, MinLineupSize))
	}
	n.CurrentBatterIndex = 0
	return n, true
}

func (r *Reducer) addPlayer(s Snapshot) Snapshot {
	n := s.Clone()
	n.Lineup = append(n.Lineup, r.Lineups.NewPlayer(len(s.Lineup)+1))
	return n
}

// removePlayer drops the last batter, never going below nine.
func removePlayer(s Snapshot) (Snapshot, bool) {
	if len(s.Lineup) <= MinLineupSize {
		return s, false
	}
	n := s.Clone()
	n.Lineup = n.Lineup[:len(n.Lineup)-1]
	if n.CurrentBatterIndex >= len(n.Lineup) {
		n.CurrentBatterIndex = 0
	}
	return n, true
}

// movePlayer moves one batter to a new slot and renumbers the order.
func movePlayer(s Snapshot, p MovePlayerPayload) (Snapshot, bool) {
	last := len(s.Lineup) - 1
	if p.FromIndex < 0 || p.FromIndex > last || p.ToIndex < 0 || p.ToIndex > last {
		return s, false
	}
	n := s.Clone()
	moved := n.Lineup[p.FromIndex]
	n.Lineup = slices.Delete(n.Lineup, p.FromIndex, p.FromIndex+1)
	n.Lineup = slices.Insert(n.Lineup, p.ToIndex, moved)
	n.Lineup = renumber(n.Lineup)
	return n, true
}

func updatePlayer(s Snapshot, p UpdatePlayerPayload) (Snapshot, bool) {
	if p.Index < 0 || p.Index >= len(s.Lineup) {
		return s, false
	}
	n := s.Clone()
	switch p.Field {
	case "name":
		n.Lineup[p.Index].Name = p.Value
	case "number":
		v := strings.TrimSpace(p.Value)
		if v == "" {
			n.Lineup[p.Index].Number = 0
			break
		}
		num, err := strconv.Atoi(v)
		if err != nil || num < 0 {
			return s, false
		}
		n.Lineup[p.Index].Number = JerseyNumber(num)
	default:
		return s, false
	}
	return n, true
}

// renumber sets batting order positions to match slice order.
func renumber(lineup []Player) []Player {
	for i := range lineup {
		lineup[i].Order = i + 1
	}
	return lineup
}
