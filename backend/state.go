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
	"fmt"
	"strconv"
	"strings"
)

// Team identifies one side of the game.
type Team string

const (
	TeamHome  Team = "HOME"
	TeamGuest Team = "GUEST"
)

// JerseyNumber is a player's uniform number. It decodes from either a JSON
// number or a numeric string, since lineup edits arrive as text.
type JerseyNumber int

func (n *JerseyNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
		if s == "" {
			*n = 0
			return nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid jersey number %s", string(b))
	}
	*n = JerseyNumber(v)
	return nil
}

// Player represents a player in the lineup or on the bench.
type Player struct {
	ID     string       `json:"id"`
	Order  int          `json:"battingOrderPosition"`
	Name   string       `json:"name"`
	Number JerseyNumber `json:"number"`
}

// PlateAppearance is one line of the user team's at-bat log.
type PlateAppearance struct {
	Inning         int      `json:"inning"`
	BatterName     string   `json:"batterName"`
	ResultLabel    string   `json:"resultLabel"`
	RunsBattedIn   int      `json:"runsBattedIn"`
	ScoringRunners []string `json:"scoringRunners"`
}

// Bases holds the runner on first, second and third. A nil slot is empty.
type Bases [3]*string

// Occupied returns the number of runners on base.
func (b Bases) Occupied() int {
	n := 0
	for _, r := range b {
		if r != nil {
			n++
		}
	}
	return n
}

// Runners returns the names of the runners on base, first base first.
func (b Bases) Runners() []string {
	var out []string
	for _, r := range b {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// runner returns an occupant for a base slot.
func runner(name string) *string {
	return &name
}

// Snapshot is the complete game state at one point in time, minus the
// undo/redo stacks. It is what the stacks store.
type Snapshot struct {
	Inning    int   `json:"inning"`
	IsTopHalf bool  `json:"isTopHalf"`
	Outs      int   `json:"outs"`
	Bases     Bases `json:"bases"`

	GuestScore        int   `json:"guestScore"`
	HomeScore         int   `json:"homeScore"`
	GuestInningScores []int `json:"guestInningScores"`
	HomeInningScores  []int `json:"homeInningScores"`
	GuestHits         int   `json:"guestHits"`
	HomeHits          int   `json:"homeHits"`
	GuestErrors       int   `json:"guestErrors"`
	HomeErrors        int   `json:"homeErrors"`
	GuestLeftOnBase   int   `json:"guestLeftOnBase"`
	HomeLeftOnBase    int   `json:"homeLeftOnBase"`

	Lineup             []Player          `json:"lineup"`
	Bench              []Player          `json:"bench"`
	CurrentBatterIndex int               `json:"currentBatterIndex"`
	History            []PlateAppearance `json:"history"`
	SelectedBase       *int              `json:"selectedBase"`

	UserTeam         Team   `json:"userTeam"`
	TotalInnings     int    `json:"totalInnings"`
	UserTeamName     string `json:"userTeamName"`
	OpponentTeamName string `json:"opponentTeamName"`
	GameStarted      bool   `json:"gameStarted"`
	LineupConfirmed  bool   `json:"lineupConfirmed"`
}

// GameState is the canonical state owned by a Session: the current snapshot
// plus the undo (past) and redo (future) stacks, newest entry first.
type GameState struct {
	Snapshot
	PastStates   Stack `json:"pastStates"`
	FutureStates Stack `json:"futureStates"`
}

// DefaultTotalInnings is the scheduled length of a game unless START_GAME
// says otherwise.
const DefaultTotalInnings = 7

// MinLineupSize is the smallest lineup the editor allows.
const MinLineupSize = 9

// NewGame returns the pre-game state with a random lineup and bench.
func NewGame(src LineupSource) GameState {
	return GameState{Snapshot: initialSnapshot(src)}
}

func initialSnapshot(src LineupSource) Snapshot {
	return Snapshot{
		Inning:            1,
		IsTopHalf:         true,
		GuestInningScores: []int{},
		HomeInningScores:  []int{},
		Lineup:            src.Lineup(MinLineupSize),
		Bench:             src.Bench(),
		History:           []PlateAppearance{},
		UserTeam:          TeamHome,
		TotalInnings:      DefaultTotalInnings,
		UserTeamName:      "Home",
		OpponentTeamName:  "Guest",
	}
}

// battingTeam returns the side currently at bat.
func (s Snapshot) battingTeam() Team {
	if s.IsTopHalf {
		return TeamGuest
	}
	return TeamHome
}

// UserBatting reports whether the user-controlled team is at bat.
func (s Snapshot) UserBatting() bool {
	return s.battingTeam() == s.UserTeam
}

// CurrentBatter returns the player due up, if the lineup has one.
func (s Snapshot) CurrentBatter() (Player, bool) {
	if s.CurrentBatterIndex < 0 || s.CurrentBatterIndex >= len(s.Lineup) {
		return Player{}, false
	}
	return s.Lineup[s.CurrentBatterIndex], true
}

func (s Snapshot) batterName() string {
	p, _ := s.CurrentBatter()
	return p.Name
}

// nextBatterIndex advances the batting order, but only for the user team.
// The opponent's lineup isn't tracked.
func (s Snapshot) nextBatterIndex() int {
	if !s.UserBatting() || len(s.Lineup) == 0 {
		return s.CurrentBatterIndex
	}
	return (s.CurrentBatterIndex + 1) % len(s.Lineup)
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.GuestInningScores = cloneSlice(s.GuestInningScores)
	c.HomeInningScores = cloneSlice(s.HomeInningScores)
	c.Lineup = cloneSlice(s.Lineup)
	c.Bench = cloneSlice(s.Bench)
	c.History = make([]PlateAppearance, len(s.History))
	for i, pa := range s.History {
		pa.ScoringRunners = cloneSlice(pa.ScoringRunners)
		c.History[i] = pa
	}
	if s.SelectedBase != nil {
		c.SelectedBase = intPtr(*s.SelectedBase)
	}
	return c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func intPtr(v int) *int {
	return &v
}

// normalize replaces nil collections with empty ones so exported documents
// always carry every key as an array.
func (s *Snapshot) normalize() {
	if s.GuestInningScores == nil {
		s.GuestInningScores = []int{}
	}
	if s.HomeInningScores == nil {
		s.HomeInningScores = []int{}
	}
	if s.Lineup == nil {
		s.Lineup = []Player{}
	}
	if s.Bench == nil {
		s.Bench = []Player{}
	}
	if s.History == nil {
		s.History = []PlateAppearance{}
	}
	for i := range s.History {
		if s.History[i].ScoringRunners == nil {
			s.History[i].ScoringRunners = []string{}
		}
	}
	if s.UserTeam == "" {
		s.UserTeam = TeamHome
	}
	if s.Inning < 1 {
		s.Inning = 1
	}
}
