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
	"strings"
)

// TeamLine is one row of the line score.
type TeamLine struct {
	Team       Team   `json:"team"`
	Name       string `json:"name"`
	Innings    []int  `json:"innings"`
	Runs       int    `json:"runs"`
	Hits       int    `json:"hits"`
	Errors     int    `json:"errors"`
	LeftOnBase int    `json:"leftOnBase"`
}

// LineScore is the box shown above the field: guest row first, as on a
// scoreboard.
type LineScore struct {
	Inning        int      `json:"inning"`
	IsTopHalf     bool     `json:"isTopHalf"`
	Outs          int      `json:"outs"`
	Bases         Bases    `json:"bases"`
	Guest         TeamLine `json:"guest"`
	Home          TeamLine `json:"home"`
	Batting       Team     `json:"batting"`
	CurrentBatter *Player  `json:"currentBatter,omitempty"`
}

// Summarize builds the line score for s. Inning columns run to the
// scheduled length, or further in extra innings.
func Summarize(s Snapshot) LineScore {
	cols := max(s.TotalInnings, s.Inning)
	if cols <= 0 {
		cols = DefaultTotalInnings
	}
	guestName, homeName := s.OpponentTeamName, s.UserTeamName
	if s.UserTeam == TeamGuest {
		guestName, homeName = s.UserTeamName, s.OpponentTeamName
	}
	ls := LineScore{
		Inning:    s.Inning,
		IsTopHalf: s.IsTopHalf,
		Outs:      s.Outs,
		Bases:     s.Bases,
		Batting:   s.battingTeam(),
		Guest: TeamLine{
			Team:       TeamGuest,
			Name:       guestName,
			Innings:    padInnings(s.GuestInningScores, cols),
			Runs:       s.GuestScore,
			Hits:       s.GuestHits,
			Errors:     s.GuestErrors,
			LeftOnBase: s.GuestLeftOnBase,
		},
		Home: TeamLine{
			Team:       TeamHome,
			Name:       homeName,
			Innings:    padInnings(s.HomeInningScores, cols),
			Runs:       s.HomeScore,
			Hits:       s.HomeHits,
			Errors:     s.HomeErrors,
			LeftOnBase: s.HomeLeftOnBase,
		},
	}
	if s.UserBatting() {
		if p, ok := s.CurrentBatter(); ok {
			ls.CurrentBatter = &p
		}
	}
	return ls
}

func padInnings(scores []int, n int) []int {
	out := make([]int, max(n, len(scores)))
	copy(out, scores)
	return out
}

// String renders the line score as a text table.
//
//	         1  2  3  4  5  6  7 |  R  H  E LOB
//	Guest    0  0  1  0  0  0  0 |  1  3  0   2
//	Home     2  0  0  0  0  0  0 |  2  4  1   1
func (ls LineScore) String() string {
	var b strings.Builder
	const nameWidth = 12
	fmt.Fprintf(&b, "%-*s", nameWidth, "")
	for i := range ls.Guest.Innings {
		fmt.Fprintf(&b, "%3d", i+1)
	}
	b.WriteString(" |  R  H  E LOB\n")
	for _, row := range []TeamLine{ls.Guest, ls.Home} {
		name := []rune(row.Name)
		if len(name) > nameWidth-1 {
			name = name[:nameWidth-1]
		}
		b.WriteString(string(name))
		b.WriteString(strings.Repeat(" ", nameWidth-len(name)))
		for _, r := range row.Innings {
			fmt.Fprintf(&b, "%3d", r)
		}
		fmt.Fprintf(&b, " |%3d%3d%3d%4d\n", row.Runs, row.Hits, row.Errors, row.LeftOnBase)
	}
	fmt.Fprintf(&b, "%s %d, %d out", halfName(ls.IsTopHalf), ls.Inning, ls.Outs)
	if ls.CurrentBatter != nil {
		fmt.Fprintf(&b, ", at bat: %s", ls.CurrentBatter.Name)
	}
	b.WriteString("\n")
	return b.String()
}
