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
	"slices"
)

// Result labels written to the at-bat log.
const (
	ResultStrikeout      = "Strikeout"
	ResultOut            = "Out"
	ResultRunnerOut      = "Runner out"
	ResultSingle         = "Single"
	ResultDouble         = "Double"
	ResultTriple         = "Triple"
	ResultHomeRun        = "Home run"
	ResultWalk           = "Walk"
	ResultReachOnError   = "Reached on error"
	ResultSacrifice      = "Sacrifice/Advance"
	ResultRunnerScored   = "Runner scored"
	ResultManualRunAdded = "Run (+1)"
	ResultManualRunTaken = "Run (-1)"

	ManualAdjustment = "Manual adjustment"
	AnonymousRunner  = "Runner"
)

var hitLabels = map[int]string{
	1: ResultSingle,
	2: ResultDouble,
	3: ResultTriple,
	4: ResultHomeRun,
}

// applyRule runs one baseball rule. ok is false when the event doesn't
// change anything and shouldn't be recorded for undo.
func (r *Reducer) applyRule(s Snapshot, ev Event) (Snapshot, bool) {
	switch ev.Type {
	case EventStartGame:
		return r.startGame(s, ev)
	case EventConfirmLineup:
		n := s.Clone()
		n.LineupConfirmed = true
		return n, true
	case EventResetGame:
		return initialSnapshot(r.Lineups), true
	case EventAddPlayer:
		return r.addPlayer(s), true
	case EventRemovePlayer:
		return removePlayer(s)
	case EventMovePlayer:
		var p MovePlayerPayload
		if !ev.decodePayload(&p) {
			return s, false
		}
		return movePlayer(s, p)
	case EventUpdatePlayer:
		var p UpdatePlayerPayload
		if !ev.decodePayload(&p) {
			return s, false
		}
		return updatePlayer(s, p)

	case EventStrikeout:
		return out(s, outcome{label: ResultStrikeout}), true
	case EventAddOut:
		return addOut(s), true
	case EventHitSingle:
		return hit(s, 1), true
	case EventHitDouble:
		return hit(s, 2), true
	case EventHitTriple:
		return hit(s, 3), true
	case EventHitHomeRun:
		return hit(s, 4), true
	case EventWalk:
		return walk(s), true
	case EventReachOnError:
		return reachOnError(s), true
	case EventSacrifice:
		return sacrifice(s), true
	case EventSubstitute:
		idx, ok := ev.intPayload()
		if !ok {
			return s, false
		}
		return substitute(s, idx)

	case EventSelectBase:
		base, ok := ev.intPayload()
		if !ok {
			return s, false
		}
		return selectBase(s, base)
	case EventMoveRunner:
		target, ok := ev.intPayload()
		if !ok {
			return s, false
		}
		return moveRunner(s, target)
	case EventToggleBase:
		base, ok := ev.intPayload()
		if !ok {
			return s, false
		}
		return toggleBase(s, base)
	case EventAddScore:
		return manualScore(s, 1, ResultManualRunAdded), true
	case EventSubScore:
		return manualScore(s, -1, ResultManualRunTaken), true
	case EventAddError:
		return addError(s.Clone()), true
	case EventResetCount:
		if !s.UserBatting() {
			return s, false
		}
		n := s.Clone()
		n.CurrentBatterIndex = s.nextBatterIndex()
		return n, true
	}
	return s, false
}

// record prepends an at-bat log entry. Callers decide whether the user team
// was batting before the transition.
func (s *Snapshot) record(pa PlateAppearance) {
	if pa.ScoringRunners == nil {
		pa.ScoringRunners = []string{}
	}
	s.History = append([]PlateAppearance{pa}, s.History...)
}

// addRuns credits runs to the batting team's total and current inning. A
// negative adjustment never takes the current inning below zero.
func (s *Snapshot) addRuns(runs int) {
	if runs == 0 {
		return
	}
	idx := s.Inning - 1
	scores, total := &s.HomeInningScores, &s.HomeScore
	if s.IsTopHalf {
		scores, total = &s.GuestInningScores, &s.GuestScore
	}
	inning := make([]int, max(len(*scores), idx+1))
	copy(inning, *scores)
	if runs < 0 && inning[idx]+runs < 0 {
		runs = -inning[idx]
	}
	inning[idx] += runs
	*scores = inning
	*total += runs
}

// addError charges an error to the fielding team.
func addError(s Snapshot) Snapshot {
	if s.IsTopHalf {
		s.HomeErrors++
	} else {
		s.GuestErrors++
	}
	return s
}

// outcome describes how an out is logged.
type outcome struct {
	label   string
	batter  string // overrides the current batter's name
	rbi     int
	scorers []string
}

// out records an out and ends the half-inning on the third. The batting
// order advances either way.
func out(s Snapshot, o outcome) Snapshot {
	user := s.UserBatting()
	n := s.Clone()
	n.CurrentBatterIndex = s.nextBatterIndex()

	if s.Outs+1 >= 3 {
		stranded := s.Bases.Occupied()
		if s.IsTopHalf {
			n.GuestLeftOnBase += stranded
		} else {
			n.HomeLeftOnBase += stranded
			n.Inning++
		}
		n.IsTopHalf = !s.IsTopHalf
		n.Outs = 0
		n.Bases = Bases{}
		n.SelectedBase = nil
	} else {
		n.Outs = s.Outs + 1
	}

	if user {
		batter := o.batter
		if batter == "" {
			batter = s.batterName()
		}
		n.record(PlateAppearance{
			Inning:         s.Inning,
			BatterName:     batter,
			ResultLabel:    o.label,
			RunsBattedIn:   o.rbi,
			ScoringRunners: o.scorers,
		})
	}
	return n
}

// addOut is an out on the batter, or on the selected runner if there is one
// (caught stealing, pickoff).
func addOut(s Snapshot) Snapshot {
	if s.SelectedBase == nil {
		return out(s, outcome{label: ResultOut})
	}
	base := *s.SelectedBase
	n := s.Clone()
	n.SelectedBase = nil
	name := s.batterName()
	if base >= 0 && base < len(n.Bases) {
		if r := n.Bases[base]; r != nil {
			name = *r
		}
		n.Bases[base] = nil
	}
	return out(n, outcome{label: ResultRunnerOut, batter: name})
}

// hit advances every runner station to station by the number of bases the
// batter took. Runners pushed past third score.
func hit(s Snapshot, bases int) Snapshot {
	user := s.UserBatting()
	batter := s.batterName()
	n := s.Clone()

	var scorers []string
	var next Bases
	switch bases {
	case 4:
		scorers = append(s.Bases.Runners(), batter)
	case 3:
		scorers = s.Bases.Runners()
		next[ThirdBase] = runner(batter)
	case 2:
		for _, b := range []int{ThirdBase, SecondBase} {
			if s.Bases[b] != nil {
				scorers = append(scorers, *s.Bases[b])
			}
		}
		next[ThirdBase] = s.Bases[FirstBase]
		next[SecondBase] = runner(batter)
	default:
		if s.Bases[ThirdBase] != nil {
			scorers = append(scorers, *s.Bases[ThirdBase])
		}
		next[ThirdBase] = s.Bases[SecondBase]
		next[SecondBase] = s.Bases[FirstBase]
		next[FirstBase] = runner(batter)
	}

	if s.IsTopHalf {
		n.GuestHits++
	} else {
		n.HomeHits++
	}
	n.Bases = next
	n.CurrentBatterIndex = s.nextBatterIndex()
	n.addRuns(len(scorers))

	if user {
		n.record(PlateAppearance{
			Inning:         s.Inning,
			BatterName:     batter,
			ResultLabel:    hitLabels[bases],
			RunsBattedIn:   len(scorers),
			ScoringRunners: scorers,
		})
	}
	return n
}

// walk puts the batter on first and pushes runners only where forced.
func walk(s Snapshot) Snapshot {
	user := s.UserBatting()
	batter := s.batterName()
	n := s.Clone()

	var scorers []string
	if s.Bases[FirstBase] != nil {
		if s.Bases[SecondBase] != nil {
			if s.Bases[ThirdBase] != nil {
				scorers = append(scorers, *s.Bases[ThirdBase])
			}
			n.Bases[ThirdBase] = s.Bases[SecondBase]
		}
		n.Bases[SecondBase] = s.Bases[FirstBase]
	}
	n.Bases[FirstBase] = runner(batter)
	n.CurrentBatterIndex = s.nextBatterIndex()
	n.addRuns(len(scorers))

	if user {
		n.record(PlateAppearance{
			Inning:         s.Inning,
			BatterName:     batter,
			ResultLabel:    ResultWalk,
			RunsBattedIn:   len(scorers),
			ScoringRunners: scorers,
		})
	}
	return n
}

// reachOnError charges the fielders an error and moves runners as on a
// single.
func reachOnError(s Snapshot) Snapshot {
	user := s.UserBatting()
	batter := s.batterName()
	n := addError(s.Clone())

	var scorers []string
	if s.Bases[ThirdBase] != nil {
		scorers = append(scorers, *s.Bases[ThirdBase])
	}
	n.Bases = Bases{runner(batter), s.Bases[FirstBase], s.Bases[SecondBase]}
	n.CurrentBatterIndex = s.nextBatterIndex()
	n.addRuns(len(scorers))

	if user {
		n.record(PlateAppearance{
			Inning:         s.Inning,
			BatterName:     batter,
			ResultLabel:    ResultReachOnError,
			RunsBattedIn:   len(scorers),
			ScoringRunners: scorers,
		})
	}
	return n
}

// sacrifice moves every runner up one base, scores the runner from third and
// retires the batter. Runs count even when the out ends the inning.
func sacrifice(s Snapshot) Snapshot {
	n := s.Clone()
	var scorers []string
	if s.Bases[ThirdBase] != nil {
		scorers = append(scorers, *s.Bases[ThirdBase])
	}
	n.Bases = Bases{nil, s.Bases[FirstBase], s.Bases[SecondBase]}
	n.addRuns(len(scorers))
	return out(n, outcome{label: ResultSacrifice, rbi: len(scorers), scorers: scorers})
}

// substitute sends the current batter to the bench and puts bench player
// benchIndex in the same batting slot.
func substitute(s Snapshot, benchIndex int) (Snapshot, bool) {
	playerOut, ok := s.CurrentBatter()
	if !ok || benchIndex < 0 || benchIndex >= len(s.Bench) {
		return s, false
	}
	user := s.UserBatting()
	n := s.Clone()
	playerIn := s.Bench[benchIndex]
	n.Bench = append(slices.Delete(n.Bench, benchIndex, benchIndex+1), playerOut)
	playerIn.Order = playerOut.Order
	n.Lineup[s.CurrentBatterIndex] = playerIn

	if user {
		n.record(PlateAppearance{
			Inning:      s.Inning,
			BatterName:  playerIn.Name,
			ResultLabel: fmt.Sprintf("Pinch hitter (for %s)", playerOut.Name),
		})
	}
	return n, true
}

func validBase(base int) bool {
	return base >= FirstBase && base <= ThirdBase
}

// selectBase picks the runner for a manual move; picking the same base again
// cancels.
func selectBase(s Snapshot, base int) (Snapshot, bool) {
	if !validBase(base) {
		return s, false
	}
	n := s.Clone()
	if s.SelectedBase != nil && *s.SelectedBase == base {
		n.SelectedBase = nil
	} else {
		n.SelectedBase = intPtr(base)
	}
	return n, true
}

// moveRunner sends the selected runner to target. Home scores him; an
// occupied base rejects the move and only clears the selection.
func moveRunner(s Snapshot, target int) (Snapshot, bool) {
	if s.SelectedBase == nil || target < FirstBase || target > HomePlate {
		return s, false
	}
	from := *s.SelectedBase
	n := s.Clone()
	n.SelectedBase = nil
	if !validBase(from) || s.Bases[from] == nil {
		return n, true
	}
	name := *s.Bases[from]

	if target == HomePlate {
		n.Bases[from] = nil
		n.addRuns(1)
		if s.UserBatting() {
			n.record(PlateAppearance{
				Inning:         s.Inning,
				BatterName:     name,
				ResultLabel:    ResultRunnerScored,
				ScoringRunners: []string{name},
			})
		}
		return n, true
	}
	if s.Bases[target] != nil {
		return n, true
	}
	n.Bases[from] = nil
	n.Bases[target] = s.Bases[from]
	return n, true
}

// toggleBase adds or removes an anonymous runner. It's a correction tool and
// touches nothing else.
func toggleBase(s Snapshot, base int) (Snapshot, bool) {
	if !validBase(base) {
		return s, false
	}
	n := s.Clone()
	if s.Bases[base] != nil {
		n.Bases[base] = nil
	} else {
		n.Bases[base] = runner(AnonymousRunner)
	}
	return n, true
}

// manualScore adjusts the batting team's score by delta.
func manualScore(s Snapshot, delta int, label string) Snapshot {
	n := s.Clone()
	n.addRuns(delta)
	if s.UserBatting() {
		n.record(PlateAppearance{
			Inning:      s.Inning,
			BatterName:  ManualAdjustment,
			ResultLabel: label,
		})
	}
	return n
}
