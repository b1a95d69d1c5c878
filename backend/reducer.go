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
)

// Reducer applies events to game states. Its only dependency is the lineup
// source used by START_GAME, ADD_PLAYER and RESET_GAME.
type Reducer struct {
	Lineups LineupSource
}

// NewReducer returns a reducer drawing players from src.
func NewReducer(src LineupSource) *Reducer {
	return &Reducer{Lineups: src}
}

// Apply returns the state that results from ev. The input is never
// modified. Events that don't apply (unknown types, bad payloads, undo with
// nothing to undo, ...) return the input unchanged.
func (r *Reducer) Apply(state GameState, ev Event) GameState {
	next, _ := r.apply(state, ev)
	return next
}

// apply is Apply that also reports whether anything happened.
func (r *Reducer) apply(state GameState, ev Event) (GameState, bool) {
	switch ev.Type {
	case EventUndo:
		return undo(state)
	case EventRedo:
		return redo(state)
	case EventLoadGame:
		return load(state, ev)
	case EventJumpToStart:
		return jumpToStart(state)
	case EventJumpToEnd:
		return jumpToEnd(state)
	}

	next, ok := r.applyRule(state.Snapshot, ev)
	if !ok {
		return state, false
	}
	return GameState{
		Snapshot:   next,
		PastStates: state.PastStates.Push(state.Snapshot),
		// A new branch discards anything that was undone.
		FutureStates: Stack{},
	}, true
}

func undo(state GameState) (GameState, bool) {
	prev, past, ok := state.PastStates.Pop()
	if !ok {
		return state, false
	}
	return GameState{
		Snapshot:     prev,
		PastStates:   past,
		FutureStates: state.FutureStates.Push(state.Snapshot),
	}, true
}

func redo(state GameState) (GameState, bool) {
	next, future, ok := state.FutureStates.Pop()
	if !ok {
		return state, false
	}
	return GameState{
		Snapshot:     next,
		PastStates:   state.PastStates.Push(state.Snapshot),
		FutureStates: future,
	}, true
}

// load replaces the state with an imported document. The imported undo
// stack survives; its redo stack does not.
func load(state GameState, ev Event) (GameState, bool) {
	if len(ev.Payload) == 0 {
		return state, false
	}
	var loaded GameState
	if err := json.Unmarshal(ev.Payload, &loaded); err != nil {
		return state, false
	}
	loaded.normalize()
	loaded.FutureStates = Stack{}
	return loaded, true
}

// jumpToStart rewinds to the oldest snapshot taken after the game started.
// Everything newer, including the current snapshot, moves to the redo stack
// in play order; pre-game setup snapshots stay on the undo stack.
func jumpToStart(state GameState) (GameState, bool) {
	target := -1
	for i, snap := range state.PastStates.All() {
		if snap.GameStarted {
			target = i
		}
	}
	if target < 0 {
		return state, false
	}

	future := state.FutureStates.Push(state.Snapshot)
	past := state.PastStates
	for range target {
		var snap Snapshot
		snap, past, _ = past.Pop()
		future = future.Push(snap)
	}
	snap, past, _ := past.Pop()
	return GameState{
		Snapshot:     snap,
		PastStates:   past,
		FutureStates: future,
	}, true
}

// jumpToEnd replays the whole redo stack at once.
func jumpToEnd(state GameState) (GameState, bool) {
	if state.FutureStates.Len() == 0 {
		return state, false
	}
	for state.FutureStates.Len() > 0 {
		state, _ = redo(state)
	}
	return state, true
}
