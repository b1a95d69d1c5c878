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

// Event types. History events are handled by the reducer itself; the rest
// are baseball rules.
const (
	EventUndo        = "UNDO"
	EventRedo        = "REDO"
	EventLoadGame    = "LOAD_GAME"
	EventJumpToStart = "JUMP_TO_START"
	EventJumpToEnd   = "JUMP_TO_END"

	EventStartGame     = "START_GAME"
	EventConfirmLineup = "CONFIRM_LINEUP"
	EventResetGame     = "RESET_GAME"
	EventAddPlayer     = "ADD_PLAYER"
	EventRemovePlayer  = "REMOVE_PLAYER"
	EventMovePlayer    = "MOVE_PLAYER"
	EventUpdatePlayer  = "UPDATE_PLAYER"

	EventStrikeout    = "STRIKEOUT"
	EventAddOut       = "ADD_OUT"
	EventHitSingle    = "HIT_SINGLE"
	EventHitDouble    = "HIT_DOUBLE"
	EventHitTriple    = "HIT_TRIPLE"
	EventHitHomeRun   = "HIT_HR"
	EventWalk         = "WALK"
	EventReachOnError = "REACH_ON_ERROR"
	EventSacrifice    = "SACRIFICE"
	EventSubstitute   = "SUBSTITUTE"

	EventSelectBase = "SELECT_BASE"
	EventMoveRunner = "MOVE_RUNNER"
	EventToggleBase = "TOGGLE_BASE"
	EventAddScore   = "ADD_SCORE"
	EventSubScore   = "SUB_SCORE"
	EventAddError   = "ADD_ERROR"
	EventResetCount = "RESET_COUNT"
)

// Base indexes used by SELECT_BASE, TOGGLE_BASE and MOVE_RUNNER. Home is
// only a valid MOVE_RUNNER target.
const (
	FirstBase  = 0
	SecondBase = 1
	ThirdBase  = 2
	HomePlate  = 3
)

// Event is a discriminated transition request.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartGamePayload configures a new game.
type StartGamePayload struct {
	UserTeam         Team     `json:"userTeam"`
	UserTeamName     string   `json:"userTeamName"`
	OpponentTeamName string   `json:"opponentTeamName"`
	LineupSize       int      `json:"lineupSize"`
	TotalInnings     int      `json:"totalInnings"`
	Lineup           []Player `json:"lineup,omitempty"`
}

// MovePlayerPayload reorders the lineup.
type MovePlayerPayload struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

// UpdatePlayerPayload edits one field of a lineup entry.
type UpdatePlayerPayload struct {
	Index int    `json:"index"`
	Field string `json:"field"` // "name" or "number"
	Value string `json:"value"`
}

// NewEvent builds an event, encoding payload if it is not nil.
func NewEvent(eventType string, payload any) Event {
	ev := Event{Type: eventType}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			ev.Payload = b
		}
	}
	return ev
}

// decodePayload unmarshals the event payload into v. A missing payload is
// an error.
func (e Event) decodePayload(v any) bool {
	if len(e.Payload) == 0 {
		return false
	}
	return json.Unmarshal(e.Payload, v) == nil
}

// intPayload returns the payload as an integer (base or bench index).
func (e Event) intPayload() (int, bool) {
	var v int
	if !e.decodePayload(&v) {
		return 0, false
	}
	return v, true
}
