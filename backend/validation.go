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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	maxTeamNameLen   = 50
	maxPlayerNameLen = 50
	maxLineupSize    = 30
	maxTotalInnings  = 30
)

// ValidateEvent checks an event's type and payload shape before it is
// dispatched. The reducer tolerates bad events; this gives clients an error
// message instead of a silent no-op.
func ValidateEvent(ev Event) error {
	if ev.Type == "" {
		return fmt.Errorf("missing event type")
	}
	return validateEventPayload(ev.Type, ev.Payload)
}

func validateEventPayload(eventType string, payload json.RawMessage) error {
	switch eventType {
	case EventUndo, EventRedo, EventJumpToStart, EventJumpToEnd,
		EventConfirmLineup, EventResetGame, EventAddPlayer, EventRemovePlayer,
		EventStrikeout, EventAddOut, EventHitSingle, EventHitDouble,
		EventHitTriple, EventHitHomeRun, EventWalk, EventReachOnError,
		EventSacrifice, EventAddScore, EventSubScore, EventAddError,
		EventResetCount:
		return nil
	case EventLoadGame:
		return ValidateGameDocument(payload)
	case EventStartGame:
		return validateStartGame(payload)
	case EventMovePlayer:
		return validateMovePlayer(payload)
	case EventUpdatePlayer:
		return validateUpdatePlayer(payload)
	case EventSelectBase, EventToggleBase:
		return validateIndex(payload, FirstBase, ThirdBase, "base")
	case EventMoveRunner:
		return validateIndex(payload, FirstBase, HomePlate, "target base")
	case EventSubstitute:
		return validateIndex(payload, 0, 99, "bench index")
	default:
		return fmt.Errorf("unknown event type: %s", eventType)
	}
}

// validateStringLen checks if the string length is within the limit.
func validateStringLen(s string, max int, name string) error {
	if len(s) > max {
		return fmt.Errorf("%s too long (max %d chars)", name, max)
	}
	return nil
}

func validateIndex(payload json.RawMessage, lo, hi int, name string) error {
	var v int
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if v < lo || v > hi {
		return fmt.Errorf("%s out of range: %d", name, v)
	}
	return nil
}

func validateStartGame(payload json.RawMessage) error {
	var p StartGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	if p.UserTeam != TeamHome && p.UserTeam != TeamGuest {
		return fmt.Errorf("invalid user team: %q", p.UserTeam)
	}
	if err := validateStringLen(p.UserTeamName, maxTeamNameLen, "user team name"); err != nil {
		return err
	}
	if err := validateStringLen(p.OpponentTeamName, maxTeamNameLen, "opponent team name"); err != nil {
		return err
	}
	if p.LineupSize < 0 || p.LineupSize > maxLineupSize {
		return fmt.Errorf("invalid lineup size: %d", p.LineupSize)
	}
	if p.TotalInnings < 0 || p.TotalInnings > maxTotalInnings {
		return fmt.Errorf("invalid total innings: %d", p.TotalInnings)
	}
	if len(p.Lineup) > 0 && len(p.Lineup) < MinLineupSize {
		return fmt.Errorf("lineup needs at least %d players", MinLineupSize)
	}
	return nil
}

func validateMovePlayer(payload json.RawMessage) error {
	var p MovePlayerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	if p.FromIndex < 0 || p.ToIndex < 0 {
		return fmt.Errorf("invalid lineup index")
	}
	return nil
}

func validateUpdatePlayer(payload json.RawMessage) error {
	var p UpdatePlayerPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	if p.Index < 0 {
		return fmt.Errorf("invalid lineup index: %d", p.Index)
	}
	switch p.Field {
	case "name":
		return validateStringLen(p.Value, maxPlayerNameLen, "name")
	case "number":
		return validateStringLen(p.Value, 3, "number")
	default:
		return fmt.Errorf("invalid player field: %q", p.Field)
	}
}

// ErrInvalidGameDocument is returned for game documents that can't be loaded.
var ErrInvalidGameDocument = errors.New("invalid game document")

// snapshotNumberKeys and friends list the keys every snapshot must carry.
var (
	snapshotNumberKeys = []string{
		"inning", "outs", "guestScore", "homeScore", "guestHits", "homeHits",
		"guestErrors", "homeErrors", "guestLeftOnBase", "homeLeftOnBase",
		"currentBatterIndex", "totalInnings",
	}
	snapshotBoolKeys  = []string{"isTopHalf", "gameStarted", "lineupConfirmed"}
	snapshotArrayKeys = []string{"guestInningScores", "homeInningScores", "lineup", "bench", "history"}
)

// ValidateGameDocument checks the structural shape of an exported game
// before it is loaded: required keys and types, three bases, a known user
// team and a full lineup. Nested snapshots on the undo and redo stacks get
// the same check.
func ValidateGameDocument(data []byte) error {
	if err := validateGameDocument(data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGameDocument, err)
	}
	return nil
}

func validateGameDocument(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid game JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fmt.Errorf("game document must be an object")
	}
	if err := validateSnapshotShape(doc); err != nil {
		return err
	}
	for _, key := range []string{"pastStates", "futureStates"} {
		stack := doc.Get(key)
		if !stack.Exists() || stack.Type == gjson.Null {
			continue
		}
		if !stack.IsArray() {
			return fmt.Errorf("%s must be an array", key)
		}
		for i, snap := range stack.Array() {
			if err := validateSnapshotShape(snap); err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
		}
	}
	// The document must also decode.
	var g GameState
	if err := json.Unmarshal(data, &g); err != nil {
		return err
	}
	return nil
}

// isInt reports whether v is a JSON number without a fraction or exponent.
func isInt(v gjson.Result) bool {
	return v.Type == gjson.Number && !strings.ContainsAny(v.Raw, ".eE")
}

// validJerseyNumber accepts what JerseyNumber decodes: null, an integer, or
// a string holding an integer or nothing.
func validJerseyNumber(v gjson.Result) bool {
	switch v.Type {
	case gjson.Null:
		return true
	case gjson.Number:
		return isInt(v)
	case gjson.String:
		str := strings.TrimSpace(v.Str)
		if str == "" {
			return true
		}
		_, err := strconv.Atoi(str)
		return err == nil
	}
	return false
}

func validateSnapshotShape(snap gjson.Result) error {
	for _, key := range snapshotNumberKeys {
		v := snap.Get(key)
		if v.Type != gjson.Number {
			return fmt.Errorf("%s must be a number", key)
		}
		if !isInt(v) {
			return fmt.Errorf("%s must be an integer: %s", key, v.Raw)
		}
		if v.Int() < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	for _, key := range snapshotBoolKeys {
		if v := snap.Get(key); !v.IsBool() {
			return fmt.Errorf("%s must be a boolean", key)
		}
	}
	for _, key := range snapshotArrayKeys {
		if v := snap.Get(key); !v.IsArray() {
			return fmt.Errorf("%s must be an array", key)
		}
	}
	for _, key := range []string{"guestInningScores", "homeInningScores"} {
		for i, v := range snap.Get(key).Array() {
			if !isInt(v) {
				return fmt.Errorf("%s[%d] must be an integer: %s", key, i, v.Raw)
			}
		}
	}
	if snap.Get("inning").Int() < 1 {
		return fmt.Errorf("inning must be at least 1")
	}
	if outs := snap.Get("outs").Int(); outs > 2 {
		return fmt.Errorf("outs out of range: %d", outs)
	}

	bases := snap.Get("bases")
	if !bases.IsArray() || len(bases.Array()) != 3 {
		return fmt.Errorf("bases must be an array of 3")
	}
	for i, b := range bases.Array() {
		if b.Type != gjson.Null && b.Type != gjson.String {
			return fmt.Errorf("bases[%d] must be null or a runner name", i)
		}
	}

	switch Team(snap.Get("userTeam").String()) {
	case TeamHome, TeamGuest:
	default:
		return fmt.Errorf("invalid userTeam: %q", snap.Get("userTeam").String())
	}

	lineup := snap.Get("lineup").Array()
	if len(lineup) < MinLineupSize {
		return fmt.Errorf("lineup needs at least %d players", MinLineupSize)
	}
	for i, p := range lineup {
		if !p.Get("name").Exists() {
			return fmt.Errorf("lineup[%d] missing name", i)
		}
		if n := p.Get("number"); n.Exists() && !validJerseyNumber(n) {
			return fmt.Errorf("lineup[%d] invalid number: %s", i, n.Raw)
		}
	}
	for i, p := range snap.Get("bench").Array() {
		if n := p.Get("number"); n.Exists() && !validJerseyNumber(n) {
			return fmt.Errorf("bench[%d] invalid number: %s", i, n.Raw)
		}
	}
	if idx := snap.Get("currentBatterIndex").Int(); idx >= int64(len(lineup)) {
		return fmt.Errorf("currentBatterIndex out of range: %d", idx)
	}

	if sel := snap.Get("selectedBase"); sel.Exists() && sel.Type != gjson.Null {
		if sel.Type != gjson.Number || sel.Int() < FirstBase || sel.Int() > ThirdBase {
			return fmt.Errorf("invalid selectedBase: %s", sel.Raw)
		}
	}
	return nil
}
