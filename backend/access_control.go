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
	"log"
	"strings"
)

type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessWrite
)

// AccessControl decides who may change the game. Everyone can watch. When
// a scorekeeper list is configured, only those users may dispatch events or
// touch saved games; otherwise any caller may.
type AccessControl struct {
	scorekeepers map[string]bool
}

// NewAccessControl creates a new AccessControl service. scorekeepers is a
// comma-separated list of email addresses.
func NewAccessControl(scorekeepers string) *AccessControl {
	ac := &AccessControl{scorekeepers: make(map[string]bool)}
	for _, email := range strings.Split(scorekeepers, ",") {
		if email = normalizeEmail(email); email != "" {
			ac.scorekeepers[email] = true
		}
	}
	return ac
}

// Restricted reports whether writes are limited to scorekeepers.
func (ac *AccessControl) Restricted() bool {
	return len(ac.scorekeepers) > 0
}

// Access returns the access level of userId.
func (ac *AccessControl) Access(userId string) AccessLevel {
	if !ac.Restricted() {
		return AccessWrite
	}
	userId = normalizeEmail(userId)
	if userId != "" && ac.scorekeepers[userId] {
		return AccessWrite
	}
	return AccessRead
}

// CanWrite checks if a user may change the game. Returns the denial message
// if not.
func (ac *AccessControl) CanWrite(userId string) (bool, string) {
	if ac.Access(userId) >= AccessWrite {
		return true, ""
	}
	if userId == "" {
		return false, "Unauthenticated: Login required"
	}
	log.Printf("[AUTH] Forbidden: user %s is not a scorekeeper", maskEmail(userId))
	return false, "Forbidden: Only scorekeepers can change the game"
}
