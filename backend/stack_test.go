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
	"testing"
)

func inningSnap(inning int) Snapshot {
	s := initialSnapshot(fixedLineups{})
	s.Inning = inning
	return s
}

func innings(s Stack) []int {
	var out []int
	for _, snap := range s.All() {
		out = append(out, snap.Inning)
	}
	return out
}

func TestStackIsPersistent(t *testing.T) {
	base := StackOf(inningSnap(2), inningSnap(1))
	a := base.Push(inningSnap(3))
	b := base.Push(inningSnap(4))

	if got := innings(base); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("base = %v, want [2 1]", got)
	}
	if got := innings(a); len(got) != 3 || got[0] != 3 {
		t.Errorf("a = %v, want [3 2 1]", got)
	}
	if got := innings(b); len(got) != 3 || got[0] != 4 {
		t.Errorf("b = %v, want [4 2 1]", got)
	}

	top, rest, ok := a.Pop()
	if !ok || top.Inning != 3 || rest.Len() != 2 {
		t.Fatalf("Pop() = %d, %v, %v", top.Inning, innings(rest), ok)
	}
	if a.Len() != 3 {
		t.Errorf("Pop modified the stack: len %d", a.Len())
	}
	if got := a.Drop(2).Len(); got != 1 {
		t.Errorf("Drop(2).Len() = %d, want 1", got)
	}
	if got := a.Drop(10).Len(); got != 0 {
		t.Errorf("Drop(10).Len() = %d, want 0", got)
	}

	var empty Stack
	if _, _, ok := empty.Pop(); ok {
		t.Errorf("Pop on an empty stack succeeded")
	}
	if _, ok := empty.Peek(); ok {
		t.Errorf("Peek on an empty stack succeeded")
	}
}

func TestStackJSON(t *testing.T) {
	var empty Stack
	b, err := json.Marshal(empty)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if string(b) != "[]" {
		t.Errorf("empty stack = %s, want []", b)
	}

	s := StackOf(inningSnap(3), inningSnap(2), inningSnap(1))
	b, err = json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(raw) != 3 || raw[0]["inning"] != float64(3) || raw[2]["inning"] != float64(1) {
		t.Errorf("stack JSON is not newest first: %s", b)
	}

	var back Stack
	if err := json.Unmarshal([]byte(`[{"inning":5},{"inning":4}]`), &back); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	top, ok := back.Peek()
	if !ok || top.Inning != 5 || back.Len() != 2 {
		t.Fatalf("Peek() = %+v, %v", top, ok)
	}
	if top.History == nil || top.Lineup == nil || top.UserTeam != TeamHome {
		t.Errorf("snapshot was not normalized: %+v", top)
	}
}
