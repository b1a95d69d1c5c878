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
	"iter"
)

// Stack is an immutable LIFO of snapshots. Push and Pop return new stacks
// and share the tail with the receiver, so older GameState values stay valid.
// The zero value is an empty stack.
type Stack struct {
	top  *frame
	size int
}

type frame struct {
	snap Snapshot
	next *frame
}

// StackOf builds a stack from snapshots listed newest first.
func StackOf(snaps ...Snapshot) Stack {
	var s Stack
	for i := len(snaps) - 1; i >= 0; i-- {
		s = s.Push(snaps[i])
	}
	return s
}

// Len returns the number of snapshots on the stack.
func (s Stack) Len() int {
	return s.size
}

// Peek returns the newest snapshot.
func (s Stack) Peek() (Snapshot, bool) {
	if s.top == nil {
		return Snapshot{}, false
	}
	return s.top.snap, true
}

// Push returns a stack with snap on top.
func (s Stack) Push(snap Snapshot) Stack {
	return Stack{top: &frame{snap: snap, next: s.top}, size: s.size + 1}
}

// Pop returns the newest snapshot and the stack below it.
func (s Stack) Pop() (Snapshot, Stack, bool) {
	if s.top == nil {
		return Snapshot{}, s, false
	}
	return s.top.snap, Stack{top: s.top.next, size: s.size - 1}, true
}

// Drop returns the stack without its n newest entries.
func (s Stack) Drop(n int) Stack {
	for ; n > 0 && s.top != nil; n-- {
		s = Stack{top: s.top.next, size: s.size - 1}
	}
	return s
}

// All iterates from newest to oldest. The index is the distance from the top.
func (s Stack) All() iter.Seq2[int, Snapshot] {
	return func(yield func(int, Snapshot) bool) {
		i := 0
		for f := s.top; f != nil; f = f.next {
			if !yield(i, f.snap) {
				return
			}
			i++
		}
	}
}

// Slice returns the snapshots newest first.
func (s Stack) Slice() []Snapshot {
	out := make([]Snapshot, 0, s.size)
	for _, snap := range s.All() {
		out = append(out, snap)
	}
	return out
}

// MarshalJSON encodes the stack as an array, newest first.
func (s Stack) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON decodes an array listed newest first. null decodes as empty.
func (s *Stack) UnmarshalJSON(b []byte) error {
	var snaps []Snapshot
	if err := json.Unmarshal(b, &snaps); err != nil {
		return err
	}
	for i := range snaps {
		snaps[i].normalize()
	}
	*s = StackOf(snaps...)
	return nil
}
