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
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultNamePool(t *testing.T) {
	pool, err := LoadNamePool("")
	if err != nil {
		t.Fatalf("LoadNamePool: %v", err)
	}
	if len(pool.Lineup) < MinLineupSize {
		t.Errorf("default pool has %d lineup names, want at least %d", len(pool.Lineup), MinLineupSize)
	}
	if len(pool.Bench) == 0 {
		t.Errorf("default pool has no bench")
	}
}

func TestRandomLineupsSeed(t *testing.T) {
	pool, err := LoadNamePool("")
	if err != nil {
		t.Fatalf("LoadNamePool: %v", err)
	}
	a := NewRandomLineups(pool, 1234)
	b := NewRandomLineups(pool, 1234)
	if diff := jsonDiff(t, a.Lineup(12), b.Lineup(12)); diff != "" {
		t.Errorf("same seed gave different lineups:\n%s", diff)
	}
	if diff := jsonDiff(t, a.Bench(), b.Bench()); diff != "" {
		t.Errorf("same seed gave different benches:\n%s", diff)
	}

	lineup := NewRandomLineups(pool, 99).Lineup(MinLineupSize)
	seen := make(map[string]bool)
	for i, p := range lineup {
		if p.Order != i+1 {
			t.Errorf("lineup[%d].Order = %d", i, p.Order)
		}
		if p.Number < 1 || p.Number > 99 {
			t.Errorf("lineup[%d].Number = %d", i, p.Number)
		}
		if seen[p.ID] {
			t.Errorf("duplicate player id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestRosterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	data := "lineup:\n  - Ann\n  - Bob\nbench:\n  - Cy\nplaceholder: Sub\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	pool, err := LoadNamePool(path)
	if err != nil {
		t.Fatalf("LoadNamePool: %v", err)
	}
	src := NewRandomLineups(pool, 5)
	lineup := src.Lineup(3)
	if lineup[2].Name != "Sub 3" {
		t.Errorf("lineup[2] = %q, want Sub 3", lineup[2].Name)
	}
	names := map[string]bool{lineup[0].Name: true, lineup[1].Name: true}
	if !names["Ann"] || !names["Bob"] {
		t.Errorf("lineup = %+v", lineup)
	}
	if p := src.NewPlayer(10); p.Name != "Sub 10" || p.Order != 10 {
		t.Errorf("NewPlayer(10) = %+v", p)
	}

	if _, err := LoadNamePool(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("LoadNamePool succeeded on a missing file")
	}
}
