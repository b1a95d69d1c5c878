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
	_ "embed"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed roster.yaml
var defaultRosterYAML []byte

// NamePool lists the names random lineups are drawn from.
type NamePool struct {
	Lineup      []string `yaml:"lineup"`
	Bench       []string `yaml:"bench"`
	Placeholder string   `yaml:"placeholder"`
}

// LoadNamePool reads a name pool from a YAML file, or returns the built-in
// pool when path is empty.
func LoadNamePool(path string) (NamePool, error) {
	data := defaultRosterYAML
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return NamePool{}, fmt.Errorf("failed to read roster %s: %w", path, err)
		}
	}
	var pool NamePool
	if err := yaml.Unmarshal(data, &pool); err != nil {
		return NamePool{}, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	if pool.Placeholder == "" {
		pool.Placeholder = "Batter"
	}
	return pool, nil
}

// RandomLineups is a LineupSource backed by a seedable random stream. Player
// IDs are drawn from the same stream, so a fixed seed gives identical games.
type RandomLineups struct {
	pool NamePool

	mu  sync.Mutex
	src *rand.ChaCha8
	rng *rand.Rand
}

// NewRandomLineups creates a source. A zero seed picks a random one.
func NewRandomLineups(pool NamePool, seed uint64) *RandomLineups {
	if seed == 0 {
		seed = rand.Uint64()
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	if pool.Placeholder == "" {
		pool.Placeholder = "Batter"
	}
	return &RandomLineups{
		pool: pool,
		src:  src,
		rng:  rand.New(src),
	}
}

// Lineup shuffles the name pool and returns the first n names as a batting
// order. Slots beyond the pool get placeholder names.
func (l *RandomLineups) Lineup(n int) []Player {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, len(l.pool.Lineup))
	copy(names, l.pool.Lineup)
	l.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	lineup := make([]Player, n)
	for i := range lineup {
		name := fmt.Sprintf("%s %d", l.pool.Placeholder, i+1)
		if i < len(names) {
			name = names[i]
		}
		lineup[i] = l.player(i+1, name)
	}
	return lineup
}

// Bench returns every bench name with a fresh number.
func (l *RandomLineups) Bench() []Player {
	l.mu.Lock()
	defer l.mu.Unlock()

	bench := make([]Player, len(l.pool.Bench))
	for i, name := range l.pool.Bench {
		bench[i] = l.player(0, name)
	}
	return bench
}

// NewPlayer returns a placeholder batter for slot order.
func (l *RandomLineups) NewPlayer(order int) Player {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.player(order, fmt.Sprintf("%s %d", l.pool.Placeholder, order))
}

func (l *RandomLineups) player(order int, name string) Player {
	id, err := uuid.NewRandomFromReader(l.src)
	if err != nil {
		id = uuid.New()
	}
	return Player{
		ID:     id.String(),
		Order:  order,
		Name:   name,
		Number: JerseyNumber(l.rng.IntN(99) + 1),
	}
}
