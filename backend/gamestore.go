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
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	maxGameNameLen = 100
	gameCacheSize  = 64
)

// ErrInvalidGameName is returned for names that can't be used as a file name.
var ErrInvalidGameName = errors.New("invalid game name")

// GameMetadata is the sidecar stored next to each saved game. Listing games
// reads only these.
type GameMetadata struct {
	Name             string `json:"name"`
	SavedAt          int64  `json:"savedAt"`
	UserTeamName     string `json:"userTeamName"`
	OpponentTeamName string `json:"opponentTeamName"`
	GuestScore       int    `json:"guestScore"`
	HomeScore        int    `json:"homeScore"`
	Inning           int    `json:"inning"`
	IsTopHalf        bool   `json:"isTopHalf"`
	Moves            int    `json:"moves"`
}

func newGameMetadata(name string, g GameState, now time.Time) GameMetadata {
	return GameMetadata{
		Name:             name,
		SavedAt:          now.UnixMilli(),
		UserTeamName:     g.UserTeamName,
		OpponentTeamName: g.OpponentTeamName,
		GuestScore:       g.GuestScore,
		HomeScore:        g.HomeScore,
		Inning:           g.Inning,
		IsTopHalf:        g.IsTopHalf,
		Moves:            g.PastStates.Len(),
	}
}

// GameStore keeps named game exports on disk. Files are written through
// c2FmZQ/storage, so they are encrypted when the storage has a master key.
type GameStore struct {
	DataDir string
	Debug   bool
	storage *storage.Storage
	mu      sync.Map // Stores *sync.RWMutex for each game name
	cache   *lru.Cache[string, []byte] // Latest export for recently used games
}

// NewGameStore creates a new GameStore.
func NewGameStore(dataDir string, s *storage.Storage) *GameStore {
	cache, _ := lru.New[string, []byte](gameCacheSize)
	return &GameStore{
		DataDir: dataDir,
		storage: s,
		cache:   cache,
	}
}

// ValidGameName reports whether name can be used to save a game.
func ValidGameName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && len(name) <= maxGameNameLen && name != "." && name != ".."
}

func gameFiles(name string) (data, meta string) {
	encoded := url.PathEscape(name)
	return filepath.Join("games", fmt.Sprintf("%s.json", encoded)),
		filepath.Join("games", fmt.Sprintf("%s.meta.json", encoded))
}

func (gs *GameStore) lock(name string) *sync.RWMutex {
	m, _ := gs.mu.LoadOrStore(name, &sync.RWMutex{})
	return m.(*sync.RWMutex)
}

// SaveGame stores the export document for g under name, replacing any
// earlier save with the same name.
func (gs *GameStore) SaveGame(name string, g GameState) error {
	if !ValidGameName(name) {
		return ErrInvalidGameName
	}
	mutex := gs.lock(name)
	mutex.Lock()
	defer mutex.Unlock()

	filename, metaFilename := gameFiles(name)
	if err := gs.storage.SaveDataFile(filename, &g); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}
	meta := newGameMetadata(name, g, time.Now())
	if err := gs.storage.SaveDataFile(metaFilename, &meta); err != nil {
		log.Printf("Warning: Failed to save metadata sidecar for game %q: %v", name, err)
	}

	if jsonBytes, err := json.Marshal(g); err == nil {
		gs.cache.Add(name, jsonBytes)
	}
	return nil
}

// LoadGame returns the export document saved under name as raw JSON, ready
// to be used as a LOAD_GAME payload. It returns os.ErrNotExist if there is
// no such game.
func (gs *GameStore) LoadGame(name string) ([]byte, error) {
	if !ValidGameName(name) {
		return nil, ErrInvalidGameName
	}
	if val, ok := gs.cache.Get(name); ok {
		if gs.Debug {
			log.Printf("[CACHE] Hit for game %q", name)
		}
		return val, nil
	}
	if gs.Debug {
		log.Printf("[CACHE] Miss for game %q", name)
	}

	mutex := gs.lock(name)
	mutex.RLock()
	defer mutex.RUnlock()

	filename, _ := gameFiles(name)
	var g GameState
	if err := gs.storage.ReadDataFile(filename, &g); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	g.normalize()

	jsonBytes, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	gs.cache.Add(name, jsonBytes)
	return jsonBytes, nil
}

// DeleteGame removes a saved game. Deleting a missing game is not an error.
func (gs *GameStore) DeleteGame(name string) error {
	if !ValidGameName(name) {
		return ErrInvalidGameName
	}
	mutex := gs.lock(name)
	mutex.Lock()
	defer mutex.Unlock()

	gs.cache.Remove(name)

	filename, metaFilename := gameFiles(name)
	if err := os.Remove(filepath.Join(gs.DataDir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete game file: %w", err)
	}
	if err := os.Remove(filepath.Join(gs.DataDir, metaFilename)); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not delete meta file for game %q: %v", name, err)
	}
	return nil
}

// ListGames returns the metadata of every saved game, newest save first.
func (gs *GameStore) ListGames() iter.Seq2[GameMetadata, error] {
	return func(yield func(GameMetadata, error) bool) {
		files, err := os.ReadDir(filepath.Join(gs.DataDir, "games"))
		if err != nil {
			if !os.IsNotExist(err) {
				yield(GameMetadata{}, fmt.Errorf("could not read games directory: %w", err))
			}
			return
		}

		var metas []GameMetadata
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".meta.json") {
				continue
			}
			name, err := url.PathUnescape(strings.TrimSuffix(file.Name(), ".meta.json"))
			if err != nil {
				continue
			}
			meta, err := gs.readMetadata(name)
			if err != nil {
				log.Printf("Warning: could not load metadata for game %q: %v", name, err)
				continue
			}
			metas = append(metas, meta)
		}
		slices.SortFunc(metas, func(a, b GameMetadata) int {
			if c := cmp.Compare(b.SavedAt, a.SavedAt); c != 0 {
				return c
			}
			return strings.Compare(a.Name, b.Name)
		})
		for _, meta := range metas {
			if !yield(meta, nil) {
				return
			}
		}
	}
}

func (gs *GameStore) readMetadata(name string) (GameMetadata, error) {
	mutex := gs.lock(name)
	mutex.RLock()
	defer mutex.RUnlock()

	_, metaFilename := gameFiles(name)
	var meta GameMetadata
	if err := gs.storage.ReadDataFile(metaFilename, &meta); err != nil {
		return GameMetadata{}, err
	}
	meta.Name = name
	return meta, nil
}
