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

// readfile decodes saved games, encrypted or not, and prints them.
//
//	SK_MASTER_KEY=... readfile --data-dir=data games/final.json
//	readfile --linescore games/final.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/ttbt-io/linescore/backend"
)

var (
	dataDir   = flag.String("data-dir", "data", "Directory for saved games")
	linescore = flag.Bool("linescore", false, "Print the line score instead of the full document")
)

func main() {
	flag.Parse()

	var masterKey crypto.MasterKey
	keyFile := filepath.Join(*dataDir, "master.key")
	if passphrase := os.Getenv("SK_MASTER_KEY"); passphrase != "" {
		var err error
		if masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile); err != nil {
			log.Fatalf("Failed to read master key: %v", err)
		}
	} else if _, err := os.Stat(keyFile); err == nil {
		log.Fatalf("Critical Security Error: %s exists but SK_MASTER_KEY is not set. Refusing to read encrypted data in unencrypted mode.", keyFile)
	}
	store := storage.New(*dataDir, masterKey)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for _, arg := range flag.Args() {
		arg = strings.TrimPrefix(strings.TrimPrefix(arg, *dataDir), "/")
		fmt.Printf("=========== %s ===========\n", arg)

		if strings.HasSuffix(arg, ".meta.json") {
			var meta backend.GameMetadata
			if err := store.ReadDataFile(arg, &meta); err != nil {
				log.Printf("%s: %v", arg, err)
				continue
			}
			if err := enc.Encode(meta); err != nil {
				log.Printf("JSON: %s: %v", arg, err)
			}
			continue
		}

		var g backend.GameState
		if err := store.ReadDataFile(arg, &g); err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		if *linescore {
			fmt.Print(backend.Summarize(g.Snapshot))
			continue
		}
		if err := enc.Encode(g); err != nil {
			log.Printf("JSON: %s: %v", arg, err)
		}
	}
}
