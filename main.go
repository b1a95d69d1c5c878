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

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/ttbt-io/linescore/backend"
)

var (
	addr           = flag.String("addr", ":8080", "The TCP address to listen to")
	useMockAuth    = flag.Bool("use-mock-auth", false, "Use Mock Authentication. For testing purposes only.")
	debugMode      = flag.Bool("debug", false, "Enable debug mode")
	dataDir        = flag.String("data-dir", "data", "Directory for saved games")
	tlsCert        = flag.String("tls-cert", "", "Path to main HTTP TLS certificate")
	tlsKey         = flag.String("tls-key", "", "Path to main HTTP TLS key")
	authCookieName = flag.String("auth-cookie-name", backend.DefaultAuthCookieName, "Name of the cookie containing the JWT")
	authJWKSURL    = flag.String("auth-jwks-url", "", "URL of the JWKS endpoint used to verify JWTs")
	scorekeepers   = flag.String("scorekeeper", "", "Comma-separated emails of users allowed to change the game. Empty means anyone.")
	rosterFile     = flag.String("roster", "", "YAML file with the name pools for random lineups")
	replayInterval = flag.Duration("replay-interval", backend.DefaultReplayInterval, "Time between steps of auto-replay")
	seed           = flag.Uint64("seed", 0, "Seed for random lineups. 0 picks one at random.")
)

// main starts the web server and registers the API handlers.
func main() {
	flag.Parse()

	var mainTLSCert *tls.Certificate
	if *tlsCert != "" && *tlsKey != "" {
		cert, err := tls.LoadX509KeyPair(*tlsCert, *tlsKey)
		if err != nil {
			log.Fatalf("Failed to load main TLS cert/key: %v", err)
		}
		mainTLSCert = &cert
	}

	pool, err := backend.LoadNamePool(*rosterFile)
	if err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}

	store := storage.New(*dataDir, masterKey(*dataDir))
	store.EnableCompression(true)

	server, err := backend.StartServer(backend.Options{
		Addr:           *addr,
		Cert:           mainTLSCert,
		DataDir:        *dataDir,
		UseMockAuth:    *useMockAuth,
		Debug:          *debugMode,
		Storage:        store,
		Lineups:        backend.NewRandomLineups(pool, *seed),
		ReplayInterval: *replayInterval,
		AuthCookieName: *authCookieName,
		AuthJWKSURL:    *authJWKSURL,
		Scorekeepers:   *scorekeepers,
	})
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
}

// masterKey loads or creates the encryption key protected by SK_MASTER_KEY.
// Without the passphrase, data is stored unencrypted.
func masterKey(dir string) crypto.MasterKey {
	keyFile := filepath.Join(dir, "master.key")
	passphrase := os.Getenv("SK_MASTER_KEY")
	if passphrase == "" {
		if _, err := os.Stat(keyFile); err == nil {
			log.Fatalf("Critical Security Error: %s exists but SK_MASTER_KEY is not set. Refusing to start in unencrypted mode to prevent data corruption or exposure.", keyFile)
		}
		log.Println("Warning: No SK_MASTER_KEY provided. Data will be stored UNENCRYPTED.")
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create data dir: %v", err)
	}
	mk, err := crypto.ReadMasterKey([]byte(passphrase), keyFile)
	if err == nil {
		log.Println("Loaded master encryption key.")
		return mk
	}
	if !os.IsNotExist(err) {
		log.Fatalf("Failed to read master key: %v", err)
	}
	log.Println("Initializing new master encryption key...")
	if mk, err = crypto.CreateMasterKey(); err != nil {
		log.Fatalf("Failed to create master key: %v", err)
	}
	if err := mk.Save([]byte(passphrase), keyFile); err != nil {
		log.Fatalf("Failed to save master key: %v", err)
	}
	return mk
}
