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
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
)

// DefaultReplayInterval is how often auto-replay steps forward.
const DefaultReplayInterval = 1500 * time.Millisecond

// ErrSessionClosed is returned by requests made after Close.
var ErrSessionClosed = errors.New("session closed")

// Session request types
const (
	reqDispatch    = "DISPATCH"
	reqState       = "STATE"
	reqReplayStart = "REPLAY_START"
	reqReplayStop  = "REPLAY_STOP"
)

type sessionRequest struct {
	Type  string
	Event Event
	Reply chan sessionResponse
}

type sessionResponse struct {
	State     GameState
	Changed   bool
	Replaying bool
}

// Subscription receives every state the session commits. C is closed when
// the subscriber falls behind, unsubscribes, or the session closes.
type Subscription struct {
	C <-chan GameState
	c chan GameState
}

// SessionOptions configures a Session.
type SessionOptions struct {
	Reducer        *Reducer
	Initial        *GameState
	ReplayInterval time.Duration
	Debug          bool
}

// Session owns the one authoritative GameState. A single goroutine applies
// every event in arrival order and pushes the result to subscribers, so no
// two transitions are ever in flight at once.
type Session struct {
	reducer  *Reducer
	state    GameState
	interval time.Duration
	debugf   func(string, ...any)

	// Inbound requests
	requests chan sessionRequest

	subscribers map[*Subscription]bool
	register    chan *Subscription
	unregister  chan *Subscription

	// Non-nil while auto-replay is running.
	replay *time.Ticker

	done   chan struct{}
	closed chan struct{}
}

// NewSession starts a session. Call Close to stop it.
func NewSession(opts SessionOptions) *Session {
	debugf := func(string, ...any) {}
	if opts.Debug {
		debugf = func(format string, args ...any) {
			log.Printf("[SESSION] "+format, args...)
		}
	}
	if opts.ReplayInterval <= 0 {
		opts.ReplayInterval = DefaultReplayInterval
	}
	state := NewGame(opts.Reducer.Lineups)
	if opts.Initial != nil {
		state = *opts.Initial
	}
	s := &Session{
		reducer:     opts.Reducer,
		state:       state,
		interval:    opts.ReplayInterval,
		debugf:      debugf,
		requests:    make(chan sessionRequest, 64),
		subscribers: make(map[*Subscription]bool),
		register:    make(chan *Subscription),
		unregister:  make(chan *Subscription),
		done:        make(chan struct{}),
		closed:      make(chan struct{}),
	}
	go s.run()
	return s
}

// Close stops the session loop and closes every subscription.
func (s *Session) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.closed
}

func (s *Session) run() {
	defer close(s.closed)
	defer func() {
		s.stopReplay()
		for sub := range s.subscribers {
			close(sub.c)
			delete(s.subscribers, sub)
		}
	}()

	for {
		var tick <-chan time.Time
		if s.replay != nil {
			tick = s.replay.C
		}

		select {
		case <-s.done:
			return
		case sub := <-s.register:
			s.subscribers[sub] = true
			// New subscribers start from the current state.
			sub.c <- s.state
		case sub := <-s.unregister:
			if s.subscribers[sub] {
				delete(s.subscribers, sub)
				close(sub.c)
			}
		case <-tick:
			s.replayStep()
		case req := <-s.requests:
			var resp sessionResponse
			switch req.Type {
			case reqDispatch:
				// Any event from outside cancels auto-replay.
				s.stopReplay()
				resp.Changed = s.apply(req.Event)
			case reqReplayStart:
				s.startReplay()
			case reqReplayStop:
				s.stopReplay()
			case reqState:
			}
			resp.State = s.state
			resp.Replaying = s.replay != nil
			if req.Reply != nil {
				req.Reply <- resp
			}
		}
	}
}

func (s *Session) apply(ev Event) bool {
	next, changed := s.reducer.apply(s.state, ev)
	if !changed {
		s.debugf("%s: no change", ev.Type)
		return false
	}
	s.state = next
	s.debugf("%s: inning %d %s, outs %d, %d-%d", ev.Type, next.Inning, halfName(next.IsTopHalf), next.Outs, next.GuestScore, next.HomeScore)
	s.broadcast()
	return true
}

func (s *Session) startReplay() {
	if s.replay != nil || s.state.FutureStates.Len() == 0 {
		return
	}
	s.debugf("replay started, %d steps", s.state.FutureStates.Len())
	s.replay = time.NewTicker(s.interval)
}

func (s *Session) stopReplay() {
	if s.replay == nil {
		return
	}
	s.replay.Stop()
	s.replay = nil
	s.debugf("replay stopped")
}

// replayStep applies one REDO and stops the ticker once nothing is left.
func (s *Session) replayStep() {
	if s.state.FutureStates.Len() > 0 {
		s.apply(Event{Type: EventRedo})
	}
	if s.state.FutureStates.Len() == 0 {
		s.stopReplay()
	}
}

func (s *Session) broadcast() {
	for sub := range s.subscribers {
		select {
		case sub.c <- s.state:
		default:
			close(sub.c)
			delete(s.subscribers, sub)
		}
	}
}

func (s *Session) do(ctx context.Context, req sessionRequest) (sessionResponse, error) {
	req.Reply = make(chan sessionResponse, 1)
	select {
	case s.requests <- req:
	case <-s.done:
		return sessionResponse{}, ErrSessionClosed
	case <-ctx.Done():
		return sessionResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.Reply:
		return resp, nil
	case <-s.done:
		return sessionResponse{}, ErrSessionClosed
	case <-ctx.Done():
		return sessionResponse{}, ctx.Err()
	}
}

// Dispatch applies ev and returns the resulting state. changed is false when
// the event had no effect.
func (s *Session) Dispatch(ctx context.Context, ev Event) (state GameState, changed bool, err error) {
	resp, err := s.do(ctx, sessionRequest{Type: reqDispatch, Event: ev})
	return resp.State, resp.Changed, err
}

// State returns the current state.
func (s *Session) State(ctx context.Context) (GameState, error) {
	resp, err := s.do(ctx, sessionRequest{Type: reqState})
	return resp.State, err
}

// Replaying reports whether auto-replay is running.
func (s *Session) Replaying(ctx context.Context) (bool, error) {
	resp, err := s.do(ctx, sessionRequest{Type: reqState})
	return resp.Replaying, err
}

// StartReplay steps through the redo stack, one REDO per replay interval.
// It reports whether replay is running; there is nothing to replay when the
// redo stack is empty.
func (s *Session) StartReplay(ctx context.Context) (bool, error) {
	resp, err := s.do(ctx, sessionRequest{Type: reqReplayStart})
	return resp.Replaying, err
}

// StopReplay halts auto-replay. Already applied steps stay applied.
func (s *Session) StopReplay(ctx context.Context) error {
	_, err := s.do(ctx, sessionRequest{Type: reqReplayStop})
	return err
}

// Export returns the full state, history stacks included, as a JSON
// document that Import accepts.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Import checks doc and loads it as the current state. The loaded game
// keeps its undo history but not its redo history.
func (s *Session) Import(ctx context.Context, doc []byte) (GameState, error) {
	if err := ValidateGameDocument(doc); err != nil {
		return GameState{}, err
	}
	state, changed, err := s.Dispatch(ctx, Event{Type: EventLoadGame, Payload: json.RawMessage(doc)})
	if err != nil {
		return state, err
	}
	if !changed {
		return state, ErrInvalidGameDocument
	}
	return state, nil
}

// Subscribe registers for state updates. The current state is delivered
// first.
func (s *Session) Subscribe(ctx context.Context) (*Subscription, error) {
	c := make(chan GameState, 16)
	sub := &Subscription{C: c, c: c}
	select {
	case s.register <- sub:
		return sub, nil
	case <-s.done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unsubscribe stops updates to sub and closes its channel.
func (s *Session) Unsubscribe(sub *Subscription) {
	select {
	case s.unregister <- sub:
	case <-s.done:
	}
}

func halfName(top bool) string {
	if top {
		return "top"
	}
	return "bottom"
}
