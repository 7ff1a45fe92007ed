// Package simulation drives a board with synthetic players issuing random
// concurrent flips, optionally rewriting the card symbols through Map while
// play continues. Used by cmd/simulate and the stress tests.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bkonicek/scramble/pkg/board"
	"github.com/bkonicek/scramble/pkg/log"
)

// DefaultFlipTimeout bounds how long a simulated player waits on a
// contended card before giving up on that flip.
const DefaultFlipTimeout = 500 * time.Millisecond

// Stats counts flip outcomes across a run. Counters are updated atomically
// by the player goroutines and, for Maps, by the mapper goroutine.
type Stats struct {
	Flips      int64
	NoCard     int64
	Controlled int64
	Timeouts   int64
	Maps       int64
}

type Simulation struct {
	board          *board.Board
	players        int
	flipsPerPlayer int
	flipTimeout    time.Duration
	mapInterval    time.Duration
	transform      board.TransformFunc
}

type NewSimulationOptions struct {
	Board          *board.Board
	Players        int
	FlipsPerPlayer int
	// FlipTimeout bounds each flip; DefaultFlipTimeout when zero.
	FlipTimeout time.Duration
	// MapInterval, when positive, applies Transform to the whole board on
	// this interval while players are flipping.
	MapInterval time.Duration
	Transform   board.TransformFunc
}

// NewSimulation creates a new Simulation.
func NewSimulation(opts NewSimulationOptions) *Simulation {
	flipTimeout := opts.FlipTimeout
	if flipTimeout <= 0 {
		flipTimeout = DefaultFlipTimeout
	}
	return &Simulation{
		board:          opts.Board,
		players:        opts.Players,
		flipsPerPlayer: opts.FlipsPerPlayer,
		flipTimeout:    flipTimeout,
		mapInterval:    opts.MapInterval,
		transform:      opts.Transform,
	}
}

// Run drives every player to completion and returns the aggregate outcome
// counts. Rule failures and flip timeouts are part of normal play and are
// counted, not returned; the error is non-nil only when ctx is cancelled.
func (s *Simulation) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	done := make(chan struct{})
	if s.mapInterval > 0 && s.transform != nil {
		go s.runMapper(ctx, done, stats)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.players; i++ {
		id := fmt.Sprintf("sim-%s", uuid.NewString()[:8])
		rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		g.Go(func() error {
			return s.runPlayer(gctx, id, rng, stats)
		})
	}
	err := g.Wait()
	close(done)
	return stats, err
}

func (s *Simulation) runPlayer(ctx context.Context, id string, rng *rand.Rand, stats *Stats) error {
	rows, cols := s.board.Size()
	for i := 0; i < s.flipsPerPlayer; i++ {
		row, col := rng.Intn(rows), rng.Intn(cols)

		flipCtx, cancel := context.WithTimeout(ctx, s.flipTimeout)
		err := s.board.Flip(flipCtx, id, row, col)
		cancel()

		atomic.AddInt64(&stats.Flips, 1)
		var noCard *board.NoCardError
		var controlled *board.ControlledError
		switch {
		case err == nil:
		case errors.As(err, &noCard):
			atomic.AddInt64(&stats.NoCard, 1)
		case errors.As(err, &controlled):
			atomic.AddInt64(&stats.Controlled, 1)
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			atomic.AddInt64(&stats.Timeouts, 1)
		default:
			return err
		}
	}
	log.Debug("Player %s finished %d flips", id, s.flipsPerPlayer)
	return nil
}

func (s *Simulation) runMapper(ctx context.Context, done <-chan struct{}, stats *Stats) {
	ticker := time.NewTicker(s.mapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.board.Map(ctx, s.transform); err != nil {
				log.Error("Failed to map board: %v", err)
				continue
			}
			atomic.AddInt64(&stats.Maps, 1)
		}
	}
}
