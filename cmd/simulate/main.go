package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bkonicek/scramble/pkg/board"
	"github.com/bkonicek/scramble/pkg/log"
	"github.com/bkonicek/scramble/pkg/simulation"
	"github.com/bkonicek/scramble/pkg/version"
)

// scrambleSymbols is the rotation applied by the background mapper: each
// symbol in the table is replaced by the next one, anything else is left
// alone.
var scrambleSymbols = []string{"🦄", "🌈", "🍀", "🍭", "🚀", "🌙"}

func main() {
	boardFile := flag.String("board", "boards/perfect.txt", "Board file to simulate against")
	players := flag.Int("players", 10, "Number of concurrent players")
	flips := flag.Int("flips", 100, "Flips per player")
	mapInterval := flag.Duration("map-interval", 0, "Interval between board-wide symbol rewrites (0 disables)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)

	log.Info("Starting simulation version %s", version.Get())

	b, err := board.ParseFile(*boardFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load board %s: %v", *boardFile, err))
	}
	rows, cols := b.Size()
	log.Info("Simulating %d players x %d flips on %dx%d board", *players, *flips, rows, cols)

	sim := simulation.NewSimulation(simulation.NewSimulationOptions{
		Board:          b,
		Players:        *players,
		FlipsPerPlayer: *flips,
		MapInterval:    *mapInterval,
		Transform:      rotateSymbol,
	})

	start := time.Now()
	stats, err := sim.Run(context.Background())
	if err != nil {
		log.Error("Simulation failed: %v", err)
		os.Exit(1)
	}

	log.Info("Simulation finished in %s", time.Since(start).Round(time.Millisecond))
	log.Info("Flips: %d (no card: %d, controlled: %d, timeouts: %d), maps: %d",
		stats.Flips, stats.NoCard, stats.Controlled, stats.Timeouts, stats.Maps)
}

func rotateSymbol(_ context.Context, symbol string) (string, error) {
	for i, s := range scrambleSymbols {
		if s == symbol {
			return scrambleSymbols[(i+1)%len(scrambleSymbols)], nil
		}
	}
	return symbol, nil
}
