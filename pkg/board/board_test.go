package board

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	CheckInvariants = true
	os.Exit(m.Run())
}

const perfectBoard = `3x3
🦄
🦄
🌈
🍀
🍀
🌈
🦄
🍭
🍭
`

func mustParse(t *testing.T, desc string) *Board {
	t.Helper()
	b, err := Parse(strings.NewReader(desc))
	require.NoError(t, err)
	return b
}

// snapshotLines splits a Look snapshot into its header and cell lines.
func snapshotLines(t *testing.T, snapshot string) []string {
	t.Helper()
	require.True(t, strings.HasSuffix(snapshot, "\n"), "snapshot must end with a newline")
	return strings.Split(strings.TrimSuffix(snapshot, "\n"), "\n")
}

// cellLine returns the snapshot line for cell (row, col) of a 3-column board.
func cellLine(lines []string, row, col int) string {
	return lines[1+row*3+col]
}

func TestLookInitialBoard(t *testing.T) {
	b := mustParse(t, perfectBoard)
	lines := snapshotLines(t, b.Look("alice"))
	require.Len(t, lines, 10)
	assert.Equal(t, "3x3", lines[0])
	for _, line := range lines[1:] {
		assert.Equal(t, "down", line)
	}
}

func TestFlipMatchRemovesPair(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	require.NoError(t, b.Flip(ctx, "alice", 0, 0))
	require.NoError(t, b.Flip(ctx, "alice", 0, 1))

	lines := snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "my 🦄", cellLine(lines, 0, 0))
	assert.Equal(t, "my 🦄", cellLine(lines, 0, 1))

	// The next flip settles the matched turn and removes the pair.
	require.NoError(t, b.Flip(ctx, "alice", 1, 1))

	lines = snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "none", cellLine(lines, 0, 0))
	assert.Equal(t, "none", cellLine(lines, 0, 1))
	assert.Equal(t, "my 🍀", cellLine(lines, 1, 1))
}

func TestFlipNoMatchTurnsFaceDown(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	require.NoError(t, b.Flip(ctx, "alice", 0, 0))
	require.NoError(t, b.Flip(ctx, "alice", 0, 2))

	lines := snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "up 🦄", cellLine(lines, 0, 0))
	assert.Equal(t, "up 🌈", cellLine(lines, 0, 2))

	require.NoError(t, b.Flip(ctx, "alice", 1, 1))

	lines = snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "down", cellLine(lines, 0, 0))
	assert.Equal(t, "down", cellLine(lines, 0, 2))
	assert.Equal(t, "my 🍀", cellLine(lines, 1, 1))
}

func TestFirstFlipTakesFaceUpUncontrolledCard(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	// alice's unmatched pair is left face up and unclaimed.
	require.NoError(t, b.Flip(ctx, "alice", 0, 0))
	require.NoError(t, b.Flip(ctx, "alice", 0, 2))

	require.NoError(t, b.Flip(ctx, "bob", 0, 0))
	lines := snapshotLines(t, b.Look("bob"))
	assert.Equal(t, "my 🦄", cellLine(lines, 0, 0))
}

func TestFlipNoCard(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	for _, pos := range []Position{{Row: -1, Col: 0}, {Row: 0, Col: 3}, {Row: 5, Col: 5}} {
		err := b.Flip(ctx, "alice", pos.Row, pos.Col)
		var noCard *NoCardError
		require.ErrorAs(t, err, &noCard)
		assert.Contains(t, err.Error(), "No card at position")
	}

	// A failed first flip records nothing; the next flip is still a first
	// flip.
	require.NoError(t, b.Flip(ctx, "alice", 0, 0))
	lines := snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "my 🦄", cellLine(lines, 0, 0))
}

func TestSecondFlipOnControlledFailsImmediately(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	require.NoError(t, b.Flip(ctx, "alice", 0, 0))

	// Flipping the card alice herself controls is an immediate failure,
	// not a wait.
	err := b.Flip(ctx, "alice", 0, 0)
	var controlled *ControlledError
	require.ErrorAs(t, err, &controlled)
	assert.Contains(t, err.Error(), "controlled by alice")

	// The card stays face up but is no longer controlled.
	lines := snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "up 🦄", cellLine(lines, 0, 0))
}

func TestSecondFlipOnOtherPlayersCardFailsImmediately(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	require.NoError(t, b.Flip(ctx, "alice", 0, 0))
	require.NoError(t, b.Flip(ctx, "bob", 1, 0))

	err := b.Flip(ctx, "alice", 1, 0)
	var controlled *ControlledError
	require.ErrorAs(t, err, &controlled)
	assert.Contains(t, err.Error(), "controlled by bob")

	// alice relinquished her first card as part of the failure.
	lines := snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "up 🦄", cellLine(lines, 0, 0))
	assert.Equal(t, "my 🍀", cellLine(snapshotLines(t, b.Look("bob")), 1, 0))
}

func TestSecondFlipNoCardClosesTurn(t *testing.T) {
	b := mustParse(t, perfectBoard)
	ctx := context.Background()

	require.NoError(t, b.Flip(ctx, "alice", 0, 0))

	err := b.Flip(ctx, "alice", 5, 5)
	var noCard *NoCardError
	require.ErrorAs(t, err, &noCard)

	// The first card was relinquished and the turn closed: alice's next
	// flip is a first flip that turns the stale card face down.
	lines := snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "up 🦄", cellLine(lines, 0, 0))

	require.NoError(t, b.Flip(ctx, "alice", 1, 0))
	lines = snapshotLines(t, b.Look("alice"))
	assert.Equal(t, "down", cellLine(lines, 0, 0))
	assert.Equal(t, "my 🍀", cellLine(lines, 1, 0))
}

func TestPlayerTurnCreatedLazily(t *testing.T) {
	b := mustParse(t, perfectBoard)

	b.mu.Lock()
	assert.Empty(t, b.players)
	b.mu.Unlock()

	require.NoError(t, b.Flip(context.Background(), "alice", 0, 0))

	b.mu.Lock()
	assert.Contains(t, b.players, "alice")
	b.mu.Unlock()
}
