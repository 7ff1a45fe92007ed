package board

import (
	"context"

	"github.com/bkonicek/scramble/pkg/queue"
)

// Flip flips the card at (row, col) for the player. A player's turn is two
// flips: the first takes control of a card, blocking in FIFO order behind
// other players when the card is already controlled; the second reveals a
// candidate match and never blocks. A completed turn is settled lazily at
// the start of the player's next flip: a matched pair is removed from the
// board, an unmatched pair is turned back face down.
//
// Failures are *NoCardError (empty or out-of-bounds cell) and
// *ControlledError (second card held by a player). A failed flip still
// performs the side effects the rules dictate before surfacing the error.
// Cancelling ctx abandons a blocked flip.
func (b *Board) Flip(ctx context.Context, playerID string, row, col int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.turn(playerID)
	b.finishTurn(t)

	pos := Position{Row: row, Col: col}
	var err error
	if t.first != nil && t.second == nil {
		err = b.flipSecond(playerID, t, pos)
	} else {
		err = b.flipFirst(ctx, playerID, t, pos)
	}
	b.checkRep()
	return err
}

// finishTurn settles the player's previous turn if both cards are recorded:
// a pair that matched (and still does) is removed and everyone waiting on
// either card is resumed; otherwise any card of the pair left face up and
// unclaimed is turned back face down.
func (b *Board) finishTurn(t *playerTurn) {
	if t.first == nil || t.second == nil {
		return
	}
	first, second := *t.first, *t.second
	matched := t.matched
	t.first, t.second, t.matched = nil, nil, false

	if matched {
		fc, sc := b.cellAt(first), b.cellAt(second)
		if fc.value != "" && fc.value == sc.value {
			fc.value, fc.faceUp, fc.controller = "", false, ""
			sc.value, sc.faceUp, sc.controller = "", false, ""
			b.wakeAll(first)
			b.wakeAll(second)
			b.notifyListeners()
			return
		}
	}

	changed := false
	for _, pos := range []Position{first, second} {
		if !b.inBounds(pos) {
			continue
		}
		c := b.cellAt(pos)
		if c.value != "" && c.faceUp && c.controller == "" {
			c.faceUp = false
			changed = true
		}
	}
	if changed {
		b.notifyListeners()
	}
}

// flipFirst takes control of the target cell, suspending behind the cell's
// waiter queue while another player controls it.
func (b *Board) flipFirst(ctx context.Context, playerID string, t *playerTurn, pos Position) error {
	for {
		if !b.inBounds(pos) {
			return &NoCardError{Position: pos}
		}
		c := b.cellAt(pos)
		if c.value == "" {
			return &NoCardError{Position: pos}
		}
		if c.controller == "" {
			c.faceUp = true
			c.controller = playerID
			p := pos
			t.first = &p
			b.notifyListeners()
			return nil
		}
		// Controlled by another player: wait for a release, then
		// re-examine. The cell may have been grabbed or removed in the
		// window between the wake-up and reacquiring the lock.
		if err := b.await(ctx, pos); err != nil {
			return err
		}
	}
}

// flipSecond reveals the player's second card. It never suspends: a
// controlled target is an immediate failure, which is what makes the
// two-card protocol deadlock-free.
func (b *Board) flipSecond(playerID string, t *playerTurn, pos Position) error {
	first := *t.first

	if !b.inBounds(pos) || b.cellAt(pos).value == "" {
		b.relinquish(first)
		p := pos
		t.second = &p
		t.matched = false
		b.notifyListeners()
		return &NoCardError{Position: pos}
	}

	c := b.cellAt(pos)
	if c.controller != "" {
		holder := c.controller
		b.relinquish(first)
		p := pos
		t.second = &p
		t.matched = false
		b.notifyListeners()
		return &ControlledError{Position: pos, Player: holder}
	}

	c.faceUp = true
	p := pos
	t.second = &p

	fc := b.cellAt(first)
	if fc.value == c.value {
		fc.controller = playerID
		c.controller = playerID
		t.matched = true
	} else {
		t.matched = false
		b.relinquish(first)
		b.relinquish(pos)
	}
	b.notifyListeners()
	return nil
}

// relinquish clears the cell's controller and resumes the next waiter.
func (b *Board) relinquish(pos Position) {
	b.cellAt(pos).controller = ""
	b.wakeNext(pos)
}

// await suspends the calling flip on the cell's FIFO waiter queue,
// releasing the board lock until a controller release or a removal resumes
// it. On cancellation, a wake-up that raced the cancel is handed on to the
// next waiter so the release is not lost.
func (b *Board) await(ctx context.Context, pos Position) error {
	w := &waiter{ready: make(chan struct{}, 1)}
	q, ok := b.waiters[pos]
	if !ok {
		q = queue.NewFIFO[*waiter]()
		b.waiters[pos] = q
	}
	q.Push(w)

	b.mu.Unlock()
	select {
	case <-w.ready:
		b.mu.Lock()
		return nil
	case <-ctx.Done():
		b.mu.Lock()
		if q, ok := b.waiters[pos]; ok && q.Remove(w) {
			if q.Len() == 0 {
				delete(b.waiters, pos)
			}
		} else {
			b.passRelease(pos)
		}
		return ctx.Err()
	}
}

// passRelease hands a release that resumed a cancelled waiter to the next
// waiter in line, if the cell is still there for the taking.
func (b *Board) passRelease(pos Position) {
	if !b.inBounds(pos) {
		return
	}
	c := b.cellAt(pos)
	if c.value != "" && c.controller == "" {
		b.wakeNext(pos)
	}
}
