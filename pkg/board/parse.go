package board

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/bkonicek/scramble/pkg/queue"
)

var headerPattern = regexp.MustCompile(`^([0-9]+)x([0-9]+)$`)

// Parse reads a board description: a RxC header line followed by R*C lines
// of one card symbol each, in row-major order. Symbols are opaque strings
// compared by exact equality; they are not required to form pairs.
func Parse(r io.Reader) (*Board, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read board: %w", err)
		}
		return nil, &ParseError{Line: 1, Reason: "missing header"}
	}
	header := strings.TrimRight(scanner.Text(), "\r")
	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("header %q does not match RxC", header)}
	}
	rows, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("bad row count %q", m[1])}
	}
	cols, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("bad column count %q", m[2])}
	}
	if rows < 1 || cols < 1 {
		return nil, &ParseError{Line: 1, Reason: "dimensions must be positive"}
	}

	cells := make([]cell, 0, rows*cols)
	line := 1
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			return nil, &ParseError{Line: line, Reason: "empty cell line"}
		}
		cells = append(cells, cell{value: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	if len(cells) != rows*cols {
		return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected %d cells, got %d", rows*cols, len(cells))}
	}

	b := &Board{
		rows:    rows,
		cols:    cols,
		cells:   cells,
		players: make(map[string]*playerTurn),
		waiters: make(map[Position]*queue.FIFO[*waiter]),
	}
	b.checkRep()
	return b, nil
}

// ParseFile reads a board description from a file on disk.
func ParseFile(path string) (*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open board file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
