package boards

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

var (
	ErrGenerationFailed = errors.New("failed to generate boards")
	ErrInvalidBoards    = errors.New("invalid boards")
)

// Board is one printed card, items in row-major order
type Board []string

// Grid splits the board into rows of the given width
func (b Board) Grid(columns int) [][]string {
	var rows [][]string
	for start := 0; start < len(b); start += columns {
		end := min(start+columns, len(b))
		rows = append(rows, append([]string(nil), b[start:end]...))
	}
	return rows
}

func (b Board) key() string {
	items := append([]string(nil), b...)
	sort.Strings(items)
	return strings.Join(items, "\x00")
}

// Generate deals the item pool onto boards. Each board takes items from a
// shuffled pool, first any item still owed to every remaining board, then
// distinct items in shuffled order. A set with two boards holding the same
// items is redealt, up to MaxAttempts times.
func Generate(spec *Spec, rng *rand.Rand) ([]Board, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= spec.MaxAttempts; attempt++ {
		boards, ok := deal(spec, rng)
		if ok && Validate(spec, boards) == nil {
			return boards, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrGenerationFailed, spec.MaxAttempts)
}

func deal(spec *Spec, rng *rand.Rand) ([]Board, bool) {
	remaining := make(map[string]int, len(spec.Items))
	for _, item := range spec.Items {
		if item.Frequency > 0 {
			remaining[item.Name] = item.Frequency
		}
	}

	size := spec.BoardSize()
	boards := make([]Board, 0, spec.Boards)
	for n := 0; n < spec.Boards; n++ {
		boardsLeft := spec.Boards - n

		pool := make([]string, 0, len(remaining))
		for _, item := range spec.Items {
			for i := 0; i < remaining[item.Name]; i++ {
				pool = append(pool, item.Name)
			}
		}
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

		board := make(Board, 0, size)
		taken := make(map[string]bool, size)
		take := func(name string) {
			board = append(board, name)
			taken[name] = true
			remaining[name]--
			if remaining[name] == 0 {
				delete(remaining, name)
			}
		}

		// an item owed to every remaining board must go on this one
		for _, name := range pool {
			if !taken[name] && remaining[name] == boardsLeft {
				take(name)
			}
		}
		for _, name := range pool {
			if len(board) == size {
				break
			}
			if !taken[name] {
				take(name)
			}
		}

		if len(board) != size {
			return nil, false
		}
		rng.Shuffle(len(board), func(i, j int) { board[i], board[j] = board[j], board[i] })
		boards = append(boards, board)
	}
	return boards, true
}

// Validate checks item frequencies, duplicates within a board and identical
// boards. All problems found are reported together.
func Validate(spec *Spec, boards []Board) error {
	var errs []error

	if len(boards) != spec.Boards {
		errs = append(errs, fmt.Errorf("expected %d boards, got %d", spec.Boards, len(boards)))
	}

	counts := make(map[string]int)
	seen := make(map[string]int)
	for i, board := range boards {
		number := i + 1
		if len(board) != spec.BoardSize() {
			errs = append(errs, fmt.Errorf("board %d has %d items, expected %d", number, len(board), spec.BoardSize()))
		}

		onBoard := make(map[string]bool, len(board))
		for _, name := range board {
			if onBoard[name] {
				errs = append(errs, fmt.Errorf("board %d has duplicate item %q", number, name))
			}
			onBoard[name] = true
			counts[name]++
		}

		key := board.key()
		if first, ok := seen[key]; ok {
			errs = append(errs, fmt.Errorf("board %d is identical to board %d", number, first))
		} else {
			seen[key] = number
		}
	}

	known := make(map[string]bool, len(spec.Items))
	for _, item := range spec.Items {
		known[item.Name] = true
		if counts[item.Name] != item.Frequency {
			errs = append(errs, fmt.Errorf("item %q: expected %d, got %d", item.Name, item.Frequency, counts[item.Name]))
		}
	}
	for name := range counts {
		if !known[name] {
			errs = append(errs, fmt.Errorf("unknown item %q", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBoards, errors.Join(errs...))
	}
	return nil
}
