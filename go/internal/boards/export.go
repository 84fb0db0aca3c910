package boards

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type Export struct {
	Game          string        `json:"game"`
	TotalBoards   int           `json:"total_boards"`
	BoardSize     string        `json:"board_size"`
	ItemsPerBoard int           `json:"items_per_board"`
	Boards        []ExportBoard `json:"boards"`
}

type ExportBoard struct {
	BoardNumber int        `json:"board_number"`
	Items       []string   `json:"items"`
	Grid        [][]string `json:"grid"`
}

// NewExport numbers the boards from 1 and lays each out as a grid
func NewExport(spec *Spec, boards []Board) Export {
	out := Export{
		Game:          spec.Game,
		TotalBoards:   len(boards),
		BoardSize:     fmt.Sprintf("%dx%d", spec.Rows, spec.Columns),
		ItemsPerBoard: spec.BoardSize(),
		Boards:        make([]ExportBoard, 0, len(boards)),
	}
	for i, board := range boards {
		out.Boards = append(out.Boards, ExportBoard{
			BoardNumber: i + 1,
			Items:       append([]string(nil), board...),
			Grid:        board.Grid(spec.Columns),
		})
	}
	return out
}

// WriteJSON writes the export indented, with non-ASCII names left as is
func WriteJSON(w io.Writer, export Export) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("failed to encode boards: %w", err)
	}
	return nil
}

// Render prints each board as a block of rows
func Render(w io.Writer, spec *Spec, boards []Board) error {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	for i, board := range boards {
		fmt.Fprintf(&b, "\n%s\nBOARD %d\n%s\n", rule, i+1, rule)
		rows := board.Grid(spec.Columns)
		for r, row := range rows {
			for _, item := range row {
				fmt.Fprintf(&b, "  %s\n", item)
			}
			if r < len(rows)-1 {
				b.WriteString("\n")
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
