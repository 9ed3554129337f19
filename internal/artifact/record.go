package artifact

import (
	"errors"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrInvalidMatrix = errors.New("invalid pixel matrix")

// Record is the saved drawing for one challenge.
type Record struct {
	ChallengeID int        `json:"challengeId"`
	Pixels      [][]string `json:"pixels"`
}

// ValidateMatrix requires a non-empty square matrix of hex colour strings.
func ValidateMatrix(pixels [][]string) error {
	n := len(pixels)
	if n == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidMatrix)
	}
	for r, row := range pixels {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidMatrix, r, len(row), n)
		}
		for c, cell := range row {
			if !ValidColor(cell) {
				return fmt.Errorf("%w: cell %d,%d has colour %q", ErrInvalidMatrix, r, c, cell)
			}
		}
	}
	return nil
}

func ValidColor(s string) bool {
	_, err := colorful.Hex(s)
	return err == nil
}

// CloneMatrix deep-copies a pixel matrix.
func CloneMatrix(pixels [][]string) [][]string {
	if pixels == nil {
		return nil
	}
	out := make([][]string, len(pixels))
	for i, row := range pixels {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (r Record) Size() int {
	return len(r.Pixels)
}

func (r Record) clone() Record {
	return Record{ChallengeID: r.ChallengeID, Pixels: CloneMatrix(r.Pixels)}
}
