package gateway

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minRoomCodeLength = 4
	maxRoomCodeLength = 12
)

var ErrInvalidRoomCode = errors.New("invalid room code")

// NormalizeRoomCode upper-cases a client supplied code and checks that it is
// 4 to 12 letters, digits or dashes. Codes double as NATS subject tokens.
func NormalizeRoomCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) < minRoomCodeLength || len(code) > maxRoomCodeLength {
		return "", fmt.Errorf("%w: must be %d to %d characters", ErrInvalidRoomCode, minRoomCodeLength, maxRoomCodeLength)
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		default:
			return "", fmt.Errorf("%w: unexpected character %q", ErrInvalidRoomCode, r)
		}
	}
	return code, nil
}
