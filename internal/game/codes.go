package game

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrCodeSpaceExhausted is returned when no free code could be drawn within
// the retry budget, which in practice means the registry is close to full.
var ErrCodeSpaceExhausted = errors.New("room code space exhausted")

const (
	codeLength   = 4
	codeAlphabet = "0123456789"

	// Retries are bounded so a nearly-full registry surfaces an error
	// instead of looping forever.
	maxCodeAttempts = 64
)

// NewCode draws random fixed-length numeric codes until it finds one not
// present in the registry.
func NewCode(ctx context.Context, reg Registry) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode(codeLength)
		if err != nil {
			return "", fmt.Errorf("drawing code: %w", err)
		}

		taken, err := reg.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking code %q: %w", code, err)
		}
		if !taken {
			return code, nil
		}
	}

	return "", ErrCodeSpaceExhausted
}

func randomCode(length int) (string, error) {
	const max = byte(255 - (256 % len(codeAlphabet)))

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			// Rejection sampling keeps the digit distribution uniform.
			if b > max {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == length {
				return string(out), nil
			}
		}
	}
}
