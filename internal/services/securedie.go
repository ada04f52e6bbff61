package services

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"telecasino-dice/internal/models"
)

// Roller produces die faces. SecureDie is the production implementation;
// tests substitute fixed rollers.
type Roller interface {
	Roll() (int, error)
	RollRange(lo, hi int) (int, error)
}

// SecureDie draws faces from a cryptographically secure source. Every
// call reads fresh entropy; nothing is seeded or replayable.
//
// Values come from crypto/rand.Int, which rejects out-of-range samples
// instead of reducing modulo n, so faces carry no modulo bias at all.
type SecureDie struct {
	source io.Reader
}

func NewSecureDie() *SecureDie {
	return &SecureDie{source: rand.Reader}
}

// NewSecureDieFromReader uses r as the entropy source.
func NewSecureDieFromReader(r io.Reader) *SecureDie {
	return &SecureDie{source: r}
}

// Roll returns a face in [1, 6].
func (d *SecureDie) Roll() (int, error) {
	return d.RollRange(models.MinFace, models.MaxFace+1)
}

// RollRange returns an integer in [lo, hi).
func (d *SecureDie) RollRange(lo, hi int) (int, error) {
	if lo >= hi {
		return 0, models.NewError(models.CodeInvalidRange,
			fmt.Sprintf("lower bound %d must be less than upper bound %d", lo, hi))
	}

	n, err := rand.Int(d.source, big.NewInt(int64(hi-lo)))
	if err != nil {
		return 0, fmt.Errorf("read entropy: %w", err)
	}

	return int(n.Int64()) + lo, nil
}
