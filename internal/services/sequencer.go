package services

import (
	"fmt"

	"telecasino-dice/internal/models"
)

const DefaultFrameCount = 30

// FrameSequencer lays out the frames of a round's animation.
type FrameSequencer struct {
	die Roller
}

func NewFrameSequencer(die Roller) *FrameSequencer {
	return &FrameSequencer{die: die}
}

// Build returns frameCount frames. Every frame but the last is an
// independent random pair; the last frame is outcome.
func (s *FrameSequencer) Build(outcome models.RoundOutcome, frameCount int) (models.AnimationSequence, error) {
	if frameCount < 1 {
		return nil, models.NewError(models.CodeInvalidRange,
			fmt.Sprintf("frame count must be positive, got %d", frameCount))
	}
	if err := outcome.Validate(); err != nil {
		return nil, models.WrapError(models.CodeInvalidRange, "invalid outcome", err)
	}

	seq := make(models.AnimationSequence, frameCount)
	for i := 0; i < frameCount-1; i++ {
		f1, err := s.die.RollRange(models.MinFace, models.MaxFace+1)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		f2, err := s.die.RollRange(models.MinFace, models.MaxFace+1)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		seq[i] = models.Frame{Face1: f1, Face2: f2}
	}
	seq[frameCount-1] = models.Frame{Face1: outcome.Die1, Face2: outcome.Die2}

	return seq, nil
}
