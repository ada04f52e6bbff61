package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/models"
)

// RoundState is a step of a round's lifecycle. A round moves forward
// through the states in declaration order until Resolved, or drops to
// Failed from any earlier state.
type RoundState int

const (
	StateValidating RoundState = iota
	StateAllocating
	StateRolling
	StateSequencing
	StateRendering
	StateEncoding
	StatePublishing
	StateResolved
	StateFailed
)

func (s RoundState) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateAllocating:
		return "allocating"
	case StateRolling:
		return "rolling"
	case StateSequencing:
		return "sequencing"
	case StateRendering:
		return "rendering"
	case StateEncoding:
		return "encoding"
	case StatePublishing:
		return "publishing"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TransitionFunc observes state changes of a round.
type TransitionFunc func(roundID string, from, to RoundState)

type DiceGameConfig struct {
	Odds         *models.OddsTable
	Die          Roller
	Workspace    *Workspace
	Compositor   Compositor
	Encoder      Encoder
	Mirror       ArtifactMirror
	Broadcaster  Broadcaster
	OnTransition TransitionFunc

	// MirrorTimeout bounds each upload to Mirror. Zero means
	// DefaultMirrorTimeout.
	MirrorTimeout time.Duration

	PublicDir  string
	FrameCount int
	FrameRate  int
	// AudioFile names a file in the workspace audio directory. Empty
	// means the video has no sound.
	AudioFile string

	Log *slog.Logger
}

// DiceGame plays rounds. It holds no per-round state, so one DiceGame
// serves any number of concurrent rounds.
type DiceGame struct {
	odds         *models.OddsTable
	die          Roller
	sequencer    *FrameSequencer
	workspace    *Workspace
	compositor   Compositor
	encoder      Encoder
	mirror       ArtifactMirror
	broadcaster  Broadcaster
	onTransition TransitionFunc

	mirrorTimeout time.Duration
	publicDir     string
	frameCount    int
	frameRate     int
	audioFile     string

	log *slog.Logger
}

func NewDiceGame(cfg DiceGameConfig) *DiceGame {
	if cfg.Odds == nil {
		cfg.Odds = models.DefaultOdds()
	}
	if cfg.Die == nil {
		cfg.Die = NewSecureDie()
	}
	if cfg.FrameCount <= 0 {
		cfg.FrameCount = DefaultFrameCount
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	if cfg.MirrorTimeout <= 0 {
		cfg.MirrorTimeout = DefaultMirrorTimeout
	}
	if cfg.Log == nil {
		cfg.Log = sl.Discard()
	}

	return &DiceGame{
		odds:         cfg.Odds,
		die:          cfg.Die,
		sequencer:    NewFrameSequencer(cfg.Die),
		workspace:    cfg.Workspace,
		compositor:   cfg.Compositor,
		encoder:      cfg.Encoder,
		mirror:       cfg.Mirror,
		broadcaster:  cfg.Broadcaster,
		onTransition: cfg.OnTransition,

		mirrorTimeout: cfg.MirrorTimeout,
		publicDir:     cfg.PublicDir,
		frameCount:    cfg.FrameCount,
		frameRate:     cfg.FrameRate,
		audioFile:     cfg.AudioFile,
		log:           cfg.Log,
	}
}

func (g *DiceGame) Odds() *models.OddsTable {
	return g.odds
}

// round carries the mutable bookkeeping of one PlayRound call.
type round struct {
	id    string
	state RoundState
	log   *slog.Logger
	game  *DiceGame
}

func (r *round) enter(next RoundState) {
	prev := r.state
	r.state = next
	r.log.Debug("round state", slog.String("from", prev.String()), slog.String("to", next.String()))
	if r.game.onTransition != nil {
		r.game.onTransition(r.id, prev, next)
	}
}

func (r *round) fail(err error) error {
	failedIn := r.state
	r.enter(StateFailed)
	r.log.Error("round failed",
		slog.String("state", failedIn.String()),
		slog.String("code", string(models.ErrorCodeOf(err))),
		sl.Err(err),
	)
	return err
}

// PlayRound resolves one round for wager on bet and publishes its video.
// It returns either a complete result or a *models.RoundError; never both.
//
// The round is detached from ctx cancellation: once started it runs to
// Resolved or Failed. Only the encoder's own timeout can cut it short, and
// the scratch tree is released on every path.
func (g *DiceGame) PlayRound(ctx context.Context, wager decimal.Decimal, bet models.BetType, sessionID int64) (*models.RoundResult, error) {
	ctx = context.WithoutCancel(ctx)

	r := &round{
		id:    models.GenerateRoundID(),
		state: StateValidating,
		game:  g,
	}
	r.log = g.log.With(
		slog.String("round_id", r.id),
		slog.String("bet_type", bet.String()),
		slog.Int64("session_id", sessionID),
	)

	multiplier, err := g.validate(wager, bet)
	if err != nil {
		return nil, r.fail(err)
	}

	start := time.Now()
	var result *models.RoundResult

	r.enter(StateAllocating)
	err = g.workspace.Scope(r.id, func(s *Scratch) error {
		res, err := g.run(ctx, r, s, wager, bet, multiplier, sessionID)
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	if result == nil {
		if err == nil {
			err = models.NewError(models.CodeResourceUnavailable, "round produced no result")
		}
		return nil, r.fail(err)
	}
	if err != nil {
		// The artifact is already published; a scratch tree that could
		// not be removed is left for Sweep.
		r.log.Error("scratch release failed after publish", sl.Err(err))
	}

	r.enter(StateResolved)
	r.log.Info("round resolved",
		slog.Bool("win", result.Win),
		slog.Int("die_sum", result.DieSum),
		slog.String("payout", models.FormatCurrency(result.Payout)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if g.broadcaster != nil {
		g.broadcaster.BroadcastRoundResolved(result)
	}

	return result, nil
}

func (g *DiceGame) validate(wager decimal.Decimal, bet models.BetType) (decimal.Decimal, error) {
	if !wager.IsPositive() {
		return decimal.Zero, models.NewError(models.CodeInvalidBet,
			fmt.Sprintf("wager must be positive, got %s", wager))
	}
	if !bet.Valid() {
		return decimal.Zero, models.NewError(models.CodeInvalidBet, fmt.Sprintf("unknown bet type %s", bet))
	}

	multiplier, err := g.odds.Lookup(bet)
	if err != nil {
		return decimal.Zero, models.WrapError(models.CodeInvalidBet, "bet has no odds", err)
	}

	return multiplier, nil
}

func (g *DiceGame) run(
	ctx context.Context,
	r *round,
	s *Scratch,
	wager decimal.Decimal,
	bet models.BetType,
	multiplier decimal.Decimal,
	sessionID int64,
) (*models.RoundResult, error) {
	r.enter(StateRolling)
	outcome, err := g.roll()
	if err != nil {
		return nil, err
	}

	r.enter(StateSequencing)
	seq, err := g.sequencer.Build(outcome, g.frameCount)
	if err != nil {
		return nil, withCode(err, models.CodeResourceUnavailable, "build animation")
	}

	r.enter(StateRendering)
	for i, frame := range seq {
		out := filepath.Join(s.FramesDir, FrameFileName(i))
		if err := g.compositor.Render(ctx, frame, out); err != nil {
			return nil, withCode(err, models.CodeResourceUnavailable, fmt.Sprintf("render frame %d", i))
		}
	}

	r.enter(StateEncoding)
	job := EncodeJob{
		FramesDir:  s.FramesDir,
		FrameCount: len(seq),
		FrameRate:  g.frameRate,
		OutputPath: s.VideoPath(),
	}
	if g.audioFile != "" {
		job.AudioFile = filepath.Join(s.AudioDir, g.audioFile)
	}
	if err := g.encoder.Encode(ctx, job); err != nil {
		return nil, withCode(err, models.CodeEncodingFailed, "encode video")
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		return nil, models.WrapError(models.CodeEncodingFailed, "encoder left no video", err)
	}

	r.enter(StatePublishing)
	win, err := ResolveBet(bet, outcome.Die1, outcome.Die2)
	if err != nil {
		return nil, err
	}
	payout, netGain := models.CalculatePayout(wager, multiplier, win)

	name, err := g.workspace.Publish(job.OutputPath, g.publicDir)
	if err != nil {
		return nil, err
	}

	if g.mirror != nil {
		published := filepath.Join(g.publicDir, name)
		uploadCtx, cancel := context.WithTimeout(ctx, g.mirrorTimeout)
		err := g.mirror.Upload(uploadCtx, published, name)
		cancel()
		if err != nil {
			if rmErr := os.Remove(published); rmErr != nil {
				r.log.Error("failed to withdraw published video", sl.Err(rmErr))
			}
			return nil, models.WrapError(models.CodeResourceUnavailable, "mirror video", err)
		}
	}

	return &models.RoundResult{
		ID:            r.id,
		Wager:         wager,
		Payout:        payout,
		NetGain:       netGain,
		VideoFile:     name,
		Win:           win,
		BetType:       bet,
		Die1:          outcome.Die1,
		Die2:          outcome.Die2,
		DieSum:        outcome.Sum(),
		GameSessionID: sessionID,
	}, nil
}

func (g *DiceGame) roll() (models.RoundOutcome, error) {
	d1, err := g.die.Roll()
	if err != nil {
		return models.RoundOutcome{}, withCode(err, models.CodeResourceUnavailable, "roll first die")
	}
	d2, err := g.die.Roll()
	if err != nil {
		return models.RoundOutcome{}, withCode(err, models.CodeResourceUnavailable, "roll second die")
	}

	outcome := models.RoundOutcome{Die1: d1, Die2: d2}
	if err := outcome.Validate(); err != nil {
		return models.RoundOutcome{}, models.WrapError(models.CodeInvalidRange, "roll", err)
	}
	return outcome, nil
}

// withCode keeps err's own code when it has one and otherwise wraps it
// with code.
func withCode(err error, code models.ErrorCode, message string) error {
	if models.ErrorCodeOf(err) != "" {
		return err
	}
	return models.WrapError(code, message, err)
}
