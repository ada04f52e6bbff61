package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/models"
	"telecasino-dice/internal/services"
)

// fixedRoller returns queued faces from Roll and the lower bound from
// RollRange.
type fixedRoller struct {
	mu    sync.Mutex
	faces []int
}

func (r *fixedRoller) Roll() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.faces) == 0 {
		return 0, errors.New("no faces queued")
	}
	f := r.faces[0]
	r.faces = r.faces[1:]
	return f, nil
}

func (r *fixedRoller) RollRange(lo, hi int) (int, error) {
	if lo >= hi {
		return 0, models.ErrInvalidRange
	}
	return lo, nil
}

type recordingCompositor struct {
	mu     sync.Mutex
	frames []models.Frame
	paths  []string
	err    error
	failAt int
}

func (c *recordingCompositor) Render(_ context.Context, frame models.Frame, outPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil && len(c.frames) == c.failAt {
		return c.err
	}
	c.frames = append(c.frames, frame)
	c.paths = append(c.paths, outPath)
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

type recordingEncoder struct {
	mu   sync.Mutex
	jobs []services.EncodeJob
	err  error
	skip bool
}

func (e *recordingEncoder) Encode(_ context.Context, job services.EncodeJob) error {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	if e.skip {
		return nil
	}
	return os.WriteFile(job.OutputPath, []byte("mp4"), 0o644)
}

type recordingBroadcaster struct {
	mu      sync.Mutex
	results []*models.RoundResult
}

func (b *recordingBroadcaster) BroadcastRoundResolved(result *models.RoundResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results = append(b.results, result)
}

type failingMirror struct {
	calls int
}

func (m *failingMirror) Upload(context.Context, string, string) error {
	m.calls++
	return errors.New("bucket unreachable")
}

// stalledMirror never finishes an upload on its own.
type stalledMirror struct{}

func (stalledMirror) Upload(ctx context.Context, _, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

type testEnv struct {
	sharedDir  string
	publicDir  string
	workspace  *services.Workspace
	compositor *recordingCompositor
	encoder    *recordingEncoder
	roller     *fixedRoller
	roundIDs   []string
	states     []services.RoundState
}

func newTestEnv(t *testing.T, faces ...int) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		sharedDir:  filepath.Join(root, "shared"),
		publicDir:  filepath.Join(root, "public"),
		compositor: &recordingCompositor{},
		encoder:    &recordingEncoder{},
		roller:     &fixedRoller{faces: faces},
	}
	env.workspace = services.NewWorkspace(env.sharedDir, sl.Discard())
	return env
}

func (e *testEnv) config() services.DiceGameConfig {
	return services.DiceGameConfig{
		Die:        e.roller,
		Workspace:  e.workspace,
		Compositor: e.compositor,
		Encoder:    e.encoder,
		PublicDir:  e.publicDir,
		FrameCount: 30,
		FrameRate:  10,
		OnTransition: func(roundID string, _, to services.RoundState) {
			if len(e.roundIDs) == 0 || e.roundIDs[len(e.roundIDs)-1] != roundID {
				e.roundIDs = append(e.roundIDs, roundID)
			}
			e.states = append(e.states, to)
		},
	}
}

func (e *testEnv) game() *services.DiceGame {
	return services.NewDiceGame(e.config())
}

func (e *testEnv) roundDir(id string) string {
	return filepath.Join(e.sharedDir, "Dice", id)
}

var decimalOne = decimal.NewFromInt(1)
