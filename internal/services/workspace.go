package services

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/models"
)

const (
	gameSubDir   = "Dice"
	framesSubDir = "frames"
	videosSubDir = "videos"
	imagesSubDir = "images"
	audioSubDir  = "audio"
)

// Workspace owns the per-round scratch trees under <shared>/Dice. Rounds
// are isolated by their identifiers alone: no two rounds share a path, so
// nothing here takes a lock.
//
// Layout:
//
//	<shared>/Dice/images/die{1..6}.svg   read-only face assets
//	<shared>/Dice/audio/                 read-only audio assets
//	<shared>/Dice/<round>/frames/        staged frame images
//	<shared>/Dice/<round>/videos/        staged video
type Workspace struct {
	root string
	log  *slog.Logger
}

// Scratch is the set of paths a single round may write to, plus the asset
// directories it may read from.
type Scratch struct {
	RoundID   string
	Root      string
	FramesDir string
	VideosDir string
	ImagesDir string
	AudioDir  string
}

// VideoPath is where the encoder writes the round's video.
func (s *Scratch) VideoPath() string {
	return filepath.Join(s.VideosDir, s.RoundID+".mp4")
}

func NewWorkspace(sharedDir string, log *slog.Logger) *Workspace {
	return &Workspace{
		root: filepath.Join(sharedDir, gameSubDir),
		log:  log,
	}
}

func (w *Workspace) ImagesDir() string {
	return filepath.Join(w.root, imagesSubDir)
}

func (w *Workspace) AudioDir() string {
	return filepath.Join(w.root, audioSubDir)
}

func (w *Workspace) roundDir(roundID string) (string, error) {
	if roundID == "" ||
		roundID == imagesSubDir ||
		roundID == audioSubDir ||
		roundID == "." || roundID == ".." ||
		strings.ContainsAny(roundID, `/\`) {
		return "", models.NewError(models.CodeResourceUnavailable, fmt.Sprintf("invalid round id %q", roundID))
	}
	return filepath.Join(w.root, roundID), nil
}

// Allocate creates empty frame and video staging directories for roundID.
// Leftovers from an earlier crashed round with the same id are removed
// first.
func (w *Workspace) Allocate(roundID string) (*Scratch, error) {
	dir, err := w.roundDir(roundID)
	if err != nil {
		return nil, err
	}

	if err := os.RemoveAll(dir); err != nil {
		return nil, models.WrapError(models.CodeResourceUnavailable, "clear stale round dir", err)
	}

	s := &Scratch{
		RoundID:   roundID,
		Root:      dir,
		FramesDir: filepath.Join(dir, framesSubDir),
		VideosDir: filepath.Join(dir, videosSubDir),
		ImagesDir: w.ImagesDir(),
		AudioDir:  w.AudioDir(),
	}

	for _, d := range []string{s.FramesDir, s.VideosDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			_ = os.RemoveAll(dir)
			return nil, models.WrapError(models.CodeResourceUnavailable, "create scratch dir", err)
		}
	}

	return s, nil
}

// Publish moves videoFile into destDir under its own base name, replacing
// any file already there. It returns the published file name.
func (w *Workspace) Publish(videoFile, destDir string) (string, error) {
	name := filepath.Base(videoFile)
	dest := filepath.Join(destDir, name)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", models.WrapError(models.CodeResourceUnavailable, "create publish dir", err)
	}

	err := os.Rename(videoFile, dest)
	if err != nil && errors.Is(err, syscall.EXDEV) {
		err = moveAcrossDevices(videoFile, dest)
	}
	if err != nil {
		return "", models.WrapError(models.CodeResourceUnavailable, "publish video", err)
	}

	return name, nil
}

// moveAcrossDevices copies src next to dst, renames it into place and
// removes src. Readers of dst never observe a partial file.
func moveAcrossDevices(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".publish-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Remove(src)
}

// Release removes the whole scratch tree of roundID. Releasing a round
// that was never allocated is not an error.
func (w *Workspace) Release(roundID string) error {
	dir, err := w.roundDir(roundID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return models.WrapError(models.CodeResourceUnavailable, "release scratch dir", err)
	}
	return nil
}

// Scope allocates a scratch tree for roundID, runs fn with it and releases
// the tree however fn returns, including by panic. An error from fn takes
// precedence over a release error, which is then only logged.
func (w *Workspace) Scope(roundID string, fn func(*Scratch) error) (err error) {
	s, err := w.Allocate(roundID)
	if err != nil {
		return err
	}

	defer func() {
		relErr := w.Release(roundID)
		if relErr == nil {
			return
		}
		if err != nil {
			w.log.Error("failed to release scratch dir",
				slog.String("round_id", roundID), sl.Err(relErr))
			return
		}
		err = relErr
	}()

	return fn(s)
}

// Sweep removes round directories whose modification time is older than
// maxAge. Those can only be left behind by a process that died mid-round.
func (w *Workspace) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.root)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read workspace root: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, e := range entries {
		if !e.IsDir() || e.Name() == imagesSubDir || e.Name() == audioSubDir {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(w.root, e.Name())); err != nil {
			w.log.Warn("failed to sweep stale round",
				slog.String("round_id", e.Name()), sl.Err(err))
			continue
		}
		removed++
	}

	return removed, nil
}
