package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"telecasino-dice/internal/models"
)

const (
	DefaultFrameRate   = 10
	DefaultMinDuration = 5 * time.Second

	stderrTailBytes = 2048
)

// EncodeJob describes one video to assemble.
type EncodeJob struct {
	FramesDir  string
	FrameCount int
	FrameRate  int
	// AudioFile is optional. When set it is muxed under the video and cut
	// to the video's length.
	AudioFile  string
	OutputPath string
}

// Duration is how long the frames last at the job's frame rate.
func (j EncodeJob) Duration() time.Duration {
	if j.FrameRate <= 0 {
		return 0
	}
	return time.Duration(j.FrameCount) * time.Second / time.Duration(j.FrameRate)
}

// Encoder assembles staged frames into a video file.
type Encoder interface {
	Encode(ctx context.Context, job EncodeJob) error
}

// FFmpegEncoder runs ffmpeg as a subprocess. When the frames are shorter
// than minDuration, the last frame is held until the minimum is reached;
// frames are never dropped or sped up.
type FFmpegEncoder struct {
	binary      string
	minDuration time.Duration
	timeout     time.Duration
	log         *slog.Logger
}

func NewFFmpegEncoder(binary string, minDuration, timeout time.Duration, log *slog.Logger) *FFmpegEncoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegEncoder{
		binary:      binary,
		minDuration: minDuration,
		timeout:     timeout,
		log:         log,
	}
}

// TotalDuration is the length of the video produced for job.
func (e *FFmpegEncoder) TotalDuration(job EncodeJob) time.Duration {
	d := job.Duration()
	if d < e.minDuration {
		return e.minDuration
	}
	return d
}

// Args returns the ffmpeg command line for job, without the binary.
func (e *FFmpegEncoder) Args(job EncodeJob) []string {
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(job.FrameRate),
		"-start_number", "0",
		"-i", filepath.Join(job.FramesDir, FramePattern),
	}

	if job.AudioFile != "" {
		args = append(args, "-i", job.AudioFile)
	}

	if pad := e.TotalDuration(job) - job.Duration(); pad > 0 {
		args = append(args, "-vf", "tpad=stop_mode=clone:stop_duration="+seconds(pad))
	}

	args = append(args, "-map", "0:v")
	if job.AudioFile != "" {
		args = append(args, "-map", "1:a", "-c:a", "aac")
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
	)

	if job.AudioFile != "" {
		args = append(args, "-t", seconds(e.TotalDuration(job)))
	}

	return append(args, job.OutputPath)
}

func (e *FFmpegEncoder) Encode(ctx context.Context, job EncodeJob) error {
	if job.FrameCount < 1 || job.FrameRate < 1 {
		return models.NewError(models.CodeEncodingFailed,
			fmt.Sprintf("invalid job: %d frames at %d fps", job.FrameCount, job.FrameRate))
	}

	if job.AudioFile != "" {
		if _, err := os.Stat(job.AudioFile); err != nil {
			return models.WrapError(models.CodeMissingAsset, fmt.Sprintf("audio asset %s", job.AudioFile), err)
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, e.Args(job)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()

	e.log.Debug("ffmpeg finished",
		slog.String("output", job.OutputPath),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("stdout_bytes", stdout.Len()),
	)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.WrapError(models.CodeEncodingFailed,
				fmt.Sprintf("ffmpeg timed out after %s", e.timeout), ctx.Err())
		}
		return models.WrapError(models.CodeEncodingFailed,
			fmt.Sprintf("ffmpeg failed: %s", tail(stderr.String(), stderrTailBytes)), err)
	}

	info, err := os.Stat(job.OutputPath)
	if err != nil {
		return models.WrapError(models.CodeEncodingFailed, "ffmpeg produced no output", err)
	}
	if info.Size() == 0 {
		return models.NewError(models.CodeEncodingFailed, "ffmpeg produced an empty file")
	}

	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
