package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"local"`
	Port string `env:"PORT" envDefault:"8080"`

	SharedDir  string `env:"SHARED_DIR" envDefault:"/shared"`
	PublicDir  string `env:"PUBLIC_DIR" envDefault:"/app/wwwroot"`
	FFmpegPath string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	AudioFile  string `env:"AUDIO_FILE"`

	FrameCount       int           `env:"FRAME_COUNT" envDefault:"30"`
	FrameRate        int           `env:"FRAME_RATE" envDefault:"10"`
	FrameWidth       int           `env:"FRAME_WIDTH" envDefault:"400"`
	FrameHeight      int           `env:"FRAME_HEIGHT" envDefault:"200"`
	MinVideoDuration time.Duration `env:"MIN_VIDEO_DURATION" envDefault:"5s"`
	EncodeTimeout    time.Duration `env:"ENCODE_TIMEOUT" envDefault:"60s"`

	StaleRoundAge time.Duration `env:"STALE_ROUND_AGE" envDefault:"10m"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m"`

	RedisURL  string `env:"REDIS_URL"`
	RedisPass string `env:"REDIS_PASS"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	RateLimit  int           `env:"RATE_LIMIT" envDefault:"30"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`

	JWTSecret string `env:"JWT_SECRET"`

	S3 S3Config `envPrefix:"S3_"`
}

type S3Config struct {
	Bucket          string        `env:"BUCKET"`
	Endpoint        string        `env:"ENDPOINT"`
	Region          string        `env:"REGION" envDefault:"auto"`
	AccessKeyID     string        `env:"ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"SECRET_ACCESS_KEY"`
	Timeout         time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads an optional .env file, then the process environment. Values
// already present in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.FrameCount < 1 || c.FrameCount > 1000:
		return fmt.Errorf("FRAME_COUNT must be between 1 and 1000, got %d", c.FrameCount)
	case c.FrameRate < 1:
		return fmt.Errorf("FRAME_RATE must be positive, got %d", c.FrameRate)
	case c.FrameWidth < 2 || c.FrameHeight < 2:
		return fmt.Errorf("frame size must be at least 2x2, got %dx%d", c.FrameWidth, c.FrameHeight)
	case c.FrameWidth%2 != 0 || c.FrameHeight%2 != 0:
		return fmt.Errorf("frame size must be even for yuv420p, got %dx%d", c.FrameWidth, c.FrameHeight)
	case c.EncodeTimeout <= 0:
		return fmt.Errorf("ENCODE_TIMEOUT must be positive, got %s", c.EncodeTimeout)
	case c.MinVideoDuration < 0:
		return fmt.Errorf("MIN_VIDEO_DURATION must not be negative, got %s", c.MinVideoDuration)
	case c.SweepInterval <= 0 || c.StaleRoundAge <= 0:
		return fmt.Errorf("SWEEP_INTERVAL and STALE_ROUND_AGE must be positive")
	case c.StaleRoundAge <= c.EncodeTimeout:
		// A live round spends up to EncodeTimeout in ffmpeg alone.
		return fmt.Errorf("STALE_ROUND_AGE (%s) must exceed ENCODE_TIMEOUT (%s)", c.StaleRoundAge, c.EncodeTimeout)
	case c.S3.Enabled() && c.S3.Timeout <= 0:
		return fmt.Errorf("S3_TIMEOUT must be positive, got %s", c.S3.Timeout)
	case c.RateLimit < 0:
		return fmt.Errorf("RATE_LIMIT must not be negative, got %d", c.RateLimit)
	case c.SharedDir == "" || c.PublicDir == "":
		return fmt.Errorf("SHARED_DIR and PUBLIC_DIR are required")
	}
	return nil
}
