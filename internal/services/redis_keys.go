package services

import "time"

const (
	KeyRateLimit = "ratelimit:%s"

	DefaultRateWindow = time.Minute
)
