package bucket

import (
	"fmt"
	"time"

	"leadgate/pkg/platform/sentinel"
)

func validateArgs(key string, maxRequests int, window time.Duration) error {
	if key == "" {
		return fmt.Errorf("rate limit key is required: %w", sentinel.ErrInvalidInput)
	}
	if maxRequests <= 0 {
		return fmt.Errorf("rate limit max must be positive: %w", sentinel.ErrInvalidInput)
	}
	if window <= 0 {
		return fmt.Errorf("rate limit window must be positive: %w", sentinel.ErrInvalidInput)
	}
	return nil
}
