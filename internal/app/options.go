package service

import (
	"time"

	"github.com/okian/heatguard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModelVersion records the model identifier on persisted assessments.
func WithModelVersion(version string) Option {
	return func(s *Service) {
		s.modelVersion = version
	}
}

// WithStoreDriver names the active store in statistics.
func WithStoreDriver(driver string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
		}
	}
}

// WithIdempotencySize bounds the number of remembered idempotency keys.
func WithIdempotencySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
	}
}

// WithProfileCacheSize sets the number of cached patient profiles.
func WithProfileCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.profileCacheSize = size
		}
	}
}

// WithPageSizes sets the default and maximum listing page sizes.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		if defaultSize > 0 && maxSize >= defaultSize {
			s.defaultPageSize = defaultSize
			s.maxPageSize = maxSize
		}
	}
}

// WithClock overrides the clock used for assessment timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides assessment id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}
