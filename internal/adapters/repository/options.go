package repository

import "time"

type storeConfig struct {
	now func() time.Time
}

func defaultStoreConfig() storeConfig {
	return storeConfig{now: time.Now}
}

// Option applies a configuration option to a store.
type Option func(*storeConfig)

// WithClock overrides the clock used to stamp patient updates.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}
