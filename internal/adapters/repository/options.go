package repository

import (
	"time"

	"github.com/google/uuid"
)

// Option applies a configuration option to the SQL and memory stores.
type Option func(*storeOptions)

type storeOptions struct {
	now   func() time.Time
	newID func() string
}

func defaultOptions() storeOptions {
	return storeOptions{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock sets the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the generator for new score identities.
func WithIDGenerator(gen func() string) Option {
	return func(o *storeOptions) {
		if gen != nil {
			o.newID = gen
		}
	}
}

func applyOptions(opts []Option) storeOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
