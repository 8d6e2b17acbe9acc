package config

import "time"

// WorkerConfig contains configuration for the background job runner.
type WorkerConfig struct {
	// Concurrency bounds the number of jobs executing at once.
	Concurrency int `env:"CONCURRENCY" envDefault:"4"`

	// EmailLookupPause is the pause between per-store Hunter.io lookups
	// inside one email discovery job.
	EmailLookupPause time.Duration `env:"EMAIL_LOOKUP_PAUSE" envDefault:"1s"`

	// ShutdownGrace is how long running jobs get to finish on shutdown.
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"30s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency <= 0 {
		w.Concurrency = 4
	}
	if w.EmailLookupPause < 0 {
		w.EmailLookupPause = time.Second
	}
	if w.ShutdownGrace <= 0 {
		w.ShutdownGrace = 30 * time.Second
	}
}
