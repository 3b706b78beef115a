package config

import (
	"fmt"
	"strings"
	"time"
)

// JobStoreBackend selects the implementation behind the job store.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStoreBackend string

const (
	// JobStoreRedis keeps job entries in Redis with native key expiry.
	JobStoreRedis JobStoreBackend = "redis"
	// JobStoreMemory keeps job entries in process memory, swept by the reaper.
	JobStoreMemory JobStoreBackend = "memory"
)

// Valid reports whether b is a known backend.
func (b JobStoreBackend) Valid() bool {
	return b == JobStoreRedis || b == JobStoreMemory
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (b *JobStoreBackend) UnmarshalText(text []byte) error {
	v := JobStoreBackend(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid job store backend: %q (valid options: redis, memory)", v)
	}
	*b = v
	return nil
}

// JobsConfig contains job store and worker pool configuration.
type JobsConfig struct {
	// Backend selects where job entries live.
	Backend JobStoreBackend `env:"JOB_STORE_BACKEND" envDefault:"redis"`

	// TTL is how long a job entry stays readable after creation.
	TTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// KeyPrefix namespaces job keys in the backing store.
	KeyPrefix string `env:"JOB_KEY_PREFIX" envDefault:"balancedesk:job:"`

	// Workers is the number of goroutines executing jobs.
	Workers int `env:"JOB_WORKERS" envDefault:"4"`

	// QueueSize bounds how many submitted jobs may wait for a worker.
	QueueSize int `env:"JOB_QUEUE_SIZE" envDefault:"64"`
}

// Sanitize applies guardrails to job configuration values.
func (j *JobsConfig) Sanitize() {
	if !j.Backend.Valid() {
		j.Backend = JobStoreRedis
	}
	if j.TTL < time.Minute {
		j.TTL = time.Minute
	}
	if strings.TrimSpace(j.KeyPrefix) == "" {
		j.KeyPrefix = "balancedesk:job:"
	}
	if j.Workers < 1 {
		j.Workers = 1
	}
	if j.QueueSize < 1 {
		j.QueueSize = 1
	}
}
