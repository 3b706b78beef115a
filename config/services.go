package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server and the in-process job workers.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeReaper runs the janitor for expired jobs and stale export artifacts.
	ServiceModeReaper ServiceMode = "reaper"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeReaper,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeReaper:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, reaper)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// ReaperConfig contains janitor service configuration.
type ReaperConfig struct {
	// Schedule is a robfig/cron spec (descriptors such as "@every 5m" are accepted).
	Schedule string `env:"REAPER_SCHEDULE" envDefault:"@every 5m"`

	// ArtifactMaxAge is the maximum age of rendered export artifacts before deletion.
	ArtifactMaxAge time.Duration `env:"REAPER_ARTIFACT_MAX_AGE" envDefault:"72h"`

	// LockTTL bounds how long one instance holds the cross-instance sweep lock.
	LockTTL time.Duration `env:"REAPER_LOCK_TTL" envDefault:"2m"`

	// LockKey is the Redis key used for the sweep lock.
	LockKey string `env:"REAPER_LOCK_KEY" envDefault:"balancedesk:reaper:lock"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if strings.TrimSpace(r.Schedule) == "" {
		r.Schedule = "@every 5m"
	}
	if r.ArtifactMaxAge < time.Hour {
		r.ArtifactMaxAge = time.Hour
	}
	if r.LockTTL < 10*time.Second {
		r.LockTTL = 10 * time.Second
	}
	if strings.TrimSpace(r.LockKey) == "" {
		r.LockKey = "balancedesk:reaper:lock"
	}
}
