package config

import (
	"fmt"
	"strings"
)

// UploadConfig controls parsing and reconciliation of balance uploads.
type UploadConfig struct {
	// MaxBytes caps the accepted upload size.
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES" envDefault:"20971520"`

	// HeaderAliasesFile optionally points at a YAML file of extra column header aliases.
	HeaderAliasesFile string `env:"UPLOAD_HEADER_ALIASES_FILE" envDefault:""`

	// ReconcileConcurrency bounds parallel ledger lookups within one validation job.
	ReconcileConcurrency int `env:"RECONCILE_CONCURRENCY" envDefault:"8"`
}

// Sanitize applies guardrails to upload configuration values.
func (u *UploadConfig) Sanitize() {
	if u.MaxBytes < 1024 {
		u.MaxBytes = 1024
	}
	u.HeaderAliasesFile = strings.TrimSpace(u.HeaderAliasesFile)
	if u.ReconcileConcurrency < 1 {
		u.ReconcileConcurrency = 1
	}
}

// ReportConfig controls pivot report generation.
type ReportConfig struct {
	// DisplayDivisor scales balances shown in date, baseline and growth cells.
	DisplayDivisor int64 `env:"REPORT_DISPLAY_DIVISOR" envDefault:"1000000"`

	// MaxDays caps the number of date columns in one report.
	MaxDays int `env:"REPORT_MAX_DAYS" envDefault:"366"`

	// Title is printed in the first header band.
	Title string `env:"REPORT_TITLE" envDefault:"STAFF FUNDING PERFORMANCE REPORT"`
}

// Sanitize applies guardrails to report configuration values.
func (r *ReportConfig) Sanitize() {
	if r.DisplayDivisor < 1 {
		r.DisplayDivisor = 1
	}
	if r.MaxDays < 1 {
		r.MaxDays = 1
	}
	if r.Title = strings.TrimSpace(r.Title); r.Title == "" {
		r.Title = "STAFF FUNDING PERFORMANCE REPORT"
	}
}

// ArtifactBackend selects where rendered reports are stored.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ArtifactBackend string

const (
	// ArtifactLocal writes artifacts to a local directory.
	ArtifactLocal ArtifactBackend = "local"
	// ArtifactGCS writes artifacts to a Google Cloud Storage bucket.
	ArtifactGCS ArtifactBackend = "gcs"
)

// Valid reports whether b is a known backend.
func (b ArtifactBackend) Valid() bool {
	return b == ArtifactLocal || b == ArtifactGCS
}

// UnmarshalText implements encoding.TextUnmarshaler for env parsing.
func (b *ArtifactBackend) UnmarshalText(text []byte) error {
	v := ArtifactBackend(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid artifact backend: %q (valid options: local, gcs)", v)
	}
	*b = v
	return nil
}

// ArtifactConfig controls export artifact storage.
type ArtifactConfig struct {
	Backend   ArtifactBackend `env:"ARTIFACT_BACKEND"    envDefault:"local"`
	Dir       string          `env:"ARTIFACT_DIR"        envDefault:"./exports"`
	GCSBucket string          `env:"ARTIFACT_GCS_BUCKET" envDefault:""`
	GCSPrefix string          `env:"ARTIFACT_GCS_PREFIX" envDefault:"reports/"`

	// GCSCredentialsJSON holds explicit service account credentials. Empty uses ADC.
	GCSCredentialsJSON string `env:"ARTIFACT_GCS_CREDENTIALS_JSON" envDefault:""`
}

// Sanitize applies guardrails to artifact configuration values.
func (a *ArtifactConfig) Sanitize() {
	if !a.Backend.Valid() {
		a.Backend = ArtifactLocal
	}
	if a.Dir = strings.TrimSpace(a.Dir); a.Dir == "" {
		a.Dir = "./exports"
	}
	a.GCSBucket = strings.TrimSpace(a.GCSBucket)
	if a.Backend == ArtifactGCS && a.GCSBucket == "" {
		a.Backend = ArtifactLocal
	}
}
