package domain

import "time"

// HealthStatus enumerates aggregate and per-check health states.
type HealthStatus string

const (
	// HealthStatusOK means the dependency answered within its deadline.
	HealthStatusOK HealthStatus = "ok"
	// HealthStatusDegraded means the dependency answered with an error.
	HealthStatusDegraded HealthStatus = "degraded"
	// HealthStatusError means the dependency timed out or was cancelled.
	HealthStatusError HealthStatus = "error"
)

// SystemHealthCheck records the outcome of one dependency probe.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency probes for readiness reporting.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	Version     string
	Uptime      time.Duration
	GeneratedAt time.Time
}
