// Package messaging defines the broker-facing surface shared by the relay
// producer and the sink consumer: stream/subject naming and the connectivity
// contract readiness probes depend on.
package messaging

// HealthChecker reports broker connectivity, used by readiness probes.
type HealthChecker interface {
	IsConnected() bool
}
