package observability

import "log/slog"

// defaultShutdownTimeoutSec bounds the final telemetry flush.
const defaultShutdownTimeoutSec = 5

// Config controls telemetry initialization.
type Config struct {
	// ServiceName identifies this process in exported telemetry.
	ServiceName string

	// ServiceVersion is attached to the OTel resource when non-empty.
	ServiceVersion string

	// Environment is attached as deployment.environment when non-empty.
	Environment string

	// OTLPEndpoint is the gRPC collector address. Empty disables export
	// entirely; no-op providers are installed with zero overhead.
	OTLPEndpoint string

	// OTLPInsecure disables TLS on the collector connection.
	OTLPInsecure bool

	// OTLPHeaders are extra headers sent with every export request.
	OTLPHeaders map[string]string

	// SampleRatio selects a parent-based TraceIDRatio sampler when > 0;
	// otherwise every trace is sampled.
	SampleRatio float64

	// LogLevel is the minimum level for the structured logger.
	LogLevel slog.Level

	// LogJSON selects JSON log output instead of text.
	LogJSON bool

	// ShutdownTimeoutSec bounds Shutdown; zero means the default.
	ShutdownTimeoutSec int
}
