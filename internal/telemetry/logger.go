package telemetry

// Logger is the minimal logging surface the node needs.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}
