package logger

// noopLogger discards everything.
type noopLogger struct{}

// NewNoopLogger returns a logger that drops all messages. It is the default
// for library components when the caller does not provide a logger.
func NewNoopLogger() ILogger {
	return noopLogger{}
}

func (noopLogger) Debugf(string, ...any)   {}
func (noopLogger) Infof(string, ...any)    {}
func (noopLogger) Warningf(string, ...any) {}
func (noopLogger) Errorf(string, ...any)   {}
func (noopLogger) SetLevel(LogLevel)       {}
