package logging

// noop discards everything. Tests hand it to components that demand a
// Logger but whose output is not under test.
type noop struct{}

// NewNoop returns a logger that drops all output.
func NewNoop() Logger {
	return noop{}
}

func (noop) Module(string) Logger { return noop{} }

func (noop) Debug(string, ...interface{}) {}

func (noop) Info(string, ...interface{}) {}

func (noop) Warn(string, ...interface{}) {}

func (noop) Error(string, ...interface{}) {}
