package core

// Logger is the process-wide logging contract.
// Implementations may inspect args for well-known types (e.g. a resolved
// student) to tag the reported event with the acting person.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
