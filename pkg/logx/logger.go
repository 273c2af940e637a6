package logx

// Data is a single structured logging field.
type Data struct {
	Key   string
	Value interface{}
}

// Logger is the minimal logging surface threaded through the permission
// code. Implementations must be safe to share across sub-scopes created
// with WithName and WithData.
type Logger interface {
	WithName(name string) Logger
	WithData(data ...Data) Logger

	Debug(msg string, data ...Data)
	Info(msg string, data ...Data)
	Error(msg string, err error, data ...Data)
}
