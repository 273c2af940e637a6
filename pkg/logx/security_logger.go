package logx

import "context"

// SecurityData is a name/value pair attached to a security log entry.
type SecurityData struct {
	Key   string
	Value string
}

// SecurityLogger records permission decisions for audit purposes.
type SecurityLogger interface {
	Log(ctx context.Context, signature, name string, args ...SecurityData)
}
