package model

import "context"

// Run is everything an invoker needs to start one stage.
type Run struct {
	Stage      string
	Dir        string
	EntryPoint string
	Parameters Parameters
	// Env holds the variables the tracking facility reads in the child process.
	Env map[string]string
}

// Invoker starts a stage and blocks until it is finished.
type Invoker interface {
	Invoke(ctx context.Context, run *Run) error
}

// InvokerFunc adapts a function to an Invoker.
type InvokerFunc func(ctx context.Context, run *Run) error

// Invoke calls f(ctx, run).
func (f InvokerFunc) Invoke(ctx context.Context, run *Run) error {
	return f(ctx, run)
}
