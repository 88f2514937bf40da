package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/schnicklfritz/lite-remote-builder/internal/common"
)

// ErrUnknownOperation is returned by Invoke for a name the catalog never
// advertised. It is a protocol error, not a tool result.
var ErrUnknownOperation = errors.New("unknown operation")

// Envelope is the result of every completed invocation.
type Envelope struct {
	Text    string
	IsError bool
}

// OperationFunc executes one operation with normalized arguments and returns
// display-ready text.
type OperationFunc func(ctx context.Context, args Arguments) (string, error)

// Dispatcher routes invocations to operation handlers and converts every
// handler outcome into an Envelope. It holds no per-call state.
type Dispatcher struct {
	handlers map[string]OperationFunc
	logger   *common.Logger
}

// NewDispatcher wires the catalog operations to handlers backed by upstream.
func NewDispatcher(upstream Upstream, workflow string, logger *common.Logger) *Dispatcher {
	h := NewHandlers(upstream, workflow)
	return &Dispatcher{
		handlers: map[string]OperationFunc{
			OpTriggerKernelBuild: h.TriggerKernelBuild,
			OpCheckBuildStatus:   h.CheckBuildStatus,
		},
		logger: logger,
	}
}

// Operations returns the catalog served by this dispatcher.
func (d *Dispatcher) Operations() []OperationDescriptor {
	return Operations()
}

// Invoke runs the named operation. Any failure of a known operation, including
// invalid arguments, upstream errors and panics, comes back as an error
// Envelope with a nil error. Only an unknown name returns ErrUnknownOperation.
func (d *Dispatcher) Invoke(ctx context.Context, name string, raw map[string]any) (Envelope, error) {
	op, ok := Lookup(name)
	handler := d.handlers[name]
	if !ok || handler == nil {
		d.logger.Warn().Str("operation", name).Msg("unknown operation requested")
		return Envelope{}, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	logger := d.logger.WithCorrelationId(uuid.New().String())
	logger.Info().Str("operation", name).Msg("tool invocation")

	text, err := d.run(ctx, op, handler, raw)
	if err != nil {
		logger.Warn().Str("operation", name).Str("error", err.Error()).Msg("tool invocation failed")
		return Envelope{Text: fmt.Sprintf("%s failed: %v", name, err), IsError: true}, nil
	}

	logger.Debug().Str("operation", name).Msg("tool invocation succeeded")
	return Envelope{Text: text}, nil
}

// run normalizes raw and calls handler. A panic inside the handler is
// converted to an error so the hosting process keeps serving.
func (d *Dispatcher) run(ctx context.Context, op OperationDescriptor, handler OperationFunc, raw map[string]any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	args, err := Normalize(op, raw)
	if err != nil {
		return "", err
	}
	return handler(ctx, args)
}
