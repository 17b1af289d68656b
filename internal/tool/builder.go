package tool

import (
	"context"
	"time"
)

// textTool is the Tool built by New: a typed handler answering with plain text.
type textTool[T any] struct {
	name, description string
	binder            *Binder[T]
	handle            func(context.Context, T) (string, error)
	opts              toolOptions
}

// New builds a Tool from a typed handler that answers with plain text. Arguments are
// decoded and validated by a Binder[T]; the handler's text is yielded once. A handler
// error other than ClientError is hidden behind SystemError. An error from yield comes
// back as ErrStreamAborted.
//
// New fails when T has no usable schema.
func New[T any](
	name, description string,
	handle func(ctx context.Context, args T) (string, error),
	opts ...Option,
) (Tool, error) {
	o := newToolOptions(opts)
	binder, err := NewBinder[T](o.strict)
	if err != nil {
		return nil, err
	}
	return &textTool[T]{
		name:        name,
		description: description,
		binder:      binder,
		handle:      handle,
		opts:        o,
	}, nil
}

func (t *textTool[T]) Name() string        { return t.name }
func (t *textTool[T]) Description() string { return t.description }

// Parameters returns a copy of the top-level schema keys; nested maps are shared.
func (t *textTool[T]) Parameters() map[string]any { return t.binder.Schema() }

func (t *textTool[T]) Execute(ctx context.Context, argsJSON []byte, yield func([]byte) error) error {
	args, err := t.binder.ParseAndValidate(argsJSON)
	if err != nil {
		return err
	}
	text, err := t.handle(ctx, args)
	if err != nil {
		return wrapHandlerError(err)
	}
	if err := yield([]byte(text)); err != nil {
		return wrapYieldError(err)
	}
	return nil
}

func (t *textTool[T]) Timeout() time.Duration { return t.opts.timeout }
func (t *textTool[T]) Title() string          { return t.opts.title }
func (t *textTool[T]) IsReadOnly() bool       { return t.opts.readOnly }

var (
	_ Tool     = (*textTool[struct{}])(nil)
	_ Metadata = (*textTool[struct{}])(nil)
)
