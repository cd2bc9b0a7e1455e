package capi

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
)

type objectKind uint8

const (
	kindParsedIR objectKind = iota + 1
	kindCompiler
	kindOptions
	kindResources
	kindType
	kindConstant
	kindSet
	kindBuffer
)

func (k objectKind) String() string {
	switch k {
	case kindParsedIR:
		return "parsed IR"
	case kindCompiler:
		return "compiler"
	case kindOptions:
		return "compiler options"
	case kindResources:
		return "resources"
	case kindType:
		return "type"
	case kindConstant:
		return "constant"
	case kindSet:
		return "variable set"
	case kindBuffer:
		return "buffer"
	}
	return "unknown"
}

// handle addresses an object in the arena. Slots are 1-based so the zero
// handle is never valid.
type handle struct {
	slot uint32
	gen  uint32
}

// Handles. The zero value of each is invalid.
type (
	ParsedIR        struct{ handle }
	Compiler        struct{ handle }
	CompilerOptions struct{ handle }
	Resources       struct{ handle }
	Type            struct{ handle }
	Constant        struct{ handle }
	Set             struct{ handle }
)

type object struct {
	kind  objectKind
	value any
}

// arena records every object a context hands out. Releasing bumps the
// generation so stale handles are detected instead of aliasing new objects.
type arena struct {
	gen     uint32
	objects []object
}

func newArena() *arena { return &arena{gen: 1} }

func (a *arena) add(kind objectKind, v any) handle {
	a.objects = append(a.objects, object{kind: kind, value: v})
	return handle{slot: uint32(len(a.objects)), gen: a.gen} //nolint:gosec // G115: slot count stays far below 2^32
}

func (a *arena) lookup(h handle, kind objectKind) (any, error) {
	if h.slot == 0 || h.gen != a.gen || int(h.slot) > len(a.objects) {
		return nil, cross.Errorf(cross.ErrInvalidArgument, "invalid or released %s handle", kind)
	}
	o := a.objects[h.slot-1]
	if o.kind != kind {
		return nil, cross.Errorf(cross.ErrInvalidArgument, "handle refers to a %s, not a %s", o.kind, kind)
	}
	return o.value, nil
}

func (a *arena) release() int {
	n := len(a.objects)
	clear(a.objects)
	a.objects = a.objects[:0]
	a.gen++
	return n
}

// ErrorCallback receives the message of every failed call.
type ErrorCallback func(message string)

// Context owns every object created through it.
type Context struct {
	arena     *arena
	log       *zap.Logger
	lastError string
	callback  ErrorCallback
	destroyed bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the logger of the context and of every compiler it
// creates.
func WithLogger(l *zap.Logger) ContextOption {
	return func(ctx *Context) {
		if l != nil {
			ctx.log = l
		}
	}
}

// CreateContext returns an empty context.
func CreateContext(opts ...ContextOption) *Context {
	ctx := &Context{arena: newArena(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// Destroy releases every object of the context. Later calls fail with
// ErrorInvalidArgument.
func (ctx *Context) Destroy() {
	if ctx.destroyed {
		return
	}
	n := ctx.arena.release()
	ctx.destroyed = true
	ctx.callback = nil
	ctx.log.Debug("context destroyed", zap.Int("objects", n))
}

// ReleaseAllocations invalidates every handle issued so far. The context
// stays usable.
func (ctx *Context) ReleaseAllocations() {
	n := ctx.arena.release()
	ctx.log.Debug("released allocations", zap.Int("objects", n))
}

// LastErrorString returns the message of the most recent failed call.
func (ctx *Context) LastErrorString() string { return ctx.lastError }

// SetErrorCallback registers cb for failed calls. A nil cb removes it.
func (ctx *Context) SetErrorCallback(cb ErrorCallback) { ctx.callback = cb }

// call runs fn behind the error boundary. Panics are recovered and
// reported like any other failure.
func (ctx *Context) call(op string, fn func() error) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = ctx.fail(op, cross.Errorf(cross.ErrInternal, "panic: %v", r))
		}
	}()
	if ctx.destroyed {
		return ctx.fail(op, cross.NewError(cross.ErrInvalidArgument, "context was destroyed"))
	}
	if err := fn(); err != nil {
		return ctx.fail(op, err)
	}
	return Success
}

func (ctx *Context) fail(op string, err error) Result {
	res := resultOf(err)
	ctx.lastError = fmt.Sprintf("%s: %v", op, err)
	ctx.log.Debug("call failed",
		zap.String("op", op),
		zap.Stringer("result", res),
		zap.Error(err))
	if ctx.callback != nil {
		ctx.callback(ctx.lastError)
	}
	return res
}

// keep records a buffer returned to the caller so that it lives exactly
// as long as the context's other allocations.
func (ctx *Context) keep(v any) { ctx.arena.add(kindBuffer, v) }

func lookup[T any](ctx *Context, h handle, kind objectKind) (T, error) {
	var zero T
	v, err := ctx.arena.lookup(h, kind)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, cross.Errorf(cross.ErrInternal, "%s slot holds %T", kind, v)
	}
	return t, nil
}
