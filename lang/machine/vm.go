package machine

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dolthub/swiss"
)

const (
	// FramesMax is the default maximum depth of nested calls.
	FramesMax = 64
	// StackMax is the default number of operand-stack slots.
	StackMax = FramesMax * 256
)

// VM is the bytecode interpreter: the operand stack, the call-frame
// stack, the heap (allocation list, intern table, globals, GC
// bookkeeping) and the I/O streams diagnostics and `print` are written
// to. Its fields are a direct descendant of the teacher's Thread: the
// same Stdout/Stderr/Stdin defaulting, the same MaxSteps/steps counter
// and context-cancellation polling loop, generalized from a single-
// function interpreter to a full call-frame stack, value heap and
// collector.
type VM struct {
	// Name optionally names the VM, for diagnostics.
	Name string

	// Stdout, Stderr and Stdin are the VM's standard I/O streams. If nil,
	// os.Stdout, os.Stderr and os.Stdin are used respectively.
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	// MaxSteps is the maximum number of dispatch-loop iterations before the
	// VM is cancelled. A value <= 0 means no limit.
	MaxSteps int

	// StackSize overrides StackMax when positive.
	StackSize int

	// StressMode forces a garbage collection on every allocation, for tests
	// that want to flush out dangling-root bugs.
	StressMode bool

	// LogWriter, when non-nil, receives a line of diagnostic output at the
	// start and end of every collection.
	LogWriter io.Writer

	stack      []Value
	stackTop   int
	frames     []CallFrame
	frameCount int

	openUpvalues *ObjUpvalue

	globals    *swiss.Map[string, Value]
	strings    *Strings
	initString *ObjString

	objects        Obj
	bytesAllocated int
	nextGC         int
	grayStack      []Obj
	compilerRoots  []*ObjFunction

	ctx       context.Context
	ctxCancel context.CancelCauseFunc
	cancelled atomic.Bool
	steps     uint64
	maxSteps  uint64

	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// NewVM returns a ready-to-use VM with an empty globals table, an empty
// intern table, and the clock/exit/sleep natives registered.
func NewVM() *VM {
	vm := &VM{
		globals: swiss.NewMap[string, Value](64),
		nextGC:  initialNextGC,
	}
	// init() allocates the operand stack before anything is interned: Intern
	// roots its freshly allocated ObjString on that stack for the duration
	// of the table insert, so the stack must already exist even this early,
	// before Compile or Run ever calls init() again themselves.
	vm.init()
	vm.strings = NewStrings()
	vm.initString = vm.InternString("init")
	vm.defineNatives()
	return vm
}

func (vm *VM) init() {
	stackSize := StackMax
	if vm.StackSize > 0 {
		stackSize = vm.StackSize
	}
	vm.stack = make([]Value, stackSize)
	vm.frames = make([]CallFrame, FramesMax)
	vm.stackTop = 0
	vm.frameCount = 0

	vm.steps = 0
	if vm.MaxSteps <= 0 {
		vm.maxSteps = ^uint64(0) // MaxUint64: no limit
	} else {
		vm.maxSteps = uint64(vm.MaxSteps)
	}
	if vm.Stdout != nil {
		vm.stdout = vm.Stdout
	} else {
		vm.stdout = os.Stdout
	}
	if vm.Stderr != nil {
		vm.stderr = vm.Stderr
	} else {
		vm.stderr = os.Stderr
	}
	if vm.Stdin != nil {
		vm.stdin = vm.Stdin
	} else {
		vm.stdin = os.Stdin
	}
}

// InternString returns the unique ObjString for s.
func (vm *VM) InternString(s string) *ObjString { return vm.strings.Intern(vm, s) }

// NewFunction returns a fresh, empty function object registered with the
// heap. The compiler fills in its Name, Arity, UpvalueCount and Chunk as
// it compiles the function body.
func (vm *VM) NewFunction() *ObjFunction {
	fn := &ObjFunction{Chunk: &Chunk{}}
	vm.track(fn, 64)
	return fn
}

// NewNative wraps fn as a callable native value registered with the heap.
func (vm *VM) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	vm.track(n, 16)
	return n
}

func (vm *VM) newClosure(fn *ObjFunction) *ObjClosure {
	c := &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
	vm.track(c, 16+8*fn.UpvalueCount)
	return c
}

func (vm *VM) newUpvalue(slot *Value) *ObjUpvalue {
	uv := &ObjUpvalue{Location: slot}
	vm.track(uv, 24)
	return uv
}

func (vm *VM) newClass(name *ObjString) *ObjClass {
	c := &ObjClass{Name: name, Methods: swiss.NewMap[string, *ObjClosure](4)}
	vm.track(c, 24)
	return c
}

func (vm *VM) newInstance(class *ObjClass) *ObjInstance {
	inst := &ObjInstance{Class: class, Fields: swiss.NewMap[string, Value](4)}
	vm.track(inst, 24)
	return inst
}

func (vm *VM) newBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	vm.track(b, 24)
	return b
}

func (vm *VM) push(v Value) { vm.stack[vm.stackTop] = v; vm.stackTop++ }

func (vm *VM) pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value { return vm.stack[vm.stackTop-1-distance] }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// Run executes the top-level function fn (as produced by
// lang/compiler.Compile against this same VM) to completion, or until ctx
// is cancelled (e.g. on SIGINT, see internal/maincmd). Calling Run again
// on the same VM reuses its globals table: a later call sees every global
// a previous one defined, exactly like the teacher's REPL sharing one
// Thread across lines.
func (vm *VM) Run(ctx context.Context, fn *ObjFunction) error {
	vm.init()
	ctx, cancel := context.WithCancelCause(ctx)
	vm.ctx = ctx
	vm.ctxCancel = cancel
	go func() {
		<-ctx.Done()
		vm.cancelled.Store(true)
	}()

	closure := vm.newClosure(fn)
	vm.push(ObjValue(closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func formatRuntimeError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
