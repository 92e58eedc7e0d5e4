package machine

import "fmt"

// ObjFunction is a compiled function body: its arity, the number of
// upvalues its nested closures capture, and the bytecode chunk the
// compiler emitted for it. It is the unit the compiler produces and the
// unit a closure wraps; a bare ObjFunction is never called directly, only
// through the ObjClosure that captures its free variables (spec §4.3).
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString // nil for the implicit top-level script function
}

func (fn *ObjFunction) objType() ObjType { return ObjTypeFunction }
func (fn *ObjFunction) String() string {
	if fn.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", fn.Name.Chars)
}

// NativeFn is a function implemented in Go and exposed to Aster code as a
// callable value. argc is len(args); a native that doesn't accept a
// variable number of arguments should check it itself, matching the
// teacher's convention of pushing argument-count validation into the
// callee rather than the call site.
type NativeFn func(vm *VM, args []Value) (Value, error)

// ObjNative wraps a NativeFn with the display name shown when the value
// is printed; defineNative registers it in the globals table under the
// same name.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

func (n *ObjNative) objType() ObjType { return ObjTypeNative }
func (n *ObjNative) String() string   { return fmt.Sprintf("<native fn %s>", n.Name) }
