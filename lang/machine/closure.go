package machine

import "fmt"

// ObjUpvalue is a box around a captured local variable, shared by every
// closure that refers to it. While the frame that owns the local is still
// on the stack, Location points straight at that stack slot (an "open"
// upvalue, in the teacher's cell-boxing idiom: accessing it always goes
// through one level of indirection rather than copying the value). When
// the owning frame returns, the VM closes the upvalue: it copies the
// value into Closed and repoints Location at it, so the closure keeps
// seeing the same value after the stack slot is gone.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Closed   Value
	Next     *ObjUpvalue // next open upvalue, ordered by stack depth
}

func (u *ObjUpvalue) objType() ObjType { return ObjTypeUpvalue }
func (u *ObjUpvalue) String() string   { return "upvalue" }

// close detaches u from the stack slot it pointed at, copying the value
// into the upvalue itself and repointing Location there.
func (u *ObjUpvalue) close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a compiled ObjFunction with the upvalues its nested
// functions capture. Aster only ever calls closures, never bare
// ObjFunctions directly, mirroring clox: wrapping every function in a
// closure -- even one that captures nothing -- keeps the call path
// uniform.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func (c *ObjClosure) objType() ObjType { return ObjTypeClosure }
func (c *ObjClosure) String() string {
	if c.Function.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", c.Function.Name.Chars)
}
