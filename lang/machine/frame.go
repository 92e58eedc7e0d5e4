package machine

// CallFrame is one active function call: the closure being executed, the
// instruction pointer into that closure's chunk, and the base index into
// the VM's value stack where this call's locals (including the callee
// itself, at slot 0) begin.
type CallFrame struct {
	Closure *ObjClosure
	IP      int
	Slots   int
}
