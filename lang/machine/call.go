package machine

import "fmt"

// call pushes a new CallFrame for closure, checking arity and the frame
// depth limit. The closure's receiver/arguments must already be on the
// stack, at vm.stackTop-argCount-1 .. vm.stackTop-1.
func (vm *VM) call(closure *ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return formatRuntimeError("expected %d arguments but got %d", closure.Function.Arity, argCount)
	}
	if vm.frameCount == len(vm.frames) {
		return formatRuntimeError("stack overflow")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.Closure = closure
	frame.IP = 0
	frame.Slots = vm.stackTop - argCount - 1
	return nil
}

// callValue calls callee with argCount arguments already on the stack,
// dispatching on the callee's dynamic type: a closure, a native, a class
// (construction) or a bound method.
func (vm *VM) callValue(callee Value, argCount int) error {
	if callee.IsObj() {
		switch fn := callee.AsObj().(type) {
		case *ObjClosure:
			return vm.call(fn, argCount)
		case *ObjNative:
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result, err := fn.Fn(vm, args)
			if err != nil {
				return err
			}
			vm.stackTop -= argCount + 1
			vm.push(result)
			return nil
		case *ObjClass:
			inst := vm.newInstance(fn)
			vm.stack[vm.stackTop-argCount-1] = ObjValue(inst)
			if init, ok := fn.Methods.Get("init"); ok {
				return vm.call(init, argCount)
			}
			if argCount != 0 {
				return formatRuntimeError("expected 0 arguments but got %d", argCount)
			}
			return nil
		case *ObjBoundMethod:
			vm.stack[vm.stackTop-argCount-1] = fn.Receiver
			return vm.call(fn.Method, argCount)
		}
	}
	return formatRuntimeError("Can only call functions and classes.")
}

// invoke fetches name off the instance at the top of the call's receiver
// slot and calls it with argCount arguments, fusing GET_PROPERTY and CALL
// into one step: an instance field holding a callable still falls back to
// a plain call, so fields shadow methods correctly.
func (vm *VM) invoke(name string, argCount int) error {
	receiver := vm.peek(argCount)
	inst, ok := receiver.AsObj().(*ObjInstance)
	if !receiver.IsObj() || !ok {
		return formatRuntimeError("only instances have methods")
	}

	if field, ok := inst.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}

	method, ok := inst.Class.Methods.Get(name)
	if !ok {
		return formatRuntimeError("undefined property %q", name)
	}
	return vm.call(method, argCount)
}

// bindMethod resolves name on class, pushing a bound method value, or
// reports an undefined-property error.
func (vm *VM) bindMethod(class *ObjClass, name string) error {
	method, ok := class.Methods.Get(name)
	if !ok {
		return formatRuntimeError("undefined property %q", name)
	}
	bound := vm.newBoundMethod(vm.peek(0), method)
	vm.pop()
	vm.push(ObjValue(bound))
	return nil
}

// captureUpvalue returns the open upvalue for the stack slot at index, if
// one already exists, or creates and registers a new one, keeping
// vm.openUpvalues sorted from the top of the stack down so a later
// closeUpvalues call can stop as soon as it passes the target slot.
func (vm *VM) captureUpvalue(slot int) *ObjUpvalue {
	var prev *ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && slotIndex(vm, uv.Location) > slot {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && slotIndex(vm, uv.Location) == slot {
		return uv
	}

	created := vm.newUpvalue(&vm.stack[slot])
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

func slotIndex(vm *VM, p *Value) int {
	for i := range vm.stack {
		if &vm.stack[i] == p {
			return i
		}
	}
	return -1
}

// closeUpvalues closes every open upvalue that points at or above slot,
// copying each one's value off the stack before the frame that owns it is
// popped.
func (vm *VM) closeUpvalues(slot int) {
	for vm.openUpvalues != nil && slotIndex(vm, vm.openUpvalues.Location) >= slot {
		uv := vm.openUpvalues
		uv.close()
		vm.openUpvalues = uv.Next
	}
}

func (vm *VM) runtimeError(frame *CallFrame, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	var trace []string
	for i := vm.frameCount - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.Closure.Function
		line := fn.Chunk.Lines[fr.IP-1]
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}
	vm.resetStack()
	out := msg
	for _, line := range trace {
		out += "\n" + line
	}
	return fmt.Errorf("%s", out)
}
