package machine

import (
	"context"
	"fmt"
)

// run is the dispatch loop: it executes instructions from the current
// frame's chunk until the outermost call returns, an uncaught runtime
// error occurs, or the VM is cancelled. Its step-counting and
// cancellation-polling shape is adapted directly from the teacher's own
// interpreter loop (lang/machine/machine.go's `run`): count a step, check
// the step ceiling, check the cancelled flag, then decode one
// instruction.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.Closure.Function.Chunk.Code[frame.IP]
		frame.IP++
		return b
	}
	readShort := func() int {
		hi := frame.Closure.Function.Chunk.Code[frame.IP]
		lo := frame.Closure.Function.Chunk.Code[frame.IP+1]
		frame.IP += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() Value {
		return frame.Closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() string {
		return readConstant().AsObj().(*ObjString).Chars
	}

	for {
		vm.steps++
		if vm.steps >= vm.maxSteps {
			vm.ctxCancel(fmt.Errorf("step limit exceeded"))
			return vm.runtimeError(frame, "execution cancelled: step limit exceeded")
		}
		if vm.cancelled.Load() {
			return vm.runtimeError(frame, "execution cancelled: %v", context.Cause(vm.ctx))
		}

		op := Opcode(readByte())
		switch op {
		case CONSTANT:
			vm.push(readConstant())

		case NIL:
			vm.push(Nil)
		case TRUE:
			vm.push(True)
		case FALSE:
			vm.push(False)

		case POP:
			vm.pop()

		case GET_LOCAL:
			vm.push(vm.stack[frame.Slots+int(readByte())])
		case SET_LOCAL:
			vm.stack[frame.Slots+int(readByte())] = vm.peek(0)

		case GET_UPVALUE:
			vm.push(*frame.Closure.Upvalues[readByte()].Location)
		case SET_UPVALUE:
			*frame.Closure.Upvalues[readByte()].Location = vm.peek(0)

		case DEFINE_GLOBAL:
			vm.globals.Put(readString(), vm.peek(0))
			vm.pop()
		case GET_GLOBAL:
			name := readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(frame, "undefined variable %q", name)
			}
			vm.push(v)
		case SET_GLOBAL:
			name := readString()
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError(frame, "undefined variable %q", name)
			}
			vm.globals.Put(name, vm.peek(0))

		case GET_PROPERTY:
			inst, ok := vm.peek(0).AsObj().(*ObjInstance)
			if !vm.peek(0).IsObj() || !ok {
				return vm.runtimeError(frame, "only instances have properties")
			}
			name := readString()
			if v, ok := inst.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			if err := vm.bindMethod(inst.Class, name); err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
		case SET_PROPERTY:
			inst, ok := vm.peek(1).AsObj().(*ObjInstance)
			if !vm.peek(1).IsObj() || !ok {
				return vm.runtimeError(frame, "only instances have fields")
			}
			inst.Fields.Put(readString(), vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)
		case GET_SUPER:
			name := readString()
			super := vm.pop().AsObj().(*ObjClass)
			if err := vm.bindMethod(super, name); err != nil {
				return vm.runtimeError(frame, "%s", err)
			}

		case EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(BoolValue(Equal(a, b)))
		case GREATER, LESS, ADD, SUBTRACT, MULTIPLY, DIVIDE:
			if err := vm.binaryOp(op); err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
		case NOT:
			vm.push(BoolValue(!Truth(vm.pop())))
		case NEGATE:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(frame, "operand must be a number")
			}
			vm.push(NumberValue(-vm.pop().AsNumber()))

		case PRINT:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case JUMP:
			offset := readShort()
			frame.IP += offset
		case JUMP_IF_FALSE:
			offset := readShort()
			if !Truth(vm.peek(0)) {
				frame.IP += offset
			}
		case LOOP:
			offset := readShort()
			frame.IP -= offset

		case CALL:
			argCount := int(readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			frame = &vm.frames[vm.frameCount-1]

		case INVOKE:
			name := readString()
			argCount := int(readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			frame = &vm.frames[vm.frameCount-1]
		case SUPER_INVOKE:
			name := readString()
			argCount := int(readByte())
			super := vm.pop().AsObj().(*ObjClass)
			method, ok := super.Methods.Get(name)
			if !ok {
				return vm.runtimeError(frame, "undefined property %q", name)
			}
			if err := vm.call(method, argCount); err != nil {
				return vm.runtimeError(frame, "%s", err)
			}
			frame = &vm.frames[vm.frameCount-1]

		case CLOSURE:
			fn := readConstant().AsObj().(*ObjFunction)
			closure := vm.newClosure(fn)
			vm.push(ObjValue(closure))
			for i := range closure.Upvalues {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.Slots + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
		case CLOSE_UPVALUE:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.Slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.Slots
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case CLASS:
			vm.push(ObjValue(vm.newClass(vm.InternString(readString()))))
		case INHERIT:
			super, ok := vm.peek(1).AsObj().(*ObjClass)
			if !vm.peek(1).IsObj() || !ok {
				return vm.runtimeError(frame, "superclass must be a class")
			}
			sub := vm.peek(0).AsObj().(*ObjClass)
			it := super.Methods.Iterator()
			for it.Next() {
				name, method := it.Pair()
				sub.Methods.Put(name, method)
			}
			vm.pop() // subclass
		case METHOD:
			name := readString()
			method := vm.pop().AsObj().(*ObjClosure)
			class := vm.peek(0).AsObj().(*ObjClass)
			class.Methods.Put(name, method)

		default:
			return vm.runtimeError(frame, "illegal opcode %s", op)
		}
	}
}

func (vm *VM) binaryOp(op Opcode) error {
	if op == ADD && vm.peek(0).Is(ObjTypeString) && vm.peek(1).Is(ObjTypeString) {
		b := vm.pop().AsObj().(*ObjString)
		a := vm.pop().AsObj().(*ObjString)
		vm.push(ObjValue(vm.InternString(a.Chars + b.Chars)))
		return nil
	}
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return fmt.Errorf("Operands must be two numbers or two strings.")
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	switch op {
	case ADD:
		vm.push(NumberValue(a + b))
	case SUBTRACT:
		vm.push(NumberValue(a - b))
	case MULTIPLY:
		vm.push(NumberValue(a * b))
	case DIVIDE:
		vm.push(NumberValue(a / b))
	case GREATER:
		vm.push(BoolValue(a > b))
	case LESS:
		vm.push(BoolValue(a < b))
	}
	return nil
}
