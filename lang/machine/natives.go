package machine

import (
	"fmt"
	"os"
	"time"
)

// defineNatives registers every built-in native function in the globals
// table. Aster's standard library is intentionally tiny (spec §1's
// Non-goals exclude a real standard library): clock, exit and sleep are
// the only bindings every script starts with, matching the native
// surface the C original grows across its closing chapters.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
	vm.defineNative("exit", nativeExit)
	vm.defineNative("sleep", nativeSleep)
}

func (vm *VM) defineNative(name string, fn NativeFn) {
	vm.globals.Put(name, ObjValue(vm.NewNative(name, fn)))
}

func nativeClock(vm *VM, args []Value) (Value, error) {
	if len(args) != 0 {
		return Nil, fmt.Errorf("clock() takes no arguments")
	}
	return NumberValue(float64(time.Now().UnixNano()) / 1e9), nil
}

func nativeExit(vm *VM, args []Value) (Value, error) {
	code := 0
	if len(args) == 1 {
		if !args[0].IsNumber() {
			return Nil, fmt.Errorf("exit() argument must be a number")
		}
		code = int(args[0].AsNumber())
	} else if len(args) != 0 {
		return Nil, fmt.Errorf("exit() takes 0 or 1 arguments")
	}
	os.Exit(code)
	return Nil, nil
}

func nativeSleep(vm *VM, args []Value) (Value, error) {
	if len(args) != 1 || !args[0].IsNumber() {
		return Nil, fmt.Errorf("sleep() takes one numeric argument (seconds)")
	}
	time.Sleep(time.Duration(args[0].AsNumber() * float64(time.Second)))
	return Nil, nil
}
