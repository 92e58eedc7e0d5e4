package machine

import (
	"fmt"

	"github.com/dolthub/swiss"
)

// growFactor is how much nextGC grows, relative to the heap size measured
// at the end of a collection, before the next collection is triggered.
const growFactor = 2

// initialNextGC is the heap size, in bytes tracked by track, at which the
// very first collection may run.
const initialNextGC = 1 << 20 // 1MiB

// track accounts for o's approximate size and runs a collection if the
// heap has grown past its threshold (or unconditionally, in StressMode),
// then links o onto the VM's allocation list. The collection runs before
// linking, matching clox's allocateObject/reallocate ordering: o is not
// yet reachable from any root, so it must also not yet be on the list a
// sweep could walk, or an allocation-triggered collection would discard
// it as garbage before its caller gets a chance to root it. Every New*
// constructor in this package must route its allocation through track so
// the collector sees every live object.
func (vm *VM) track(o Obj, size int) {
	vm.bytesAllocated += size
	if vm.StressMode || vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}

	o.setNext(vm.objects)
	vm.objects = o
}

func (vm *VM) gcLog(format string, args ...any) {
	if vm.LogWriter != nil {
		fmt.Fprintf(vm.LogWriter, format, args...)
	}
}

// collectGarbage runs one full tracing mark-sweep cycle: mark every root,
// transitively mark everything reachable from a root, drop intern-table
// entries for strings that turned out unreachable, then sweep the
// allocation list, freeing everything left unmarked.
func (vm *VM) collectGarbage() {
	vm.gcLog("-- gc begin\n")
	before := vm.bytesAllocated

	vm.markRoots()
	vm.traceReferences()
	vm.removeWhiteStrings()
	vm.sweep()

	vm.nextGC = vm.bytesAllocated * growFactor
	if vm.nextGC < initialNextGC {
		vm.nextGC = initialNextGC
	}

	vm.gcLog("-- gc end   collected %d bytes (from %d to %d) next at %d\n",
		before-vm.bytesAllocated, before, vm.bytesAllocated, vm.nextGC)
}

// markRoots marks every value the collector must treat as directly live:
// the operand stack, every active call frame's closure, the chain of open
// upvalues, the globals table, and -- while compilation is in progress --
// the chain of partially built function objects the compiler is still
// assembling.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].Closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		vm.markObject(uv)
	}
	markSwissValues(vm, vm.globals)
	for _, fn := range vm.compilerRoots {
		vm.markObject(fn)
	}
	if vm.initString != nil {
		vm.markObject(vm.initString)
	}
}

func (vm *VM) markValue(v Value) {
	if v.IsObj() {
		vm.markObject(v.AsObj())
	}
}

// markObject flips o's mark bit and adds it to the gray worklist if it
// wasn't already marked. Every Obj is initially white (unmarked); marking
// it makes it gray (reachable, not yet traced); blackenObject below moves
// it to black (reachable and fully traced) by marking everything it
// points to in turn.
func (vm *VM) markObject(o Obj) {
	if o == nil || o.isMarked() {
		return
	}
	o.mark()
	vm.grayStack = append(vm.grayStack, o)
}

// traceReferences drains the gray worklist, blackening each object by
// marking every object it references, until nothing gray remains.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		o := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blackenObject(o)
	}
}

func (vm *VM) blackenObject(o Obj) {
	switch v := o.(type) {
	case *ObjString, *ObjNative:
		// no references to trace
	case *ObjUpvalue:
		vm.markValue(v.Closed)
	case *ObjFunction:
		if v.Name != nil {
			vm.markObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			vm.markValue(c)
		}
	case *ObjClosure:
		vm.markObject(v.Function)
		for _, uv := range v.Upvalues {
			vm.markObject(uv)
		}
	case *ObjClass:
		vm.markObject(v.Name)
		markSwissClosures(vm, v.Methods)
	case *ObjInstance:
		vm.markObject(v.Class)
		markSwissValues(vm, v.Fields)
	case *ObjBoundMethod:
		vm.markValue(v.Receiver)
		vm.markObject(v.Method)
	}
}

// removeWhiteStrings drops every intern-table entry whose ObjString
// didn't get marked during this cycle: otherwise the table entry would
// keep referencing a string about to be swept, and a later Intern call
// for the same content would hand back a dangling pointer.
func (vm *VM) removeWhiteStrings() {
	var dead []*ObjString
	it := vm.strings.table.Iterator()
	for it.Next() {
		_, s := it.Pair()
		if !s.isMarked() {
			dead = append(dead, s)
		}
	}
	for _, s := range dead {
		vm.strings.remove(s)
	}
}

// sweep walks the allocation list, unlinking and discarding every object
// left unmarked, and clears the mark bit on everything that survives so
// the next cycle starts from white again.
func (vm *VM) sweep() {
	var prev Obj
	obj := vm.objects
	for obj != nil {
		if obj.isMarked() {
			obj.unmark()
			prev = obj
			obj = obj.getNext()
			continue
		}
		unreached := obj
		obj = obj.getNext()
		if prev == nil {
			vm.objects = obj
		} else {
			prev.setNext(obj)
		}
		vm.bytesAllocated -= objSize(unreached)
	}
}

// objSize approximates the number of bytes an object occupies, for the
// heap-growth accounting. It does not need to be exact, only consistent
// with the size passed to track when the object was allocated.
func objSize(o Obj) int {
	switch v := o.(type) {
	case *ObjString:
		return len(v.Chars)
	case *ObjFunction:
		return 64
	case *ObjNative:
		return 16
	case *ObjClosure:
		return 16 + 8*len(v.Upvalues)
	default: // upvalues, classes, instances and bound methods
		return 24
	}
}

func markSwissValues(vm *VM, m *swiss.Map[string, Value]) {
	it := m.Iterator()
	for it.Next() {
		_, v := it.Pair()
		vm.markValue(v)
	}
}

func markSwissClosures(vm *VM, m *swiss.Map[string, *ObjClosure]) {
	it := m.Iterator()
	for it.Next() {
		_, c := it.Pair()
		vm.markObject(c)
	}
}

// PushCompilerRoot registers fn as an additional GC root while the
// compiler is still assembling it (and any functions nested within it).
// The compiler must call this before emitting any instruction that might
// allocate, and PopCompilerRoot once the function is fully compiled.
func (vm *VM) PushCompilerRoot(fn *ObjFunction) {
	vm.compilerRoots = append(vm.compilerRoots, fn)
}

// PopCompilerRoot removes the most recently pushed compiler root.
func (vm *VM) PopCompilerRoot() {
	vm.compilerRoots = vm.compilerRoots[:len(vm.compilerRoots)-1]
}
