package machine_test

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/mna/aster/lang/compiler"
	"github.com/mna/aster/lang/machine"
	"github.com/stretchr/testify/require"
)

var upvalueAnnotation = regexp.MustCompile(`(?m)\|\s+(local|upvalue) \d+\s*$`)

// TestDisassembleIsDeterministic exercises the round-trip property:
// disassembling the same chunk twice must produce byte-identical output,
// since Disassemble is a pure function of the opcode sequence, its
// operands and the constant pool.
func TestDisassembleIsDeterministic(t *testing.T) {
	vm := machine.NewVM()
	fn, err := compiler.Compile(vm, `
		class Greeter {
			init(name) { this.name = name; }
			greet() { return "hi " + this.name; }
		}
		var g = Greeter("world");
		print g.greet();
	`)
	require.NoError(t, err)

	var first, second bytes.Buffer
	machine.Disassemble(&first, fn.Chunk, "chunk")
	machine.Disassemble(&second, fn.Chunk, "chunk")
	require.Equal(t, first.String(), second.String())
}

// TestClosureUpvalueCountMatchesFunction exercises the invariant that a
// compiled closure lists exactly fn.UpvalueCount entries, none of them
// missing: the disassembler prints one "local"/"upvalue" line per entry
// right after the CLOSURE instruction that constructs it.
func TestClosureUpvalueCountMatchesFunction(t *testing.T) {
	vm := machine.NewVM()
	fn, err := compiler.Compile(vm, `
		fun outer() {
			var a = 1;
			var b = 2;
			fun inner() {
				return a + b;
			}
			return inner;
		}
	`)
	require.NoError(t, err)

	var outerFn *machine.ObjFunction
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.AsObj().(*machine.ObjFunction); ok && nested.Name != nil && nested.Name.Chars == "outer" {
			outerFn = nested
		}
	}
	require.NotNil(t, outerFn)

	var out bytes.Buffer
	machine.Disassemble(&out, outerFn.Chunk, "outer")

	var innerUpvalueCount int
	for _, c := range outerFn.Chunk.Constants {
		if nested, ok := c.AsObj().(*machine.ObjFunction); ok && nested.Name != nil && nested.Name.Chars == "inner" {
			innerUpvalueCount = nested.UpvalueCount
		}
	}
	require.Equal(t, 2, innerUpvalueCount)

	captureLines := upvalueAnnotation.FindAllString(out.String(), -1)
	require.Len(t, captureLines, innerUpvalueCount)
}

// TestOpenUpvaluesShareLiveStackSlot exercises the behavior the
// open-upvalue list's slot ordering exists to support: two closures
// capturing distinct locals that are still on the stack must each see
// the current value of their own slot, not a stale copy.
func TestOpenUpvaluesShareLiveStackSlot(t *testing.T) {
	vm := machine.NewVM()
	var out bytes.Buffer
	vm.Stdout = &out

	fn, err := compiler.Compile(vm, `
		fun make() {
			var a = 1;
			var b = 2;
			fun readA() { return a; }
			fun readB() { return b; }
			a = 10;
			b = 20;
			print readA();
			print readB();
		}
		make();
	`)
	require.NoError(t, err)
	require.NoError(t, vm.Run(context.Background(), fn))
	require.Equal(t, "10\n20\n", out.String())
}
