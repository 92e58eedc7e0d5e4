package machine_test

import (
	"bytes"
	"testing"

	"github.com/mna/aster/lang/compiler"
	"github.com/mna/aster/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestDisassembleConstantInstruction(t *testing.T) {
	vm := machine.NewVM()
	fn, err := compiler.Compile(vm, `print 1 + 2;`)
	require.NoError(t, err)

	var out bytes.Buffer
	machine.Disassemble(&out, fn.Chunk, "test chunk")

	s := out.String()
	require.Contains(t, s, "== test chunk ==")
	require.Contains(t, s, "constant")
	require.Contains(t, s, "add")
	require.Contains(t, s, "print")
	require.Contains(t, s, "return")
}

func TestDisassembleJumpInstructionShowsTarget(t *testing.T) {
	vm := machine.NewVM()
	fn, err := compiler.Compile(vm, `if (true) { print 1; } else { print 2; }`)
	require.NoError(t, err)

	var out bytes.Buffer
	machine.Disassemble(&out, fn.Chunk, "branch")
	require.Contains(t, out.String(), "->")
}

func TestChunkAddConstantRespectsCapacity(t *testing.T) {
	c := &machine.Chunk{}
	for i := 0; i < 256; i++ {
		idx := c.AddConstant(machine.NumberValue(float64(i)))
		require.Equal(t, i, idx)
	}
	require.Equal(t, -1, c.AddConstant(machine.NumberValue(256)))
}

func TestChunkWriteTracksLines(t *testing.T) {
	c := &machine.Chunk{}
	c.WriteOp(machine.NIL, 3)
	c.WriteOp(machine.RETURN, 4)
	require.Equal(t, []int{3, 4}, c.Lines)
}
