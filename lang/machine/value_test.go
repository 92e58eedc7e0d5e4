package machine_test

import (
	"testing"

	"github.com/mna/aster/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestValueTruthiness(t *testing.T) {
	require.False(t, machine.Truth(machine.Nil))
	require.False(t, machine.Truth(machine.False))
	require.True(t, machine.Truth(machine.True))
	require.True(t, machine.Truth(machine.NumberValue(0)))
	require.True(t, machine.Truth(machine.NumberValue(-1)))
}

func TestValueEquality(t *testing.T) {
	require.True(t, machine.Equal(machine.Nil, machine.Nil))
	require.True(t, machine.Equal(machine.NumberValue(1), machine.NumberValue(1)))
	require.False(t, machine.Equal(machine.NumberValue(1), machine.NumberValue(2)))
	require.False(t, machine.Equal(machine.Nil, machine.False))
	require.False(t, machine.Equal(machine.NumberValue(0), machine.False))
}

func TestValueStringInterning(t *testing.T) {
	vm := machine.NewVM()
	a := vm.InternString("hello")
	b := vm.InternString("hello")
	require.Same(t, a, b)
	require.True(t, machine.Equal(machine.ObjValue(a), machine.ObjValue(b)))
}

func TestValueTypeName(t *testing.T) {
	require.Equal(t, "nil", machine.Nil.TypeName())
	require.Equal(t, "bool", machine.True.TypeName())
	require.Equal(t, "number", machine.NumberValue(1).TypeName())
}

func TestValueString(t *testing.T) {
	require.Equal(t, "nil", machine.Nil.String())
	require.Equal(t, "true", machine.True.String())
	require.Equal(t, "3.5", machine.NumberValue(3.5).String())
}
