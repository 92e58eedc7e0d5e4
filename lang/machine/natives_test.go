package machine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/mna/aster/lang/compiler"
	"github.com/mna/aster/lang/machine"
	"github.com/stretchr/testify/require"
)

func TestNativeClockReturnsNumber(t *testing.T) {
	vm := machine.NewVM()
	var out bytes.Buffer
	vm.Stdout = &out
	fn, err := compiler.Compile(vm, `print clock() > 0;`)
	require.NoError(t, err)
	require.NoError(t, vm.Run(context.Background(), fn))
	require.Equal(t, "true\n", out.String())
}

func TestNativeSleepBlocksBriefly(t *testing.T) {
	vm := machine.NewVM()
	fn, err := compiler.Compile(vm, `sleep(0.001);`)
	require.NoError(t, err)
	require.NoError(t, vm.Run(context.Background(), fn))
}

func TestNativeClockRejectsArguments(t *testing.T) {
	vm := machine.NewVM()
	fn, err := compiler.Compile(vm, `clock(1);`)
	require.NoError(t, err)
	require.Error(t, vm.Run(context.Background(), fn))
}
