package machine_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/mna/aster/lang/compiler"
	"github.com/mna/aster/lang/machine"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, vm *machine.VM, src string) error {
	t.Helper()
	fn, err := compiler.Compile(vm, src)
	require.NoError(t, err)
	return vm.Run(context.Background(), fn)
}

func runOK(t *testing.T, vm *machine.VM, src string) string {
	t.Helper()
	var out bytes.Buffer
	vm.Stdout = &out
	require.NoError(t, run(t, vm, src))
	return out.String()
}

func TestRunPrintArithmetic(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `print 1 + 2 * 3;`)
	require.Equal(t, "7\n", out)
}

func TestRunStringConcatenation(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `print "foo" + "bar";`)
	require.Equal(t, "foobar\n", out)
}

func TestRunGlobalsPersistAcrossRunCalls(t *testing.T) {
	vm := machine.NewVM()
	var out bytes.Buffer
	vm.Stdout = &out

	require.NoError(t, run(t, vm, `var counter = 0;`))
	require.NoError(t, run(t, vm, `counter = counter + 1; print counter;`))
	require.NoError(t, run(t, vm, `counter = counter + 1; print counter;`))
	require.Equal(t, "1\n2\n", out.String())
}

func TestRunClosureCapturesUpvalue(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `
		fun makeCounter() {
			var i = 0;
			fun counter() {
				i = i + 1;
				return i;
			}
			return counter;
		}
		var c = makeCounter();
		print c();
		print c();
		print c();
	`)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestRunClassesAndMethods(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `
		class Greeter {
			init(name) {
				this.name = name;
			}
			greet() {
				return "hi " + this.name;
			}
		}
		var g = Greeter("world");
		print g.greet();
	`)
	require.Equal(t, "hi world\n", out)
}

func TestRunInheritanceAndSuper(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `
		class Animal {
			speak() { return "..."; }
		}
		class Dog < Animal {
			speak() {
				return "bark then " + super.speak();
			}
		}
		print Dog().speak();
	`)
	require.Equal(t, "bark then ...\n", out)
}

func TestRunControlFlow(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
		print sum;
		if (sum > 5) {
			print "big";
		} else {
			print "small";
		}
		for (var j = 0; j < 3; j = j + 1) {
			print j;
		}
	`)
	require.Equal(t, "10\nbig\n0\n1\n2\n", out)
}

func TestRunLogicalOperatorsShortCircuit(t *testing.T) {
	vm := machine.NewVM()
	out := runOK(t, vm, `
		fun sideEffect(x) { print x; return x; }
		print false and sideEffect("and-rhs");
		print true or sideEffect("or-rhs");
	`)
	require.Equal(t, "false\ntrue\n", out)
}

func TestRunUndefinedVariableIsRuntimeError(t *testing.T) {
	vm := machine.NewVM()
	err := run(t, vm, `print undefinedThing;`)
	require.Error(t, err)
}

func TestRunArityMismatchIsRuntimeError(t *testing.T) {
	vm := machine.NewVM()
	err := run(t, vm, `
		fun f(a, b) { return a + b; }
		f(1);
	`)
	require.Error(t, err)
}

func TestRunStackOverflowOnDeepRecursion(t *testing.T) {
	vm := machine.NewVM()
	err := run(t, vm, `
		fun recurse(n) { return recurse(n + 1); }
		recurse(0);
	`)
	require.Error(t, err)
}

func TestRunFieldAccessOnNonInstanceIsError(t *testing.T) {
	vm := machine.NewVM()
	err := run(t, vm, `var x = 1; print x.field;`)
	require.Error(t, err)
}
