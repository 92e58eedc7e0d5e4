// Package maincmd implements Aster's command-line entry point: a REPL when
// invoked with no arguments, or a script runner when given a single file
// path. It is a thin shell around lang/compiler and lang/machine (spec §6
// treats the CLI as an external collaborator, not part of the core).
package maincmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/aster/lang/compiler"
	"github.com/mna/aster/lang/machine"
	"github.com/mna/aster/lang/token"
	"github.com/mna/mainer"
)

const binName = "aster"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

With no <path>, starts an interactive REPL. With a <path>, compiles and
runs that script file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

Environment variables:
       ASTER_MAX_STEPS           Cap on dispatched instructions per Run call
                                  (0 means no cap).
       ASTER_STACK_SIZE          Override the VM's operand stack size.
`, binName)
)

// exit codes, matching the reference interpreter's convention exactly
// (spec §6): 0 success, 65 compile-time error, 70 runtime error, 64 usage
// error, 74 file I/O failure.
const (
	exitOK         mainer.ExitCode = 0
	exitUsageError mainer.ExitCode = 64
	exitDataError  mainer.ExitCode = 65
	exitSoftware   mainer.ExitCode = 70
	exitIOError    mainer.ExitCode = 74
)

// envConfig holds the ASTER_* overrides read via caarlos0/env, the same
// opt-in environment binding mainer itself offers through EnvPrefix.
type envConfig struct {
	MaxSteps  int `env:"ASTER_MAX_STEPS" envDefault:"0"`
	StackSize int `env:"ASTER_STACK_SIZE" envDefault:"0"`
}

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)    { c.args = args }
func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("usage error: expected at most one script path, got %d", len(c.args))
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsageError
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitOK
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitOK
	}

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment: %s\n", err)
		return exitUsageError
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	vm := newVM(stdio, cfg)

	if len(c.args) == 0 {
		runREPL(ctx, vm, stdio)
		return exitOK
	}
	return runFile(ctx, vm, stdio, c.args[0])
}

func newVM(stdio mainer.Stdio, cfg envConfig) *machine.VM {
	vm := machine.NewVM()
	vm.Stdout = stdio.Stdout
	vm.Stderr = stdio.Stderr
	vm.Stdin = stdio.Stdin
	if cfg.MaxSteps > 0 {
		vm.MaxSteps = cfg.MaxSteps
	}
	if cfg.StackSize > 0 {
		vm.StackSize = cfg.StackSize
	}
	return vm
}

// runREPL reads one line at a time until EOF, compiling and running each
// independently against the same VM so top-level var/fun/class declarations
// persist across lines, exactly as the reference repl() does.
func runREPL(ctx context.Context, vm *machine.VM, stdio mainer.Stdio) {
	sc := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !sc.Scan() {
			return
		}
		line := sc.Text()
		fn, err := compiler.Compile(vm, line)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		if err := vm.Run(ctx, fn); err != nil {
			if ctx.Err() != nil {
				// interrupted by a signal: end the session successfully
				return
			}
			fmt.Fprintln(stdio.Stderr, err)
		}
	}
}

// runFile compiles and runs a single script file, returning the process
// exit code the reference interpreter uses for each failure mode.
func runFile(ctx context.Context, vm *machine.VM, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return exitIOError
	}

	fn, err := compiler.Compile(vm, string(src))
	if err != nil {
		var errs token.ErrorList
		if errors.As(err, &errs) {
			fmt.Fprintln(stdio.Stderr, errs)
		} else {
			fmt.Fprintln(stdio.Stderr, err)
		}
		return exitDataError
	}

	if err := vm.Run(ctx, fn); err != nil {
		if ctx.Err() != nil {
			// interrupted by a signal: exit successfully
			return exitOK
		}
		fmt.Fprintln(stdio.Stderr, err)
		return exitSoftware
	}
	return exitOK
}
