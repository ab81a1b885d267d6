package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
)

const binName = "anilang"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] compile <input> <output>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] compile <input> <output>
       %[1]s -h|--help
       %[1]s -v|--version

Compile driver for the %[1]s programming language. Reads a pre-built AST
(as JSON) from <input> and writes lowered bytecode in the binary format
to <output>.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --show-ast                Print the decoded AST before lowering.
       --show-bytecode           Print the lowered instruction stream
                                  before writing it and before the
                                  sanity-check evaluation pass runs.

The ANILANG_MAX_STEPS, ANILANG_GC_THRESHOLD and ANILANG_DISABLE_RECURSION
environment variables override the evaluator's resource limits for the
sanity-check pass that runs after lowering and before <output> is written.

More information on the %[1]s repository:
       https://github.com/mna/anilang
`, binName)
)

// EnvConfig carries the host resource limits the compile command's
// post-lowering sanity-check evaluation runs under, read from ANILANG_*
// environment variables before flags are parsed, independently of
// mainer.Parser's own (disabled) EnvVars flag-binding.
type EnvConfig struct {
	// MaxSteps caps the number of dispatched instructions; 0 means no limit.
	MaxSteps int `env:"ANILANG_MAX_STEPS" envDefault:"0"`

	// GCThreshold is the number of live heap objects that triggers an
	// automatic collection; 0 disables automatic collection.
	GCThreshold int `env:"ANILANG_GC_THRESHOLD" envDefault:"0"`

	// DisableRecursion limits the call stack to a single frame (no nested
	// CallFunction), useful for sandboxing untrusted compiled input.
	DisableRecursion bool `env:"ANILANG_DISABLE_RECURSION" envDefault:"false"`
}

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	ShowAST      bool `flag:"show-ast"`
	ShowBytecode bool `flag:"show-bytecode"`

	args []string
	env  EnvConfig
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return fmt.Errorf("no command specified")
	}
	if c.args[0] != "compile" {
		return fmt.Errorf("unknown command: %s", c.args[0])
	}
	if len(c.args[1:]) != 2 {
		return fmt.Errorf("compile: expected <input> and <output> arguments")
	}
	return nil
}

func printError(stdio mainer.Stdio, err error) error {
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
	}
	return err
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	if err := env.Parse(&c.env); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment configuration: %s\n", err)
		return mainer.InvalidArgs
	}

	p := mainer.Parser{
		EnvVars:   false, // ANILANG_* is consumed directly by EnvConfig above
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := printError(stdio, c.compile(ctx, stdio, c.args[1], c.args[2])); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}
