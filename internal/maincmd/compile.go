package maincmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/diag"
	"github.com/mna/anilang/lang/evaluator"
	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/lowerer"
	"github.com/mna/anilang/lang/scope"
)

// compile reads a JSON-encoded AST from inputPath, lowers it (with constant
// folding enabled), optionally prints the decoded AST and/or lowered
// instruction stream, runs the result through the evaluator once as a
// sanity check under c.env's resource limits, then writes the bytecode to
// outputPath in the binary format. Diagnostics from both the lowering and
// evaluation phases are aggregated into one sink; the exit code and the
// counts written to stdout reflect both.
func (c *Cmd) compile(ctx context.Context, stdio mainer.Stdio, inputPath, outputPath string) error {
	src, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	prog, err := decodeProgram(src)
	if err != nil {
		return err
	}

	if c.ShowAST {
		printer := ast.Printer{Output: stdio.Stdout}
		if err := printer.Print(prog.Body); err != nil {
			return fmt.Errorf("printing ast: %w", err)
		}
	}

	sink := &diag.Sink{}
	heap := gc.NewHeap(c.env.GCThreshold)
	global := scope.New(0, nil)

	low := lowerer.New(heap, lowerer.Options{Optimise: true})
	bc, err := low.Lower(prog, global)
	if err != nil {
		sink.Errorf(diag.TypeMismatch, prog.Span(), "%s", err)
	}

	if bc != nil {
		if c.ShowBytecode {
			printBytecode(stdio.Stdout, bc)
		}

		opts := evaluator.Options{MaxSteps: c.env.MaxSteps}
		if c.env.DisableRecursion {
			opts.MaxCallStackDepth = 1
		}
		m := evaluator.New(heap, sink, opts)
		if _, err := m.Evaluate(ctx, bc, global); err != nil {
			sink.Errorf(diag.TypeMismatch, prog.Span(), "evaluation aborted: %s", err)
		}

		out, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outputPath, err)
		}
		defer out.Close()
		if err := bytecode.Serialize(out, bc); err != nil {
			return fmt.Errorf("serialising bytecode: %w", err)
		}
	}

	sink.Print(stdio.Stderr)
	fmt.Fprintf(stdio.Stdout, "%d error(s), %d warning(s)\n", sink.NumErrors(), sink.NumWarnings())
	if sink.NumErrors() > 0 {
		return fmt.Errorf("compile: %d error(s)", sink.NumErrors())
	}
	return nil
}

func printBytecode(w io.Writer, bc *bytecode.Bytecode) {
	for i, insn := range bc.Instructions {
		if insn.Op == bytecode.Push {
			fmt.Fprintf(w, "%4d  %-16s %s\n", i, insn.Op, insn.Value)
			continue
		}
		fmt.Fprintf(w, "%4d  %-16s %d\n", i, insn.Op, insn.Arg)
	}
}
