package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tacc/compiler"
	"github.com/slowlang/tacc/compiler/asm/x86"
	"github.com/slowlang/tacc/compiler/format"
	"github.com/slowlang/tacc/compiler/parse"
	"github.com/slowlang/tacc/compiler/tac"
)

type stageFunc func(ctx context.Context, c *cli.Command, w io.Writer, r compiler.FileResult) error

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print formatted syntax tree",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	tacCmd := &cli.Command{
		Name:        "tac",
		Description: "print three-address code",
		Action:      stage(printTAC),
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile,asm",
		Description: "print x86 assembly",
		Action:      stage(printAsm),
		Args:        cli.Args{},
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "interpret and print final variable values",
		Action:      stage(runProgram),
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("x86", false, "execute generated assembly instead of tac"),
		},
	}

	app := &cli.Command{
		Name:        "tacc",
		Description: "tacc compiles a small C subset into three-address code and x86 assembly",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "logger verbosity topics (scope, lower, regalloc, asm, x86, batch)"),
			cli.NewFlag("jobs,j", 0, "parallel compilations, 0 is number of cpus"),
			cli.NewFlag("output,o", "", "output file, stdout if empty"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			tacCmd,
			compileCmd,
			runCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(os.Stderr, tlog.LstdFlags))

	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func output(c *cli.Command) (w io.Writer, closer func() error, err error) {
	name := c.String("output")
	if name == "" || name == "-" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create output")
	}

	return f, f.Close, nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	w, closer, err := output(c)
	if err != nil {
		return err
	}

	defer func() {
		e := closer()
		if err == nil {
			err = e
		}
	}()

	var b []byte

	for _, a := range c.Args {
		x, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		b, err = format.Format(ctx, b[:0], x)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, err = w.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

// stage compiles all arguments and passes every result to fn in order.
func stage(fn stageFunc) func(c *cli.Command) error {
	return func(c *cli.Command) (err error) {
		ctx := context.Background()
		ctx = tlog.ContextWithSpan(ctx, tlog.Root())

		w, closer, err := output(c)
		if err != nil {
			return err
		}

		defer func() {
			e := closer()
			if err == nil {
				err = e
			}
		}()

		failed := 0

		err = compiler.CompileFiles(ctx, c.Args, compiler.Options{Jobs: c.Int("jobs")}, func(r compiler.FileResult) error {
			if r.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "%v: %v\n", r.Name, r.Err)

				return nil
			}

			if len(c.Args) > 1 {
				fmt.Fprintf(w, "; %s\n", r.Name)
			}

			return fn(ctx, c, w, r)
		})
		if err != nil {
			return err
		}

		if failed != 0 {
			return errors.New("%d of %d files failed", failed, len(c.Args))
		}

		return nil
	}
}

func printTAC(ctx context.Context, c *cli.Command, w io.Writer, r compiler.FileResult) error {
	_, err := w.Write(r.TAC.AppendText(nil))
	return err
}

func printAsm(ctx context.Context, c *cli.Command, w io.Writer, r compiler.FileResult) error {
	_, err := w.Write(r.Asm.Append(nil))
	return err
}

func runProgram(ctx context.Context, c *cli.Command, w io.Writer, r compiler.FileResult) error {
	vars := map[string]int64{}

	if c.Bool("x86") {
		m, err := x86.Run(ctx, r.Asm.Append(nil), x86.Options{})
		if err != nil {
			return errors.Wrap(err, "x86")
		}

		for k, v := range m.Mem {
			vars[k] = int64(v)
		}
	} else {
		m, err := tac.Run(ctx, r.TAC, tac.Options{})
		if err != nil {
			return errors.Wrap(err, "tac")
		}

		vars = m.Vars
	}

	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}

	sort.Strings(names)

	for _, k := range names {
		_, err := fmt.Fprintf(w, "%s = %d\n", k, vars[k])
		if err != nil {
			return err
		}
	}

	return nil
}
