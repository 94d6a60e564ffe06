package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vini2003/molang/molang"
)

func main() {
	if err := runCLI(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCLI(args []string) error {
	if len(args) < 2 {
		return runREPL()
	}
	switch args[1] {
	case "run":
		return runCommand(args[2:])
	case "repl":
		return runREPL()
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		return usageError()
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	snapshotIn := fs.String("snapshot-in", "", "load a RuntimeContext snapshot before evaluating")
	snapshotOut := fs.String("snapshot-out", "", "save the RuntimeContext snapshot after evaluating")
	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) == 0 {
		return errors.New("molang run: script path required")
	}
	scriptPath := remaining[0]
	input, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	ctx, err := loadContext(*snapshotIn)
	if err != nil {
		return err
	}

	engine := molang.NewEngine(molang.Config{})
	result, err := engine.Evaluate(string(input), ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	fmt.Println(result)

	if *snapshotOut != "" {
		data, err := ctx.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if err := os.WriteFile(*snapshotOut, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}
	return nil
}

func loadContext(path string) (*molang.RuntimeContext, error) {
	if path == "" {
		return molang.NewRuntimeContext(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	ctx, err := molang.LoadSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return ctx, nil
}

func usageError() error {
	printUsage()
	return errors.New("invalid command")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s run [flags] <script>\n", prog)
	fmt.Fprintf(os.Stderr, "       %s repl\n", prog)
	fmt.Fprintln(os.Stderr, "Flags:")
	fmt.Fprintln(os.Stderr, "  -snapshot-in <file>")
	fmt.Fprintln(os.Stderr, "    load a RuntimeContext snapshot before evaluating")
	fmt.Fprintln(os.Stderr, "  -snapshot-out <file>")
	fmt.Fprintln(os.Stderr, "    save the RuntimeContext snapshot after evaluating")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}
