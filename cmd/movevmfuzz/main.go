// Command movevmfuzz is a small demo front-end over the driver/tracer/vm
// packages: deploy the bundled sample module, execute its publish,
// increment and value functions, and print each call's outputs plus the
// number of touched coverage buckets. It exists to
// exercise the harness end to end, the way the teacher's cmd/vm-demo
// exercises its PHP VM.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wudi/hey/driver"
	"github.com/wudi/hey/sample"
	"github.com/wudi/hey/values"
)

func main() {
	app := &cli.Command{
		Name:  "movevmfuzz",
		Usage: "drive the embedded Move bytecode fuzzing harness",
		Commands: []*cli.Command{
			traceCommand,
			replCommand,
		},
	}

	// A *driver.FatalError panic means the harness or the module it was
	// given violated a caller contract (spec §7 classes 2-5) rather than
	// the Move code under test reverting; recover it here so this demo
	// prints a diagnostic instead of a raw Go stack trace before exiting
	// non-zero, the same abort this process would have made unrecovered.
	defer func() {
		if r := recover(); r != nil {
			var fatal *driver.FatalError
			if errors.As(asError(r), &fatal) {
				fmt.Fprintf(os.Stderr, "movevmfuzz: fatal[%s]: %v\n", fatal.Class, fatal.Err)
			} else {
				fmt.Fprintln(os.Stderr, "movevmfuzz: panic:", r)
			}
			os.Exit(1)
		}
	}()

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "movevmfuzz:", err)
		os.Exit(1)
	}
}

// asError coerces a recover() value into an error, for errors.As: most
// panics here are *driver.FatalError, which already is one.
func asError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

var traceCommand = &cli.Command{
	Name:  "trace",
	Usage: "deploy the sample counter module and execute publish/increment/value once each",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runTrace()
	},
}

// buildSteps returns the three sample calls driven by both `trace` and
// `repl`, against a fixed address every fuzzing input in this demo targets.
func buildSteps(addr values.Address) []driver.Input {
	return []driver.Input{
		{Module: sample.CounterModuleID, FunctionName: "publish", Args: []*values.Value{values.NewSigner(addr)}},
		{Module: sample.CounterModuleID, FunctionName: "increment", Args: []*values.Value{values.NewAddress(addr)}},
		{Module: sample.CounterModuleID, FunctionName: "value", Args: []*values.Value{values.NewAddress(addr)}},
	}
}

func runTrace() error {
	d := driver.New()
	if err := d.Deploy(sample.BuildModule()); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	state := driver.NewStagedState()

	for _, input := range buildSteps(sample.ModuleAddress()) {
		result, err := d.Execute(state, input)
		if err != nil {
			return fmt.Errorf("%s: %w", input.FunctionName, err)
		}
		fmt.Printf("%s: reverted=%v outputs=%v\n", input.FunctionName, result.Reverted, renderOutputs(result))
		state = result.NewState
	}

	jmp := d.Feedback.GetJmp()
	hits := 0
	for _, c := range jmp {
		if c != 0 {
			hits++
		}
	}
	fmt.Printf("coverage buckets touched: %d\n", hits)
	fmt.Printf("state changed this run: %v\n", d.Feedback.StateChanged())
	return nil
}

func renderOutputs(result *driver.ExecutionResult) []string {
	out := make([]string, len(result.Output))
	for i, o := range result.Output {
		out[i] = fmt.Sprintf("%s=%s", o.Type, o.Value)
	}
	return out
}

var replCommand = &cli.Command{
	Name:  "repl",
	Usage: "step through the sample module's execution interactively",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		return runREPL()
	},
}
