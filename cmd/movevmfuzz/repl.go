package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/wudi/hey/driver"
	"github.com/wudi/hey/sample"
)

// runREPL drives the sample module one call at a time from an interactive
// prompt: `step` runs the next queued call and prints its reverted flag and
// outputs, `maps` dumps the non-zero coverage/read/write buckets so far,
// `quit` exits.
func runREPL() error {
	rl, err := readline.New("movevm> ")
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	d := driver.New()
	if err := d.Deploy(sample.BuildModule()); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	state := driver.NewStagedState()
	steps := buildSteps(sample.ModuleAddress())
	next := 0

	fmt.Println("movevmfuzz interactive trace — commands: step, maps, quit")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("repl: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "step":
			if next >= len(steps) {
				fmt.Println("no more queued calls")
				continue
			}
			input := steps[next]
			next++
			result, err := d.Execute(state, input)
			if err != nil {
				fmt.Printf("%s: error: %v\n", input.FunctionName, err)
				continue
			}
			fmt.Printf("%s: reverted=%v outputs=%s\n", input.FunctionName, result.Reverted, renderOutputs(result))
			state = result.NewState
		case "maps":
			printNonZeroCoverage(d)
		case "quit", "exit":
			return nil
		case "":
			// ignore blank lines
		default:
			fmt.Println("unknown command:", line)
		}
	}
}

func printNonZeroCoverage(d *driver.Driver) {
	jmp := d.Feedback.GetJmp()
	count := 0
	for i, c := range jmp {
		if c != 0 {
			fmt.Printf("cov[%d] = %d\n", i, c)
			count++
		}
	}
	if count == 0 {
		fmt.Println("no coverage recorded yet")
	}
	read := d.Feedback.GetRead()
	for i, r := range read {
		if r {
			fmt.Printf("read[%d] = true\n", i)
		}
	}
	write := d.Feedback.GetWrite()
	for i, w := range write {
		if w != 0 {
			fmt.Printf("write[%d] = %d\n", i, w)
		}
	}
}
