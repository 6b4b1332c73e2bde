package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
	"github.com/gwillem/laserpanel/pkg/sequence"
)

type SequenceCommand struct {
	Get    SequenceGetCommand    `command:"get" description:"Print a stored sequence as YAML"`
	Save   SequenceSaveCommand   `command:"save" description:"Validate and store a sequence file (YAML or JSON)"`
	Delete SequenceDeleteCommand `command:"delete" description:"Delete a stored sequence"`
	Run    SequenceRunCommand    `command:"run" description:"Run a stored sequence"`
	Pause  SequencePauseCommand  `command:"pause" description:"Pause the running sequence"`
	Resume SequenceResumeCommand `command:"resume" description:"Resume a paused sequence"`
	Stop   SequenceStopCommand   `command:"stop" description:"Stop the running sequence"`
	Status SequenceStatusCommand `command:"status" description:"Show the runner status"`
}

type sequenceIDArg struct {
	ID string `positional-arg-name:"id"`
}

type SequenceGetCommand struct {
	Args sequenceIDArg `positional-args:"yes" required:"yes"`
}

func (c *SequenceGetCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		seq, err := a.client.Sequence(ctx, c.Args.ID)
		if machine.IsNotFound(err) {
			return fmt.Errorf("sequence %q not found", c.Args.ID)
		}
		if err != nil {
			return err
		}
		data, err := seq.Marshal()
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		return nil
	})
}

type SequenceSaveCommand struct {
	Args struct {
		ID   string `positional-arg-name:"id"`
		File string `positional-arg-name:"file"`
	} `positional-args:"yes" required:"yes"`
}

func (c *SequenceSaveCommand) Execute(args []string) error {
	seq, err := sequence.Load(c.Args.File)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.SaveSequence(ctx, c.Args.ID, seq); err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Saved %q (%d steps)", c.Args.ID, len(seq.Steps))))
		if total := seq.TotalDuration(); total > 0 {
			fmt.Println(dimStyle.Render(fmt.Sprintf("Waits and delays add up to %s", time.Duration(total)*time.Millisecond)))
		}
		return nil
	})
}

type SequenceDeleteCommand struct {
	Yes  bool          `long:"yes" short:"y" description:"Do not ask for confirmation"`
	Args sequenceIDArg `positional-args:"yes" required:"yes"`
}

func (c *SequenceDeleteCommand) Execute(args []string) error {
	if !c.Yes && !confirm(fmt.Sprintf("Delete sequence %q?", c.Args.ID)) {
		fmt.Println("Cancelled")
		return nil
	}
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.DeleteSequence(ctx, c.Args.ID); err != nil {
			return err
		}
		fmt.Printf("Deleted %q\n", c.Args.ID)
		return nil
	})
}

type SequenceRunCommand struct {
	Watch    bool          `long:"watch" short:"w" description:"Follow the execution log until the sequence ends"`
	Interval time.Duration `long:"interval" default:"500ms" description:"Status poll interval while watching"`
	Args     sequenceIDArg `positional-args:"yes" required:"yes"`
}

func (c *SequenceRunCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.RunSequence(ctx, c.Args.ID); err != nil {
			return err
		}
		fmt.Printf("Started %q\n", c.Args.ID)
		if !c.Watch {
			return nil
		}
		err := watchSequence(ctx, a.client, c.Interval)
		if errors.Is(err, context.Canceled) {
			// Interrupted by the operator: stop the runner too.
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := a.client.StopSequence(stopCtx); stopErr != nil {
				return stopErr
			}
			fmt.Println(warnStyle.Render("Sequence stopped"))
			return nil
		}
		return err
	})
}

// watchSequence prints new execution log lines until the runner is done.
func watchSequence(ctx context.Context, client *machine.Client, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		st, err := client.SequenceStatus(ctx)
		if err != nil {
			return err
		}
		if len(st.ExecutionLog) < seen {
			seen = 0
		}
		for _, line := range st.NewLogLines(seen) {
			fmt.Println(dimStyle.Render(line))
		}
		seen = len(st.ExecutionLog)

		if st.Done() {
			printSequenceResult(&st)
			return nil
		}
	}
}

func printSequenceResult(st *sequence.Status) {
	switch st.State {
	case sequence.Completed:
		msg := "Sequence completed"
		if st.ExecutionTime != nil {
			msg += fmt.Sprintf(" in %.1fs", *st.ExecutionTime)
		}
		fmt.Println(successStyle.Render(msg))
	case sequence.Warning:
		fmt.Println(warnStyle.Render("Sequence completed with warnings"))
	default:
		fmt.Println(errorStyle.Render(fmt.Sprintf("Sequence ended: %s", st.State)))
	}
	if st.LastError != nil {
		fmt.Println(errorStyle.Render(fmt.Sprintf("%s: %s", st.LastError.Type, st.LastError.Message)))
		if st.LastError.RecoveryAction != "" {
			fmt.Println(dimStyle.Render("Recovery: " + st.LastError.RecoveryAction))
		}
	}
}

type SequencePauseCommand struct{}

func (c *SequencePauseCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.PauseSequence(ctx); err != nil {
			return err
		}
		fmt.Println("Sequence paused")
		return nil
	})
}

type SequenceResumeCommand struct{}

func (c *SequenceResumeCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.ResumeSequence(ctx); err != nil {
			return err
		}
		fmt.Println("Sequence resumed")
		return nil
	})
}

type SequenceStopCommand struct{}

func (c *SequenceStopCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.StopSequence(ctx); err != nil {
			return err
		}
		fmt.Println("Sequence stopped")
		return nil
	})
}

type SequenceStatusCommand struct {
	Log int `long:"log" default:"10" description:"Number of execution log lines to show"`
}

func (c *SequenceStatusCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		st, err := a.client.SequenceStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("Sequence runner"))
		field("State", st.State)
		if st.SequenceID != "" {
			field("Sequence", st.SequenceID)
			field("Progress", st.Progress())
		}
		if st.Simulated {
			fmt.Println(dimStyle.Render("(simulated)"))
		}
		if st.LastError != nil {
			field("Last error", errorStyle.Render(st.LastError.Message))
		}
		if n := len(st.ExecutionLog); n > 0 && c.Log > 0 {
			fmt.Println()
			for _, line := range st.NewLogLines(max(n-c.Log, 0)) {
				fmt.Println(dimStyle.Render(line))
			}
		}
		return nil
	})
}
