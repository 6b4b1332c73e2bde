package main

import (
	"context"
	"fmt"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type TableCommand struct {
	Forward  TableForwardCommand  `command:"forward" description:"Switch the forward relay"`
	Backward TableBackwardCommand `command:"backward" description:"Switch the backward relay"`
	Stop     TableStopCommand     `command:"stop" description:"Switch both relays off"`
	Status   TableStatusCommand   `command:"status" description:"Show relays and limit switches"`
}

type relayArgs struct {
	State string `positional-arg-name:"on|off"`
}

type TableForwardCommand struct {
	Args relayArgs `positional-args:"yes"`
}

func (c *TableForwardCommand) Execute(args []string) error {
	return driveTable(machine.Forward, c.Args.State)
}

type TableBackwardCommand struct {
	Args relayArgs `positional-args:"yes"`
}

func (c *TableBackwardCommand) Execute(args []string) error {
	return driveTable(machine.Backward, c.Args.State)
}

// driveTable switches one relay; no state means on.
func driveTable(dir machine.Direction, state string) error {
	on := true
	if state != "" {
		var err error
		if on, err = parseOnOff(state); err != nil {
			return err
		}
	}
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.client.TableDrive(ctx, dir, on)
		if err != nil {
			return err
		}
		if res.Blocked() {
			fmt.Println(warnStyle.Render("Blocked: " + res.Message))
			return nil
		}
		fmt.Printf("Table %s %s\n", dir, onOff(res.State))
		reportSimulated(res.Envelope)
		return nil
	})
}

type TableStopCommand struct{}

func (c *TableStopCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.TableStop(ctx); err != nil {
			return err
		}
		fmt.Println("Table stopped")
		return nil
	})
}

type TableStatusCommand struct{}

func (c *TableStatusCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		st, err := a.client.TableStatus(ctx)
		if err != nil {
			return err
		}
		printTableStatus(st)
		return nil
	})
}

func printTableStatus(st machine.TableStatus) {
	fmt.Println(subHeaderStyle.Render("Table"))
	field("Forward", onOff(st.MovingForward))
	field("Backward", onOff(st.MovingBackward))
	field("Front limit", active(st.FrontLimit))
	field("Back limit", active(st.BackLimit))
	if st.IsSimulated() {
		fmt.Println(dimStyle.Render("(simulated)"))
	}
}
