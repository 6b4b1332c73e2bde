package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type outputArgs struct {
	State string `positional-arg-name:"on|off|status"`
}

// runOutput handles the fan and lights commands, which only differ in endpoints.
func runOutput(name string, state string,
	status func(*machine.Client, context.Context) (machine.OutputStatus, error),
	set func(*machine.Client, context.Context, bool) (bool, error),
) error {
	return withApp(func(ctx context.Context, a *app) error {
		if state == "" || state == "status" {
			st, err := status(a.client, ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s", name, onOff(st.On))
			if st.Remaining > 0 {
				fmt.Printf(" (auto-off in %s)", st.Remaining.Round(time.Second))
			}
			fmt.Println()
			if st.Simulated {
				fmt.Println(dimStyle.Render("(simulated)"))
			}
			return nil
		}

		on, err := parseOnOff(state)
		if err != nil {
			return err
		}
		got, err := set(a.client, ctx, on)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", name, onOff(got))
		return nil
	})
}

type FanCommand struct {
	Args outputArgs `positional-args:"yes"`
}

func (c *FanCommand) Execute(args []string) error {
	return runOutput("Fan", c.Args.State, (*machine.Client).FanStatus, (*machine.Client).SetFan)
}

type LightsCommand struct {
	Args outputArgs `positional-args:"yes"`
}

func (c *LightsCommand) Execute(args []string) error {
	return runOutput("Red lights", c.Args.State, (*machine.Client).LightsStatus, (*machine.Client).SetLights)
}
