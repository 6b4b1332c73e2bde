package main

import (
	"context"
	"fmt"

	"github.com/gwillem/laserpanel/pkg/machine"
)

func fireMode(toggle bool) machine.FireMode {
	if toggle {
		return machine.Toggle
	}
	return machine.Momentary
}

type FireCommand struct {
	Toggle bool `long:"toggle" short:"t" description:"Toggle mode (counted by the backend statistics)"`
}

func (c *FireCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		resp, err := a.client.Fire(ctx, fireMode(c.Toggle))
		if err != nil {
			return err
		}
		fmt.Println(warnStyle.Render(fmt.Sprintf("FIRING (%s), servo at %s %d°", resp.Mode, resp.Position, resp.Angle)))
		fmt.Println(dimStyle.Render("Run 'laserctl stop-fire' to stop"))
		reportSimulated(resp.Envelope)
		return nil
	})
}

type FiberCommand struct {
	Toggle bool `long:"toggle" short:"t" description:"Toggle mode (counted by the backend statistics)"`
}

func (c *FiberCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		resp, err := a.client.FireFiber(ctx, fireMode(c.Toggle))
		if err != nil {
			return err
		}
		fmt.Println(warnStyle.Render(fmt.Sprintf("FIBER sequence started (%s)", resp.Mode)))
		reportSimulated(resp.Envelope)
		return nil
	})
}

type StopFireCommand struct{}

func (c *StopFireCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.StopFire(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Firing stopped"))
		return nil
	})
}
