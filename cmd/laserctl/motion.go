package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type JogCommand struct {
	Steps int `long:"steps" short:"n" description:"Steps per jog (default from config)"`
	Args  struct {
		Direction string `positional-arg-name:"forward|backward"`
	} `positional-args:"yes" required:"yes"`
}

func (c *JogCommand) Execute(args []string) error {
	dir, err := machine.ParseDirection(c.Args.Direction)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		steps := c.Steps
		if steps <= 0 {
			steps = a.cfg.Jog.Steps
		}
		pos, err := a.client.Jog(ctx, dir, steps)
		if err != nil {
			return err
		}
		fmt.Printf("Jogged %s %d steps, position %s\n", dir, steps, headerStyle.Render(fmt.Sprint(pos)))
		return nil
	})
}

type StopCommand struct{}

func (c *StopCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		pos, err := a.client.StopMotor(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Motor stopped at %d\n", pos)
		return nil
	})
}

type HomeCommand struct{}

func (c *HomeCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		fmt.Println("Homing...")
		pos, err := a.client.Home(ctx)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Homed, position %d", pos)))
		return nil
	})
}

type MoveCommand struct {
	Args struct {
		Position int `positional-arg-name:"position"`
	} `positional-args:"yes" required:"yes"`
}

func (c *MoveCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		pos, err := a.client.MoveTo(ctx, c.Args.Position)
		if err != nil {
			return err
		}
		fmt.Printf("Moved to %d\n", pos)
		return nil
	})
}

type IndexCommand struct {
	Args struct {
		Direction string `positional-arg-name:"forward|backward"`
	} `positional-args:"yes" required:"yes"`
}

func (c *IndexCommand) Execute(args []string) error {
	dir, err := machine.ParseDirection(c.Args.Direction)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		pos, err := a.client.IndexMove(ctx, dir)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %s, position %d\n", dir, pos)
		return nil
	})
}

type MotorCommand struct {
	Args struct {
		State string `positional-arg-name:"on|off"`
	} `positional-args:"yes" required:"yes"`
}

func (c *MotorCommand) Execute(args []string) error {
	on, err := parseOnOff(c.Args.State)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		enabled, err := a.client.EnableMotor(ctx, on)
		if err != nil {
			return err
		}
		fmt.Printf("Motor driver %s\n", onOff(enabled))
		return nil
	})
}

type SavePositionCommand struct {
	Args struct {
		Name string `positional-arg-name:"name"`
	} `positional-args:"yes" required:"yes"`
}

func (c *SavePositionCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		presets, err := a.client.SavePosition(ctx, c.Args.Name)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Saved position %q", c.Args.Name)))
		names := make([]string, 0, len(presets))
		for name := range presets {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			field(name, presets[name])
		}
		return nil
	})
}
