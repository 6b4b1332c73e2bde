package main

import (
	"context"
	"fmt"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type ServoCommand struct {
	Status   ServoStatusCommand   `command:"status" description:"Show servo configuration"`
	A        ServoACommand        `command:"a" description:"Move to position A (rest)"`
	B        ServoBCommand        `command:"b" description:"Move to position B (fire)"`
	Angle    ServoAngleCommand    `command:"angle" description:"Move to an angle"`
	SetA     ServoSetACommand     `command:"set-a" description:"Set the position A angle"`
	SetB     ServoSetBCommand     `command:"set-b" description:"Set the position B angle"`
	Invert   ServoInvertCommand   `command:"invert" description:"Invert servo direction"`
	Detach   ServoDetachCommand   `command:"detach" description:"Stop driving the servo"`
	Reattach ServoReattachCommand `command:"reattach" description:"Resume driving the servo"`
	Sequence ServoSequenceCommand `command:"sequence" description:"Start or stop the A-B fiber sequence"`
}

type angleArg struct {
	Angle int `positional-arg-name:"degrees"`
}

func printServoMove(m machine.ServoMove) {
	if m.Position != "" {
		fmt.Printf("Servo at position %s (%d°)\n", m.Position, m.Angle)
	} else {
		fmt.Printf("Servo at %d°\n", m.Angle)
	}
	reportSimulated(m.Envelope)
}

type ServoStatusCommand struct{}

func (c *ServoStatusCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		st, err := a.client.ServoStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("Servo"))
		field("Initialized", onOff(st.Initialized))
		field("Position A", fmt.Sprintf("%d°", st.PositionA))
		field("Position B", fmt.Sprintf("%d°", st.PositionB))
		field("Inverted", onOff(st.Inverted))
		if st.CurrentAngle != nil {
			field("Current", fmt.Sprintf("%.0f°", *st.CurrentAngle))
		} else {
			field("Current", dimStyle.Render("unknown"))
		}
		if st.Simulated {
			fmt.Println(dimStyle.Render("(simulated)"))
		}
		return nil
	})
}

type ServoACommand struct{}

func (c *ServoACommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		m, err := a.client.ServoMoveToA(ctx)
		if err != nil {
			return err
		}
		printServoMove(m)
		return nil
	})
}

type ServoBCommand struct{}

func (c *ServoBCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		m, err := a.client.ServoMoveToB(ctx)
		if err != nil {
			return err
		}
		printServoMove(m)
		return nil
	})
}

type ServoAngleCommand struct {
	Args angleArg `positional-args:"yes" required:"yes"`
}

func (c *ServoAngleCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		m, err := a.client.ServoMoveToAngle(ctx, c.Args.Angle)
		if err != nil {
			return err
		}
		printServoMove(m)
		return nil
	})
}

type ServoSetACommand struct {
	Args angleArg `positional-args:"yes" required:"yes"`
}

func (c *ServoSetACommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		angle, err := a.client.SetServoPositionA(ctx, c.Args.Angle)
		if err != nil {
			return err
		}
		fmt.Printf("Position A set to %d°\n", angle)
		return nil
	})
}

type ServoSetBCommand struct {
	Args angleArg `positional-args:"yes" required:"yes"`
}

func (c *ServoSetBCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		angle, err := a.client.SetServoPositionB(ctx, c.Args.Angle)
		if err != nil {
			return err
		}
		fmt.Printf("Position B set to %d°\n", angle)
		return nil
	})
}

type ServoInvertCommand struct {
	Args struct {
		State string `positional-arg-name:"on|off"`
	} `positional-args:"yes" required:"yes"`
}

func (c *ServoInvertCommand) Execute(args []string) error {
	on, err := parseOnOff(c.Args.State)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		inverted, err := a.client.SetServoInverted(ctx, on)
		if err != nil {
			return err
		}
		fmt.Printf("Servo inverted: %s\n", onOff(inverted))
		return nil
	})
}

type ServoDetachCommand struct{}

func (c *ServoDetachCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.ServoDetach(ctx); err != nil {
			return err
		}
		fmt.Println("Servo detached")
		return nil
	})
}

type ServoReattachCommand struct {
	Angle *int `long:"angle" description:"Angle to move to after reattaching"`
}

func (c *ServoReattachCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.client.ServoReattach(ctx, c.Angle); err != nil {
			return err
		}
		fmt.Println("Servo reattached")
		return nil
	})
}

type ServoSequenceCommand struct {
	Args struct {
		State string `positional-arg-name:"on|off"`
	} `positional-args:"yes" required:"yes"`
}

func (c *ServoSequenceCommand) Execute(args []string) error {
	on, err := parseOnOff(c.Args.State)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		running, err := a.client.ServoSequence(ctx, on)
		if err != nil {
			return err
		}
		fmt.Printf("Fiber sequence %s\n", onOff(running))
		return nil
	})
}
