package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
	"github.com/gwillem/laserpanel/pkg/stats"
)

type StatusCommand struct{}

func (c *StatusCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		mode, err := a.client.SystemMode(ctx)
		if err != nil {
			return fmt.Errorf("backend at %s: %w", a.client.BaseURL(), err)
		}

		table, tableErr := a.client.TableStatus(ctx)
		printBanner(mode.Mode, tableErr == nil && table.IsSimulated())

		fmt.Println(headerStyle.Render("Laser panel"))
		field("Backend", a.client.BaseURL())
		field("Mode", mode.Mode)
		if mode.ForceHardware {
			field("Hardware", warnStyle.Render("forced"))
		}
		fmt.Println()

		if tableErr != nil {
			fmt.Println(errorStyle.Render("Table: " + tableErr.Error()))
		} else {
			printTableStatus(table)
		}
		fmt.Println()

		fmt.Println(subHeaderStyle.Render("Outputs"))
		printOutput(ctx, "Fan", a.client.FanStatus)
		printOutput(ctx, "Red lights", a.client.LightsStatus)
		fmt.Println()

		if servo, err := a.client.ServoStatus(ctx); err == nil {
			fmt.Println(subHeaderStyle.Render("Servo"))
			field("A / B", fmt.Sprintf("%d° / %d°", servo.PositionA, servo.PositionB))
			if servo.CurrentAngle != nil {
				field("Current", fmt.Sprintf("%.0f°", *servo.CurrentAngle))
			}
			fmt.Println()
		}

		if st, err := a.client.Statistics(ctx); err == nil {
			fmt.Println(subHeaderStyle.Render("Statistics"))
			field("Fire count", st.FireCount)
			field("Fire time", stats.FormatDuration(st.FireTimeMS))
			fmt.Println()
		}

		if rfid, err := a.client.RFIDStatus(ctx); err == nil {
			fmt.Println(subHeaderStyle.Render("RFID"))
			printRFID(rfid)
		}
		return nil
	})
}

func printOutput(ctx context.Context, name string, status func(context.Context) (machine.OutputStatus, error)) {
	st, err := status(ctx)
	if err != nil {
		field(name, errorStyle.Render(err.Error()))
		return
	}
	value := onOff(st.On)
	if st.Remaining > 0 {
		value += dimStyle.Render(fmt.Sprintf(" (auto-off in %s)", st.Remaining.Round(time.Second)))
	}
	field(name, value)
}
