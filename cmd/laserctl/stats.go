package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/gwillem/laserpanel/pkg/stats"
)

type StatsCommand struct {
	Reset string `long:"reset" choice:"counter" choice:"timer" choice:"all" description:"Reset the fire counter, the fire timer or both"`
	Yes   bool   `long:"yes" short:"y" description:"Do not ask for confirmation"`
}

func (c *StatsCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if c.Reset != "" {
			if !c.Yes && !confirm(fmt.Sprintf("Reset the %s statistics?", c.Reset)) {
				fmt.Println("Cancelled")
				return nil
			}
			if err := resetStats(ctx, a, c.Reset); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Statistics reset"))
			a.log.Info().Str("what", c.Reset).Msg("statistics reset")
		}

		st, err := a.client.Statistics(ctx)
		if err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("Laser statistics"))
		field("Fire count", st.FireCount)
		field("Fire time", stats.FormatDuration(st.FireTimeMS))
		return nil
	})
}

func resetStats(ctx context.Context, a *app, what string) error {
	switch what {
	case "counter":
		return a.client.ResetCounter(ctx)
	case "timer":
		return a.client.ResetTimer(ctx)
	default:
		return a.client.ResetAll(ctx)
	}
}

// confirm asks a yes/no question. Aborting the form counts as no.
func confirm(title string) bool {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Fprintln(os.Stderr)
		return false
	}
	return ok
}
