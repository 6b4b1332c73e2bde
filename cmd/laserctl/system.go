package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type ConfigSetCommand struct {
	Args struct {
		Section string `positional-arg-name:"section"`
		Key     string `positional-arg-name:"key"`
		Value   string `positional-arg-name:"value"`
	} `positional-args:"yes" required:"yes"`
}

func (c *ConfigSetCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		restart, err := a.client.UpdateConfig(ctx, c.Args.Section, c.Args.Key, c.Args.Value)
		if err != nil {
			return err
		}
		fmt.Printf("%s.%s = %s\n", c.Args.Section, c.Args.Key, c.Args.Value)
		if restart {
			fmt.Println(warnStyle.Render("Restart the backend for this change to take effect"))
		}
		return nil
	})
}

type RFIDCommand struct {
	Status RFIDStatusCommand `command:"status" description:"Show the authenticated operator"`
	Logout RFIDLogoutCommand `command:"logout" description:"End the card session"`
}

type RFIDStatusCommand struct{}

func (c *RFIDStatusCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		st, err := a.client.RFIDStatus(ctx)
		if err != nil {
			return err
		}
		printRFID(st)
		return nil
	})
}

func printRFID(st machine.RFIDStatus) {
	if !st.Authenticated || st.User == nil {
		field("Operator", dimStyle.Render("not authenticated"))
		return
	}
	field("Operator", fmt.Sprintf("%s (%s)", st.User.Username, st.User.AccessLevel))
	if exp := st.ExpiresAt(); !exp.IsZero() {
		field("Expires", fmt.Sprintf("%s (in %s)", exp.Format("15:04:05"), time.Until(exp).Round(time.Second)))
	}
}

type RFIDLogoutCommand struct{}

func (c *RFIDLogoutCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		ok, err := a.client.RFIDLogout(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(dimStyle.Render("No RFID reader active"))
			return nil
		}
		fmt.Println("Logged out")
		return nil
	})
}
