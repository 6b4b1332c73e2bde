package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/gwillem/laserpanel/pkg/config"
	"github.com/gwillem/laserpanel/pkg/machine"
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Laser panel setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := config.LoadFrom(opts.Config)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Ignoring %s: %v", opts.Config, err)))
		cfg = config.Default()
	}
	if opts.URL != "" {
		cfg.URL = opts.URL
	}

	// Step 1: backend
	fmt.Println(subHeaderStyle.Render("━━━ Backend ━━━"))
	fmt.Println()
	askBackend(cfg)

	// Step 2: motion and outputs
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Panel behaviour ━━━"))
	fmt.Println()
	askPanel(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Open the operator panel with: " + headerStyle.Render("laserctl panel"))
	return nil
}

// askBackend asks for the backend URL until the backend answers or the operator
// keeps an unreachable one.
func askBackend(cfg *config.Config) {
	for {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Backend URL").
					Description("Where the machine controller listens").
					Value(&cfg.URL).
					Validate(validateURL),
			),
		)
		if err := form.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}

		fmt.Printf("Contacting %s...\n", cfg.URL)
		client := machine.NewClient(cfg.URL, machine.WithTimeout(3*time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		mode, err := client.SystemMode(ctx)
		cancel()
		if err == nil {
			fmt.Println(successStyle.Render(fmt.Sprintf("Connected, operation mode %s", mode.Mode)))
			printBanner(mode.Mode, false)
			return
		}

		fmt.Println(errorStyle.Render(fmt.Sprintf("Backend not reachable: %v", err)))
		var keep bool
		keepForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Keep this URL anyway?").
					Affirmative("Keep").
					Negative("Change").
					Value(&keep),
			),
		)
		if err := keepForm.Run(); err != nil {
			fmt.Println()
			os.Exit(0)
		}
		if keep {
			return
		}
	}
}

func askPanel(cfg *config.Config) {
	steps := strconv.Itoa(cfg.Jog.Steps)
	dwell := strconv.Itoa(cfg.Cycle.DwellMS)
	fanSec := strconv.Itoa(cfg.Outputs.FanOffDelayMS / 1000)
	lightsSec := strconv.Itoa(cfg.Outputs.LightsOffDelayMS / 1000)
	logFile := cfg.Log.File

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Jog steps").
				Description("Stepper steps per arrow key press").
				Value(&steps).
				Validate(positiveInt),
			huh.NewInput().
				Title("Cycle dwell (ms)").
				Description("Pause at each end of the table, 0 for none").
				Value(&dwell).
				Validate(nonNegativeInt),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Fan auto-off (seconds)").
				Value(&fanSec).
				Validate(positiveInt),
			huh.NewInput().
				Title("Red lights auto-off (seconds)").
				Value(&lightsSec).
				Validate(positiveInt),
			huh.NewInput().
				Title("Log file").
				Description("Used by the full-screen views, empty to disable").
				Value(&logFile),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	// Inputs are validated above.
	cfg.Jog.Steps, _ = strconv.Atoi(steps)
	cfg.Cycle.DwellMS, _ = strconv.Atoi(dwell)
	fan, _ := strconv.Atoi(fanSec)
	lights, _ := strconv.Atoi(lightsSec)
	cfg.Outputs.FanOffDelayMS = fan * 1000
	cfg.Outputs.LightsOffDelayMS = lights * 1000
	cfg.Log.File = logFile
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("expected http://host:port")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("enter 0 or more")
	}
	return nil
}
