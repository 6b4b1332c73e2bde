package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/gwillem/laserpanel/pkg/config"
	"github.com/gwillem/laserpanel/pkg/logging"
	"github.com/gwillem/laserpanel/pkg/machine"
)

type Options struct {
	URL     string `long:"url" env:"LASERPANEL_URL" description:"Backend URL (overrides the config file)"`
	Config  string `long:"config" short:"c" default:"laserpanel.json" description:"Config file"`
	Verbose bool   `long:"verbose" short:"v" description:"Log every backend request"`

	Setup        SetupCommand        `command:"setup" description:"Write the panel configuration interactively"`
	Status       StatusCommand       `command:"status" description:"Show machine status"`
	Panel        PanelCommand        `command:"panel" description:"Full-screen operator panel"`
	Jog          JogCommand          `command:"jog" description:"Jog the stepper"`
	Stop         StopCommand         `command:"stop" description:"Stop the stepper immediately"`
	Home         HomeCommand         `command:"home" description:"Home the stepper"`
	Move         MoveCommand         `command:"move" description:"Move the stepper to an absolute position"`
	Index        IndexCommand        `command:"index" description:"Move the stepper by the index distance"`
	Motor        MotorCommand        `command:"motor" description:"Enable or disable the stepper driver"`
	SavePosition SavePositionCommand `command:"save-position" description:"Save the current position as a preset"`
	Servo        ServoCommand        `command:"servo" description:"Trigger servo control"`
	Fire         FireCommand         `command:"fire" description:"Fire the laser"`
	Fiber        FiberCommand        `command:"fiber" description:"Start the fiber firing sequence"`
	StopFire     StopFireCommand     `command:"stop-fire" description:"Stop firing"`
	Fan          FanCommand          `command:"fan" description:"Switch the extraction fan"`
	Lights       LightsCommand       `command:"lights" description:"Switch the red warning lights"`
	Table        TableCommand        `command:"table" description:"Drive the table"`
	Cycle        CycleCommand        `command:"cycle" description:"Run the table auto cycle"`
	GPIO         GPIOCommand         `command:"gpio" description:"GPIO test panel"`
	Sequence     SequenceCommand     `command:"sequence" alias:"seq" description:"Manage and run sequences"`
	Stats        StatsCommand        `command:"stats" description:"Laser usage statistics"`
	Temp         TempCommand         `command:"temp" description:"Live temperature chart"`
	ConfigSet    ConfigSetCommand    `command:"config-set" description:"Change a backend configuration value"`
	RFID         RFIDCommand         `command:"rfid" description:"RFID operator session"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "laserctl - control panel for the laser cleaning machine"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	cfg      *config.Config
	client   *machine.Client
	log      zerolog.Logger
	closeLog func() error
}

// newApp loads the configuration and builds the client. Full-screen commands log
// to the configured file because the terminal belongs to the view.
func newApp(fullscreen bool) (*app, error) {
	cfg, err := config.LoadFrom(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.URL != "" {
		cfg.URL = opts.URL
	}

	lc := logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if opts.Verbose {
		lc.Level = "debug"
	}
	var log zerolog.Logger
	closeLog := func() error { return nil }
	if fullscreen && cfg.Log.File == "" {
		log = zerolog.Nop()
	} else {
		if fullscreen {
			lc.File = cfg.Log.File
		}
		log, closeLog, err = logging.New(lc)
		if err != nil {
			return nil, err
		}
	}

	client := machine.NewClient(cfg.URL,
		machine.WithTimeout(cfg.Timeout()),
		machine.WithLogger(log),
	)
	return &app{cfg: cfg, client: client, log: log, closeLog: closeLog}, nil
}

func (a *app) Close() {
	a.closeLog()
}

// commandContext is cancelled on Ctrl-C so polling commands can clean up.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// withApp runs fn with a loaded app and an interruptible context.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := commandContext()
	defer cancel()
	return fn(ctx, a)
}
