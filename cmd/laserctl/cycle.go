package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwillem/laserpanel/pkg/cycle"
	"github.com/gwillem/laserpanel/pkg/stats"
)

type CycleCommand struct {
	Cycles *int          `long:"cycles" short:"n" description:"Stop after this many round trips, 0 runs until stopped (default from config)"`
	Dwell  time.Duration `long:"dwell" description:"Pause between legs, e.g. 500ms (default from config)"`
}

// cycleConfig builds the controller config from the panel config.
func cycleConfig(a *app) cycle.Config {
	cc := a.cfg.Cycle
	return cycle.Config{
		PollInterval:    cc.PollInterval(),
		Dwell:           cc.Dwell(),
		LegTimeout:      cc.LegTimeout(),
		SimulatedTravel: cc.SimulatedTravel(),
		MaxCycles:       cc.MaxCycles,
		Logger:          a.log,
	}
}

// Messages from the controller
type cycleStateMsg cycle.State
type cycleLogMsg string
type cycleDoneMsg struct{ err error }

func waitForCycleState(ctrl *cycle.Controller) tea.Cmd {
	return func() tea.Msg {
		return cycleStateMsg(<-ctrl.States())
	}
}

func waitForCycleLog(ctrl *cycle.Controller) tea.Cmd {
	return func() tea.Msg {
		return cycleLogMsg(<-ctrl.Logs())
	}
}

// runCycle registers the run before returning so a Stop issued right after the
// key press always sees it. The command reports when the run ends.
func runCycle(ctx context.Context, ctrl *cycle.Controller) tea.Cmd {
	result, err := ctrl.Start(ctx)
	if err != nil {
		return func() tea.Msg { return cycleDoneMsg{err: err} }
	}
	return func() tea.Msg {
		return cycleDoneMsg{err: <-result}
	}
}

type cycleModel struct {
	ctx      context.Context
	ctrl     *cycle.Controller
	state    cycle.State
	started  time.Time
	logs     []string
	width    int
	running  bool
	err      error
	quitting bool
}

func (m cycleModel) Init() tea.Cmd {
	return tea.Batch(
		runCycle(m.ctx, m.ctrl),
		waitForCycleState(m.ctrl),
		waitForCycleLog(m.ctrl),
	)
}

func (m cycleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc", " ", "s":
			if !m.running {
				m.quitting = true
				return m, tea.Quit
			}
			// Stop blocks until the relays are off; Run then delivers cycleDoneMsg.
			m.quitting = msg.String() != " " && msg.String() != "s"
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.Stop()
				return nil
			}
		case "r":
			if !m.running {
				m.running = true
				m.err = nil
				m.started = time.Now()
				return m, runCycle(m.ctx, m.ctrl)
			}
		}

	case cycleStateMsg:
		m.state = cycle.State(msg)
		return m, waitForCycleState(m.ctrl)

	case cycleLogMsg:
		m.logs = appendRawLog(m.logs, string(msg))
		return m, waitForCycleLog(m.ctrl)

	case cycleDoneMsg:
		m.running = false
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		if m.quitting {
			return m, tea.Quit
		}
	}

	return m, nil
}

// appendRawLog keeps the last maxLogs already timestamped entries.
func appendRawLog(logs []string, msg string) []string {
	logs = append(logs, msg)
	if len(logs) > maxLogs {
		logs = logs[len(logs)-maxLogs:]
	}
	return logs
}

func (m cycleModel) View() string {
	if m.quitting && !m.running {
		return fmt.Sprintf("Auto cycle stopped after %d cycle(s).\n", m.ctrl.Cycles())
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Table auto cycle"))
	if n := m.ctrl.Config().MaxCycles; n > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  %d/%d", m.ctrl.Cycles(), n)))
	}
	if m.state.Simulated {
		sb.WriteString(statusStyle.Render("  (simulated)"))
	}
	sb.WriteString("\n\n")

	phase := m.state.Phase.String()
	switch m.state.Phase {
	case cycle.Forward, cycle.Backward:
		phase = warnStyle.Render("moving " + phase)
	case cycle.Stopping:
		phase = errorStyle.Render(phase)
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Phase"), phase))
	sb.WriteString(fmt.Sprintf("%s %d\n", labelStyle.Render("Cycles"), m.ctrl.Cycles()))
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Front limit"), active(m.state.FrontLimit)))
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Back limit"), active(m.state.BackLimit)))
	if m.running && !m.started.IsZero() {
		sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Elapsed"), stats.Format(time.Since(m.started))))
	}
	if m.err != nil {
		sb.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	sb.WriteString("\n")

	help := "space: stop  q: stop and quit"
	if !m.running {
		help = "r: restart  q: quit"
	}
	logLines := statusStyle.Render(help)
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n") + "\n" + statusStyle.Render(help)
	}
	sb.WriteString(logBoxStyle.Width(max(m.width-4, 20)).Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}

// applyFlags overrides the configured values given on the command line. An
// explicit --cycles 0 lifts a limit set in the config.
func (c *CycleCommand) applyFlags(cfg *cycle.Config) error {
	if c.Cycles != nil {
		if *c.Cycles < 0 {
			return fmt.Errorf("--cycles must be 0 or more")
		}
		cfg.MaxCycles = *c.Cycles
	}
	if c.Dwell != 0 {
		cfg.Dwell = c.Dwell
	}
	return nil
}

func (c *CycleCommand) Execute(args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := cycleConfig(a)
	if err := c.applyFlags(&cfg); err != nil {
		return err
	}
	ctrl := cycle.New(a.client, cfg)

	ctx, cancel := commandContext()
	defer cancel()

	model := cycleModel{ctx: ctx, ctrl: ctrl, running: true, started: time.Now()}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()

	// Never leave the table moving, whatever way the program ended.
	ctrl.Stop()
	return err
}
