package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwillem/laserpanel/pkg/cycle"
	"github.com/gwillem/laserpanel/pkg/fire"
	"github.com/gwillem/laserpanel/pkg/jog"
	"github.com/gwillem/laserpanel/pkg/machine"
	"github.com/gwillem/laserpanel/pkg/outputs"
	"github.com/gwillem/laserpanel/pkg/stats"
)

type PanelCommand struct {
	Poll time.Duration `long:"poll" default:"1s" description:"Status poll interval"`
}

const (
	// statsEvery polls the backend statistics every n status polls.
	statsEvery = 5
	requestTTL = 5 * time.Second
)

// panelModel is the operator panel. Everything behind a pointer is shared with
// goroutines owned by the controllers.
type panelModel struct {
	client  *machine.Client
	jogger  *jog.Jogger
	ctrl    *cycle.Controller
	laser   *fire.Controller
	fan     *outputs.Timer
	lights  *outputs.Timer
	session *stats.Session
	autoOff chan string

	ctx          context.Context
	poll         time.Duration
	polls        int
	releaseAfter time.Duration

	mode     machine.OperationMode
	banner   machine.Banner
	position *int
	table    machine.TableStatus
	cycle    cycle.State
	cycling  bool

	firing  bool
	fireGen int
	toggled bool

	width    int
	logs     []string
	quitting bool
}

type panelLogMsg string
type autoOffMsg string
type positionMsg int
type modeMsg machine.SystemMode
type pollMsg time.Time
type fireReleaseMsg struct{ gen int }

type statusMsg struct {
	table    machine.TableStatus
	tableErr error
	fan      *machine.OutputStatus
	lights   *machine.OutputStatus
	stats    *machine.Statistics
}

type actionMsg struct {
	text string
	err  error
	pos  *int
}

func waitForPosition(j *jog.Jogger) tea.Cmd {
	return func() tea.Msg {
		return positionMsg(<-j.Positions())
	}
}

func waitForJogLog(j *jog.Jogger) tea.Cmd {
	return func() tea.Msg {
		return panelLogMsg(<-j.Logs())
	}
}

func waitForAutoOff(ch chan string) tea.Cmd {
	return func() tea.Msg {
		return autoOffMsg(<-ch)
	}
}

func schedulePoll(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return pollMsg(t) })
}

// request runs fn off the UI goroutine and reports the outcome in the log box.
func request(text string, fn func(ctx context.Context) (*int, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTTL)
		defer cancel()
		pos, err := fn(ctx)
		return actionMsg{text: text, err: err, pos: pos}
	}
}

// awaitFire reports a queued fire or stop request once it ran.
func awaitFire(text string, result <-chan error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{text: text, err: <-result}
	}
}

func position(pos int, err error) (*int, error) {
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func fetchMode(client *machine.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTTL)
		defer cancel()
		mode, _ := client.SystemMode(ctx)
		return modeMsg(mode)
	}
}

func fetchStatus(client *machine.Client, withStats bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTTL)
		defer cancel()

		var msg statusMsg
		msg.table, msg.tableErr = client.TableStatus(ctx)
		if st, err := client.FanStatus(ctx); err == nil {
			msg.fan = &st
		}
		if st, err := client.LightsStatus(ctx); err == nil {
			msg.lights = &st
		}
		if withStats {
			if st, err := client.Statistics(ctx); err == nil {
				msg.stats = &st
			}
		}
		return msg
	}
}

func (m *panelModel) addLog(msg string) {
	m.logs = appendLog(m.logs, msg)
}

func (m panelModel) Init() tea.Cmd {
	return tea.Batch(
		fetchMode(m.client),
		fetchStatus(m.client, true),
		schedulePoll(m.poll),
		waitForPosition(m.jogger),
		waitForJogLog(m.jogger),
		waitForCycleState(m.ctrl),
		waitForCycleLog(m.ctrl),
		waitForAutoOff(m.autoOff),
	)
}

func (m panelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pollMsg:
		m.polls++
		return m, tea.Batch(
			fetchStatus(m.client, m.polls%statsEvery == 0),
			schedulePoll(m.poll),
		)

	case modeMsg:
		m.mode = msg.Mode
		m.banner = machine.NewBanner(m.mode, m.table.IsSimulated())
		return m, nil

	case statusMsg:
		if msg.tableErr != nil {
			m.addLog("Status: " + msg.tableErr.Error())
		} else {
			m.table = msg.table
		}
		if msg.fan != nil {
			m.fan.Sync(*msg.fan)
		}
		if msg.lights != nil {
			m.lights.Sync(*msg.lights)
		}
		if msg.stats != nil {
			m.session.Apply(*msg.stats)
		}
		m.banner = machine.NewBanner(m.mode, m.table.IsSimulated())
		return m, nil

	case positionMsg:
		pos := int(msg)
		m.position = &pos
		return m, waitForPosition(m.jogger)

	case panelLogMsg:
		m.logs = appendRawLog(m.logs, string(msg))
		return m, waitForJogLog(m.jogger)

	case autoOffMsg:
		m.logs = appendRawLog(m.logs, string(msg))
		return m, waitForAutoOff(m.autoOff)

	case cycleStateMsg:
		m.cycle = cycle.State(msg)
		return m, waitForCycleState(m.ctrl)

	case cycleLogMsg:
		m.logs = appendRawLog(m.logs, string(msg))
		return m, waitForCycleLog(m.ctrl)

	case cycleDoneMsg:
		m.cycling = false
		m.session.AddTableCycles(m.ctrl.Cycles())
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.addLog("Cycle error: " + msg.err.Error())
		}
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case fireReleaseMsg:
		if msg.gen == m.fireGen && m.firing {
			return m, m.stopFiring()
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.addLog(fmt.Sprintf("%s failed: %v", msg.text, msg.err))
			return m, nil
		}
		if msg.pos != nil {
			m.position = msg.pos
		}
		if msg.text != "" {
			m.addLog(msg.text)
		}
		return m, nil
	}

	return m, nil
}

func (m panelModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.cycling {
			ctrl := m.ctrl
			return m, func() tea.Msg { ctrl.Stop(); return nil }
		}
		return m, tea.Quit

	case "right", "up":
		m.jogger.Tap(machine.Forward)
	case "left", "down":
		m.jogger.Tap(machine.Backward)

	case "h":
		m.addLog("Homing...")
		return m, request("Homed", func(ctx context.Context) (*int, error) {
			return position(m.client.Home(ctx))
		})
	case "i":
		return m, request("Indexed forward", func(ctx context.Context) (*int, error) {
			return position(m.client.IndexMove(ctx, machine.Forward))
		})
	case "I":
		return m, request("Indexed backward", func(ctx context.Context) (*int, error) {
			return position(m.client.IndexMove(ctx, machine.Backward))
		})
	case "s":
		m.jogger.Release()
		return m, request("Motor stopped", func(ctx context.Context) (*int, error) {
			return position(m.client.StopMotor(ctx))
		})

	case " ":
		return m, m.fireTap()
	case "t":
		return m, m.fireToggle()

	case "f":
		return m, toggleOutput(m.fan)
	case "l":
		return m, toggleOutput(m.lights)

	case "c":
		if m.cycling {
			ctrl := m.ctrl
			return m, func() tea.Msg { ctrl.Stop(); return nil }
		}
		m.cycling = true
		return m, runCycle(m.ctx, m.ctrl)

	case "x", "esc":
		return m, m.stopAll()
	}
	return m, nil
}

// fireTap fires on the first space and keeps firing while key repeats arrive.
// The laser stops releaseAfter the last repeat.
func (m *panelModel) fireTap() tea.Cmd {
	m.fireGen++
	gen := m.fireGen
	release := tea.Tick(m.releaseAfter, func(time.Time) tea.Msg { return fireReleaseMsg{gen: gen} })
	if m.firing {
		return release
	}
	m.firing = true
	m.session.FireStarted(time.Now())
	return tea.Batch(release, awaitFire("Firing", m.laser.Fire(machine.Momentary)))
}

func (m *panelModel) stopFiring() tea.Cmd {
	m.firing = false
	m.fireGen++
	if m.session.FireStopped(time.Now()) {
		m.addLog("Firing counted")
	}
	return awaitFire("Firing stopped", m.laser.Stop())
}

// fireToggle latches the laser on until pressed again. The backend counts
// toggle firings in its own statistics.
func (m *panelModel) fireToggle() tea.Cmd {
	if m.toggled {
		m.toggled = false
		m.session.FireStopped(time.Now())
		return awaitFire("Toggle fire off", m.laser.Stop())
	}
	m.toggled = true
	m.session.FireStarted(time.Now())
	return awaitFire("Toggle fire on", m.laser.Fire(machine.Toggle))
}

func toggleOutput(t *outputs.Timer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTTL)
		defer cancel()
		on, err := t.Toggle(ctx)
		if err != nil {
			return actionMsg{text: t.Name(), err: err}
		}
		if on {
			return actionMsg{text: fmt.Sprintf("%s on, auto-off in %s", t.Name(), t.Delay())}
		}
		return actionMsg{text: t.Name() + " off"}
	}
}

// stopAll halts motion, firing and the cycle.
func (m *panelModel) stopAll() tea.Cmd {
	m.jogger.Release()
	m.firing = false
	m.toggled = false
	m.fireGen++
	m.session.FireStopped(time.Now())
	client, ctrl := m.client, m.ctrl
	// Queued now so it lands after any fire request already in flight.
	fireStopped := m.laser.Stop()
	m.addLog("STOP")
	return func() tea.Msg {
		ctrl.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), requestTTL)
		defer cancel()
		errs := []error{<-fireStopped, client.TableStop(ctx)}
		pos, err := client.StopMotor(ctx)
		errs = append(errs, err)
		if err := errors.Join(errs...); err != nil {
			return actionMsg{text: "Stop", err: err}
		}
		return actionMsg{text: "All stopped", pos: &pos}
	}
}

func (m panelModel) View() string {
	if m.quitting && !m.cycling {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Laser panel"))
	sb.WriteString(statusStyle.Render("  " + m.client.BaseURL()))
	sb.WriteString("\n")
	if b := renderBanner(m.banner); b != "" {
		sb.WriteString(b)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(label) + " " + value + "\n")
	}

	pos := dimStyle.Render("unknown")
	if m.position != nil {
		pos = headerStyle.Render(fmt.Sprint(*m.position))
	}
	if dir, ok := m.jogger.Holding(); ok {
		pos += warnStyle.Render(fmt.Sprintf("  jogging %s", dir))
	}
	row("Position", pos)

	laserState := dimStyle.Render("off")
	if m.firing || m.toggled {
		laserState = errorStyle.Render("FIRING")
	}
	row("Laser", laserState)

	phase := dimStyle.Render("idle")
	if m.cycling {
		phase = warnStyle.Render(fmt.Sprintf("%s (%d cycles)", m.cycle.Phase, m.ctrl.Cycles()))
	}
	row("Auto cycle", phase)
	row("Table", fmt.Sprintf("fwd %s  back %s  front %s  rear %s",
		onOff(m.table.MovingForward), onOff(m.table.MovingBackward),
		active(m.table.FrontLimit), active(m.table.BackLimit)))

	now := time.Now()
	row("Fan", timerValue(m.fan, now))
	row("Red lights", timerValue(m.lights, now))
	sb.WriteString("\n")

	snap := m.session.Snapshot()
	sb.WriteString(subHeaderStyle.Render("Session"))
	sb.WriteString(statusStyle.Render("  since " + snap.StartedAt.Format("15:04")))
	sb.WriteString("\n")
	row("Fires", fmt.Sprintf("%d  (%s)", snap.FireCount, stats.Format(snap.FireTime)))
	cycles := snap.TableCycles
	if m.cycling {
		cycles += m.ctrl.Cycles()
	}
	row("Table cycles", fmt.Sprint(cycles))
	row("Jogs", fmt.Sprintf("%d  (%d steps)", snap.Jogs, snap.JogSteps))
	if snap.Synced {
		row("Total", fmt.Sprintf("%d fires  (%s)", snap.TotalFireCount, stats.Format(snap.TotalFireTime)))
	}
	sb.WriteString("\n")

	help := statusStyle.Render("arrows: jog  h: home  i/I: index  s: stop  space: fire  t: toggle fire\nf: fan  l: lights  c: cycle  x: stop all  q: quit")
	logLines := help
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n") + "\n" + help
	}
	sb.WriteString(logBoxStyle.Width(max(m.width-4, 20)).Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}

func timerValue(t *outputs.Timer, now time.Time) string {
	if !t.Active() {
		return onOff(false)
	}
	v := onOff(true)
	if r := t.Remaining(now); r > 0 {
		v += dimStyle.Render(" auto-off in " + stats.Format(r))
	}
	return v
}

func (c *PanelCommand) Execute(args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	session := stats.NewSession(a.cfg.Stats.FireThreshold(), time.Now())
	jc := a.cfg.Jog
	jogger := jog.New(a.client, jog.Config{
		Steps:          jc.Steps,
		HoldDelay:      jc.HoldDelay(),
		RepeatInterval: jc.RepeatInterval(),
		ReleaseAfter:   jc.ReleaseAfter(),
		OnJog:          session.AddJog,
		Logger:         a.log,
	})
	defer jogger.Close()

	ctrl := cycle.New(a.client, cycleConfig(a))
	defer ctrl.Stop()

	laser := fire.New(a.client, requestTTL, a.log)
	defer laser.Wait()

	autoOff := make(chan string, 4)
	notify := func(name string, err error) {
		msg := fmt.Sprintf("[%s] %s auto-off", time.Now().Format("15:04:05"), name)
		if err != nil {
			msg += " failed: " + err.Error()
		}
		select {
		case autoOff <- msg:
		default:
		}
	}
	fan := outputs.NewTimer("Fan", outputs.FanSwitch(a.client), a.cfg.Outputs.FanOffDelay())
	fan.OnAutoOff(notify)
	defer fan.Stop()
	lights := outputs.NewTimer("Red lights", outputs.LightsSwitch(a.client), a.cfg.Outputs.LightsOffDelay())
	lights.OnAutoOff(notify)
	defer lights.Stop()

	ctx, cancel := commandContext()
	defer cancel()

	poll := c.Poll
	if poll <= 0 {
		poll = time.Second
	}
	model := panelModel{
		client:       a.client,
		jogger:       jogger,
		ctrl:         ctrl,
		laser:        laser,
		fan:          fan,
		lights:       lights,
		session:      session,
		autoOff:      autoOff,
		ctx:          ctx,
		poll:         poll,
		releaseAfter: jc.ReleaseAfter(),
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(panelModel); ok && (fm.firing || fm.toggled) {
		if stopErr := <-laser.Stop(); stopErr != nil {
			a.log.Error().Err(stopErr).Msg("failed to stop firing on exit")
		}
	}

	snap := session.Snapshot()
	a.log.Info().
		Int("fires", snap.FireCount).
		Dur("fire_time", snap.FireTime).
		Int("table_cycles", snap.TableCycles).
		Int("jogs", snap.Jogs).
		Msg("panel closed")
	return err
}
