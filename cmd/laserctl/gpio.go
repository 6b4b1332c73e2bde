package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type GPIOCommand struct {
	Inputs GPIOInputsCommand `command:"inputs" description:"Print the input pins once"`
	Watch  GPIOWatchCommand  `command:"watch" description:"Live input table with output toggles"`
	Set    GPIOSetCommand    `command:"set" description:"Drive an output device"`
}

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tablePinStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableActiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true).Padding(0, 1)
)

func renderInputs(in machine.Inputs) string {
	rows := make([][]string, 0, len(in.Pins))
	for _, p := range in.Pins {
		state := "low"
		if p.Active {
			state = "HIGH"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", p.Number), p.Label, state})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("GPIO", "Function", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tablePinStyle
			case 2:
				if row >= 0 && row < len(in.Pins) && in.Pins[row].Active {
					return tableActiveStyle
				}
				return tableCellStyle
			default:
				return tableCellStyle
			}
		})
	return t.Render()
}

type GPIOInputsCommand struct{}

func (c *GPIOInputsCommand) Execute(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		in, err := a.client.GPIOInputs(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderInputs(in))
		if in.Simulated {
			fmt.Println(dimStyle.Render("(simulated)"))
		}
		return nil
	})
}

type GPIOSetCommand struct {
	Args struct {
		Device string `positional-arg-name:"fan|red_lights|table_forward|table_backward"`
		State  string `positional-arg-name:"on|off"`
	} `positional-args:"yes" required:"yes"`
}

func (c *GPIOSetCommand) Execute(args []string) error {
	on, err := parseOnOff(c.Args.State)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app) error {
		res, err := a.client.SetGPIOOutput(ctx, c.Args.Device, on)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", res.Device, onOff(res.State))
		reportSimulated(res.Envelope)
		return nil
	})
}

type GPIOWatchCommand struct {
	Interval time.Duration `long:"interval" default:"250ms" description:"Poll interval"`
}

type gpioModel struct {
	client   *machine.Client
	interval time.Duration
	inputs   machine.Inputs
	outputs  map[string]bool
	logs     []string
	width    int
	quitting bool
}

type inputsMsg struct {
	inputs machine.Inputs
	err    error
}

type outputMsg struct {
	res machine.OutputResult
	err error
}

func pollInputs(client *machine.Client, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		in, err := client.GPIOInputs(ctx)
		return inputsMsg{inputs: in, err: err}
	})
}

func setOutput(client *machine.Client, device string, on bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res, err := client.SetGPIOOutput(ctx, device, on)
		if res.Device == "" {
			res.Device = device
		}
		return outputMsg{res: res, err: err}
	}
}

func (m gpioModel) Init() tea.Cmd {
	return pollInputs(m.client, 0)
}

func (m gpioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "1", "2", "3", "4":
			device := machine.Devices()[key[0]-'1']
			return m, setOutput(m.client, device, !m.outputs[device])
		case "0":
			var cmds []tea.Cmd
			for _, d := range machine.Devices() {
				cmds = append(cmds, setOutput(m.client, d, false))
			}
			return m, tea.Batch(cmds...)
		}

	case inputsMsg:
		if msg.err != nil {
			m.logs = appendLog(m.logs, "Error: "+msg.err.Error())
		} else {
			m.inputs = msg.inputs
		}
		return m, pollInputs(m.client, m.interval)

	case outputMsg:
		if msg.err != nil {
			m.logs = appendLog(m.logs, fmt.Sprintf("%s: %v", msg.res.Device, msg.err))
			return m, nil
		}
		m.outputs[msg.res.Device] = msg.res.State
		state := "off"
		if msg.res.State {
			state = "on"
		}
		m.logs = appendLog(m.logs, msg.res.Device+" "+state)
	}

	return m, nil
}

func (m gpioModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("GPIO test panel"))
	if m.inputs.Simulated {
		sb.WriteString(statusStyle.Render("  (simulated)"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(renderInputs(m.inputs))
	sb.WriteString("\n\n")

	sb.WriteString(subHeaderStyle.Render("Outputs"))
	sb.WriteString("\n")
	for i, d := range machine.Devices() {
		sb.WriteString(fmt.Sprintf("  %d  %s %s\n", i+1, labelStyle.Render(d), onOff(m.outputs[d])))
	}
	sb.WriteString("\n")

	help := statusStyle.Render("1-4: toggle output  0: all off  q: quit")
	logLines := help
	if len(m.logs) > 0 {
		logLines = strings.Join(m.logs, "\n") + "\n" + help
	}
	sb.WriteString(logBoxStyle.Width(max(m.width-4, 20)).Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}

func (c *GPIOWatchCommand) Execute(args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	model := gpioModel{
		client:   a.client,
		interval: c.Interval,
		outputs:  make(map[string]bool),
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if fm, ok := final.(gpioModel); ok {
		model = fm
	}

	// Outputs switched on from the panel do not outlive it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for d, on := range model.outputs {
		if !on {
			continue
		}
		if _, offErr := a.client.SetGPIOOutput(ctx, d, false); offErr != nil {
			a.log.Warn().Err(offErr).Str("device", d).Msg("failed to switch output off")
		}
	}
	return err
}
