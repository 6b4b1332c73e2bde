package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/laserpanel/pkg/machine"
)

type TempCommand struct {
	Interval time.Duration `long:"interval" default:"2s" description:"Poll interval"`
	Max      float64       `long:"max" default:"80" description:"Upper bound of the chart in °C"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Sensor colors, assigned in display order
var sensorColors = []string{"196", "208", "226", "46", "51", "201"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
)

type tempModel struct {
	client   *machine.Client
	interval time.Duration
	chart    *streamlinechart.Model
	width    int
	height   int
	last     machine.Temperature
	order    []string // sensor ids in legend order
	logs     []string
	quitting bool
}

type tempMsg struct {
	temp machine.Temperature
	err  error
}

func pollTemperature(client *machine.Client, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		t, err := client.Temperature(ctx)
		return tempMsg{temp: t, err: err}
	})
}

func (m *tempModel) addLog(msg string) {
	m.logs = appendLog(m.logs, msg)
}

// appendLog timestamps msg and keeps the last maxLogs entries.
func appendLog(logs []string, msg string) []string {
	logs = append(logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), msg))
	if len(logs) > maxLogs {
		logs = logs[len(logs)-maxLogs:]
	}
	return logs
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *tempModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *tempModel) colorFor(id string) lipgloss.Style {
	for i, known := range m.order {
		if known == id {
			return lipgloss.NewStyle().Foreground(lipgloss.Color(sensorColors[i%len(sensorColors)]))
		}
	}
	return statusStyle
}

// track registers sensors the first time they are reported.
func (m *tempModel) track(sensors []machine.Sensor) {
	for _, s := range sensors {
		known := false
		for _, id := range m.order {
			if id == s.ID {
				known = true
				break
			}
		}
		if !known {
			m.order = append(m.order, s.ID)
			m.chart.SetDataSetStyles(s.ID, runes.ThinLineStyle, m.colorFor(s.ID))
		}
	}
}

func newTempModel(client *machine.Client, interval time.Duration, maxTemp float64) tempModel {
	chart := streamlinechart.New(80, 20, streamlinechart.WithYRange(0, maxTemp))
	return tempModel{client: client, interval: interval, chart: &chart}
}

func (m tempModel) Init() tea.Cmd {
	return pollTemperature(m.client, 0)
}

func (m tempModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tempMsg:
		if msg.err != nil {
			m.addLog("Error: " + msg.err.Error())
			return m, pollTemperature(m.client, m.interval)
		}
		wasHigh := m.last.HighTempCondition
		m.last = msg.temp
		sensors := msg.temp.Sensors()
		m.track(sensors)
		for _, s := range sensors {
			m.chart.PushDataSet(s.ID, s.Temperature)
		}
		m.chart.DrawAll()
		if msg.temp.HighTempCondition && !wasHigh {
			m.addLog("HIGH TEMPERATURE: laser and motors are blocked")
		} else if !msg.temp.HighTempCondition && wasHigh {
			m.addLog("Temperature back to normal")
		}
		return m, pollTemperature(m.client, m.interval)
	}

	return m, nil
}

func (m tempModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Temperature"))
	if m.last.HighLimit > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  limit %.1f°C", m.last.HighLimit)))
	}
	if !m.last.MonitoringEnabled {
		sb.WriteString(warnStyle.Render("  monitoring disabled"))
	}
	if m.last.IsSimulated() {
		sb.WriteString(statusStyle.Render("  (simulated)"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	var items []string
	for _, s := range m.last.Sensors() {
		label := fmt.Sprintf("%s %.1f°C", s.Name, s.Temperature)
		if s.HighTemp {
			label = errorStyle.Render(label)
		}
		items = append(items, m.colorFor(s.ID).Bold(true).Render("━━")+" "+label)
	}
	sb.WriteString(strings.Join(items, "  "))
	sb.WriteString("\n")

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logBoxStyle.Width(max(m.width-4, 20)).Render(logLines))
	sb.WriteString("\n")
	return sb.String()
}

func (c *TempCommand) Execute(args []string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	interval := c.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	p := tea.NewProgram(newTempModel(a.client, interval, c.Max), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
