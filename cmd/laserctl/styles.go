package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/laserpanel/pkg/machine"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Width(14)
)

var bannerStyles = map[machine.BannerLevel]lipgloss.Style{
	machine.BannerInfo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1),
	machine.BannerWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1),
	machine.BannerError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Padding(0, 1),
}

func renderBanner(b machine.Banner) string {
	if b.Level == machine.BannerNone {
		return ""
	}
	return bannerStyles[b.Level].Render(b.Text)
}

// printBanner prints the mode banner when there is one.
func printBanner(mode machine.OperationMode, simulated bool) {
	if s := renderBanner(machine.NewBanner(mode, simulated)); s != "" {
		fmt.Println(s)
		fmt.Println()
	}
}

func onOff(b bool) string {
	if b {
		return successStyle.Render("ON")
	}
	return dimStyle.Render("off")
}

func active(b bool) string {
	if b {
		return warnStyle.Render("ACTIVE")
	}
	return dimStyle.Render("-")
}

func field(label string, value any) {
	fmt.Printf("%s %v\n", labelStyle.Render(label), value)
}

// reportSimulated notes a synthetic response on one-shot commands.
func reportSimulated(env machine.Envelope) {
	if env.IsSimulated() {
		fmt.Println(dimStyle.Render("(simulated)"))
	}
}

// parseOnOff accepts on/off and the usual boolean spellings.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1", "yes", "enable":
		return true, nil
	case "off", "false", "0", "no", "disable":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
