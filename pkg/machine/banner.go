package machine

// BannerLevel is the severity of the mode banner.
type BannerLevel int

const (
	BannerNone BannerLevel = iota
	BannerInfo
	BannerWarning
	BannerError
)

func (l BannerLevel) String() string {
	switch l {
	case BannerInfo:
		return "info"
	case BannerWarning:
		return "warning"
	case BannerError:
		return "error"
	}
	return "none"
}

// Banner is the notice shown above every panel.
type Banner struct {
	Level BannerLevel
	Text  string
}

// NewBanner picks the banner for the configured mode and whether the last
// response was simulated.
func NewBanner(mode OperationMode, simulated bool) Banner {
	switch mode {
	case ModeSimulation:
		return Banner{BannerInfo, "SIMULATION MODE - no hardware is being driven"}
	case ModePrototype:
		if simulated {
			return Banner{BannerWarning, "PROTOTYPE MODE - hardware unavailable, values are simulated"}
		}
		return Banner{BannerInfo, "PROTOTYPE MODE - driving real hardware"}
	case ModeNormal:
		if simulated {
			return Banner{BannerError, "HARDWARE NOT RESPONDING - values are simulated"}
		}
		return Banner{}
	}
	if simulated {
		return Banner{BannerWarning, "SIMULATED VALUES - operation mode unknown"}
	}
	return Banner{}
}
