package tui

// Color constants for the nannyclock theme
const (
	ColorCardBackground = "#14242A" // Deep teal
	ColorBorder         = "#35505A"

	// Text
	ColorPrimaryText   = "#ECF3F1"
	ColorSecondaryText = "#A9BDB8"
	ColorDisabledText  = "#66807A"
	ColorPlaceholder   = "#A9BDB8"
	ColorHelpText      = "240"

	// Accents
	ColorAccentMain   = "#0F9D8A" // Header, active borders
	ColorAccentBright = "#5EEAD4" // Big clock, focused fields

	// State
	ColorError   = "#EF4444"
	ColorSuccess = "#22C55E"
	ColorWarning = "#F59E0B"
)
