package banner

import (
	"gwbench/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

const ascii = `
                 __                    __  
  ______      __/ /_  ___  ____  _____/ /_ 
 / __ / | /| / / __ \/ _ \/ __ \/ ___/ __ \
/ /_/ /| |/ |/ / /_/ /  __/ / / / /__/ / / /
\__, / |__/|__/_.___/\___/_/ /_/\___/_/ /_/ 
/____/                                      `

// GetString renders the banner shown above the help text.
func GetString() string {
	style := lipgloss.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	return "\n" + style.Render(ascii) + "\n" +
		styles.Subtle.Render("  load generator for S3-style object gateways") + "\n"
}
