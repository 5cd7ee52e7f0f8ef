package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsprint/internal/ui/theme"
)

const bannerArt = `
 ┏┳┓┏━┓╺┳╸╻ ╻┏━┓┏━┓┏━┓╻┏┓╻╺┳╸
 ┃┃┃┣━┫ ┃ ┣━┫┗━┓┣━┛┣┳┛┃┃┗┫ ┃
 ╹ ╹╹ ╹ ╹ ╹ ╹┗━┛╹  ╹┗╸╹╹ ╹ ╹ `

const bannerCompact = "MATHSPRINT"

// RenderBanner returns the banner in the primary color, falling back to
// plain text below 34 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 34 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
