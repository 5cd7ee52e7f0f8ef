package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mathsprint/internal/session"
	"github.com/abhisek/mathsprint/internal/timing"
	"github.com/abhisek/mathsprint/internal/ui/components"
	"github.com/abhisek/mathsprint/internal/ui/layout"
	"github.com/abhisek/mathsprint/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.sess == nil:
		return renderLine(width, theme.Subtitle, "\n\n\nGetting ready...")
	case s.confirmQuit:
		return renderQuitConfirm(width)
	case s.snap.State == session.StatePaused:
		return s.renderPaused(width)
	}
	return s.renderGame(width)
}

func (s *Screen) renderGame(width int) string {
	snap := s.snap
	var b strings.Builder

	info := fmt.Sprintf("Grade %d   Level %d   Question %d   Correct %d",
		snap.Grade, snap.Level, snap.TotalQuestions+1, snap.CorrectAnswers)
	infoLeft := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render("  " + info)

	infoRight := ""
	if snap.Question != nil {
		secs := max(int(snap.TimeRemaining+0.999), 0)
		infoRight = theme.Timer(snap.TimeRemaining, timing.WarningSeconds).
			Render(fmt.Sprintf("%ds", secs))
	}

	line := infoLeft
	if pad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4; pad > 0 {
		line += strings.Repeat(" ", pad) + infoRight
	}
	b.WriteString(line)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	bar := components.NewProgressBar("Progress", snap.Progress, true, min(width-8, layout.ContentWidth))
	b.WriteString(layout.Center(width, bar.View()))
	b.WriteString("\n\n")

	if s.feedback != nil {
		b.WriteString(s.renderFeedback(width))
	}

	if snap.Question != nil {
		b.WriteString(theme.Question.Width(width).Render(snap.Question.Text))
		b.WriteString("\n\n")
		b.WriteString(layout.Center(width, "Answer: "+s.input.View()))
		b.WriteString("\n")
		if s.warning {
			b.WriteString("\n")
			b.WriteString(renderLine(width, lipgloss.NewStyle().Foreground(theme.Warning).Bold(true), "Hurry up!"))
		}
	} else if snap.Pending {
		b.WriteString(renderLine(width, theme.Subtitle, "Next question coming up..."))
	}

	switch {
	case s.hintLoading:
		b.WriteString("\n\n")
		b.WriteString(renderLine(width, theme.Hint, "Thinking of a hint..."))
	case s.hint != "":
		b.WriteString("\n\n")
		card := theme.HintCard.Width(min(width-8, layout.ContentWidth)).Render("Hint: " + s.hint)
		b.WriteString(layout.Center(width, card))
	}

	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(renderLine(width, theme.Hint, s.notice))
	}

	return b.String()
}

func (s *Screen) renderFeedback(width int) string {
	fb := s.feedback
	var b strings.Builder

	switch {
	case fb.correct:
		b.WriteString(renderLine(width, theme.Correct, fmt.Sprintf("Correct! +%d", session.Award(s.snap.Streak-1))))
	case fb.timedOut:
		b.WriteString(renderLine(width, theme.Incorrect, "Time's up!"))
		b.WriteString("\n")
		b.WriteString(renderLine(width, theme.Subtitle, fmt.Sprintf("The answer was %d", fb.answer)))
	default:
		b.WriteString(renderLine(width, theme.Incorrect, "Not quite"))
		b.WriteString("\n")
		b.WriteString(renderLine(width, theme.Subtitle, fmt.Sprintf("The answer was %d", fb.answer)))
	}
	if s.levelUp {
		b.WriteString("\n")
		b.WriteString(renderLine(width, theme.Score, fmt.Sprintf("Level up! You reached level %d", s.snap.Level)))
	}
	b.WriteString("\n\n")
	return b.String()
}

func (s *Screen) renderPaused(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(renderLine(width, theme.Title.Width(width), "Paused"))
	b.WriteString("\n\n")
	b.WriteString(renderLine(width, theme.Subtitle, fmt.Sprintf("Score %d   Streak %d", s.snap.Score, s.snap.Streak)))
	b.WriteString("\n\n")
	b.WriteString(renderLine(width, theme.Hint, "Press P to resume."))
	return b.String()
}

// renderQuitConfirm renders the quit confirmation dialog.
func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(renderLine(width, lipgloss.NewStyle().Foreground(theme.Text).Bold(true), "End the game now?"))
	b.WriteString("\n")
	b.WriteString(renderLine(width, theme.Subtitle, "Your answers so far are saved."))
	b.WriteString("\n\n")
	b.WriteString(renderLine(width, lipgloss.NewStyle().Foreground(theme.Success), "[Y] Yes, end game"))
	b.WriteString("\n")
	b.WriteString(renderLine(width, lipgloss.NewStyle().Foreground(theme.Primary), "[N] No, keep going"))
	return b.String()
}

func renderError(width int, errMsg string) string {
	return renderLine(width, lipgloss.NewStyle().Foreground(theme.Error),
		fmt.Sprintf("\n\n\nError: %s\n\nPress any key to go back.", errMsg))
}

func renderLine(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}
