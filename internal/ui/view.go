package ui

import (
	"fmt"
	"strings"
	"time"

	"versereel/internal/progress"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.order)
	for _, id := range m.order {
		if m.videos[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("versereel • " + m.customer)
	eta := "ETA: unknown"
	if m.batch != nil && m.batch.ETA != nil {
		eta = "ETA: ~" + m.batch.ETA.Round(time.Second).String()
	}
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Videos: %d/%d done • %s • q: quit", done, total, eta))
	return title + "\n" + sub
}

func (m Model) viewVideos() string {
	var b strings.Builder
	for _, id := range m.order {
		b.WriteString(m.viewVideo(m.videos[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewVideo(vs *videoState) string {
	stageStyle := m.styles.JobInfo
	switch vs.stage {
	case progress.StageProbing:
		stageStyle = m.styles.StageProbe
	case progress.StageRendering:
		stageStyle = m.styles.StageRender
	case progress.StageEncoding:
		stageStyle = m.styles.StageEnc
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.JobTitle.Render(truncate(vs.label, 48))
	stage := stageStyle.Render(string(vs.stage))

	var right string
	switch {
	case vs.percent >= 0 && vs.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", vs.bar.ViewAs(vs.percent/100.0), vs.percent)
	case vs.done && vs.err == nil:
		right = m.styles.Success.Render("✓ done")
	case vs.err != nil:
		right = m.styles.Error.Render("✗ error")
	default:
		right = m.styles.Spinner.Render(vs.spinner.View()) + " " + m.styles.Faint.Render("waiting")
	}

	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.JobInfo.Render(vs.status)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (m Model) viewSummary() string {
	var completed []string
	for _, id := range m.order {
		vs := m.videos[id]
		if vs.done && vs.err == nil && vs.outputPath != "" {
			completed = append(completed, vs.outputPath)
		}
	}
	if len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("✓ Completed Files:"))
	b.WriteString("\n")
	for _, path := range completed {
		b.WriteString(m.styles.Success.Render("  • " + path))
		b.WriteString("\n")
	}
	if m.finished && m.result.LedgerPath != "" {
		b.WriteString(m.styles.Faint.Render("  ledger: " + m.result.LedgerPath))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
