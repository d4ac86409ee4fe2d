package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"versereel/internal/model"
)

// Run shows the board while run produces the batch, and returns the batch
// outcome once the program exits.
func Run(ctx context.Context, customer string, labels []string, run RunFunc) (model.BatchResult, error) {
	m := NewModel(ctx, customer, labels, run)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return model.BatchResult{}, err
	}
	fm, ok := final.(Model)
	if !ok {
		return model.BatchResult{}, nil
	}
	if !fm.finished {
		return fm.result, context.Canceled
	}
	if fm.batchErr != nil {
		return fm.result, fm.batchErr
	}
	var failed []string
	for _, id := range fm.order {
		if vs := fm.videos[id]; vs != nil && vs.err != nil {
			failed = append(failed, fmt.Sprintf("- %s: %s", vs.label, vs.err))
		}
	}
	if len(failed) > 0 {
		return fm.result, fmt.Errorf("%d video(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
	}
	return fm.result, nil
}
