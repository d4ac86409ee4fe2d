package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"versereel/internal/director"
	"versereel/internal/model"
	"versereel/internal/progress"
	"versereel/internal/util/format"
)

// RunFunc produces a batch, reporting progress to rep.
type RunFunc func(ctx context.Context, rep progress.BatchReporter) (model.BatchResult, error)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	customer string
	run      RunFunc
	batch    *progress.BatchInfo

	order  []string
	videos map[string]*videoState

	finished bool
	result   model.BatchResult
	batchErr error

	// UI
	width, height int
	styles        Styles

	// Internal event channel used by reporter to feed tea messages
	eventCh chan tea.Msg
}

// NewModel prepares one row per label; row i tracks director.VideoID(i).
func NewModel(ctx context.Context, customer string, labels []string, run RunFunc) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	videos := make(map[string]*videoState, len(labels))
	order := make([]string, 0, len(labels))
	for i, l := range labels {
		id := director.VideoID(i)
		vs := newVideoState(id, l, sty)
		videos[id] = &vs
		order = append(order, id)
	}
	return Model{
		ctx:      c,
		cancel:   cancel,
		customer: customer,
		run:      run,
		order:    order,
		videos:   videos,
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.order {
		cmds = append(cmds, m.videos[id].spinner.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd(), m.startBatchCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case batchStartedMsg:
		b := msg.B
		m.batch = &b

	case jobUpdateMsg:
		u := msg.U
		if vs, ok := m.videos[u.JobID]; ok {
			vs.stage = u.Stage
			vs.percent = u.Percent
			vs.status = u.Message
			if u.Bytes != nil {
				vs.bytes = *u.Bytes
			}
		}
	case jobLogMsg:
		l := msg.L
		if vs, ok := m.videos[l.JobID]; ok {
			line := strings.TrimRight(l.Line, "\r\n")
			if len(vs.logsRing) >= 50 {
				vs.logsRing = vs.logsRing[1:]
			}
			vs.logsRing = append(vs.logsRing, line)
		}
	case jobResultMsg:
		r := msg.R
		if vs, ok := m.videos[r.JobID]; ok {
			vs.done = true
			vs.err = r.Err
			if r.Err == nil {
				vs.stage = progress.StageCompleted
				vs.percent = 100
				vs.outputPath = r.OutputPath
				vs.bytes = r.Bytes
				vs.status = fmt.Sprintf("Saved: %s (%s)", filepath.Base(r.OutputPath), format.HumanizeBytes(r.Bytes))
			} else {
				vs.stage = progress.StageError
				vs.status = r.Err.Error()
				vs.percent = -1
			}
		}
	case batchDoneMsg:
		m.finished = true
		m.result = msg.Res
		m.batchErr = msg.Err
		return m, tea.Quit
	case allDoneMsg:
		return m, tea.Quit
	}

	// Update per-video components (spinner)
	var cmds []tea.Cmd
	for _, id := range m.order {
		vs := m.videos[id]
		var c tea.Cmd
		vs.spinner, c = vs.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	// Keep listening for events
	if isEvent(msg) {
		cmds = append(cmds, m.listenEventsCmd())
	}
	return m, tea.Batch(cmds...)
}

func isEvent(msg tea.Msg) bool {
	switch msg.(type) {
	case batchStartedMsg, jobUpdateMsg, jobLogMsg, jobResultMsg:
		return true
	}
	return false
}

func (m Model) View() string {
	out := m.viewHeader() + "\n\n" + m.viewVideos()
	if summary := m.viewSummary(); summary != "" {
		out += "\n" + summary
	}
	return out
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

// startBatchCmd runs the batch in the background. The final batchDoneMsg goes
// through eventCh so it arrives after every event the batch reported.
func (m Model) startBatchCmd() tea.Cmd {
	return func() tea.Msg {
		rep := teaReporter{ctx: m.ctx, ch: m.eventCh}
		go func() {
			res, err := m.run(m.ctx, rep)
			rep.send(batchDoneMsg{Res: res, Err: err})
		}()
		return nil
	}
}

type teaReporter struct {
	ctx context.Context
	ch  chan tea.Msg
}

// send blocks until the message is queued or the board is gone.
func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.ctx.Done():
	}
}

func (r teaReporter) Update(u progress.Update) {
	// Block on terminal stages so they're never dropped
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

func (r teaReporter) BatchStarted(b progress.BatchInfo) {
	r.send(batchStartedMsg{B: b})
}
