// internal/tui/tui.go
// Package tui provides the phone-side interaction screens.
package tui

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/hunger/internal/answerlog"
	"github.com/mwiater/hunger/internal/companion"
	"github.com/mwiater/hunger/internal/heartrate"
	"github.com/mwiater/hunger/internal/logging"
	"github.com/mwiater/hunger/internal/predictor"
	"github.com/mwiater/hunger/internal/relay"
	"github.com/mwiater/hunger/internal/session"
)

// reachabilityPoll is how often the connection banner is refreshed.
const reachabilityPoll = time.Second

// Options configures the interaction UI.
type Options struct {
	Predictor predictor.Predictor
	// Inbox delivers windows from the wearable. It is ignored in mock mode.
	Inbox relay.Inbox
	// Mock asks the predictor directly each time the UI enters Loading.
	Mock     bool
	Rule     session.Rule
	Recorder answerlog.Recorder
	Rand     *rand.Rand
}

// windowMsg carries a window that just arrived from the wearable.
type windowMsg relay.Message

// predictionMsg carries a successful prediction.
type predictionMsg struct {
	window relay.Message
	value  int
}

// predictionErrMsg carries a failed or malformed prediction. The UI keeps waiting.
type predictionErrMsg struct{ error }

// reachabilityMsg reports whether the wearable is connected.
type reachabilityMsg bool

// model is the Bubble Tea model for the interaction flow.
type model struct {
	ctx           context.Context
	opts          Options
	state         session.State
	status        predictorStatus
	connected     bool
	latest        *relay.Message
	summary       heartrate.Summary
	lastErr       error
	spinner       spinner.Model
	viewport      viewport.Model
	width, height int
	loadingSince  time.Time

	rngMu sync.Mutex
}

// newModel creates the model in the Loading view.
func newModel(ctx context.Context, opts Options) *model {
	if opts.Rule == "" {
		opts.Rule = session.Agree
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		ctx:          ctx,
		opts:         opts,
		state:        session.New(),
		status:       derivePredictorStatus(opts.Predictor),
		spinner:      s,
		viewport:     viewport.New(60, 10),
		loadingSince: time.Now(),
	}
}

func (m *model) pick(n int) int {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	return m.opts.Rand.Intn(n)
}

// relayMode reports whether windows arrive from a wearable.
func (m *model) relayMode() bool {
	return !m.opts.Mock && m.opts.Inbox != nil
}

// mockPredictCmd asks the predictor for a classification without a window.
func mockPredictCmd(ctx context.Context, p predictor.Predictor) tea.Cmd {
	return func() tea.Msg {
		req := predictor.Request{HR: []float64{}, Timestamp: heartrate.FormatTimestamp(time.Now())}
		value, err := p.Predict(ctx, req)
		if err != nil {
			return predictionErrMsg{error: err}
		}
		return predictionMsg{window: relay.Message{HR: req.HR, TS: req.Timestamp}, value: value}
	}
}

// reachabilityCmd checks the inbox after delay.
func reachabilityCmd(inbox relay.Inbox, delay time.Duration) tea.Cmd {
	if delay <= 0 {
		return func() tea.Msg { return reachabilityMsg(inbox.Reachable()) }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return reachabilityMsg(inbox.Reachable())
	})
}

// recordCmd appends an answer to the log off the update loop.
func recordCmd(r answerlog.Recorder, e answerlog.Entry) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		answerlog.Write(r, e)
		return nil
	}
}

// Init starts the spinner and the first prediction or reachability check.
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.relayMode() {
		cmds = append(cmds, reachabilityCmd(m.opts.Inbox, 0))
	} else if m.opts.Predictor != nil {
		cmds = append(cmds, mockPredictCmd(m.ctx, m.opts.Predictor))
	}
	return tea.Batch(cmds...)
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-10, 3)
		if m.state.ShowResults {
			m.viewport.SetContent(m.resultsContent())
		}
		return m, nil

	case windowMsg:
		window := relay.Message(msg)
		m.latest = &window
		m.summary = heartrate.Summarize(window.HR)
		return m, nil

	case predictionMsg:
		if m.state.View != session.Loading {
			logging.LogEvent("[TUI] prediction %d for %s ignored in %s view", msg.value, msg.window.TS, m.state.View)
			return m, nil
		}
		m.state = session.Receive(m.state, msg.value)
		m.lastErr = nil
		return m, nil

	case predictionErrMsg:
		m.lastErr = msg.error
		return m, nil

	case reachabilityMsg:
		m.connected = bool(msg)
		if m.relayMode() {
			return m, reachabilityCmd(m.opts.Inbox, reachabilityPoll)
		}
		return m, nil

	case spinner.TickMsg:
		if m.state.View != session.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return tea.Quit
	}

	if m.state.ShowResults {
		switch key {
		case "esc", "r":
			m.state = session.CloseResults(m.state)
			return nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	switch m.state.View {
	case session.Prompt:
		switch key {
		case "y":
			return m.answer(true)
		case "n":
			return m.answer(false)
		}

	case session.FollowUp:
		switch key {
		case "r":
			m.state = session.OpenResults(m.state)
			m.viewport.SetContent(m.resultsContent())
			m.viewport.GotoTop()
		case "a":
			m.state = session.AnotherOption(m.state, m.pick)
		case "c", "enter":
			return m.continueLoading()
		}
	}
	return nil
}

func (m *model) answer(yes bool) tea.Cmd {
	next, entry, ok := session.Answer(m.state, yes, m.opts.Rule, m.pick)
	if !ok {
		return nil
	}
	m.state = next
	logging.LogEvent("[TUI] answer yes=%v prediction=%d correct=%v accuracy=%.1f%%", yes, entry.Prediction, entry.Correct, m.state.Accuracy)
	return recordCmd(m.opts.Recorder, entry)
}

func (m *model) continueLoading() tea.Cmd {
	m.state = session.Continue(m.state)
	m.lastErr = nil
	m.loadingSince = time.Now()
	cmds := []tea.Cmd{m.spinner.Tick}
	if !m.relayMode() && m.opts.Predictor != nil {
		cmds = append(cmds, mockPredictCmd(m.ctx, m.opts.Predictor))
	}
	return tea.Batch(cmds...)
}

// Run starts the interaction UI and blocks until the user quits. In relay
// mode windows from opts.Inbox are predicted and fed to the screen.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	var wg sync.WaitGroup
	if m.relayMode() {
		c := companion.New(opts.Predictor, func(r companion.Result) {
			if r.Err != nil {
				p.Send(predictionErrMsg{error: r.Err})
				return
			}
			p.Send(predictionMsg{window: r.Window, value: r.Prediction})
		})
		c.OnWindow = func(msg relay.Message) { p.Send(windowMsg(msg)) }
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Run(ctx, opts.Inbox)
		}()
	}

	_, err := p.Run()
	cancel()
	wg.Wait()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
