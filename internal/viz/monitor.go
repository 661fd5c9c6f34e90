package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/qcdsim/internal/propagator"
	"github.com/san-kum/qcdsim/internal/solvers"
)

const historyCapacity = 600

// IterationMsg carries one solver iteration into the monitor.
type IterationMsg struct {
	Iter     int
	Residual float64
}

// DoneMsg ends a monitored run.
type DoneMsg struct {
	Result     *propagator.Result
	TimeSlices []float64
	Err        error
}

type TickMsg time.Time

// Monitor is a Bubble Tea model following the inversions of a propagator
// run. A new inversion is detected when the iteration counter restarts.
type Monitor struct {
	title      string
	theme      Theme
	total      int
	inversion  int
	iter       int
	residual   float64
	history    []float64
	finals     []float64
	start      time.Time
	elapsed    time.Duration
	done       bool
	result     *propagator.Result
	timeSlices []float64
	err        error
	showHelp   bool
}

// NewMonitor returns a monitor expecting total inversions.
func NewMonitor(title string, total int, theme Theme) Monitor {
	return Monitor{
		title:   title,
		theme:   theme,
		total:   total,
		history: make([]float64, 0, historyCapacity),
		start:   time.Now(),
	}
}

func (m Monitor) Inversion() int         { return m.inversion }
func (m Monitor) Iteration() int         { return m.iter }
func (m Monitor) Residual() float64      { return m.residual }
func (m Monitor) Finals() []float64      { return m.finals }
func (m Monitor) Done() bool             { return m.done }
func (m Monitor) Err() error             { return m.err }
func (m Monitor) Theme() Theme           { return m.theme }
func (m Monitor) History() []float64     { return m.history }
func (m Monitor) Elapsed() time.Duration { return m.elapsed }

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Monitor) Init() tea.Cmd {
	return tick()
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if m.done {
				return m, tea.Quit
			}
		case "t":
			m.theme = m.theme.Next()
		case "?":
			m.showHelp = !m.showHelp
		}
	case IterationMsg:
		m.observe(msg)
	case DoneMsg:
		m.finish(msg)
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.elapsed = time.Since(m.start)
		return m, tick()
	}
	return m, nil
}

func (m *Monitor) observe(msg IterationMsg) {
	if m.inversion == 0 || msg.Iter <= m.iter {
		if m.inversion > 0 {
			m.finals = append(m.finals, m.residual)
		}
		m.inversion++
		m.history = m.history[:0]
	}
	m.iter = msg.Iter
	m.residual = msg.Residual
	if len(m.history) == historyCapacity {
		copy(m.history, m.history[1:])
		m.history = m.history[:historyCapacity-1]
	}
	m.history = append(m.history, msg.Residual)
}

func (m *Monitor) finish(msg DoneMsg) {
	m.done = true
	m.err = msg.Err
	m.result = msg.Result
	m.timeSlices = msg.TimeSlices
	m.elapsed = time.Since(m.start)
	if msg.Result != nil {
		m.finals = m.finals[:0]
		for _, inv := range msg.Result.Inversions {
			m.finals = append(m.finals, inv.Residual)
		}
		m.inversion = len(msg.Result.Inversions)
	}
}

func (m Monitor) View() string {
	var s strings.Builder
	s.WriteString(m.theme.Title().Render(strings.ToUpper(m.title)) + "\n")

	switch {
	case m.err != nil:
		s.WriteString(StatusFailed.Render("FAILED: "+m.err.Error()) + "\n\n")
	case m.done:
		s.WriteString(Status(m.result == nil || m.result.Converged()) + "\n\n")
	default:
		s.WriteString(StatusRunning.Render("INVERTING") + "\n\n")
	}

	frac := 0.0
	if m.total > 0 {
		frac = float64(min(m.inversion, m.total)) / float64(m.total)
	}
	s.WriteString(ProgressBar(frac, 30) + fmt.Sprintf(" %d/%d\n\n", min(m.inversion, m.total), m.total))

	s.WriteString(Field("Iteration", fmt.Sprintf("%d", m.iter)) + "\n")
	s.WriteString(Field("Residual", fmt.Sprintf("%.3e", m.residual)) + "\n")
	s.WriteString(Field("Elapsed", m.elapsed.Round(time.Millisecond).String()) + "\n")

	if data := Log10Series(m.history); len(data) > 1 && !m.done {
		chart := asciigraph.Plot(data, asciigraph.Height(6), asciigraph.Width(50), asciigraph.Caption("log10 residual"))
		s.WriteString(m.theme.Graph().Render(chart) + "\n")
	}
	if len(m.finals) > 0 {
		s.WriteString("\n" + MetricLabel.Render("Final") + SparklineChart(m.finals, len(m.finals)) + "\n")
	}
	if m.done && len(m.timeSlices) > 1 {
		s.WriteString(m.theme.Graph().Render(DecayPlot(m.timeSlices)) + "\n")
	}

	if m.showHelp {
		s.WriteString("\n" + m.theme.Hint().Render("t cycle theme   ? toggle help   q quit") + "\n")
	} else if m.done {
		s.WriteString("\n" + m.theme.Hint().Render("enter to exit") + "\n")
	} else {
		s.WriteString("\n" + m.theme.Hint().Render("? help") + "\n")
	}
	return GlassPanel.Render(s.String())
}

// Observer forwards solver iterations to a running program.
func Observer(p *tea.Program) solvers.Observer {
	return solvers.ObserverFunc(func(iter int, residual float64) {
		p.Send(IterationMsg{Iter: iter, Residual: residual})
	})
}

// RunFunc performs the monitored work, reporting iterations to obs.
type RunFunc func(obs solvers.Observer) (*propagator.Result, []float64, error)

// RunMonitor starts the monitor, runs work in the background and returns
// once the user exits. The error is that of work, if any.
func RunMonitor(title string, total int, theme Theme, work RunFunc) error {
	p := tea.NewProgram(NewMonitor(title, total, theme))
	go func() {
		res, slices, err := work(Observer(p))
		p.Send(DoneMsg{Result: res, TimeSlices: slices, Err: err})
	}()
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Monitor); ok {
		return fm.err
	}
	return nil
}
