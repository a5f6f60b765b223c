package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/nlfind/internal/query"
)

// debounceInterval is the delay after the last keystroke before a
// search is started.
const debounceInterval = 100 * time.Millisecond

// viewState represents the current state of the view's state machine.
type viewState int

const (
	stateIdle      viewState = iota // Initial state before first search
	stateLoading                    // Search in progress
	stateLoaded                     // Results present (len > 0)
	stateEmpty                      // Search succeeded with 0 matches
	stateError                      // Search failed
	stateCancelled                  // User cancelled (Esc / Ctrl+C)
)

// searchDoneMsg is sent when an async Searcher.Search completes.
type searchDoneMsg struct {
	requestID uint64
	result    *query.SearchResult
	err       error
}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match current debounceID to be accepted
}

// initMsg is sent by Init() to trigger the first search via Update(),
// ensuring state mutations are visible to the Bubble Tea runtime.
type initMsg struct{}

// Model is the Bubble Tea model for the interactive search view.
type Model struct {
	state     viewState
	input     textinput.Model
	spin      spinner.Model
	records   []query.FileInfo
	selection int // Index into records; -1 when empty
	err       error

	total     int
	backend   string
	elapsed   time.Duration
	truncated bool

	requestID uint64 // Monotonic counter for stale detection
	searcher  Searcher

	width  int // Terminal width
	height int // Terminal height

	// result holds the selected path after the user presses Enter.
	result string

	// cancelSearch cancels the in-flight Searcher.Search context.
	cancelSearch context.CancelFunc

	// debounceID tracks the latest debounce timer; only a matching
	// debounceMsg will trigger a search.
	debounceID uint64
}

// NewModel creates a new search view Model.
func NewModel(searcher Searcher, initial string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "name, *.ext, or a phrase to find"
	ti.SetValue(initial)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		state:     stateIdle,
		input:     ti,
		spin:      sp,
		selection: -1,
		searcher:  searcher,
	}
}

// Result returns the selected path, or "" if cancelled.
func (m Model) Result() string {
	return m.result
}

// Init implements tea.Model. It sends an initMsg so that the first
// search is triggered through Update, where state mutations are
// properly captured.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if msg.Width > 4 {
			m.input.Width = msg.Width - 4
		}
		return m, nil

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case debounceMsg:
		return m.handleDebounce(msg)

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case initMsg:
		return m, m.startSearch()
	}

	// Cursor blink and other component messages go to the input.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyEnter:
		if m.selection >= 0 && m.selection < len(m.records) {
			m.result = m.records[m.selection].Path
		}
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyUp:
		if m.selection > 0 {
			m.selection--
		}
		return m, nil

	case tea.KeyDown:
		if m.selection < len(m.records)-1 {
			m.selection++
		}
		return m, nil
	}

	// Everything else edits the input line.
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return m, tea.Batch(cmd, m.startDebounce())
	}
	return m, cmd
}

// handleSearchDone processes the result of an async search.
func (m Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	// Discard stale responses.
	if msg.requestID != m.requestID {
		return m, nil
	}

	if msg.err != nil {
		m.state = stateError
		m.err = msg.err
		m.records = nil
		m.selection = -1
		return m, nil
	}

	m.records = msg.result.Records
	m.total = msg.result.TotalCount
	m.backend = msg.result.Backend
	m.elapsed = msg.result.Elapsed
	m.truncated = msg.result.Truncated

	if len(m.records) == 0 {
		m.state = stateEmpty
		m.selection = -1
	} else {
		m.state = stateLoaded
		m.clampSelection()
	}

	return m, nil
}

// handleDebounce starts the search if the debounce timer is still current.
func (m Model) handleDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.debounceID {
		return m, nil // Stale debounce timer; ignore.
	}
	return m, m.startSearch()
}

// startDebounce increments the debounce counter and returns a tea.Tick
// command that fires after debounceInterval.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// startSearch cancels any in-flight search, increments requestID, and
// returns a tea.Cmd that calls the searcher.
func (m *Model) startSearch() tea.Cmd {
	m.cancelInflight()
	m.requestID++
	m.state = stateLoading

	reqID := m.requestID
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelSearch = cancel

	text := m.input.Value()
	limit := m.listHeight()
	s := m.searcher
	run := func() tea.Msg {
		res, err := s.Search(ctx, text, limit)
		if err != nil {
			return searchDoneMsg{requestID: reqID, err: err}
		}
		return searchDoneMsg{requestID: reqID, result: res}
	}
	return tea.Batch(run, m.spin.Tick)
}

// cancelInflight cancels any in-progress search context.
func (m *Model) cancelInflight() {
	if m.cancelSearch != nil {
		m.cancelSearch()
		m.cancelSearch = nil
	}
}

// clampSelection ensures the selection index is within bounds.
func (m *Model) clampSelection() {
	if len(m.records) == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 {
		m.selection = 0
	}
	if m.selection >= len(m.records) {
		m.selection = len(m.records) - 1
	}
}

// listHeight returns the number of visible result rows (terminal
// height minus input and status lines).
func (m Model) listHeight() int {
	// 1 row for the input line, 1 blank, 1 row for status
	const chrome = 3
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	metaStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteRune('\n')

	b.WriteString(m.viewContent())
	b.WriteRune('\n')

	b.WriteString(m.viewStatus())

	return b.String()
}

// viewContent renders the result list or a status message.
func (m Model) viewContent() string {
	switch m.state {
	case stateIdle, stateLoading:
		return m.spin.View() + dimStyle.Render("searching")

	case stateEmpty:
		return dimStyle.Render("No matches")

	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		return errorStyle.Render(msg)

	case stateCancelled:
		return dimStyle.Render("Cancelled")

	case stateLoaded:
		return m.viewList()

	default:
		return ""
	}
}

// viewList renders the result rows with selection marker.
func (m Model) viewList() string {
	var b strings.Builder
	maxItems := m.listHeight()
	for i, rec := range m.records {
		if i >= maxItems {
			break
		}

		meta := fmt.Sprintf("%9s  %s", query.FormatSize(rec.Size), rec.Modified.Format("2006-01-02 15:04"))
		display := ValidateUTF8(StripANSI(rec.Path))
		if avail := m.width - len(meta) - 6; avail > 0 {
			display = MiddleTruncate(display, avail)
		}

		if i == m.selection {
			b.WriteString(selectedStyle.Render("> "+display) + "  " + metaStyle.Render(meta))
		} else {
			b.WriteString(normalStyle.Render("  "+display) + "  " + metaStyle.Render(meta))
		}
		if i < len(m.records)-1 && i < maxItems-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

// viewStatus renders the bottom status line.
func (m Model) viewStatus() string {
	if m.state != stateLoaded {
		return dimStyle.Render("enter select - esc quit")
	}

	shown := len(m.records)
	status := fmt.Sprintf("%d of %d matches", shown, m.total)
	if m.backend != "" {
		status += fmt.Sprintf(" - %s", m.backend)
	}
	status += fmt.Sprintf(" - %dms", m.elapsed.Milliseconds())
	return dimStyle.Render(status)
}
