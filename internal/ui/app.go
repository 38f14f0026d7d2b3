package ui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/hackerstories/internal/logging"
	"github.com/abelbrown/hackerstories/internal/metrics"
	"github.com/abelbrown/hackerstories/internal/otel"
	"github.com/abelbrown/hackerstories/internal/session"
)

// searchRequested asks the App to submit a search. Init uses it for the
// startup search so the request goes through Update like any other.
type searchRequested struct {
	Term string
}

// AppConfig wires the App to the rest of the program.
type AppConfig struct {
	// Controller owns session state. Nil creates a fresh one.
	Controller *session.Controller
	// FetchPage returns a command that performs req and replies with
	// PageLoaded. See FetchWith.
	FetchPage func(ctx context.Context, req session.Request) tea.Cmd
	// InitialTerm is searched on startup when non-empty.
	InitialTerm string

	Events  *otel.Logger
	Ring    *otel.RingBuffer
	Metrics *metrics.Metrics
}

// App is the root Bubble Tea model.
// App does no I/O itself: fetches run as commands and return as PageLoaded.
type App struct {
	ctrl        *session.Controller
	fetchPage   func(ctx context.Context, req session.Request) tea.Cmd
	initialTerm string
	events      *otel.Logger
	ring        *otel.RingBuffer
	metrics     *metrics.Metrics

	keys     keyMap
	input    textinput.Model
	spin     spinner.Model
	spinning bool
	cancel   context.CancelFunc // cancels the outstanding fetch

	cursor    int
	width     int
	height    int
	ready     bool
	showDebug bool
}

// NewApp creates an App from cfg.
func NewApp(cfg AppConfig) App {
	ctrl := cfg.Controller
	if ctrl == nil {
		ctrl = session.New(session.MaxRecent)
	}

	ti := textinput.New()
	ti.Prompt = "Search: "
	ti.Placeholder = "Hacker News stories"
	ti.CharLimit = 256
	ti.SetValue(cfg.InitialTerm)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return App{
		ctrl:        ctrl,
		fetchPage:   cfg.FetchPage,
		initialTerm: cfg.InitialTerm,
		events:      cfg.Events,
		ring:        cfg.Ring,
		metrics:     cfg.Metrics,
		keys:        defaultKeyMap(),
		input:       ti,
		spin:        sp,
	}
}

// Init starts the initial search, if one is configured.
func (a App) Init() tea.Cmd {
	if a.initialTerm == "" {
		return nil
	}
	term := a.initialTerm
	return func() tea.Msg { return searchRequested{Term: term} }
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(msg.Width-lipgloss.Width(a.input.Prompt)-4, 10)
		a.ready = true
		return a, nil

	case searchRequested:
		return a.submit(msg.Term, false)

	case PageLoaded:
		return a.handlePageLoaded(msg)

	case spinner.TickMsg:
		if !a.ctrl.Busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	if a.input.Focused() {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKey, Msg: msg.String()})
	}

	if key.Matches(msg, a.keys.ForceQuit) {
		return a.quit()
	}

	if a.showDebug {
		switch {
		case key.Matches(msg, a.keys.Debug):
			a.showDebug = false
		case key.Matches(msg, a.keys.Quit):
			return a.quit()
		}
		return a, nil
	}

	for i, b := range a.keys.Recent {
		if key.Matches(msg, b) {
			return a.selectRecent(i)
		}
	}

	if a.input.Focused() {
		switch {
		case key.Matches(msg, a.keys.Submit):
			a.input.Blur()
			return a.submit(a.input.Value(), false)
		case key.Matches(msg, a.keys.Blur):
			a.input.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}

	n := a.ctrl.Len()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()

	case key.Matches(msg, a.keys.Focus):
		cmd := a.input.Focus()
		return a, cmd

	case key.Matches(msg, a.keys.Debug):
		a.showDebug = true
		return a, nil

	case key.Matches(msg, a.keys.Down):
		if a.cursor < n-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Bottom):
		if n > 0 {
			a.cursor = n - 1
		}
		return a, nil

	case key.Matches(msg, a.keys.More):
		req, ok := a.ctrl.LoadMore()
		if !ok {
			return a, nil
		}
		a.metrics.SearchIssued("more")
		a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchMore, QueryID: req.QueryID, Term: req.Term, Page: req.Page})
		return a.dispatch(req)

	case key.Matches(msg, a.keys.Dismiss):
		if a.cursor >= n {
			return a, nil
		}
		// The cursor indexes the projected order.
		s := a.ctrl.Snapshot().Stories[a.cursor]
		if a.ctrl.Dismiss(s.ObjectID) {
			a.metrics.Dismissed()
			a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindDismiss, QueryID: a.ctrl.QueryID(), Msg: s.ObjectID})
			a.clampCursor()
		}
		return a, nil
	}

	for i, b := range a.keys.SortBy {
		if key.Matches(msg, b) {
			if a.ctrl.Reorder(sortKeys[i]) {
				s := a.ctrl.Sort()
				a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSort, Msg: fmt.Sprintf("%s %s", s.Key, s.Dir)})
				a.cursor = 0
			}
			return a, nil
		}
	}

	return a, nil
}

// submit starts a new search for term.
func (a App) submit(term string, recent bool) (tea.Model, tea.Cmd) {
	var (
		req session.Request
		err error
	)
	if recent {
		req, err = a.ctrl.SelectRecent(term)
	} else {
		req, err = a.ctrl.SubmitSearch(term)
	}
	if err != nil {
		a.emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindSearchInvalid, Err: err.Error()})
		return a, nil
	}

	kind := "submit"
	if recent {
		kind = "recent"
	}
	a.metrics.SearchIssued(kind)
	a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchSubmit, QueryID: req.QueryID, Term: req.Term, Msg: kind})
	a.cursor = 0
	return a.dispatch(req)
}

func (a App) selectRecent(i int) (tea.Model, tea.Cmd) {
	terms := a.ctrl.Recent()
	if i >= len(terms) {
		return a, nil
	}
	a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRecent, Term: terms[i], Count: i + 1})
	a.input.SetValue(terms[i])
	a.input.Blur()
	return a.submit(terms[i], true)
}

// dispatch runs req, cancelling any fetch it supersedes.
func (a App) dispatch(req session.Request) (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchCancel, Msg: "superseded"})
	}
	ctx, cancel := context.WithCancel(otel.WithQueryID(context.Background(), req.QueryID))
	a.cancel = cancel

	var cmds []tea.Cmd
	if a.fetchPage != nil {
		cmds = append(cmds, a.fetchPage(ctx, req))
	}
	if !a.spinning {
		a.spinning = true
		cmds = append(cmds, a.spin.Tick)
	}
	return a, tea.Batch(cmds...)
}

func (a App) handlePageLoaded(msg PageLoaded) (tea.Model, tea.Cmd) {
	req := msg.Req
	err := a.ctrl.Complete(req, msg.Page, msg.Err)
	if errors.Is(err, session.ErrStaleResponse) {
		a.metrics.StaleDropped()
		a.emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindSearchStale, QueryID: req.QueryID, Term: req.Term, Page: req.Page})
		return a, nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if err != nil {
		logging.Error("complete page", "term", req.Term, "page", req.Page, "error", err)
		return a, nil
	}

	if a.ctrl.State() == session.Error {
		logging.Warn("search failed", "term", req.Term, "page", req.Page, "error", msg.Err)
		a.emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSearchError, QueryID: req.QueryID, Term: req.Term, Page: req.Page, Err: msg.Err.Error()})
		a.cursor = 0
		return a, nil
	}

	a.emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSearchComplete, QueryID: req.QueryID, Term: req.Term, Page: req.Page, Count: len(msg.Page.Stories)})
	a.clampCursor()
	return a, nil
}

func (a App) quit() (tea.Model, tea.Cmd) {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	return a, tea.Quit
}

func (a *App) clampCursor() {
	n := a.ctrl.Len()
	if a.cursor >= n {
		a.cursor = max(n-1, 0)
	}
}

func (a App) emit(e otel.Event) {
	if a.events == nil {
		return
	}
	if e.Comp == "" {
		e.Comp = "ui"
	}
	a.events.Emit(e)
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		return debugOverlay(a.ring, a.ctrl.QueryID(), a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	snap := a.ctrl.Snapshot()

	top := []string{SearchBar.Width(a.width).Render(a.input.View())}
	if r := RenderRecent(snap.Recent, a.width); r != "" {
		top = append(top, r)
	}
	if snap.Banner != "" {
		top = append(top, ErrorStyle.Width(a.width).Render(snap.Banner))
	}

	var footer string
	switch {
	case snap.State == session.LoadingMore:
		footer = MoreButton.Render(a.spin.View() + " Loading more ...")
	case snap.State == session.Loaded && snap.HasMore:
		footer = MoreButton.Render("m: More")
	}

	status := RenderStatusBar(snap, a.cursor, a.width, a.spin.View())

	used := len(top) + 1 // status bar
	if footer != "" {
		used++
	}

	var body string
	switch {
	case snap.State == session.Loading:
		body = HelpStyle.Render(a.spin.View() + " Loading ...")
	case snap.State == session.Error:
		body = HelpStyle.Render("Press / to search again.")
	case snap.State == session.Loaded && len(snap.Stories) == 0:
		body = HelpStyle.Render(fmt.Sprintf("No stories found for %q.", snap.Term))
	case len(snap.Stories) > 0:
		header := RenderColumnHeader(snap.Sort, a.width)
		body = header + "\n" + RenderStories(snap.Stories, a.cursor, a.width, a.height-used-1)
	default:
		body = RenderStories(nil, 0, a.width, 0)
	}

	parts := append(top, body)
	if footer != "" {
		parts = append(parts, footer)
	}
	parts = append(parts, status)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Snapshot returns the controller's current view (for testing).
func (a App) Snapshot() session.Snapshot {
	return a.ctrl.Snapshot()
}

// Searching reports whether the search input has focus.
func (a App) Searching() bool {
	return a.input.Focused()
}
