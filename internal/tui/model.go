package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Fizmath/Agentic-RAG-APP/internal/api"
	"github.com/Fizmath/Agentic-RAG-APP/internal/notify"
	"github.com/Fizmath/Agentic-RAG-APP/internal/ops"
	"github.com/Fizmath/Agentic-RAG-APP/internal/view"
)

// Backend is the TUI-facing subset of the backend client.
type Backend interface {
	Ask(ctx context.Context, question string) (api.AnswerResponse, error)
	InjectURLs(ctx context.Context, urls []string) (api.InjectResponse, error)
	DebugPoints(ctx context.Context, limit int) (json.RawMessage, error)
	MetadataCounts(ctx context.Context) ([]api.CountEntry, error)
	DeleteByURL(ctx context.Context, url string) (api.DeleteResponse, error)
	FetchConfig(ctx context.Context) (api.ServiceConfig, error)
}

// ChatExchange is the current question/answer pair. There is no history:
// each submission overwrites the previous exchange.
type ChatExchange struct {
	Question       string
	Answer         string
	ElapsedSeconds float64
}

type pane int

const (
	paneChat pane = iota
	paneIngest
	paneStore
	paneCounts
	paneCount
)

func (p pane) title() string {
	switch p {
	case paneChat:
		return "Chat"
	case paneIngest:
		return "Ingest"
	case paneStore:
		return "Store"
	case paneCounts:
		return "Counts"
	default:
		return ""
	}
}

const storeErrorText = "Error loading points"

// Model is the Bubble Tea model for the RAG console.
type Model struct {
	backend     Backend
	pointsLimit int

	question textinput.Model
	urls     textarea.Model
	answer   viewport.Model
	store    viewport.Model
	counts   table.Model
	busy     spinner.Model

	focus pane
	ready bool

	chatOp    ops.Tracker
	ingestOp  ops.Tracker
	storeOp   ops.Tracker
	countsOp  ops.Tracker
	configOp  ops.Tracker
	deletions *ops.DeletionSet

	exchange  ChatExchange
	rows      []api.CountEntry
	storeText string
	svc       api.ServiceConfig

	feed *notify.Feed
}

// New creates the console model. pointsLimit caps the raw store query;
// feed receives the transient notices shown in the footer.
func New(backend Backend, pointsLimit int, feed *notify.Feed) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.CharLimit = 0
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "One URL per line; Ctrl+S to ingest"
	ta.CharLimit = 0
	ta.SetHeight(6)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	cols := []table.Column{
		{Title: "URL", Width: 60},
		{Title: "Chunks", Width: 12},
	}
	tbl := table.New(table.WithColumns(cols), table.WithHeight(10))

	return Model{
		backend:     backend,
		pointsLimit: pointsLimit,
		question:    ti,
		urls:        ta,
		answer:      viewport.New(0, 0),
		store:       viewport.New(0, 0),
		counts:      tbl,
		busy:        sp,
		deletions:   ops.NewDeletionSet(),
		storeText:   "Press Enter to load store contents.",
		feed:        feed,
	}
}

// Init starts the cursor blink and spinner and schedules the one-time
// configuration fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.busy.Tick, func() tea.Msg { return bootMsg{} })
}

// Update handles key, window and settlement events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.busy, cmd = m.busy.Update(msg)
		return m, cmd

	case bootMsg:
		return m.fetchConfig()

	case answerMsg:
		if !m.chatOp.Settle(msg.token, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("chat failed: %v", msg.err)
			return m, m.push(notify.Error, "Chat request failed")
		}
		m.exchange.Answer = msg.resp.Answer
		m.exchange.ElapsedSeconds = msg.resp.ProcessingTime
		m.answer.SetContent(m.exchange.Answer)
		m.answer.GotoTop()
		return m, nil

	case injectMsg:
		if !m.ingestOp.Settle(msg.token, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("ingestion failed: %v", msg.err)
			return m, m.push(notify.Error, "URL ingestion failed")
		}
		m.urls.SetValue("")
		level := notify.Success
		if msg.resp.Status == "partial_success" {
			level = notify.Warning
		}
		text := msg.resp.Message
		if text == "" {
			text = "URLs submitted"
		}
		return m, m.push(level, text)

	case pointsMsg:
		if !m.storeOp.Settle(msg.token, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("store query failed: %v", msg.err)
			m.storeText = storeErrorText
			m.store.SetContent(m.storeText)
			return m, m.push(notify.Error, "Failed to load store contents")
		}
		text, err := view.PrettyJSON(msg.raw)
		if err != nil {
			text = string(msg.raw)
		}
		m.storeText = text
		m.store.SetContent(m.storeText)
		m.store.GotoTop()
		return m, nil

	case countsMsg:
		if !m.countsOp.Settle(msg.token, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("metadata counts failed: %v", msg.err)
			return m, m.push(notify.Error, "Failed to load metadata counts")
		}
		m.rows = view.SortedCounts(msg.entries)
		m.refreshTable()
		return m, nil

	case deleteMsg:
		if !m.deletions.Settle(msg.url, msg.token, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("delete %s failed: %v", msg.url, msg.err)
			m.refreshTable()
			return m, m.push(notify.Error, "Failed to delete "+msg.url)
		}
		m.rows = view.RemoveURL(m.rows, msg.url)
		m.refreshTable()
		return m, m.push(notify.Success, "Deleted "+msg.url)

	case configMsg:
		if !m.configOp.Settle(msg.token, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			log.Printf("config fetch failed: %v", msg.err)
			return m, m.push(notify.Error, "Failed to load service config")
		}
		m.svc = msg.cfg
		return m, nil

	case noticeExpiredMsg:
		m.feed.Expire(msg.id)
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
		return m, tea.Quit
	}
	switch msg.String() {
	case "tab":
		return m.setFocus((m.focus + 1) % paneCount), nil
	case "shift+tab":
		return m.setFocus((m.focus + paneCount - 1) % paneCount), nil
	case "ctrl+g":
		return m.fetchConfig()
	}

	switch m.focus {
	case paneChat:
		if msg.String() == "enter" {
			return m.submitQuestion()
		}
	case paneIngest:
		if msg.Type == tea.KeyCtrlS {
			return m.submitURLs()
		}
	case paneStore:
		if msg.String() == "enter" {
			return m.queryRawStore()
		}
	case paneCounts:
		switch msg.String() {
		case "r", "enter":
			return m.fetchCounts()
		case "d":
			return m.deleteSelected()
		}
	}
	return m.updateFocused(msg)
}

// Dispatch helpers. Each transitions its state machine to Busy and hands
// the dispatch token to the command; overlapping dispatches are allowed
// and the token decides whose settlement wins.

func (m Model) submitQuestion() (Model, tea.Cmd) {
	// The question is sent as-is, empty included; the backend accepts
	// any string.
	q := m.question.Value()
	token := m.chatOp.Begin()
	m.exchange = ChatExchange{Question: q}
	m.answer.SetContent("")
	return m, askCmd(m.backend, token, q)
}

func (m Model) submitURLs() (Model, tea.Cmd) {
	urls := view.SplitURLs(m.urls.Value())
	if len(urls) == 0 {
		return m, m.push(notify.Warning, "No URLs to ingest")
	}
	token := m.ingestOp.Begin()
	return m, injectCmd(m.backend, token, urls)
}

func (m Model) queryRawStore() (Model, tea.Cmd) {
	token := m.storeOp.Begin()
	return m, pointsCmd(m.backend, token, m.pointsLimit)
}

func (m Model) fetchCounts() (Model, tea.Cmd) {
	token := m.countsOp.Begin()
	return m, countsCmd(m.backend, token)
}

func (m Model) fetchConfig() (Model, tea.Cmd) {
	token := m.configOp.Begin()
	return m, configCmd(m.backend, token)
}

func (m Model) deleteSelected() (Model, tea.Cmd) {
	if len(m.rows) == 0 {
		return m, nil
	}
	row := m.counts.SelectedRow()
	if row == nil {
		return m, nil
	}
	url := row[0]
	token := m.deletions.Begin(url)
	m.refreshTable()
	return m, deleteCmd(m.backend, url, token)
}

// deleteURL issues a deletion for an arbitrary url, present in the local
// collection or not; the backend call proceeds either way.
func (m Model) deleteURL(url string) (Model, tea.Cmd) {
	token := m.deletions.Begin(url)
	m.refreshTable()
	return m, deleteCmd(m.backend, url, token)
}

func (m *Model) push(level notify.Level, text string) tea.Cmd {
	n := m.feed.Push(level, text)
	return expireCmd(n.ID, m.feed.TTL())
}

func (m *Model) refreshTable() {
	rows := make([]table.Row, 0, len(m.rows))
	for _, e := range m.rows {
		count := strconv.Itoa(e.Count)
		if m.deletions.Busy(e.URL) {
			count = "deleting"
		}
		rows = append(rows, table.Row{e.URL, count})
	}
	m.counts.SetRows(rows)
}

func (m Model) setFocus(p pane) Model {
	m.focus = p
	m.question.Blur()
	m.urls.Blur()
	m.counts.Blur()
	switch p {
	case paneChat:
		m.question.Focus()
	case paneIngest:
		m.urls.Focus()
	case paneCounts:
		m.counts.Focus()
	}
	return m
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneChat:
		var cmds []tea.Cmd
		m.question, cmd = m.question.Update(msg)
		cmds = append(cmds, cmd)
		m.answer, cmd = m.answer.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	case paneIngest:
		m.urls, cmd = m.urls.Update(msg)
		return m, cmd
	case paneStore:
		m.store, cmd = m.store.Update(msg)
		return m, cmd
	case paneCounts:
		m.counts, cmd = m.counts.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(msg tea.WindowSizeMsg) {
	m.ready = true

	frameW, frameH := contentBoxStyle.GetFrameSize()
	// header + tabs + chat input row + footer notices + help
	reserved := 2 + 1 + 3 + m.feed.Max() + 1 + frameH
	vh := msg.Height - reserved
	if vh < 3 {
		vh = 3
	}
	cw := max(20, msg.Width-frameW)

	m.answer.Width = cw
	m.answer.Height = vh
	m.store.Width = cw
	m.store.Height = vh
	m.urls.SetWidth(cw)
	m.counts.SetHeight(vh)

	urlW := cw - 14
	if urlW < 20 {
		urlW = 20
	}
	m.counts.SetColumns([]table.Column{
		{Title: "URL", Width: urlW},
		{Title: "Chunks", Width: 12},
	})
	m.answer.SetContent(m.exchange.Answer)
	m.store.SetContent(m.storeText)
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("Agentic RAG Console")
	info := dimStyle.Render(m.renderInfo())
	tabs := m.renderTabs()
	body := m.renderBody()
	footer := m.renderFooter()
	return header + "\n" + info + "\n" + tabs + "\n" + body + "\n" + footer
}

func (m Model) renderInfo() string {
	llm, emb := m.svc.LLMModel, m.svc.EmbeddingsModel
	if llm == "" {
		llm = "-"
	}
	if emb == "" {
		emb = "-"
	}
	latency := "-"
	if m.exchange.Answer != "" {
		latency = fmt.Sprintf("%.2fs", m.exchange.ElapsedSeconds)
	}
	return fmt.Sprintf("llm: %s  embeddings: %s  last answer: %s", llm, emb, latency)
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, int(paneCount))
	for p := paneChat; p < paneCount; p++ {
		label := p.title()
		if m.paneBusy(p) {
			label += " " + m.busy.View()
		}
		if p == m.focus {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) paneBusy(p pane) bool {
	switch p {
	case paneChat:
		return m.chatOp.Busy()
	case paneIngest:
		return m.ingestOp.Busy()
	case paneStore:
		return m.storeOp.Busy()
	case paneCounts:
		return m.countsOp.Busy() || m.deletions.AnyBusy()
	}
	return false
}

func (m Model) renderBody() string {
	switch m.focus {
	case paneChat:
		input := inputBoxStyle.Render(m.question.View())
		answer := contentBoxStyle.Render(m.answer.View())
		return input + "\n" + answer
	case paneIngest:
		return contentBoxStyle.Render(m.urls.View())
	case paneStore:
		return contentBoxStyle.Render(m.store.View())
	case paneCounts:
		return contentBoxStyle.Render(m.counts.View())
	}
	return ""
}

func (m Model) renderFooter() string {
	var lines []string
	for _, n := range m.feed.Active() {
		lines = append(lines, noticeStyle(n.Level).Render(n.Text))
	}
	lines = append(lines, dimStyle.Render(m.helpLine()))
	return strings.Join(lines, "\n")
}

func (m Model) helpLine() string {
	switch m.focus {
	case paneChat:
		return "enter ask | tab switch pane | ctrl+c quit"
	case paneIngest:
		return "ctrl+s ingest urls | tab switch pane | ctrl+c quit"
	case paneStore:
		return "enter load points | up/down scroll | tab switch pane | ctrl+c quit"
	case paneCounts:
		return "r refresh | d delete selected | tab switch pane | ctrl+c quit"
	}
	return ""
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	tabStyle        = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle  = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("12"))
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	contentBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func noticeStyle(l notify.Level) lipgloss.Style {
	switch l {
	case notify.Success:
		return successStyle
	case notify.Warning:
		return warningStyle
	case notify.Error:
		return errorStyle
	default:
		return dimStyle
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
