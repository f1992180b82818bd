package tui

import (
	"context"
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/Fizmath/Agentic-RAG-APP/internal/api"
)

// bootMsg fires once after the program starts and triggers the initial
// configuration fetch.
type bootMsg struct{}

// Settlement messages. Each carries the dispatch token so the Update loop
// can discard results superseded by a newer dispatch of the same
// operation.
type (
	answerMsg struct {
		token int
		resp  api.AnswerResponse
		err   error
	}
	injectMsg struct {
		token int
		resp  api.InjectResponse
		err   error
	}
	pointsMsg struct {
		token int
		raw   json.RawMessage
		err   error
	}
	countsMsg struct {
		token   int
		entries []api.CountEntry
		err     error
	}
	deleteMsg struct {
		url   string
		token int
		resp  api.DeleteResponse
		err   error
	}
	configMsg struct {
		token int
		cfg   api.ServiceConfig
		err   error
	}
	noticeExpiredMsg struct {
		id uuid.UUID
	}
)

// The commands below run off the Update loop; only their settlement
// messages touch model state. No cancellation: a dispatched call always
// settles, and staleness is handled at settlement via tokens.

func askCmd(b Backend, token int, question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.Ask(context.Background(), question)
		return answerMsg{token: token, resp: resp, err: err}
	}
}

func injectCmd(b Backend, token int, urls []string) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.InjectURLs(context.Background(), urls)
		return injectMsg{token: token, resp: resp, err: err}
	}
}

func pointsCmd(b Backend, token, limit int) tea.Cmd {
	return func() tea.Msg {
		raw, err := b.DebugPoints(context.Background(), limit)
		return pointsMsg{token: token, raw: raw, err: err}
	}
}

func countsCmd(b Backend, token int) tea.Cmd {
	return func() tea.Msg {
		entries, err := b.MetadataCounts(context.Background())
		return countsMsg{token: token, entries: entries, err: err}
	}
}

func deleteCmd(b Backend, url string, token int) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.DeleteByURL(context.Background(), url)
		return deleteMsg{url: url, token: token, resp: resp, err: err}
	}
}

func configCmd(b Backend, token int) tea.Cmd {
	return func() tea.Msg {
		cfg, err := b.FetchConfig(context.Background())
		return configMsg{token: token, cfg: cfg, err: err}
	}
}

func expireCmd(id uuid.UUID, ttl time.Duration) tea.Cmd {
	return tea.Tick(ttl, func(time.Time) tea.Msg { return noticeExpiredMsg{id: id} })
}
