// Package view derives display data from raw backend responses. Every
// function is pure: callers own the state, view owns the transforms.
package view

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/Fizmath/Agentic-RAG-APP/internal/api"
)

// SortedCounts orders entries by count descending. The sort is stable:
// equal counts keep the order the backend emitted them in.
func SortedCounts(entries []api.CountEntry) []api.CountEntry {
	out := make([]api.CountEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// RemoveURL returns entries without the one matching url exactly. Used for
// the optimistic removal after a successful deletion; when the url is
// absent the input comes back unchanged.
func RemoveURL(entries []api.CountEntry, url string) []api.CountEntry {
	out := make([]api.CountEntry, 0, len(entries))
	for _, e := range entries {
		if e.URL == url {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SplitURLs turns raw multi-line input into the url list to submit: one
// url per line, trimmed, blank lines dropped, order preserved.
func SplitURLs(raw string) []string {
	var urls []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

// PrettyJSON re-indents an opaque JSON document for display.
func PrettyJSON(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}
