package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

const maxHistoryLines = 500

// history is the shell's line history, persisted one line per entry.
// File errors are ignored; history is a convenience.
type history struct {
	path    string
	entries []string
	cursor  int
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".itopnl", "shell_history")
}

// loadHistory reads path, keeping the most recent entries. An empty path
// gives an in-memory history.
func loadHistory(path string) *history {
	h := &history{path: path}
	if path != "" {
		if f, err := os.Open(path); err == nil {
			sc := bufio.NewScanner(f)
			for sc.Scan() {
				if line := strings.TrimSpace(sc.Text()); line != "" {
					h.entries = append(h.entries, line)
				}
			}
			f.Close()
		}
	}
	if n := len(h.entries); n > maxHistoryLines {
		h.entries = h.entries[n-maxHistoryLines:]
	}
	h.cursor = len(h.entries)
	return h
}

func (h *history) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	h.entries = append(h.entries, line)
	h.cursor = len(h.entries)
	if h.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(line + "\n")
}

// prev moves back one entry; ok is false at the oldest entry.
func (h *history) prev() (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// next moves forward one entry; past the newest it yields "".
func (h *history) next() string {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return ""
	}
	h.cursor++
	return h.entries[h.cursor]
}
