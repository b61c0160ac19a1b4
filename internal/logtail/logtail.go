package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded JSON log line.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	Error     string
}

// Parse decodes a line written by the JSON slog handler. It reports false
// for blank lines and anything that is not a JSON object with a msg.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw struct {
		Time      string `json:"time"`
		Level     string `json:"level"`
		Msg       string `json:"msg"`
		Component string `json:"component"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil || raw.Msg == "" {
		return Entry{}, false
	}
	entry := Entry{
		Level:     strings.ToUpper(raw.Level),
		Message:   raw.Msg,
		Component: raw.Component,
		Error:     raw.Error,
	}
	if t, err := time.Parse(time.RFC3339Nano, raw.Time); err == nil {
		entry.Time = t
	}
	return entry, true
}

// Recent returns the last n parseable entries from the log at path, oldest
// first. Lines that do not parse are skipped.
func Recent(path string, n int) ([]Entry, error) {
	// Over-read so a few unparseable lines do not starve the result.
	lines, err := Read(path, n*4)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, n)
	for _, line := range lines {
		if entry, ok := Parse(line); ok {
			entries = append(entries, entry)
		}
	}
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// String renders the entry as "15:04:05 LEVEL [component] message: error".
func (e Entry) String() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(e.Level)
		b.WriteByte(' ')
	}
	if e.Component != "" {
		fmt.Fprintf(&b, "[%s] ", e.Component)
	}
	b.WriteString(e.Message)
	if e.Error != "" {
		b.WriteString(": ")
		b.WriteString(e.Error)
	}
	return b.String()
}
