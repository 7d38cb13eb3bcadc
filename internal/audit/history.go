package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"arv-go/internal/model"
	"arv-go/internal/store"
)

// History reads back recent audit records for display. This is the
// documented consumer interface of the log files; the Logger itself
// never reads.
func History(st *store.Store, limit int) ([]*model.LogEntry, error) {
	dir := st.LogsDir()
	names, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading logs directory: %w", err)
	}

	var files []string
	for _, d := range names {
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jsonl") {
			files = append(files, d.Name())
		}
	}
	// Period file names sort chronologically; walk newest first and
	// stop once enough records are collected.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	var records []*model.LogEntry
	for _, name := range files {
		entries, err := readLogFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, entries...)
		if limit > 0 && len(records) >= limit {
			break
		}
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID > records[j].ID })
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func readLogFile(path string) ([]*model.LogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	var entries []*model.LogEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e model.LogEntry
		if json.Unmarshal([]byte(line), &e) != nil {
			continue
		}
		entries = append(entries, &e)
	}
	return entries, nil
}
