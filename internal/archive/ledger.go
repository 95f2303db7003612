// Package archive persists the set of already-processed item ids so that
// repeated runs skip finished work without any network call.
package archive

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// Ledger is an append-only id set backed by a flat file, one id per line.
// Ids are never removed. Safe for concurrent use.
type Ledger struct {
	path string

	mu  sync.Mutex
	ids map[string]struct{}
}

// Open loads an existing ledger file or prepares a new one. A missing file
// is not an error; it is created on the first Record. An empty path yields
// a nil ledger, which disables archiving.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, nil
	}
	l := &Ledger{path: path, ids: map[string]struct{}{}}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			l.ids[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read archive file: %w", err)
	}
	return l, nil
}

// Contains reports whether id was recorded by this or any earlier run.
func (l *Ledger) Contains(id string) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[id]
	return ok
}

// Record appends id to the ledger file. A duplicate Record leaves a
// duplicate line behind but does not affect Contains.
func (l *Ledger) Record(id string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, id); err != nil {
		return fmt.Errorf("write archive entry: %w", err)
	}
	l.ids[id] = struct{}{}
	return nil
}
