// Package pipeline drives the per-item sequence: archive check, metadata
// fetch, naming, existence check, download, repair, merge, archive write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/famomatic/coubdl/internal/archive"
	"github.com/famomatic/coubdl/internal/config"
	"github.com/famomatic/coubdl/internal/console"
	"github.com/famomatic/coubdl/internal/muxer"
	"github.com/famomatic/coubdl/internal/types"
)

// Status classifies one item's outcome.
type Status int

const (
	// StatusNotAttempted marks items never scheduled (interrupted run).
	StatusNotAttempted Status = iota
	// StatusFinished means the output artifact was produced.
	StatusFinished
	// StatusArchived means the ledger already contained the id.
	StatusArchived
	// StatusExists means an existing output file was kept.
	StatusExists
	// StatusUnavailable means no required rendition exists.
	StatusUnavailable
	// StatusFailed covers transfer, integrity and merge failures.
	StatusFailed
)

// Result is one item's final state. Results keep resolution order even
// when items complete out of order.
type Result struct {
	ID     string
	Status Status
	Err    error
}

// Report aggregates a run.
type Report struct {
	Results     []Result
	Interrupted bool
}

// Failed counts items that were attempted but produced no artifact.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusUnavailable || res.Status == StatusFailed {
			n++
		}
	}
	return n
}

// MetadataAPI fetches one item's descriptor.
type MetadataAPI interface {
	Item(ctx context.Context, id string) (*types.ItemMetadata, error)
}

// Fetcher downloads one rendition and paces item starts.
type Fetcher interface {
	Pause(ctx context.Context) error
	Fetch(ctx context.Context, url, destPath string) error
}

// Repairer fixes the legacy header corruption in place.
type Repairer func(path string) error

// Pipeline processes resolved ids into output artifacts. Network legs of
// different items run concurrently up to the connection ceiling; repair,
// probe and merge are serialized.
type Pipeline struct {
	API      MetadataAPI
	Fetch    Fetcher
	Mux      muxer.Merger
	Repair   Repairer
	Ledger   *archive.Ledger // nil disables the ledger
	Console  *console.Console
	Settings config.Settings

	// Confirm decides whether an existing file may be overwritten.
	Confirm func(path string) bool

	fsMu     sync.Mutex // serializes repair/probe/merge
	sideMu   sync.Mutex // serializes side-output appends
	progress atomic.Int64
}

// Run processes ids in resolution order and returns the aggregated report.
// The error return is reserved for setup failures; per-item failures are
// reported, counted and never abort the run.
func (p *Pipeline) Run(ctx context.Context, ids []string) (*Report, error) {
	journal := filepath.Join(p.Settings.OutDir, config.ScratchMetaName)
	if err := writeRunJournal(journal, len(ids)); err != nil {
		return nil, err
	}
	defer removeRunJournal(journal)

	report := &Report{Results: make([]Result, len(ids))}
	g := &errgroup.Group{}
	g.SetLimit(p.Settings.Connections)

	for i, id := range ids {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := p.processItem(ctx, id)
			report.Results[i] = res
			if res.Status != StatusNotAttempted {
				p.logResult(len(ids), res)
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		report.Interrupted = true
	}
	return report, nil
}

// logResult prints one progress line. Serialized so concurrent items do
// not interleave their output.
func (p *Pipeline) logResult(total int, res Result) {
	count := p.progress.Add(1)
	p.sideMu.Lock()
	defer p.sideMu.Unlock()
	width := len(fmt.Sprint(total))
	prefix := fmt.Sprintf("  [%*d/%d] https://coub.com/view/%-8s ... ", width, count, total, res.ID)
	switch res.Status {
	case StatusFinished:
		p.Console.Progress("%s", prefix)
		p.Console.Success("finished")
	case StatusArchived:
		p.Console.Progress("%s", prefix)
		p.Console.Msg("archived")
	case StatusExists:
		p.Console.Progress("%s", prefix)
		p.Console.Msg("exists")
	case StatusUnavailable:
		p.Console.Err("%sunavailable", prefix)
	case StatusFailed:
		p.Console.Err("%sfailed to download (%v)", prefix, res.Err)
	}
}

// interrupted reports whether err is a cancellation rather than an item
// failure.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
