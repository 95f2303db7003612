package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/famomatic/coubdl/internal/api"
	"github.com/famomatic/coubdl/internal/console"
	"github.com/famomatic/coubdl/internal/types"
)

// ErrNoItems means no selector contributed a single id; the run cannot
// proceed.
var ErrNoItems = errors.New("no items resolved from any input")

// Resolver expands selectors into an ordered, deduplicated id list.
type Resolver struct {
	API     *api.Client
	Reposts types.RepostPolicy
	Console *console.Console
}

// Resolve processes all selectors in their fixed kind order and returns at
// most limit ids (0 means unlimited). A failing selector is reported and
// skipped; an empty combined result is fatal.
func (r *Resolver) Resolve(ctx context.Context, selectors []Selector, limit int) ([]string, error) {
	ordered := make([]Selector, len(selectors))
	copy(ordered, selectors)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Kind < ordered[j].Kind })

	acc := &accumulator{limit: limit, seen: map[string]struct{}{}}
	var lastErr error
	for _, sel := range ordered {
		if acc.full() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		switch sel.Kind {
		case KindLink:
			acc.add(sel.Value)
		case KindList:
			err = r.resolveList(sel, acc)
		default:
			err = r.resolveTimeline(ctx, sel, acc)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.Console.Warn("skipping %s input %q: %v", sel.Kind, sel.Value, err)
			lastErr = err
		}
	}

	if len(acc.ids) == 0 {
		// Carry the last selector failure so the caller can tell a
		// connectivity problem apart from genuinely empty inputs.
		return nil, errors.Join(ErrNoItems, lastErr)
	}
	return acc.ids, nil
}

// resolveList extracts every whitespace-delimited token matching the item
// link pattern; all other tokens are ignored.
func (r *Resolver) resolveList(sel Selector, acc *accumulator) error {
	f, err := os.Open(sel.Value)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	found := 0
	for scanner.Scan() {
		token := scanner.Text()
		i := strings.Index(token, api.ViewURLPrefix)
		if i < 0 {
			continue
		}
		id := token[i+len(api.ViewURLPrefix):]
		if id == "" {
			continue
		}
		acc.add(id)
		found++
		if acc.full() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	r.Console.Msg("  %d links found in %s", found, sel.Value)
	return nil
}

func (r *Resolver) resolveTimeline(ctx context.Context, sel Selector, acc *accumulator) error {
	path, query, err := sel.endpoint(r.Reposts)
	if err != nil {
		return err
	}

	first, err := r.API.Timeline(ctx, path, query, 1)
	if err != nil {
		return err
	}
	pages := first.TotalPages
	if sel.Kind.capped() && pages > pageCap {
		// Beyond the cap the API silently serves page 1 again; treat the
		// boundary as normal exhaustion.
		pages = pageCap
	}

	r.collect(first, sel, acc)
	for page := 2; page <= pages && !acc.full(); page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := r.API.Timeline(ctx, path, query, page)
		if err != nil {
			return err
		}
		r.collect(p, sel, acc)
		if len(p.Entries) == 0 {
			break
		}
	}
	return nil
}

func (r *Resolver) collect(page *api.TimelinePage, sel Selector, acc *accumulator) {
	for _, entry := range page.Entries {
		switch r.Reposts {
		case types.RepostsExclude:
			if entry.Kind == api.EntryRepost {
				continue
			}
		case types.RepostsOnly:
			// Only channel feeds carry reposts; elsewhere this keeps all.
			if sel.Kind == KindChannel && entry.Kind != api.EntryRepost {
				continue
			}
		}
		acc.add(entry.OriginalID)
		if acc.full() {
			return
		}
	}
}

type accumulator struct {
	limit int
	seen  map[string]struct{}
	ids   []string
}

func (a *accumulator) add(id string) {
	if a.full() {
		return
	}
	if _, dupe := a.seen[id]; dupe {
		return
	}
	a.seen[id] = struct{}{}
	a.ids = append(a.ids, id)
}

func (a *accumulator) full() bool {
	return a.limit > 0 && len(a.ids) >= a.limit
}

// WriteList writes the resolved ids as full view links, one per line.
func WriteList(path string, ids []string) error {
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%s%s\n", api.ViewURLPrefix, id)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}
