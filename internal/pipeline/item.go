package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/famomatic/coubdl/internal/api"
	"github.com/famomatic/coubdl/internal/config"
	"github.com/famomatic/coubdl/internal/downloader"
	"github.com/famomatic/coubdl/internal/muxer"
	"github.com/famomatic/coubdl/internal/namer"
	"github.com/famomatic/coubdl/internal/policy"
)

// itemPaths holds every file an item may touch in the output directory.
type itemPaths struct {
	video string // video or combined stream, empty for audio-only
	audio string // audio stream, empty unless separate audio is fetched
	final string // the artifact the run promises
}

func (p *Pipeline) processItem(ctx context.Context, id string) Result {
	if p.Ledger.Contains(id) {
		return Result{ID: id, Status: StatusArchived}
	}
	if err := p.Fetch.Pause(ctx); err != nil {
		return Result{ID: id}
	}

	meta, err := p.API.Item(ctx, id)
	if err != nil {
		switch {
		case interrupted(err):
			return Result{ID: id}
		case errors.Is(err, api.ErrItemUnavailable):
			p.recordUnavailable(id)
			return Result{ID: id, Status: StatusUnavailable, Err: err}
		default:
			return Result{ID: id, Status: StatusFailed, Err: err}
		}
	}

	sel, err := policy.Select(meta, p.Settings.Policy())
	if err != nil {
		p.recordUnavailable(id)
		return Result{ID: id, Status: StatusUnavailable, Err: err}
	}

	name, ok := namer.Name(namer.Fields{
		ID:       meta.ID,
		Title:    meta.Title,
		Creation: meta.CreatedAt,
		Category: meta.Category,
		Channel:  meta.Channel,
		Tags:     meta.Tags,
	}, p.Settings.NameTemplate, p.Settings.TagSep, p.Settings.FallbackChar)
	if !ok && p.Settings.NameTemplate != "" {
		p.Console.Warn("coub %s: template produced no usable name, falling back to id", id)
	}

	paths := p.itemPaths(name, sel)
	if match := p.existingArtifact(name); match != "" {
		if p.Confirm == nil || !p.Confirm(match) {
			return Result{ID: id, Status: StatusExists}
		}
	}

	if err := p.download(ctx, sel, paths); err != nil {
		p.cleanupScratch(paths)
		if interrupted(err) {
			return Result{ID: id}
		}
		return Result{ID: id, Status: StatusFailed, Err: err}
	}

	if err := p.assemble(ctx, sel, paths); err != nil {
		p.cleanupScratch(paths)
		if interrupted(err) {
			return Result{ID: id}
		}
		return Result{ID: id, Status: StatusFailed, Err: err}
	}

	if !p.Settings.Keep {
		p.removeStreams(paths)
	}
	if err := p.Ledger.Record(id); err != nil {
		p.Console.Warn("cannot update archive: %v", err)
	}
	p.recordInfo(meta)
	p.runPreview(ctx, paths.final)
	return Result{ID: id, Status: StatusFinished}
}

// existingArtifact returns a file in the output directory sharing the base
// name, regardless of extension. A leftover video-only file must not be
// silently overwritten by a merged container of the same name, so any
// extension counts.
func (p *Pipeline) existingArtifact(name string) string {
	entries, err := os.ReadDir(p.Settings.OutDir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), name+".") && !strings.HasSuffix(e.Name(), downloader.PartSuffix) {
			return filepath.Join(p.Settings.OutDir, e.Name())
		}
	}
	return ""
}

// itemPaths derives stream and artifact paths from the selection shape.
// When the merge container matches the video stream extension the merge
// output replaces the stream file through the muxer's temp rename.
func (p *Pipeline) itemPaths(name string, sel policy.Selection) itemPaths {
	join := func(ext string) string {
		return filepath.Join(p.Settings.OutDir, name+"."+ext)
	}
	switch {
	case sel.Combined:
		return itemPaths{video: join("mp4"), final: join("mp4")}
	case sel.VideoURL != "" && sel.AudioURL != "":
		return itemPaths{
			video: join("mp4"),
			audio: join(sel.AudioExt),
			final: join(p.Settings.MergeExt),
		}
	case sel.VideoURL != "":
		return itemPaths{video: join("mp4"), final: join("mp4")}
	default:
		return itemPaths{audio: join(sel.AudioExt), final: join(sel.AudioExt)}
	}
}

// download fetches the item's streams. Video and audio legs of the same
// item run concurrently; the connection ceiling is enforced inside the
// fetcher itself.
func (p *Pipeline) download(ctx context.Context, sel policy.Selection, paths itemPaths) error {
	if paths.audio == "" || paths.video == "" {
		dest, url := paths.video, sel.VideoURL
		if paths.video == "" {
			dest, url = paths.audio, sel.AudioURL
		}
		return p.Fetch.Fetch(ctx, url, dest)
	}

	errs := make(chan error, 2)
	go func() { errs <- p.Fetch.Fetch(ctx, sel.VideoURL, paths.video) }()
	go func() { errs <- p.Fetch.Fetch(ctx, sel.AudioURL, paths.audio) }()
	var first error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// assemble repairs, probes and merges under the filesystem mutex. The
// combined rendition is a finished container and is never byte-repaired.
func (p *Pipeline) assemble(ctx context.Context, sel policy.Selection, paths itemPaths) error {
	p.fsMu.Lock()
	defer p.fsMu.Unlock()

	if paths.video != "" && !sel.Combined {
		if err := p.Repair(paths.video); err != nil {
			return err
		}
	}
	for _, path := range []string{paths.video, paths.audio} {
		if path == "" {
			continue
		}
		if err := p.Mux.Probe(ctx, path); err != nil {
			return err
		}
	}
	if paths.video == "" || paths.audio == "" {
		return nil
	}
	return p.Mux.Merge(ctx, muxer.MergeRequest{
		VideoPath:  paths.video,
		AudioPath:  paths.audio,
		OutPath:    paths.final,
		ConcatPath: filepath.Join(p.Settings.OutDir, config.ConcatListName),
		LoopCount:  p.Settings.Repeat,
		Duration:   p.Settings.Duration,
	})
}

// removeStreams deletes intermediate stream files, keeping the artifact.
func (p *Pipeline) removeStreams(paths itemPaths) {
	for _, path := range []string{paths.video, paths.audio} {
		if path == "" || path == paths.final {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.Console.Warn("cannot remove stream file %s: %v", path, err)
		}
	}
}

// cleanupScratch removes whatever a failed or interrupted item left on
// disk so reruns start clean.
func (p *Pipeline) cleanupScratch(paths itemPaths) {
	for _, path := range []string{paths.video, paths.audio} {
		if path == "" {
			continue
		}
		_ = os.Remove(path)
		_ = os.Remove(path + downloader.PartSuffix)
	}
}
