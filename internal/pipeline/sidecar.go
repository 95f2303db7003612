package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/famomatic/coubdl/internal/config"
	"github.com/famomatic/coubdl/internal/types"
)

// runJournal marks an active run in the destination directory. Its
// presence under the reserved name tells a later run that scratch files
// found there were left by an earlier crash rather than a user.
type runJournal struct {
	Tool    string    `json:"tool"`
	Started time.Time `json:"started_at"`
	Total   int       `json:"total"`
}

const journalTool = "coubdl"

func writeRunJournal(path string, total int) error {
	data, err := json.Marshal(runJournal{Tool: journalTool, Started: time.Now(), Total: total})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run journal: %w", err)
	}
	return nil
}

func removeRunJournal(path string) {
	_ = os.Remove(path)
}

// CheckReserved refuses a destination directory where the scratch names
// exist as files this tool did not create. A stale journal from a crashed
// run is recognized by its tool marker and removed.
func CheckReserved(dir string) error {
	concat := filepath.Join(dir, config.ConcatListName)
	if _, err := os.Stat(concat); err == nil {
		return fmt.Errorf("%s exists in %s; the name is reserved, move the file away", config.ConcatListName, dir)
	}

	journal := filepath.Join(dir, config.ScratchMetaName)
	data, err := os.ReadFile(journal)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", journal, err)
	}
	var j runJournal
	if json.Unmarshal(data, &j) != nil || j.Tool != journalTool {
		return fmt.Errorf("%s exists in %s and was not written by this tool; the name is reserved, move the file away", config.ScratchMetaName, dir)
	}
	_ = os.Remove(journal)
	return nil
}

// recordUnavailable appends the item's view link to the unavailable list.
func (p *Pipeline) recordUnavailable(id string) {
	if p.Settings.UnavailableList == "" {
		return
	}
	p.sideMu.Lock()
	defer p.sideMu.Unlock()
	if err := appendLine(p.Settings.UnavailableList, "https://coub.com/view/"+id); err != nil {
		p.Console.Warn("cannot update unavailable list: %v", err)
	}
}

// itemInfo is the on-disk shape of one info log line.
type itemInfo struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	CreatedAt string   `json:"created_at,omitempty"`
	Channel   string   `json:"channel,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// recordInfo appends the item's descriptor as one JSON line.
func (p *Pipeline) recordInfo(meta *types.ItemMetadata) {
	if p.Settings.InfoJSON == "" {
		return
	}
	data, err := json.Marshal(itemInfo{
		ID:        meta.ID,
		Title:     meta.Title,
		CreatedAt: meta.CreatedAt,
		Channel:   meta.Channel,
		Category:  meta.Category,
		Tags:      meta.Tags,
	})
	if err != nil {
		p.Console.Warn("cannot encode metadata for %s: %v", meta.ID, err)
		return
	}
	p.sideMu.Lock()
	defer p.sideMu.Unlock()
	if err := appendLine(p.Settings.InfoJSON, string(data)); err != nil {
		p.Console.Warn("cannot update info log: %v", err)
	}
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}

// runPreview launches the configured preview command on the finished
// artifact. Preview failures never fail the item.
func (p *Pipeline) runPreview(ctx context.Context, path string) {
	if p.Settings.PreviewCmd == "" {
		return
	}
	args := append(strings.Fields(p.Settings.PreviewCmd), path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		p.Console.Warn("cannot run preview command: %v", err)
		return
	}
	go func() { _ = cmd.Wait() }()
}
