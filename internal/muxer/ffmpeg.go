// Package muxer drives ffmpeg: looping concat merges, duration validation
// and the stream corruption probe. Streams are always copied, never
// re-encoded.
package muxer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Merger is the merge/probe surface the pipeline depends on.
type Merger interface {
	Available() bool
	Probe(ctx context.Context, path string) error
	Merge(ctx context.Context, req MergeRequest) error
}

// MergeRequest describes one merge invocation.
type MergeRequest struct {
	VideoPath  string
	AudioPath  string
	OutPath    string
	ConcatPath string // reserved scratch name for the concat list
	LoopCount  int    // 1 disables looping
	Duration   string // ffmpeg time syntax, empty for no clamp
}

// FFmpeg invokes the ffmpeg binary as a subprocess.
type FFmpeg struct {
	Path string
}

// New returns an FFmpeg runner. An empty path looks up "ffmpeg" in PATH.
func New(path string) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// Available checks whether the ffmpeg binary is executable.
func (f *FFmpeg) Available() bool {
	_, err := exec.LookPath(f.Path)
	return err == nil
}

// ValidateDuration dry-runs the duration string against a null source.
// Called once at startup so a malformed duration never fails per item.
func (f *FFmpeg) ValidateDuration(ctx context.Context, duration string) error {
	cmd := exec.CommandContext(ctx, f.Path,
		"-v", "quiet",
		"-f", "lavfi", "-i", "anullsrc",
		"-t", duration, "-c", "copy",
		"-f", "null", "-",
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("invalid duration %q", duration)
	}
	return nil
}

// Error signatures of truncated or mangled streams. "moov atom not found"
// additionally appears for videos still stored the legacy way.
var corruptionSignatures = []string{
	"Header missing",
	"Failed to read frame size",
	"Invalid NAL",
	"moov atom not found",
}

// Probe decodes one second of the stream and checks stderr for the known
// corruption signatures.
func (f *FFmpeg) Probe(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, f.Path,
		"-v", "error",
		"-i", "file:"+path,
		"-t", "1",
		"-f", "null", "-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// ffmpeg may exit nonzero for ignorable reasons; only the known
	// signatures count as corruption.
	_ = cmd.Run()
	if sig := corruptionSignature(stderr.String()); sig != "" {
		return fmt.Errorf("stream %s corrupted: %s", path, sig)
	}
	return nil
}

func corruptionSignature(stderr string) string {
	for _, sig := range corruptionSignatures {
		if strings.Contains(stderr, sig) {
			return sig
		}
	}
	return ""
}

// Merge concatenates LoopCount repetitions of the video stream and muxes
// them with the audio stream, ending at whichever side runs out first. The
// output is written to a temp name and renamed only on success, so a
// failed merge never leaves a file that looks complete.
func (f *FFmpeg) Merge(ctx context.Context, req MergeRequest) error {
	if err := os.WriteFile(req.ConcatPath, concatList(req.VideoPath, req.LoopCount), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(req.ConcatPath)

	tempPath := tempOutputPath(req.OutPath)
	cmd := exec.CommandContext(ctx, f.Path, mergeArgs(req, tempPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("merge failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	// ffmpeg cannot write some containers in place over their own input.
	return os.Rename(tempPath, req.OutPath)
}

// concatList renders the concat demuxer's file list: one line per loop.
func concatList(videoPath string, loopCount int) []byte {
	var sb strings.Builder
	for i := 0; i < loopCount; i++ {
		fmt.Fprintf(&sb, "file 'file:%s'\n", videoPath)
	}
	return []byte(sb.String())
}

func mergeArgs(req MergeRequest, tempPath string) []string {
	args := []string{
		"-y", "-v", "error",
		"-f", "concat", "-safe", "0",
		"-i", "file:" + req.ConcatPath,
		"-i", "file:" + req.AudioPath,
	}
	if req.Duration != "" {
		args = append(args, "-t", req.Duration)
	}
	return append(args, "-c", "copy", "-shortest", "file:"+tempPath)
}

func tempOutputPath(outPath string) string {
	dir, name := splitPath(outPath)
	return dir + "temp_" + name
}

func splitPath(path string) (dir, name string) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == os.PathSeparator {
			return path[:i+1], path[i+1:]
		}
	}
	return "", path
}
