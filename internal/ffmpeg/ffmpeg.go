package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Runner abstracts encoder toolchain invocation so the pipeline can be tested
// without ffmpeg installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner shells out to the real binaries.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %v, output: %s", name, err, string(output))
	}
	return output, nil
}

// ValidateInstalled checks that ffmpeg and ffprobe are reachable on PATH.
func ValidateInstalled() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found in PATH")
	}
	return nil
}

// ProbeDuration returns a media file's duration in seconds via ffprobe.
func ProbeDuration(ctx context.Context, runner Runner, path string) (float64, error) {
	output, err := runner.Run(ctx, "ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path)
	if err != nil {
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(output)), err)
	}
	return duration, nil
}

// WriteConcatFile writes a concat-demuxer list of absolute, quote-escaped
// entries.
func WriteConcatFile(paths []string, outPath string) error {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		escaped := strings.ReplaceAll(abs, "'", "'\\''")
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return os.WriteFile(outPath, []byte(b.String()), 0644)
}

// MinOutputBytes is the floor below which an encoded file is treated as
// corrupt or empty.
const MinOutputBytes = 1024

// ValidateMP4 checks that path exists, is non-trivially sized, and carries an
// MP4 ftyp signature at byte offset 4.
func ValidateMP4(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.Size() < MinOutputBytes {
		return fmt.Errorf("output %s is %d bytes, below minimum %d", filepath.Base(path), info.Size(), MinOutputBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("read output header: %w", err)
	}
	if string(header[4:8]) != "ftyp" {
		return fmt.Errorf("output %s is not an MP4 container", filepath.Base(path))
	}
	return nil
}
