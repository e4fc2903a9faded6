package compositor

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/ffmpeg"
)

// Concatenator joins encoded scene segments into a single stream copy. All
// segments share the same codec profile so no re-encode is needed.
type Concatenator struct {
	Runner ffmpeg.Runner
}

// Concat writes a concat list file and runs a stream-copy join. On failure it
// retries once, and if that also fails it degrades to copying the first
// segment alone so the run still yields a playable file. The degraded path is
// reported through the returned warnings; only an unreadable first segment is
// fatal.
func (c *Concatenator) Concat(ctx context.Context, segments []Segment, workDir, outPath string) ([]string, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("concat: no segments")
	}

	paths := make([]string, len(segments))
	for i, s := range segments {
		paths[i] = s.Path
	}
	listPath := filepath.Join(workDir, "concat.txt")
	if err := ffmpeg.WriteConcatFile(paths, listPath); err != nil {
		return nil, fmt.Errorf("concat list: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if err := c.run(ctx, listPath, outPath); err != nil {
			lastErr = err
			log.Printf("concat attempt %d failed: %v", attempt, err)
			continue
		}
		return nil, nil
	}

	// Both attempts failed. Fall back to the first segment so the caller
	// still gets a valid, if truncated, video.
	if err := copyFile(segments[0].Path, outPath); err != nil {
		return nil, fmt.Errorf("concat failed (%v) and first segment unreadable: %w", lastErr, err)
	}
	warn := fmt.Sprintf("concatenation failed after retry (%v); output contains only scene %d", lastErr, segments[0].SceneIndex)
	log.Printf("%s", warn)
	return []string{warn}, nil
}

func (c *Concatenator) run(ctx context.Context, listPath, outPath string) error {
	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outPath,
	}
	if _, err := c.Runner.Run(ctx, "ffmpeg", args...); err != nil {
		return err
	}
	return ffmpeg.ValidateMP4(outPath)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
