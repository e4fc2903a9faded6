package compositor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSegments(t *testing.T, dir string, n int) []Segment {
	t.Helper()
	segs := make([]Segment, n)
	for i := range segs {
		p := filepath.Join(dir, "seg.mp4")
		if n > 1 {
			p = filepath.Join(dir, "seg"+string(rune('0'+i))+".mp4")
		}
		if err := os.WriteFile(p, fakeMP4Bytes(), 0644); err != nil {
			t.Fatal(err)
		}
		segs[i] = Segment{Path: p, SceneIndex: i}
	}
	return segs
}

func TestConcatSuccess(t *testing.T) {
	dir := t.TempDir()
	segs := writeSegments(t, dir, 3)
	enc := &fakeEncoder{}
	out := filepath.Join(dir, "combined.mp4")

	warnings, err := (&Concatenator{Runner: enc}).Concat(context.Background(), segs, dir, out)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(enc.calls) != 1 {
		t.Errorf("encoder called %d times, want 1", len(enc.calls))
	}

	args := strings.Join(enc.calls[0], " ")
	for _, want := range []string{"-f concat", "-safe 0", "-c copy"} {
		if !strings.Contains(args, want) {
			t.Errorf("invocation missing %q: %s", want, args)
		}
	}

	list, err := os.ReadFile(filepath.Join(dir, "concat.txt"))
	if err != nil {
		t.Fatalf("read concat list: %v", err)
	}
	for _, seg := range segs {
		if !strings.Contains(string(list), seg.Path) {
			t.Errorf("list missing %s:\n%s", seg.Path, list)
		}
	}
}

func TestConcatRetriesOnce(t *testing.T) {
	dir := t.TempDir()
	segs := writeSegments(t, dir, 2)
	enc := &fakeEncoder{failures: 1}
	out := filepath.Join(dir, "combined.mp4")

	warnings, err := (&Concatenator{Runner: enc}).Concat(context.Background(), segs, dir, out)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("successful retry should not warn: %v", warnings)
	}
	if len(enc.calls) != 2 {
		t.Errorf("encoder called %d times, want 2", len(enc.calls))
	}
}

func TestConcatFallsBackToFirstSegment(t *testing.T) {
	dir := t.TempDir()
	segs := writeSegments(t, dir, 3)
	enc := &fakeEncoder{failures: 2}
	out := filepath.Join(dir, "combined.mp4")

	warnings, err := (&Concatenator{Runner: enc}).Concat(context.Background(), segs, dir, out)
	if err != nil {
		t.Fatalf("concat: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	first, _ := os.ReadFile(segs[0].Path)
	if !bytes.Equal(got, first) {
		t.Error("fallback output does not equal first segment bytes")
	}
}

func TestConcatFatalWhenFirstSegmentUnreadable(t *testing.T) {
	dir := t.TempDir()
	segs := []Segment{{Path: filepath.Join(dir, "missing.mp4"), SceneIndex: 0}}
	enc := &fakeEncoder{failures: 2}

	if _, err := (&Concatenator{Runner: enc}).Concat(context.Background(), segs, dir, filepath.Join(dir, "out.mp4")); err == nil {
		t.Fatal("expected fatal error when first segment is unreadable")
	}
}

func TestConcatNoSegments(t *testing.T) {
	if _, err := (&Concatenator{Runner: &fakeEncoder{}}).Concat(context.Background(), nil, t.TempDir(), "out.mp4"); err == nil {
		t.Fatal("expected error for empty segment list")
	}
}
