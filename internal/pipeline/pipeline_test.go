package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/background"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/scene"
)

// fakeEncoder fakes every encoder invocation by writing a plausible MP4 to
// the output path. Mix invocations (audio codec args present) can be made to
// fail to exercise the degradation path.
type fakeEncoder struct {
	calls    [][]string
	failMix  bool
	duration string // ffprobe answer, defaults to the 13s test timeline
}

func (f *fakeEncoder) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	if name == "ffprobe" {
		if f.duration == "" {
			return []byte("13.000000\n"), nil
		}
		return []byte(f.duration + "\n"), nil
	}
	if f.failMix && contains(args, "-c:a") {
		return []byte("mix exploded"), errors.New("exit status 1")
	}
	out := args[len(args)-1]
	b := append([]byte{0, 0, 0, 0x20}, []byte("ftypisom")...)
	return nil, os.WriteFile(out, append(b, make([]byte, 2048)...), 0644)
}

func contains(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

func newTestOrchestrator(t *testing.T, enc *fakeEncoder) *Orchestrator {
	t.Helper()
	return &Orchestrator{
		Runner:    enc,
		Resolver:  &background.Resolver{},
		AssetsDir: t.TempDir(),
		WorkDir:   t.TempDir(),
		Width:     320,
		Height:    180,
		FPS:       30,
	}
}

func gradientScenes() []scene.Scene {
	return scene.Split("A storm rolls in. The village prepares together. Join them today!", scene.ModeGradient)
}

func assertWorkDirClean(t *testing.T, workDir string) {
	t.Helper()
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp directories left behind: %v", entries)
	}
}

func TestRunGradientOnlyEndToEnd(t *testing.T) {
	enc := &fakeEncoder{}
	orch := newTestOrchestrator(t, enc)
	out := filepath.Join(t.TempDir(), "final.mp4")

	var steps [][2]int
	result, err := orch.Run(context.Background(), Request{
		Scenes:     gradientScenes(),
		OutputPath: out,
	}, func(current, total int) {
		steps = append(steps, [2]int{current, total})
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.DurationSec != 13 {
		t.Errorf("total duration = %v, want 13 (4+5+4)", result.DurationSec)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	if len(result.Metrics) != 3 {
		t.Fatalf("got %d metrics, want 3", len(result.Metrics))
	}
	for i, m := range result.Metrics {
		if m.BackgroundSource != "gradient" {
			t.Errorf("scene %d source = %q, want gradient", i, m.BackgroundSource)
		}
		if m.CaptionFontSize == 0 {
			t.Errorf("scene %d recorded no caption font size", i)
		}
	}

	// Progress must be monotonically increasing and finish at total.
	if len(steps) != 5 {
		t.Fatalf("got %d progress reports, want 5", len(steps))
	}
	for i, s := range steps {
		if s[0] != i+1 || s[1] != 5 {
			t.Errorf("progress report %d = %v, want (%d, 5)", i, s, i+1)
		}
	}

	assertWorkDirClean(t, orch.WorkDir)
}

func TestRunCancellationBetweenScenes(t *testing.T) {
	enc := &fakeEncoder{}
	orch := newTestOrchestrator(t, enc)
	out := filepath.Join(t.TempDir(), "final.mp4")

	ctx, cancel := context.WithCancel(context.Background())
	result, err := orch.Run(ctx, Request{
		Scenes:     gradientScenes(),
		OutputPath: out,
	}, func(current, total int) {
		if current == 1 {
			cancel()
		}
	})

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if result != nil {
		t.Errorf("cancelled run returned a result: %+v", result)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("cancelled run left an output file")
	}
	assertWorkDirClean(t, orch.WorkDir)
}

// killedEncoder cancels the run's context from inside an encode call and
// reports the error a signal-terminated ffmpeg process would, mirroring what
// exec.CommandContext does when a job is cancelled mid-encode.
type killedEncoder struct {
	cancel context.CancelFunc
}

func (k *killedEncoder) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	k.cancel()
	return nil, errors.New("signal: killed")
}

func TestRunCancellationDuringEncode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch := newTestOrchestrator(t, &fakeEncoder{})
	orch.Runner = &killedEncoder{cancel: cancel}
	out := filepath.Join(t.TempDir(), "final.mp4")

	result, err := orch.Run(ctx, Request{
		Scenes:     gradientScenes(),
		OutputPath: out,
	}, nil)

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if result != nil {
		t.Errorf("cancelled run returned a result: %+v", result)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("cancelled run left an output file")
	}
	assertWorkDirClean(t, orch.WorkDir)
}

func TestRunDurationMismatchWarns(t *testing.T) {
	enc := &fakeEncoder{duration: "4.000000"}
	orch := newTestOrchestrator(t, enc)
	out := filepath.Join(t.TempDir(), "final.mp4")

	result, err := orch.Run(context.Background(), Request{
		Scenes:     gradientScenes(),
		OutputPath: out,
	}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "differs from planned") {
			found = true
		}
	}
	if !found {
		t.Errorf("4s file against a 13s timeline recorded no warning: %v", result.Warnings)
	}
}

func TestRunMixFailureDegradesToVideoOnly(t *testing.T) {
	enc := &fakeEncoder{failMix: true}
	orch := newTestOrchestrator(t, enc)
	out := filepath.Join(t.TempDir(), "final.mp4")

	musicDir := filepath.Join(orch.AssetsDir, "music")
	if err := os.MkdirAll(musicDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(musicDir, "calm-horizon.mp3"), []byte("mp3"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := orch.Run(context.Background(), Request{
		Scenes:         gradientScenes(),
		MusicTrackID:   "calm-horizon",
		MusicVolumePct: 80,
		OutputPath:     out,
	}, nil)
	if err != nil {
		t.Fatalf("run should degrade, not fail: %v", err)
	}

	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "audio mix failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("degraded run recorded no mix warning: %v", result.Warnings)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("video-only output missing: %v", err)
	}
}

func TestRunMissingMusicFileWarns(t *testing.T) {
	enc := &fakeEncoder{}
	orch := newTestOrchestrator(t, enc)
	out := filepath.Join(t.TempDir(), "final.mp4")

	result, err := orch.Run(context.Background(), Request{
		Scenes:       gradientScenes(),
		MusicTrackID: "calm-horizon",
		OutputPath:   out,
	}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "missing on disk") {
			found = true
		}
	}
	if !found {
		t.Errorf("missing track recorded no warning: %v", result.Warnings)
	}
}

func TestRunNoScenes(t *testing.T) {
	orch := newTestOrchestrator(t, &fakeEncoder{})
	if _, err := orch.Run(context.Background(), Request{OutputPath: "x.mp4"}, nil); err == nil {
		t.Fatal("expected error for empty scene list")
	}
}

func TestTintPrecedence(t *testing.T) {
	spaceHook := scene.Scene{Text: "A journey through the galaxy begins", Kind: scene.Hook, Keywords: []string{"galaxy"}}
	if got := TintFor(spaceHook); got != "0x1a1a4d" {
		t.Errorf("thematic keyword should win over kind tint, got %q", got)
	}

	plainHook := scene.Scene{Text: "Something begins here", Kind: scene.Hook}
	if got := TintFor(plainHook); got != "0x33261a" {
		t.Errorf("hook tint = %q", got)
	}

	plainBeat := scene.Scene{Text: "Something continues here", Kind: scene.Beat}
	if got := TintFor(plainBeat); got != "" {
		t.Errorf("plain beat should be untinted, got %q", got)
	}
}
