package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/skeltree/skeltree/pkg/annotations"
	"github.com/skeltree/skeltree/pkg/cache"
	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morph"
	"github.com/skeltree/skeltree/pkg/skeleton"
	"github.com/skeltree/skeltree/pkg/vec"
)

// skeleton matching the reference cell: A at the soma centre, B one unit
// out, C and D branching off B
const testSkeleton = `# AmiraMesh 3D ASCII 2.0

@1
0 0 0
1 0 0
2 0 0
1 1 0

@2
0 1
1 2
1 3

@3
2
2
2

@4
0 0 0
1 0 0
1 0 0
2 0 0
1 0 0
1 1 0

@5
2.0
1.0
1.0
1.0
1.0
1.0
`

const testAnnotations = `{"soma": {"centre": {"x": 0, "y": 0, "z": 0}, "radius": 0.5}}`

func writeInputs(t *testing.T, annotationsJSON string) (skelPath string) {
	t.Helper()
	dir := t.TempDir()
	skelPath = filepath.Join(dir, "cell.am")
	if err := os.WriteFile(skelPath, []byte(testSkeleton), 0o644); err != nil {
		t.Fatal(err)
	}
	annPath := filepath.Join(dir, "cell.annotations.json")
	if err := os.WriteFile(annPath, []byte(annotationsJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return skelPath
}

func quietLogger() *log.Logger {
	logger := log.New(os.Stderr)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{SkeletonPath: "/data/cell.am"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.AnnotationsPath != "/data/cell.annotations.json" {
		t.Errorf("annotations path = %q", opts.AnnotationsPath)
	}
	if opts.OutputPath != "/data/cell.morph.json" {
		t.Errorf("output path = %q", opts.OutputPath)
	}
	if opts.Scale != 1 {
		t.Errorf("scale = %v, want 1", opts.Scale)
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code skelerrors.Code
	}{
		{"no skeleton", Options{}, skelerrors.ErrCodeFileNotFound},
		{"negative threshold", Options{SkeletonPath: "x.am", Threshold: -1}, skelerrors.ErrCodeInvalidThreshold},
		{"negative scale", Options{SkeletonPath: "x.am", Scale: -2}, skelerrors.ErrCodeInvalidScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if code := skelerrors.GetCode(err); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestEffectiveThreshold(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		annotated float64
		has       bool
		want      float64
	}{
		{"no annotation", Options{Threshold: 2}, 0, false, 2},
		{"annotation wins", Options{Threshold: 2}, 5, true, 5},
		{"forced keeps option", Options{Threshold: 2, ForceThreshold: true}, 5, true, 2},
	}
	for _, tt := range tests {
		if got := tt.opts.EffectiveThreshold(tt.annotated, tt.has); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConvert(t *testing.T) {
	skel, err := skeleton.ParseFile(writeInputs(t, testAnnotations))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	g, err := skeleton.BuildGraph(skel)
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	ann := &annotations.Annotations{Soma: annotations.Soma{Centre: vec.V3{}, Radius: 0.5}}

	conv, err := Convert(g, ann, 0, 1, morph.VerbosityInfo)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if got := conv.Morphology.SectionCount(); got != 3 {
		t.Errorf("sections = %d, want 3", got)
	}
	if conv.Diagnostics.Degraded() {
		t.Errorf("unexpected diagnostics: %s", conv.Diagnostics.Summary())
	}
	// positions already in target space
	root := conv.Morphology.Roots[0]
	if root.Points[1].Pos != (vec.V3{X: -1}) {
		t.Errorf("B = %v, want (-1,0,0)", root.Points[1].Pos)
	}
}

func TestRunnerExecute(t *testing.T) {
	skelPath := writeInputs(t, testAnnotations)
	runner := NewRunner(nil, nil, quietLogger())

	result, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.RunID == "" {
		t.Error("missing run ID")
	}
	if result.Stats.SectionCount != 3 {
		t.Errorf("sections = %d, want 3", result.Stats.SectionCount)
	}
	if result.DiagnosticsSummary != "clean" {
		t.Errorf("diagnostics = %q, want clean", result.DiagnosticsSummary)
	}

	out := filepath.Join(filepath.Dir(skelPath), "cell.morph.json")
	if _, err := os.Stat(out); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestRunnerRefusesExistingOutput(t *testing.T) {
	skelPath := writeInputs(t, testAnnotations)
	out := filepath.Join(filepath.Dir(skelPath), "cell.morph.json")
	if err := os.WriteFile(out, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(nil, nil, quietLogger())

	_, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath})
	if code := skelerrors.GetCode(err); code != skelerrors.ErrCodeExistingOutput {
		t.Fatalf("code = %s, want %s", code, skelerrors.ErrCodeExistingOutput)
	}

	// forced overwrite succeeds
	if _, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath, Overwrite: true}); err != nil {
		t.Fatalf("Execute with overwrite: %v", err)
	}
}

func TestRunnerCachesMorphology(t *testing.T) {
	skelPath := writeInputs(t, testAnnotations)
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	runner := NewRunner(c, nil, quietLogger())

	first, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.MorphologyHit {
		t.Error("first run should not hit the cache")
	}

	second, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath, Overwrite: true})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.MorphologyHit {
		t.Error("second run should hit the morphology cache")
	}
	if len(second.Document.Sections) != len(first.Document.Sections) {
		t.Error("cached document differs from the original")
	}

	// refresh bypasses the cache
	third, err := runner.Execute(context.Background(), Options{
		SkeletonPath: skelPath, Overwrite: true, Refresh: true,
	})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.MorphologyHit {
		t.Error("refresh run should not hit the cache")
	}
}

func TestRunnerAnnotatedThreshold(t *testing.T) {
	// at threshold 1.5 the B-C section merges into A-B
	skelPath := writeInputs(t,
		`{"soma": {"centre": {"x": 0, "y": 0, "z": 0}, "radius": 0.5},
		  "skeletonize": {"threshold_segment_length": 1.5}}`)
	runner := NewRunner(nil, nil, quietLogger())

	result, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.SectionCount != 2 {
		t.Errorf("sections = %d, want 2 after annotated threshold merge", result.Stats.SectionCount)
	}

	// forcing the CLI threshold disables the annotated value
	forced, err := runner.Execute(context.Background(), Options{
		SkeletonPath: skelPath, ForceThreshold: true, Overwrite: true, Refresh: true,
	})
	if err != nil {
		t.Fatalf("forced Execute: %v", err)
	}
	if forced.Stats.SectionCount != 3 {
		t.Errorf("sections = %d, want 3 with forced zero threshold", forced.Stats.SectionCount)
	}
}

func TestRunnerMissingAnnotations(t *testing.T) {
	dir := t.TempDir()
	skelPath := filepath.Join(dir, "cell.am")
	if err := os.WriteFile(skelPath, []byte(testSkeleton), 0o644); err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(nil, nil, quietLogger())

	_, err := runner.Execute(context.Background(), Options{SkeletonPath: skelPath})
	if code := skelerrors.GetCode(err); code != skelerrors.ErrCodeFileNotFound {
		t.Fatalf("code = %s, want %s", code, skelerrors.ErrCodeFileNotFound)
	}

	// no partial output left behind
	if _, err := os.Stat(filepath.Join(dir, "cell.morph.json")); !os.IsNotExist(err) {
		t.Error("output written despite fatal error")
	}
}
