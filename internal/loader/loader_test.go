package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const docEngine = `<?xml version="1.0"?>
<ODX>
  <DIAG-LAYER-CONTAINER>
    <ECU-VARIANTS>
      <ECU-VARIANT ID="EV.engine">
        <SHORT-NAME>EngineECU</SHORT-NAME>
      </ECU-VARIANT>
    </ECU-VARIANTS>
  </DIAG-LAYER-CONTAINER>
</ODX>`

const docBrake = `<?xml version="1.0"?>
<ODX>
  <DIAG-LAYER-CONTAINER>
    <BASE-VARIANTS>
      <BASE-VARIANT ID="BV.brake">
        <SHORT-NAME>BrakeBase</SHORT-NAME>
      </BASE-VARIANT>
    </BASE-VARIANTS>
  </DIAG-LAYER-CONTAINER>
</ODX>`

const docBroken = `<ODX><DIAG-LAYER-CONTAINER></ODX>`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeArchive(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for entry, body := range entries {
		f, err := w.Create(entry)
		if err != nil {
			t.Fatalf("create entry %s: %v", entry, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("write entry %s: %v", entry, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return writeFile(t, dir, name, buf.String())
}

func TestLoad_MergesInputs(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "engine.odx-d", docEngine),
		writeFile(t, dir, "brake.odx-d", docBrake),
	}

	res, err := New(nil, Options{}).Load(context.Background(), paths)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Inputs) != 2 || len(res.Skipped) != 0 {
		t.Fatalf("inputs/skipped = %d/%d, want 2/0", len(res.Inputs), len(res.Skipped))
	}
	if len(res.Database.EcuVariants) != 1 || len(res.Database.BaseVariants) != 1 {
		t.Errorf("merged layers = %d ecu, %d base, want 1/1",
			len(res.Database.EcuVariants), len(res.Database.BaseVariants))
	}

	// Inputs aggregate in submission order regardless of worker timing.
	if res.Inputs[0].Name != paths[0] || res.Inputs[1].Name != paths[1] {
		t.Errorf("input order = %q, %q, want submission order", res.Inputs[0].Name, res.Inputs[1].Name)
	}
}

func TestLoad_IsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "engine.odx-d", docEngine),
		writeFile(t, dir, "broken.odx-d", docBroken),
		writeFile(t, dir, "brake.odx-d", docBrake),
	}

	res, err := New(nil, Options{}).Load(context.Background(), paths)
	if err != nil {
		t.Fatalf("Load() error = %v, want batch to survive one bad input", err)
	}
	if len(res.Inputs) != 2 {
		t.Errorf("len(Inputs) = %d, want 2", len(res.Inputs))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Name != paths[1] {
		t.Fatalf("Skipped = %+v, want single entry for broken.odx-d", res.Skipped)
	}
	if res.Skipped[0].Reason == "" {
		t.Errorf("skip reason is empty")
	}
}

func TestLoad_ExpandsArchive(t *testing.T) {
	dir := t.TempDir()
	archive := writeArchive(t, dir, "pack.pdx", map[string]string{
		"engine.odx-d": docEngine,
		"index.xml":    docBrake,
		"notes.txt":    "not a document",
	})

	res, err := New(nil, Options{}).Load(context.Background(), []string{archive})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Inputs) != 2 {
		t.Fatalf("len(Inputs) = %d, want 2 (txt entry ignored)", len(res.Inputs))
	}
	for _, in := range res.Inputs {
		if in.Archive != archive {
			t.Errorf("input %q archive = %q, want %q", in.Name, in.Archive, archive)
		}
	}
}

func TestLoad_UnreadableFileFatal(t *testing.T) {
	_, err := New(nil, Options{}).Load(context.Background(), []string{"/nonexistent/input.odx-d"})
	if !errors.Is(err, ErrUnreadableInput) {
		t.Errorf("Load() error = %v, want ErrUnreadableInput", err)
	}
}

func TestLoad_CorruptArchiveFatal(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "corrupt.pdx", "PK\x03\x04 not a real archive")

	_, err := New(nil, Options{}).Load(context.Background(), []string{path})
	if !errors.Is(err, ErrUnreadableInput) {
		t.Errorf("Load() error = %v, want ErrUnreadableInput", err)
	}
}

func TestLoad_NoInputs(t *testing.T) {
	if _, err := New(nil, Options{}).Load(context.Background(), nil); !errors.Is(err, ErrNoInputs) {
		t.Errorf("Load(nil) error = %v, want ErrNoInputs", err)
	}
}

func TestLoadPayloads_SharedIndex(t *testing.T) {
	payloads := []Payload{
		{Name: "engine.odx-d", Data: []byte(docEngine)},
		{Name: "brake.odx-d", Data: []byte(docBrake)},
	}

	res, err := New(nil, Options{SharedIndex: true}).LoadPayloads(context.Background(), payloads)
	if err != nil {
		t.Fatalf("LoadPayloads() error = %v", err)
	}
	if len(res.Inputs) != 2 {
		t.Errorf("len(Inputs) = %d, want 2", len(res.Inputs))
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	path := writeFile(t, dir, "engine.odx-d", docEngine)

	if _, err := New(nil, Options{}).Load(ctx, []string{path}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestIsDocumentName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"engine.odx-d", true},
		{"comparam.odx-c", true},
		{"legacy.odx", true},
		{"ENGINE.ODX-D", true},
		{"index.xml", true},
		{"catalog/Index.XML", true},
		{"layout.xml", false},
		{"notes.txt", false},
		{"engine.odx.bak", false},
	}

	for _, tt := range tests {
		if got := IsDocumentName(tt.name); got != tt.want {
			t.Errorf("IsDocumentName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
