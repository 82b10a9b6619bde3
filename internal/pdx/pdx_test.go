package pdx

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, body := range entries {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %q: %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestIsArchive(t *testing.T) {
	data := buildZip(t, map[string]string{"a.odx": "<ODX/>"})

	if !IsArchive(data) {
		t.Error("IsArchive(zip) = false, want true")
	}
	if IsArchive([]byte("<?xml version=\"1.0\"?>")) {
		t.Error("IsArchive(xml) = true, want false")
	}
	if IsArchive(nil) {
		t.Error("IsArchive(nil) = true, want false")
	}
}

func TestOpenAndRead(t *testing.T) {
	data := buildZip(t, map[string]string{
		"index.xml":      "<CATALOG/>",
		"ecu/engine.odx": "<ODX/>",
	})

	a, err := Open(data)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := len(a.Entries()); got != 2 {
		t.Fatalf("len(Entries()) = %d, want 2", got)
	}

	body, err := a.Read("ecu/engine.odx")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(body) != "<ODX/>" {
		t.Errorf("Read() = %q, want %q", body, "<ODX/>")
	}

	if _, err := a.Read("missing.odx"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Read(missing) error = %v, want ErrEntryNotFound", err)
	}
}

func TestOpenCorrupt(t *testing.T) {
	if _, err := Open([]byte("PK\x03\x04 not really a zip")); !errors.Is(err, ErrCorruptArchive) {
		t.Errorf("Open(corrupt) error = %v, want ErrCorruptArchive", err)
	}
}
