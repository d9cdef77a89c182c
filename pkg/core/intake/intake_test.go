package intake

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
)

func testService() *Service {
	return NewService(nil, Options{
		MaxFileBytes:      1 << 20,
		MaxUploadBytes:    4 << 20,
		AllowedExtensions: []string{".pdf", ".png", ".zip"},
	})
}

func TestValidateFile(t *testing.T) {
	s := testService()

	if err := s.validateFile(File{Name: "statement.pdf", Data: []byte("x")}); err != nil {
		t.Errorf("valid file rejected: %v", err)
	}
	if err := s.validateFile(File{Name: "malware.exe", Data: []byte("x")}); err == nil {
		t.Error("unsupported extension accepted")
	}
	if err := s.validateFile(File{Name: "big.pdf", Data: make([]byte, 2<<20)}); err == nil {
		t.Error("oversized file accepted")
	}
	if err := s.validateFile(File{Name: "empty.pdf"}); err == nil {
		t.Error("empty file accepted")
	}
	if err := s.validateFile(File{Name: "UPPER.PDF", Data: []byte("x")}); err != nil {
		t.Errorf("extension check must be case-insensitive: %v", err)
	}
}

func TestValidationErrorsAreTyped(t *testing.T) {
	s := testService()
	err := s.validateFile(File{Name: "malware.exe", Data: []byte("x")})
	if !IsValidation(err) {
		t.Errorf("expected a validation error, got %T", err)
	}
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range files {
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExpandArchiveFlattensAndIgnoresJunk(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"docs/pan.pdf":             []byte("pan"),
		"docs/nested/aadhaar.png":  []byte("aadhaar"),
		"__MACOSX/docs/pan.pdf":    []byte("junk"),
		"docs/.DS_Store":           []byte("junk"),
		"docs/._pan.pdf":           []byte("junk"),
		".git/config":              []byte("junk"),
	})

	entries, ignored, err := expandArchive(File{Name: "bundle.zip", Data: data})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2: %v", len(entries), entries)
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
	}
	if !names["pan.pdf"] || !names["aadhaar.png"] {
		t.Errorf("flattened names = %v", names)
	}
	if len(ignored) != 4 {
		t.Errorf("ignored = %v, want 4 junk entries", ignored)
	}
}

func TestExpandArchiveRejectsGarbage(t *testing.T) {
	_, _, err := expandArchive(File{Name: "fake.zip", Data: []byte("not a zip")})
	if err == nil || !IsValidation(err) {
		t.Errorf("garbage archive must be a validation error, got %v", err)
	}
}

func TestStorageKeyDisambiguatesSameName(t *testing.T) {
	// Two different uploads named identically must never share a blob.
	a := sha256.Sum256([]byte("january statement"))
	b := sha256.Sum256([]byte("february statement"))
	keyA := storageKey("CASE-20260824-0001", hex.EncodeToString(a[:]), "statement.pdf")
	keyB := storageKey("CASE-20260824-0001", hex.EncodeToString(b[:]), "statement.pdf")
	if keyA == keyB {
		t.Errorf("same-named files share key %q", keyA)
	}
	if !strings.HasPrefix(keyA, "CASE-20260824-0001/") || !strings.HasSuffix(keyA, "-statement.pdf") {
		t.Errorf("unexpected key shape %q", keyA)
	}

	// Identical bytes map to the same key, so the dedup skip never orphans.
	again := sha256.Sum256([]byte("january statement"))
	if storageKey("CASE-20260824-0001", hex.EncodeToString(again[:]), "statement.pdf") != keyA {
		t.Error("identical content produced a different key")
	}
}

func TestMimeFor(t *testing.T) {
	if got := mimeFor("scan.pdf"); got != "application/pdf" {
		t.Errorf("mimeFor(pdf) = %q", got)
	}
	if got := mimeFor("file.unknownext"); got != "application/octet-stream" {
		t.Errorf("mimeFor(unknown) = %q", got)
	}
}
