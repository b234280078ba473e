package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteOutputToFileAndWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.md")
	wrote, err := WriteOutput(path, []byte("hello"), nil)
	if err != nil || !wrote {
		t.Fatalf("WriteOutput file: %v %v", wrote, err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "hello" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}

	var buf bytes.Buffer
	wrote, err = WriteOutput("-", []byte("stdout"), &buf)
	if err != nil || wrote || buf.String() != "stdout" {
		t.Fatalf("WriteOutput writer: %v %v %q", wrote, err, buf.String())
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("PrettyJSON: %v", err)
	}
	if !strings.Contains(string(b), "\n  \"a\": 1") {
		t.Fatalf("not indented: %s", b)
	}
	if _, err := PrettyJSON(func() {}); err == nil {
		t.Fatalf("expected marshal error")
	}
}
