package tools

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}

func TestContextBuilder_Build(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "util.go", "package main\n\nfunc helper() {}\n")

	b := NewContextBuilder(dir)
	for _, f := range []string{"main.go", "util.go"} {
		if err := b.AddFile(f); err != nil {
			t.Fatalf("AddFile(%s) error = %v", f, err)
		}
	}

	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(out, `<file path="main.go">`) {
		t.Errorf("output missing main.go tag:\n%s", out)
	}
	if !strings.Contains(out, "func helper()") {
		t.Errorf("output missing util.go content:\n%s", out)
	}
	if b.FileCount() != 2 {
		t.Errorf("FileCount() = %d, want 2", b.FileCount())
	}
}

func TestContextBuilder_TooManyFiles(t *testing.T) {
	b := NewContextBuilder(t.TempDir()).WithLimits(ContextLimits{
		MaxFileSize:  1024,
		MaxTotalSize: 4096,
		MaxFileCount: 1,
	})
	b.AddContent("a.txt", []byte("a"))
	b.AddContent("b.txt", []byte("b"))

	if _, err := b.Build(); !errors.Is(err, ErrContextTooLarge) {
		t.Errorf("Build() error = %v, want ErrContextTooLarge", err)
	}
}

func TestContextBuilder_TruncatesLargeFiles(t *testing.T) {
	b := NewContextBuilder(t.TempDir()).WithLimits(ContextLimits{
		MaxFileSize:  10,
		MaxTotalSize: 4096,
		MaxFileCount: 10,
	})
	b.AddContent("big.txt", []byte(strings.Repeat("x", 100)))

	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(out, "[... truncated ...]") {
		t.Errorf("output missing truncation marker:\n%s", out)
	}
}

func TestContextBuilder_BinaryFile(t *testing.T) {
	b := NewContextBuilder(t.TempDir())
	b.AddContent("logo.png", []byte{0x89, 'P', 'N', 'G', 0x00, 0x01})

	out, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(out, "image/png") {
		t.Errorf("output should identify binary type:\n%s", out)
	}
	if strings.Contains(out, "\x00") {
		t.Error("binary content should not be inlined")
	}
}

func TestFileSelector(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "a_test.go", "package a\n")
	writeFile(t, dir, "notes.txt", "notes\n")

	files, err := NewFileSelector(dir).Include("*.go").Exclude("*_test.go").Select()
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(files) != 1 || files[0] != "a.go" {
		t.Errorf("Select() = %v, want [a.go]", files)
	}
}

func TestReadFilesTool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	tool := NewReadFilesTool(dir)
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"paths":["main.go"]}`))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !strings.Contains(out, "package main") {
		t.Errorf("output = %q, want file content", out)
	}
}

func TestReadFilesTool_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "b.go", "package b\n")

	tool := NewReadFilesTool(dir)
	out, err := tool.Invoke(context.Background(), json.RawMessage(`{"glob":"*.go"}`))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	for _, want := range []string{"package a", "package b"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestReadFilesTool_MissingInput(t *testing.T) {
	tool := NewReadFilesTool(t.TempDir())
	if _, err := tool.Invoke(context.Background(), json.RawMessage(`{}`)); err == nil {
		t.Error("Invoke() error = nil, want validation failure")
	}
}

func TestReadFilesTool_Registry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	reg := NewRegistry()
	reg.Register(NewReadFilesTool(dir))

	names := reg.Names()
	if len(names) != 1 || names[0] != "read_files" {
		t.Errorf("Names() = %v, want [read_files]", names)
	}
}
