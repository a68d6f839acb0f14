package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promptprep/promptprep/internal/output"
	"github.com/promptprep/promptprep/internal/session"
	"github.com/promptprep/promptprep/internal/validate"
)

// runCommand executes the root command with args and returns captured
// stdout. Global flag state is reset afterwards.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	done := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.String()
	}()

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	out := <-done

	jsonOutput = false
	yamlOutput = false
	cfgFile = ""
	return out, execErr
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"validate", "escape", "chunk", "detect", "format",
		"browse", "session", "serve", "watch", "version",
	}
	have := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestChunkHelpDescribesFenceBehavior(t *testing.T) {
	for _, c := range rootCmd.Commands() {
		if c.Name() != "chunk" {
			continue
		}
		if !strings.Contains(c.Long, "fence-safe") {
			t.Errorf("chunk help does not describe fence-safe cutting:\n%s", c.Long)
		}
		for _, claim := range []string{"sentence", "paragraph"} {
			if strings.Contains(c.Long, claim) {
				t.Errorf("chunk help claims %s boundaries the splitter does not honor", claim)
			}
		}
		return
	}
	t.Fatal("chunk command not registered")
}

func TestReadInput(t *testing.T) {
	path := writeTempFile(t, "hello")
	text, err := readInput([]string{path})
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q", text)
	}

	if _, err := readInput([]string{"/does/not/exist"}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateCommandJSON(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	path := writeTempFile(t, `short text with "quotes"`)

	out, err := runCommand(t, "validate", path, "--json")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	var report map[string]interface{}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report["is_valid"] != false {
		t.Error("text with unescaped quotes should not be valid")
	}
	if report["has_unescaped_quotes"] != true {
		t.Error("expected has_unescaped_quotes")
	}
}

func TestEscapeCommand(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	path := writeTempFile(t, `say "hi"`)

	out, err := runCommand(t, "escape", path)
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	if !strings.Contains(out, `say \"hi\"`) {
		t.Errorf("out = %q", out)
	}
}

func TestChunkCommandJSON(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	path := writeTempFile(t, strings.Repeat("sentence one. ", 1000))

	out, err := runCommand(t, "chunk", path, "--max-size", "4000", "--mode", "naive", "--json")
	if err != nil {
		t.Fatalf("chunk: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	count, ok := body["count"].(float64)
	if !ok || count < 2 {
		t.Errorf("count = %v, want >= 2", body["count"])
	}
}

func TestChunkCommandWritesFiles(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	path := writeTempFile(t, strings.Repeat("word ", 2000))
	outDir := filepath.Join(t.TempDir(), "chunks")

	if _, err := runCommand(t, "chunk", path, "--max-size", "4000", "--out", outDir); err != nil {
		t.Fatalf("chunk: %v", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Errorf("wrote %d files, want >= 2", len(entries))
	}
	if entries[0].Name() != "chunk_001.txt" {
		t.Errorf("first file = %q", entries[0].Name())
	}
}

func TestDetectCommand(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	path := writeTempFile(t, "def main():\n    import os\n    print(os.getcwd())\n")

	out, err := runCommand(t, "detect", path, "--json")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var match map[string]interface{}
	if err := json.Unmarshal([]byte(out), &match); err != nil {
		t.Fatal(err)
	}
	if match["language"] != "python" {
		t.Errorf("language = %v, want python", match["language"])
	}
}

func TestFormatCommandRejectsUnknownMode(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	path := writeTempFile(t, "text")

	if _, err := runCommand(t, "format", path, "--mode", "fancy"); err == nil {
		t.Error("expected error for unknown format mode")
	}
}

func TestRevalidateOnChangeCountsFiles(t *testing.T) {
	var buf bytes.Buffer
	counters := session.NewCounters()
	handler := revalidateOnChange(output.New(&buf), validate.DefaultThresholds(), counters)

	path := writeTempFile(t, "clean text")
	handler(path)
	handler(path)

	stats := counters.Snapshot()
	if stats.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", stats.FilesProcessed)
	}
	if !strings.Contains(buf.String(), path) {
		t.Errorf("report missing path: %q", buf.String())
	}

	// An unreadable path is reported but not counted.
	handler(filepath.Join(t.TempDir(), "gone.txt"))
	if got := counters.Snapshot().FilesProcessed; got != 2 {
		t.Errorf("FilesProcessed after failed read = %d, want 2", got)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("PROMPTPREP_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	out, err := runCommand(t, "version", "--short")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("out = %q", out)
	}
}
