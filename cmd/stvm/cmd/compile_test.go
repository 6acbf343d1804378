package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openplc-go/stvm/internal/bytecode"
)

// countdownFixture is a tiny end-to-end fixture: a single program that
// decrements a counter to zero, bound to one freewheeling task, enough
// to exercise compile/disasm/run without a real lexer/parser.
const countdownFixture = `{
  "programs": [
    {
      "name": "Main",
      "vars": [
        {"name": "count", "type": "INT"}
      ],
      "body": [
        {"kind": "assign", "target": "count", "expr": {"int": 3}},
        {
          "kind": "while",
          "cond": {"op": ">", "left": {"var": "count"}, "right": {"int": 0}},
          "body": [
            {"kind": "assign", "target": "count", "expr": {"op": "-", "left": {"var": "count"}, "right": {"int": 1}}}
          ]
        }
      ]
    }
  ],
  "configuration": {
    "name": "Cfg",
    "tasks": [
      {"name": "Main_Task", "priority": 0}
    ],
    "programs": [
      {"instanceName": "MainInst", "programName": "Main", "taskName": "Main_Task"}
    ]
  }
}`

func writeFixture(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "program.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadLibraryFixtureConvertsCountdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, countdownFixture)

	lib, err := loadLibraryFixture(path)
	if err != nil {
		t.Fatalf("loadLibraryFixture: %v", err)
	}
	if len(lib.Programs) != 1 {
		t.Fatalf("len(Programs) = %d, want 1", len(lib.Programs))
	}
	if lib.Programs[0].Name.Name != "Main" {
		t.Errorf("program name = %q, want Main", lib.Programs[0].Name.Name)
	}
	if len(lib.Configurations) != 1 {
		t.Fatalf("len(Configurations) = %d, want 1", len(lib.Configurations))
	}
	if len(lib.Configurations[0].Tasks) != 1 {
		t.Errorf("len(Tasks) = %d, want 1", len(lib.Configurations[0].Tasks))
	}
}

func TestLoadLibraryFixtureRejectsUnknownStatementKind(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, `{"programs":[{"name":"Main","vars":[],"body":[{"kind":"bogus"}]}]}`)

	if _, err := loadLibraryFixture(path); err == nil {
		t.Fatal("expected an error for an unknown statement kind, got nil")
	}
}

func TestCompileFixtureProducesReadableContainer(t *testing.T) {
	dir := t.TempDir()
	in := writeFixture(t, dir, countdownFixture)
	out := filepath.Join(dir, "program.ipb")

	outputFile = out
	skipAnalysis = false
	disassemble = false
	defer func() { outputFile, skipAnalysis, disassemble = "", false, false }()

	if err := compileFixture(nil, []string{in}); err != nil {
		t.Fatalf("compileFixture: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("opening compiled container: %v", err)
	}
	defer f.Close()

	container, err := bytecode.ReadContainer(f)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}
	if container.Header.NumFunctions != 1 {
		t.Errorf("NumFunctions = %d, want 1", container.Header.NumFunctions)
	}
	if len(container.Code.Functions) != 1 {
		t.Errorf("len(Code.Functions) = %d, want 1", len(container.Code.Functions))
	}
}
