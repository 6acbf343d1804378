package cmd

import (
	"path/filepath"
	"testing"
)

func compileFixtureToFile(t *testing.T, dir, fixture string) string {
	t.Helper()
	in := writeFixture(t, dir, fixture)
	out := filepath.Join(dir, "program.ipb")

	outputFile = out
	skipAnalysis = false
	disassemble = false
	defer func() { outputFile, skipAnalysis, disassemble = "", false, false }()

	if err := compileFixture(nil, []string{in}); err != nil {
		t.Fatalf("compileFixture: %v", err)
	}
	return out
}

func TestRunContainerCountsDownToZero(t *testing.T) {
	dir := t.TempDir()
	containerPath := compileFixtureToFile(t, dir, countdownFixture)

	runRounds = 50
	runWatchdogUs = 0
	defer func() { runRounds, runWatchdogUs = 100, 0 }()

	if err := runContainer(nil, []string{containerPath}); err != nil {
		t.Fatalf("runContainer: %v", err)
	}
}

func TestRunContainerRejectsMissingFile(t *testing.T) {
	if err := runContainer(nil, []string{filepath.Join(t.TempDir(), "missing.ipb")}); err == nil {
		t.Fatal("expected an error for a missing container file, got nil")
	}
}

func TestRunContainerWatchdogOverrideFaultsASlowTask(t *testing.T) {
	dir := t.TempDir()
	// A bounded but expensive loop: real wall-clock work, but it still
	// terminates on its own, so an impossibly tight watchdog (1us) is
	// guaranteed to be exceeded without the test ever hanging.
	slow := `{
  "programs": [
    {
      "name": "Main",
      "vars": [{"name": "count", "type": "INT"}],
      "body": [
        {"kind": "assign", "target": "count", "expr": {"int": 200000}},
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
    "tasks": [{"name": "Main_Task", "priority": 0}],
    "programs": [{"instanceName": "MainInst", "programName": "Main", "taskName": "Main_Task"}]
  }
}`
	containerPath := compileFixtureToFile(t, dir, slow)

	runRounds = 5
	runWatchdogUs = 1
	defer func() { runRounds, runWatchdogUs = 100, 0 }()

	err := runContainer(nil, []string{containerPath})
	if err == nil {
		t.Fatal("expected a watchdog fault, got nil error")
	}
}
