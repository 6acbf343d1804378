package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleProgramTaskDefinitionExists reports a CONFIGURATION's program
// instance that names a PROGRAM never declared in the library, and one
// bound to a task name never declared in that same configuration.
func RuleProgramTaskDefinitionExists(ctx *Context, lib *ast.Library) {
	programNames := make(map[string]bool, len(lib.Programs))
	for _, p := range lib.Programs {
		programNames[p.Name.Lower()] = true
	}

	for _, cfg := range lib.Configurations {
		taskNames := make(map[string]bool, len(cfg.Tasks))
		for _, t := range cfg.Tasks {
			taskNames[t.Name.Lower()] = true
		}

		for _, inst := range cfg.Programs {
			if !programNames[inst.ProgramName.Id.Lower()] {
				d := ctx.Report(diag.ProblemUndeclaredProgram, inst.ProgramName.Span)
				msg := "undeclared program " + inst.ProgramName.String()
				if suggestion, ok := diag.FindClosestMatch(inst.ProgramName.Id.Lower(), keys(programNames)); ok {
					msg += "; did you mean " + suggestion + "?"
				}
				*d = *d.Withf("%s", msg)
			}
			if inst.TaskName != nil && !taskNames[inst.TaskName.Lower()] {
				ctx.Reportf(diag.ProblemUndeclaredTask, cfg.Pos(),
					"configuration %s binds program instance %s to undeclared task %s",
					cfg.Name.Name, inst.InstanceName.Name, inst.TaskName.Name)
			}
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
