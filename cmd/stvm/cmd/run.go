package cmd

import (
	"fmt"
	"os"

	"github.com/openplc-go/stvm/internal/bytecode"
	"github.com/openplc-go/stvm/internal/vm"
	"github.com/spf13/cobra"
)

var (
	runRounds     int
	runWatchdogUs uint64
)

var runCmd = &cobra.Command{
	Use:   "run [container.ipb]",
	Short: "Run a compiled container against the scan-based VM",
	Long: `Load a compiled container and execute it on the scan-based virtual
machine, running one scheduling round per scan cycle until --rounds is
exhausted or the VM stops or faults.`,
	Args: cobra.ExactArgs(1),
	RunE: runContainer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runRounds, "rounds", 100, "number of scheduling rounds to run (0 = run until stopped or faulted)")
	runCmd.Flags().Uint64Var(&runWatchdogUs, "watchdog-us", 0, "override every task's watchdog budget, in microseconds (0 = use the container's own)")
}

func runContainer(_ *cobra.Command, args []string) error {
	filename := args[0]

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open container %s: %w", filename, err)
	}
	container, err := bytecode.ReadContainer(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to read container %s: %w", filename, err)
	}

	running := vm.New().Load(container).Start()
	if runWatchdogUs > 0 {
		running.SetWatchdogOverride(runWatchdogUs)
	}

	rounds := 0
	for runRounds == 0 || rounds < runRounds {
		fault, err := running.RunRound()
		if err != nil {
			return fmt.Errorf("round %d: %w", rounds, err)
		}
		if fault != nil {
			faulted := running.Fault(*fault)
			fmt.Fprintf(os.Stderr, "faulted after %d round(s): %s (task %d, instance %d)\n",
				rounds, faulted.TrapValue().Error(), faulted.TaskID(), faulted.InstanceID())
			printVariables(faulted)
			return fmt.Errorf("vm faulted: %w", faulted.TrapValue())
		}
		rounds++
		if verbose {
			fmt.Fprintf(os.Stderr, "round %d complete (scan count %d)\n", rounds, running.ScanCount())
		}
	}

	stopped := running.Stop()
	fmt.Printf("stopped after %d scan cycle(s)\n", stopped.ScanCount())
	printVariables(stopped)
	return nil
}

// variableReader is satisfied by every VM lifecycle state that still
// holds onto its variable table (VmStopped, VmFaulted).
type variableReader interface {
	NumVariables() uint16
	ReadVariable(uint16) (int32, error)
}

func printVariables(r variableReader) {
	n := r.NumVariables()
	if n == 0 {
		return
	}
	fmt.Println("variables:")
	for i := uint16(0); i < n; i++ {
		v, err := r.ReadVariable(i)
		if err != nil {
			continue
		}
		fmt.Printf("  var[%d] = %d\n", i, v)
	}
}
