package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arsava/scenarios/internal/domain"
	"github.com/arsava/scenarios/internal/facade"
)

// NewScenarioCmd builds the "scenario" command group: start, show, list,
// pause, resume, cancel, restart, and fleet-wide pause-all/resume-all/
// cancel-all. facadeFn is re-resolved on every invocation so commands stay
// decoupled from construction order in main(), mirroring the teacher's
// clientFn closure-injection pattern.
func NewScenarioCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Start and inspect scenario executions",
	}

	cmd.AddCommand(
		newScenarioStartCmd(facadeFn, outputFn),
		newScenarioShowCmd(facadeFn, outputFn),
		newScenarioListCmd(facadeFn, outputFn),
		newScenarioPauseCmd(facadeFn, outputFn),
		newScenarioResumeCmd(facadeFn, outputFn),
		newScenarioCancelCmd(facadeFn, outputFn),
		newScenarioRestartCmd(facadeFn, outputFn),
		newScenarioPauseAllCmd(facadeFn, outputFn),
		newScenarioResumeAllCmd(facadeFn, outputFn),
		newScenarioCancelAllCmd(facadeFn, outputFn),
	)

	return cmd
}

func newScenarioStartCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "start SCENARIO_ID",
		Short: "Start a new execution of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := domain.ModeSimulation
			if mode == string(domain.ModeAssessment) {
				m = domain.ModeAssessment
			}

			id, err := facadeFn().StartScenario(cmd.Context(), args[0], m, nil)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Print(
				[]string{"EXECUTION_ID"},
				[][]string{{id}},
				map[string]string{"executionId": id},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeSimulation), "execution mode: simulation|assessment")
	return cmd
}

func newScenarioShowCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show EXECUTION_ID",
		Short: "Show an execution's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := facadeFn().GetExecution(args[0])
			if err != nil {
				return err
			}
			outputFn().Print(
				[]string{"ID", "SCENARIO", "MODE", "STATUS", "PASSED", "TOTAL"},
				[][]string{{
					snap.ID, snap.ScenarioID, string(snap.Mode), string(snap.Status),
					fmt.Sprint(snap.PassedSteps), fmt.Sprint(snap.TotalSteps),
				}},
				snap,
			)
			return nil
		},
	}
}

func newScenarioListCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all known executions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snaps := facadeFn().ListExecutions()

			rows := make([][]string, len(snaps))
			for i, snap := range snaps {
				rows[i] = []string{
					snap.ID, snap.ScenarioID, string(snap.Mode), string(snap.Status),
					fmt.Sprint(snap.PassedSteps), fmt.Sprint(snap.TotalSteps),
				}
			}

			outputFn().Print([]string{"ID", "SCENARIO", "MODE", "STATUS", "PASSED", "TOTAL"}, rows, snaps)
			return nil
		},
	}
}

func newScenarioPauseCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pause EXECUTION_ID",
		Short: "Pause a running execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !facadeFn().PauseExecution(args[0]) {
				return fmt.Errorf("execution %s is not running", args[0])
			}
			outputFn().Success("paused " + args[0])
			return nil
		},
	}
}

func newScenarioResumeCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resume EXECUTION_ID",
		Short: "Resume a paused execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !facadeFn().ResumeExecution(args[0]) {
				return fmt.Errorf("execution %s is not paused", args[0])
			}
			outputFn().Success("resumed " + args[0])
			return nil
		},
	}
}

func newScenarioCancelCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel EXECUTION_ID",
		Short: "Cancel an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !facadeFn().CancelExecution(args[0]) {
				return fmt.Errorf("execution %s is already terminal", args[0])
			}
			outputFn().Success("cancelled " + args[0])
			return nil
		},
	}
}

func newScenarioRestartCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "restart EXECUTION_ID",
		Short: "Cancel an execution and start a fresh one in its place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := facadeFn().RestartExecution(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := outputFn()
			out.Print(
				[]string{"EXECUTION_ID"},
				[][]string{{id}},
				map[string]string{"executionId": id},
			)
			return nil
		},
	}
}

func newScenarioPauseAllCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "pause-all",
		Short: "Pause every non-terminal execution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := facadeFn().PauseAll()
			outputFn().Success(fmt.Sprintf("paused %d execution(s)", n))
			return nil
		},
	}
}

func newScenarioResumeAllCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resume-all",
		Short: "Resume every paused execution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := facadeFn().ResumeAll()
			outputFn().Success(fmt.Sprintf("resumed %d execution(s)", n))
			return nil
		},
	}
}

func newScenarioCancelAllCmd(facadeFn func() *facade.Facade, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every non-terminal execution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := facadeFn().CancelAll()
			outputFn().Success(fmt.Sprintf("cancelled %d execution(s)", n))
			return nil
		},
	}
}
