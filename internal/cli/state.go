package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Chorus/internal/controlplane"
	"github.com/shaiso/Chorus/internal/domain"
)

// NewStateCmd создаёт группу команд для работы со states.
func NewStateCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and transition states",
	}

	cmd.AddCommand(
		newStateShowCmd(storeFn, outputFn),
		newStateUpdateCmd(storeFn, outputFn),
		newStateReadyCmd(storeFn, outputFn),
	)

	return cmd
}

func newStateShowCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	var withOutput bool

	cmd := &cobra.Command{
		Use:   "show <workflow-id> <state>",
		Short: "Show a state document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var doc domain.StateDoc
			ok, err := st.GetJSON(ctx, controlplane.StateKey(args[0], args[1]), &doc)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("state %s/%s not found", args[0], args[1])
			}

			view := map[string]any{"state": doc}

			if withOutput {
				var output any
				ok, err := st.GetJSON(ctx, controlplane.OutputKey(args[0], args[1]), &output)
				if err == nil && ok {
					view["output"] = output
				}
			}

			out.JSON(view)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withOutput, "output", false, "Include the data-plane output document")

	return cmd
}

func newStateUpdateCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	var status, leaseToken, lastError, outputFile string
	var delta, outputTTL int
	var clearLease bool

	cmd := &cobra.Command{
		Use:   "update <workflow-id> <state>",
		Short: "Apply an atomic state transition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			req := controlplane.UpdateRequest{
				WorkflowID:    args[0],
				State:         args[1],
				Status:        status,
				LeaseToken:    leaseToken,
				AttemptsDelta: delta,
				ClearLease:    clearLease,
				LastError:     lastError,
				OutputTTL:     time.Duration(outputTTL) * time.Second,
			}

			if outputFile != "" {
				data, err := os.ReadFile(outputFile)
				if err != nil {
					return fmt.Errorf("read output payload: %w", err)
				}
				var payload any
				if err := json.Unmarshal(data, &payload); err != nil {
					return fmt.Errorf("parse output payload: %w", err)
				}
				req.Output = payload
			}

			mgr := controlplane.NewTransitionManager(st, nil)
			result, err := mgr.Update(ctx, req)
			if err != nil {
				return err
			}

			if !result.Updated {
				out.Failure(string(result.Kind), "")
				out.JSON(result)
				return fmt.Errorf("update failed: %s", result.Kind)
			}

			out.Success("state updated")
			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "New status (canonical or synonym)")
	cmd.Flags().StringVar(&leaseToken, "lease-token", "", "Guard: stored lease token must match")
	cmd.Flags().IntVar(&delta, "attempts-delta", 0, "Signed attempts delta")
	cmd.Flags().BoolVar(&clearLease, "clear-lease", false, "Release the lease in the same transaction")
	cmd.Flags().StringVar(&lastError, "error", "", "Record last_error text")
	cmd.Flags().StringVar(&outputFile, "output", "", "Path to JSON output payload")
	cmd.Flags().IntVar(&outputTTL, "output-ttl", 0, "Output document expiry in seconds")

	return cmd
}

func newStateReadyCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "ready <workflow-id> <state>",
		Short: "Evaluate notification readiness for a state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			eval := controlplane.NewEvaluator(st)
			result, err := eval.Ready(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			out.JSON(result)
			return nil
		},
	}
}
