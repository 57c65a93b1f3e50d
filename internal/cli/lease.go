package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Chorus/internal/controlplane"
)

// NewLeaseCmd создаёт группу команд протокола lease.
func NewLeaseCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Acquire and renew state leases",
	}

	cmd.AddCommand(
		newLeaseAcquireCmd(storeFn, outputFn),
		newLeaseRenewCmd(storeFn, outputFn),
	)

	return cmd
}

func newLeaseAcquireCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	var owner, token string
	var ttl, delta int
	var skipReady, skipAssignment, noSteal, noRunning bool

	cmd := &cobra.Command{
		Use:   "acquire <workflow-id> <state>",
		Short: "Acquire an exclusive lease on a state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			if owner == "" {
				return fmt.Errorf("--owner is required")
			}

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			mgr := controlplane.NewLeaseManager(st, nil)
			result, err := mgr.Acquire(ctx, controlplane.AcquireRequest{
				WorkflowID:          args[0],
				State:               args[1],
				Owner:               owner,
				Token:               token,
				TTLSeconds:          ttl,
				AttemptsDelta:       delta,
				SkipReadyCheck:      skipReady,
				SkipAssignmentCheck: skipAssignment,
				NoSteal:             noSteal,
				NoRunningTransition: noRunning,
			})
			if err != nil {
				return err
			}

			if !result.OK() {
				out.Failure(string(result.Kind), "")
				out.JSON(result)
				return fmt.Errorf("acquire failed: %s", result.Kind)
			}

			out.Success(fmt.Sprintf("lease token: %s", result.Token))
			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Agent identity (required)")
	cmd.Flags().StringVar(&token, "token", "", "Reuse a caller-supplied lease token")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "Lease TTL in seconds (default 60)")
	cmd.Flags().IntVar(&delta, "attempts-delta", 0, "Attempts increment on pending->running (default 1)")
	cmd.Flags().BoolVar(&skipReady, "skip-ready", false, "Skip upstream readiness check")
	cmd.Flags().BoolVar(&skipAssignment, "skip-assignment", false, "Skip agent assignment check")
	cmd.Flags().BoolVar(&noSteal, "no-steal", false, "Do not take over expired leases")
	cmd.Flags().BoolVar(&noRunning, "no-running", false, "Do not transition pending->running")

	return cmd
}

func newLeaseRenewCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	var token, owner string
	var ttl int
	var rejectExpired, touchOnly bool

	cmd := &cobra.Command{
		Use:   "renew <workflow-id> <state>",
		Short: "Renew a held lease",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			if token == "" {
				return fmt.Errorf("--token is required")
			}

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			mgr := controlplane.NewLeaseManager(st, nil)
			result, err := mgr.Renew(ctx, controlplane.RenewRequest{
				WorkflowID:      args[0],
				State:           args[1],
				Token:           token,
				Owner:           owner,
				TTLSeconds:      ttl,
				RejectIfExpired: rejectExpired,
				TouchOnly:       touchOnly,
			})
			if err != nil {
				return err
			}

			if !result.Renewed {
				out.Failure(string(result.Kind), "")
				out.JSON(result)
				return fmt.Errorf("renew failed: %s", result.Kind)
			}

			out.Success("lease renewed")
			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Lease token (required)")
	cmd.Flags().StringVar(&owner, "owner", "", "Verify stored owner matches")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "New TTL in seconds (0 keeps current)")
	cmd.Flags().BoolVar(&rejectExpired, "reject-expired", false, "Fail if the lease already expired")
	cmd.Flags().BoolVar(&touchOnly, "touch", false, "Refresh timestamp only, keep TTL")

	return cmd
}
