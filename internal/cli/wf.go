package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/Chorus/internal/controlplane"
	"github.com/shaiso/Chorus/internal/dag"
	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
)

// StoreFn — отложенное подключение к store (создаётся на время команды).
type StoreFn func(ctx context.Context) (store.Client, error)

// NewWfCmd создаёт группу команд для управления workflows.
func NewWfCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wf",
		Short: "Manage workflows",
	}

	cmd.AddCommand(
		newWfCreateCmd(storeFn, outputFn),
		newWfShowCmd(storeFn, outputFn),
		newWfStatesCmd(storeFn, outputFn),
	)

	return cmd
}

func newWfCreateCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	var steps []string
	var defFile string
	var agents []string

	cmd := &cobra.Command{
		Use:   "create <workflow-id>",
		Short: "Seed workflow documents (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			req := controlplane.CreateRequest{
				WorkflowID: args[0],
				Steps:      steps,
			}

			if defFile != "" {
				data, err := os.ReadFile(defFile)
				if err != nil {
					return fmt.Errorf("read definition: %w", err)
				}
				def, err := dag.ParseDefinition(data)
				if err != nil {
					return err
				}
				req.Definition = def
				req.Steps = nil
			}

			if len(agents) > 0 {
				req.Agents = make(map[string]string, len(agents))
				for _, a := range agents {
					state, agent, ok := strings.Cut(a, "=")
					if !ok {
						return fmt.Errorf("invalid --agent %q, expected state=agent", a)
					}
					req.Agents[state] = agent
				}
			}

			seeder := controlplane.NewSeeder(st, nil)
			result, err := seeder.Create(ctx, req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("workflow %s: %d created, %d existing",
				args[0], len(result.Created), len(result.Existing)))
			out.JSON(map[string]any{
				"created":  result.Created,
				"existing": result.Existing,
			})
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&steps, "steps", nil, "Linear step list (comma-separated)")
	cmd.Flags().StringVar(&defFile, "def", "", "Path to state machine definition JSON")
	cmd.Flags().StringArrayVar(&agents, "agent", nil, "Agent assignment state=agent (repeatable)")

	return cmd
}

func newWfShowCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show <workflow-id>",
		Short: "Show workflow meta document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var meta domain.Meta
			ok, err := st.GetJSON(ctx, controlplane.MetaKey(args[0]), &meta)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("workflow %s not found", args[0])
			}

			out.JSON(meta)
			return nil
		},
	}
}

func newWfStatesCmd(storeFn StoreFn, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "states <workflow-id>",
		Short: "List workflow states with statuses and leases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			st, err := storeFn(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var meta domain.Meta
			ok, err := st.GetJSON(ctx, controlplane.MetaKey(args[0]), &meta)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("workflow %s not found", args[0])
			}

			headers := []string{"STATE", "STATUS", "ATTEMPTS", "LEASE_OWNER", "STARTED", "FINISHED"}
			rows := make([][]string, 0, len(meta.States))
			docs := make(map[string]*domain.StateDoc, len(meta.States))

			for _, state := range meta.States {
				var doc domain.StateDoc
				ok, err := st.GetJSON(ctx, controlplane.StateKey(args[0], state), &doc)
				if err != nil || !ok {
					rows = append(rows, []string{state, "?", "", "", "", ""})
					continue
				}
				docs[state] = &doc

				owner := ""
				if doc.HasLease() {
					owner = doc.Lease.OwnerAgentID
				}
				rows = append(rows, []string{
					state,
					string(doc.Status),
					fmt.Sprintf("%d", doc.Attempts),
					owner,
					doc.StartedAt,
					doc.FinishedAt,
				})
			}

			out.Print(headers, rows, docs)
			return nil
		},
	}
}
