package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func deletionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deletions",
		Short: "Незавершённые каскадные удаления возможностей",
	}
	cmd.AddCommand(deletionsListCmd())
	cmd.AddCommand(deletionsResumeCmd())
	return cmd
}

func deletionsListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Показать прерванные удаления",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			pending, err := e.app.Cascade.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), pending)
			}
			if len(pending) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "незавершённых удалений нет")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPPORTUNITY\tHOST\tFAILED STEP\tATTEMPTS\tUPDATED\tERROR")
			for _, d := range pending {
				lastErr := ""
				if d.LastError != nil {
					lastErr = *d.LastError
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					d.OpportunityID, d.HostID, d.FailedStep, d.Attempts,
					d.UpdatedAt.Format(time.RFC3339), lastErr)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "вывести в JSON")
	return cmd
}

func deletionsResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume [opportunity-id]",
		Short: "Продолжить прерванное удаление",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("некорректный идентификатор возможности: %w", err)
			}

			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.app.Cascade.Resume(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	return cmd
}
