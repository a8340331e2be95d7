package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"prodflow/internal/ipc"
)

func newDeadlineCommand(ctx *commandContext) *cobra.Command {
	deadlineCmd := &cobra.Command{
		Use:   "deadline",
		Short: "Deadline utilities",
	}
	deadlineCmd.AddCommand(newDeadlineListCommand(ctx))
	return deadlineCmd
}

func newDeadlineListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open requests inside the alert window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Deadlines()
				if err != nil {
					return err
				}
				if len(resp.Requests) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No deadlines inside the alert window")
					return nil
				}
				rows := make([][]string, 0, len(resp.Requests))
				for _, req := range resp.Requests {
					rows = append(rows, []string{
						strconv.FormatInt(req.ID, 10),
						req.Name,
						req.StageLabel,
						req.DeliveryDate,
						req.AssignedActorID,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Stage", "Deadline", "Assignee"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}
