package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"prodflow/internal/ipc"
	"prodflow/internal/request"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and per-stage request counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Daemon running:  %s (pid %d)\n", yesNo(status.Running), status.PID)
				fmt.Fprintf(out, "Monitor running: %s\n", yesNo(status.MonitorRunning))
				fmt.Fprintf(out, "Database:        %s\n", status.DatabasePath)
				fmt.Fprintf(out, "Lock file:       %s\n", status.LockPath)

				if len(status.Preflight) > 0 {
					fmt.Fprintln(out, "\nPreflight checks:")
					for _, check := range status.Preflight {
						state := "FAIL"
						if check.Passed {
							state = "OK"
						}
						fmt.Fprintf(out, "  %-22s [%s] %s\n", check.Name+":", state, check.Detail)
					}
				}

				if len(status.StageStats) > 0 {
					rows := make([][]string, 0, len(status.StageStats))
					for _, stage := range request.Stages() {
						count, ok := status.StageStats[string(stage)]
						if !ok {
							continue
						}
						rows = append(rows, []string{string(stage), stage.Label(), fmt.Sprintf("%d", count)})
					}
					// Unknown stages from an older database render last.
					var extra []string
					for name := range status.StageStats {
						if _, ok := request.ParseStage(name); !ok {
							extra = append(extra, name)
						}
					}
					sort.Strings(extra)
					for _, name := range extra {
						rows = append(rows, []string{name, "", fmt.Sprintf("%d", status.StageStats[name])})
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderTable(
						[]string{"Stage", "Label", "Count"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}
}
