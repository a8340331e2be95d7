package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prodflow/internal/ipc"
)

func newRequestCommand(ctx *commandContext) *cobra.Command {
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Manage production requests",
	}

	requestCmd.AddCommand(newRequestCreateCommand(ctx))
	requestCmd.AddCommand(newRequestListCommand(ctx))
	requestCmd.AddCommand(newRequestShowCommand(ctx))
	requestCmd.AddCommand(newRequestHistoryCommand(ctx))
	requestCmd.AddCommand(newRequestSetCommand(ctx))
	requestCmd.AddCommand(newRequestAdvanceCommand(ctx))

	return requestCmd
}

func newRequestCreateCommand(ctx *commandContext) *cobra.Command {
	var actor, department, contact, customer, campaign, budget string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a request in the intake stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Create(ipc.CreateRequestRequest{
					ActorID:       actor,
					Name:          args[0],
					Department:    department,
					ContactPerson: contact,
					CustomerName:  customer,
					CampaignName:  campaign,
					Budget:        budget,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created request %d (%s)\n", resp.Request.ID, resp.Request.Reference)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Acting user id")
	cmd.Flags().StringVar(&department, "department", "", "Requesting department")
	cmd.Flags().StringVar(&contact, "contact", "", "Contact person")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer company name")
	cmd.Flags().StringVar(&campaign, "campaign", "", "Campaign name")
	cmd.Flags().StringVar(&budget, "budget", "", "Campaign budget (free text)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newRequestListCommand(ctx *commandContext) *cobra.Command {
	var stages []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List requests, optionally filtered by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.List(stages)
				if err != nil {
					return err
				}
				if len(resp.Requests) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No requests found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Requests))
				for _, req := range resp.Requests {
					rows = append(rows, []string{
						strconv.FormatInt(req.ID, 10),
						req.Name,
						req.StageLabel,
						req.AssignedActorID,
						req.DeliveryDate,
						req.BudgetDisplay,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Name", "Stage", "Assignee", "Deadline", "Budget"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&stages, "stage", nil, "Filter by stage code (repeatable)")
	return cmd
}

func newRequestShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one request in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Describe(id)
				if err != nil {
					return err
				}
				req := resp.Request
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Request %d (%s)\n", req.ID, req.Reference)
				fmt.Fprintf(out, "  Name:         %s\n", req.Name)
				fmt.Fprintf(out, "  Stage:        %s (%s)\n", req.StageLabel, req.Stage)
				fmt.Fprintf(out, "  Department:   %s\n", req.Department)
				fmt.Fprintf(out, "  Contact:      %s\n", req.ContactPerson)
				fmt.Fprintf(out, "  Assignee:     %s\n", req.AssignedActorID)
				fmt.Fprintf(out, "  Customer:     %s\n", req.CustomerName)
				fmt.Fprintf(out, "  Campaign:     %s\n", req.CampaignName)
				if req.BudgetDisplay != "" {
					fmt.Fprintf(out, "  Budget:       %s\n", req.BudgetDisplay)
				}
				if req.DeliveryDate != "" {
					fmt.Fprintf(out, "  Deadline:     %s\n", req.DeliveryDate)
				}
				if req.PreparationState != "" {
					fmt.Fprintf(out, "  Preparation:  %s\n", req.PreparationState)
				}
				if req.Observations != "" {
					fmt.Fprintf(out, "  Observations: %s\n", req.Observations)
				}
				fmt.Fprintf(out, "  Updated:      %s\n", req.UpdatedAt)
				return nil
			})
		},
	}
}

func newRequestHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the audit trail for a request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(id)
				if err != nil {
					return err
				}
				if len(resp.Entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No history recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entries))
				for _, entry := range resp.Entries {
					rows = append(rows, []string{
						entry.CreatedAt,
						entry.ChangedField,
						entry.OldValue,
						entry.NewValue,
						entry.ActorID,
						entry.ChangeType,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"When", "Field", "Old", "New", "Actor", "Type"},
					rows,
					nil,
				))
				return nil
			})
		},
	}
}

func newRequestSetCommand(ctx *commandContext) *cobra.Command {
	var actor string
	var name, department, contact, assignee, deadline, observations flagValue
	var preparation, pieces, formats, notes, channel flagValue

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Update request fields (only fields you pass are touched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			mutation := ipc.MutateRequest{
				ID:               id,
				ActorID:          actor,
				Name:             name.ptr(),
				Department:       department.ptr(),
				ContactPerson:    contact.ptr(),
				AssignedActorID:  assignee.ptr(),
				DeliveryDate:     deadline.ptr(),
				Observations:     observations.ptr(),
				PreparationState: preparation.ptr(),
				Pieces:           pieces.ptr(),
				Formats:          formats.ptr(),
				TechnicalNotes:   notes.ptr(),
				DeliveryChannel:  channel.ptr(),
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Mutate(mutation)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Entries) == 0 {
					fmt.Fprintln(out, "No changes")
				} else {
					fmt.Fprintf(out, "Applied %d change(s)\n", len(resp.Entries))
					for _, entry := range resp.Entries {
						fmt.Fprintf(out, "  %s: %q -> %q\n", entry.ChangedField, entry.OldValue, entry.NewValue)
					}
				}
				if len(resp.Dropped) > 0 {
					fmt.Fprintf(out, "Dropped (no permission): %s\n", strings.Join(resp.Dropped, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Acting user id")
	cmd.Flags().Var(&name, "name", "Request name")
	cmd.Flags().Var(&department, "department", "Requesting department")
	cmd.Flags().Var(&contact, "contact", "Contact person")
	cmd.Flags().Var(&assignee, "assignee", "Assigned actor id")
	cmd.Flags().Var(&deadline, "deadline", "Delivery deadline (RFC3339 or YYYY-MM-DD, empty clears)")
	cmd.Flags().Var(&observations, "observations", "Observations")
	cmd.Flags().Var(&preparation, "preparation", "Preparation state (DRAFT or COMPLETED)")
	cmd.Flags().Var(&pieces, "pieces", "Production pieces")
	cmd.Flags().Var(&formats, "formats", "Production formats")
	cmd.Flags().Var(&notes, "notes", "Technical notes")
	cmd.Flags().Var(&channel, "channel", "Delivery channel")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func newRequestAdvanceCommand(ctx *commandContext) *cobra.Command {
	var actor, trigger string

	cmd := &cobra.Command{
		Use:   "advance <id>",
		Short: "Advance a request to its next stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Advance(ipc.AdvanceRequest{ID: id, ActorID: actor, Trigger: trigger})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !resp.Changed {
					fmt.Fprintf(out, "Stage unchanged (%s)\n", resp.To)
					return nil
				}
				fmt.Fprintf(out, "Advanced: %s -> %s\n", resp.From, resp.To)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Acting user id")
	cmd.Flags().StringVar(&trigger, "trigger", "", "Transition trigger (advance, sold, not_sold, cancel)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid request id %q", raw)
	}
	return id, nil
}

// flagValue distinguishes "flag not passed" from "flag passed empty", so an
// empty --deadline clears the date instead of being ignored.
type flagValue struct {
	value string
	set   bool
}

func (f *flagValue) String() string { return f.value }

func (f *flagValue) Set(value string) error {
	f.value = value
	f.set = true
	return nil
}

func (f *flagValue) Type() string { return "string" }

func (f *flagValue) ptr() *string {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}
