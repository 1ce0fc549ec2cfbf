package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/estateflow/server/internal/domain/cancellation"
	"github.com/estateflow/server/internal/model"
)

func cancellationCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancellation",
		Short: "Track the cancellation of a subscription found in the estate's transactions",
	}

	cmd.AddCommand(cancellationStatusCmd(opts))
	cmd.AddCommand(cancellationRequestCmd(opts))
	cmd.AddCommand(cancellationConfirmCmd(opts))
	return cmd
}

// withWorkflow loads the workflow for the estate and transaction and runs fn.
func withWorkflow(cmd *cobra.Command, opts *globalOptions, estateID, transactionID string, fn func(w *cancellation.Workflow) error) error {
	e, err := loadEnv(opts)
	if err != nil {
		return err
	}
	defer e.close()

	w := cancellation.NewWorkflow(e.client, estateID, transactionID, e.logger)
	if err := w.LoadStatus(cmd.Context()); err != nil {
		return err
	}
	return fn(w)
}

func cancellationStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <estate-id> <transaction-id>",
		Short: "Show the cancellation status and history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, opts, args[0], args[1], func(w *cancellation.Workflow) error {
				printWorkflow(cmd.OutOrStdout(), w)
				return nil
			})
		},
	}
}

func cancellationRequestCmd(opts *globalOptions) *cobra.Command {
	var (
		method  string
		contact map[string]string
	)

	cmd := &cobra.Command{
		Use:   "request <estate-id> <transaction-id>",
		Short: "Generate a cancellation letter or email",
		Example: `  estatectl cancellation request est-1 tx-1 --method email --contact email=kundeservice@telenor.no
  estatectl cancellation request est-1 tx-1 --method letter --contact "address=Postboks 800 1331 Fornebu" --contact customer_number=12345`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, opts, args[0], args[1], func(w *cancellation.Workflow) error {
				artifact, err := w.RequestCancellation(cmd.Context(), &model.CancellationRequest{
					EstateID:           args[0],
					TransactionID:      args[1],
					CancellationMethod: model.CancellationMethod(method),
					ContactInfo:        contact,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, artifact.Text())
				fmt.Fprintln(out)
				printWorkflow(out, w)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", string(model.CancellationMethodEmail), "Delivery method (email, letter)")
	cmd.Flags().StringToStringVar(&contact, "contact", nil, "Contact info key=value (email, address, customer_number, ...)")
	return cmd
}

func cancellationConfirmCmd(opts *globalOptions) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "confirm <estate-id> <transaction-id>",
		Short: "Record that the provider confirmed the cancellation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, opts, args[0], args[1], func(w *cancellation.Workflow) error {
				if _, err := w.Confirm(cmd.Context(), comment); err != nil {
					return err
				}
				printWorkflow(cmd.OutOrStdout(), w)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "History comment (default \""+cancellation.DefaultConfirmComment+"\")")
	return cmd
}

func printWorkflow(out io.Writer, w *cancellation.Workflow) {
	fmt.Fprintf(out, "status: %s\n", w.State())
	for _, h := range w.History() {
		fmt.Fprintf(out, "  %-10s %s  %s\n", h.Status.DisplayName(), h.Timestamp, h.Comment)
	}
}
