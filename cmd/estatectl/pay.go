package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/estateflow/server/internal/adapter/outbound/stripepay"
	"github.com/estateflow/server/internal/domain/checkout"
	"github.com/estateflow/server/internal/infra/config"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

func payCmd(opts *globalOptions) *cobra.Command {
	var noConfirm bool

	cmd := &cobra.Command{
		Use:   "pay <estate-id>",
		Short: "Start a checkout for an estate and wait for the payment outcome",
		Long: `Creates a payment intent for the estate and polls its status until it
succeeds, fails or is cancelled. With stripe.publishable_key configured the
payment is confirmed using stripe.payment_method; otherwise confirm it in the
browser and this command keeps polling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			var confirmer outbound.PaymentConfirmerPort
			if !noConfirm && e.cfg.Stripe.PublishableKey != "" {
				confirmer = stripepay.NewConfirmer(&e.cfg.Stripe, e.logger)
			}

			ctrl := checkout.NewController(e.client, confirmer, e.logger, checkoutConfig(e.cfg.Checkout))
			return runCheckout(cmd.Context(), cmd.OutOrStdout(), ctrl, func(ctx context.Context) error {
				return ctrl.StartCheckout(ctx, args[0])
			})
		},
	}

	cmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "Do not confirm the payment from the CLI")
	return cmd
}

func watchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <payment-intent-id>",
		Short: "Resume polling an existing payment intent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer e.close()

			ctrl := checkout.NewController(e.client, nil, e.logger, checkoutConfig(e.cfg.Checkout))
			return runCheckout(cmd.Context(), cmd.OutOrStdout(), ctrl, func(ctx context.Context) error {
				return ctrl.Resume(ctx, args[0])
			})
		},
	}
}

// runCheckout prints every status change and blocks until the attempt ends.
// An interrupt stops polling without touching the remote payment.
func runCheckout(ctx context.Context, out io.Writer, ctrl *checkout.Controller, start func(context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := ctrl.OnStatusChange(func(rec model.PaymentRecord) {
		fmt.Fprintf(out, "%-24s %s NOK  %s\n", rec.Status.DisplayName(), rec.MajorAmount().StringFixed(2), rec.PaymentIntentID)
	})
	defer unsubscribe()

	if err := start(ctx); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ctrl.Cancel()
	}()

	rec, err := ctrl.Wait(context.Background())
	switch {
	case errors.Is(err, checkout.ErrCancelled):
		fmt.Fprintln(out, "stopped polling; the payment itself was not cancelled")
		return nil
	case err != nil:
		return err
	}

	if rec.HasReceipt() {
		fmt.Fprintf(out, "receipt: %s\n", *rec.ReceiptURL)
	}
	if !rec.Status.IsSucceeded() {
		return fmt.Errorf("payment ended as %s", rec.Status.DisplayName())
	}
	return nil
}

func checkoutConfig(c config.CheckoutConfig) *checkout.Config {
	return &checkout.Config{
		PollInterval:   c.PollInterval,
		MaxBackoff:     c.MaxBackoff,
		PollTimeout:    c.PollTimeout,
		RequestTimeout: c.RequestTimeout,
	}
}
