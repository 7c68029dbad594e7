package main

import (
	"fmt"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/signature"
	"github.com/spf13/cobra"
)

// signCmd prints the signature the gateway would send for a payment, for
// exercising the verify endpoint by hand.
func signCmd() *cobra.Command {
	var secret, orderID, paymentID string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute a payment signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				secret, err = cfg.Gateway.Secret()
				if err != nil {
					return err
				}
			}

			sig, err := signature.Sign(secret, orderID, paymentID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to gateway.key_secret)")
	cmd.Flags().StringVar(&orderID, "order", "", "gateway order id")
	cmd.Flags().StringVar(&paymentID, "payment", "", "gateway payment id")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("payment")

	return cmd
}
