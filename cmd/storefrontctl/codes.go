package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DanielPopoola/storefront/internal/accesstoken"
	"github.com/DanielPopoola/storefront/internal/ordercode"
	"github.com/golang-jwt/jwt/v4"
	"github.com/spf13/cobra"
)

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes [order-code]",
		Short: "Print the receipt, verification and tracking codes derived from an order code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			if !ordercode.IsValid(code) {
				return fmt.Errorf("%q is not an order code", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Order code:        %s\n", code)
			fmt.Fprintf(out, "Receipt number:    %s\n", ordercode.ReceiptNumber(code))
			fmt.Fprintf(out, "Verification code: %s\n", ordercode.VerificationCode(code))
			fmt.Fprintf(out, "Tracking code:     %s\n", ordercode.TrackingCode(code))
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "token [order-id]",
		Short: "Print the customer access token for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := accesstoken.NewIssuer(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issuer.Issue(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", envOr("STOREFRONT_TOKEN__SECRET", ""), "access token secret")
	return cmd
}

func staffTokenCmd() *cobra.Command {
	var (
		subject, secret, issuer string
		ttl                     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "staff-token",
		Short: "Mint a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return errors.New("--subject is required")
			}
			if len(secret) < 16 {
				return errors.New("staff JWT secret must be at least 16 characters")
			}

			now := time.Now()
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   subject,
				Issuer:    issuer,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			})
			signed, err := token.SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "", "staff identifier recorded on orders they create")
	cmd.Flags().StringVar(&secret, "secret", envOr("STOREFRONT_AUTH__STAFF_JWT_SECRET", ""), "staff JWT signing secret")
	cmd.Flags().StringVar(&issuer, "issuer", envOr("STOREFRONT_AUTH__ISSUER", "storefront"), "token issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
