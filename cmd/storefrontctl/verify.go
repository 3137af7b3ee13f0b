package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

func verifyReceiptCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "verify-receipt [receipt-number] [verification-code]",
		Short: "Check a receipt against a running storefront",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"receipt": {args[0]}, "code": {args[1]}}
			return getAndPrint(cmd, baseURL+"/api/v1/receipts/verify?"+q.Encode())
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL")
	return cmd
}

func verifyTrackingCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "verify-tracking [tracking-code]",
		Short: "Check a tracking code against a running storefront",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"code": {args[0]}}
			return getAndPrint(cmd, baseURL+"/api/v1/tracking/verify?"+q.Encode())
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", envOr("STOREFRONT_URL", "http://localhost:8080"), "storefront base URL")
	return cmd
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func getAndPrint(cmd *cobra.Command, target string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(body)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty.String())

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("storefront answered %s", resp.Status)
	}
	return nil
}
