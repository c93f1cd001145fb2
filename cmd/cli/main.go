package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	tenant  string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "caisse-cli",
		Short: "Caisse CLI tool",
		Long:  `A command line interface for interacting with the Caisse cash ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Caisse API")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "", "Tenant ID sent as X-Tenant-ID")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		balanceCmd(),
		movementsCmd(),
		adjustmentCmd(),
		currenciesCmd(),
		expensesCmd(),
		backfillCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance [currency]",
		Short: "Show per-currency cash balances",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/v1/balance"
			if len(args) == 1 {
				path += "/" + args[0]
			}
			doGet(path)
		},
	}
	return cmd
}

func movementsCmd() *cobra.Command {
	var (
		source    string
		direction string
		currency  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "movements",
		Short: "List ledger movements",
		Run: func(cmd *cobra.Command, args []string) {
			path := fmt.Sprintf("/api/v1/movements/?limit=%d", limit)
			if source != "" {
				path += "&source=" + source
			}
			if direction != "" {
				path += "&direction=" + direction
			}
			if currency != "" {
				path += "&currency=" + currency
			}
			doGet(path)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source (payment, expense, adjustment)")
	cmd.Flags().StringVar(&direction, "direction", "", "Filter by direction (in, out)")
	cmd.Flags().StringVar(&currency, "currency", "", "Filter by currency code")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of movements")

	return cmd
}

func adjustmentCmd() *cobra.Command {
	var (
		direction string
		amount    string
		currency  string
		reason    string
	)

	cmd := &cobra.Command{
		Use:   "adjustment",
		Short: "Record a manual cash adjustment",
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/movements/adjustments", map[string]any{
				"direction":   direction,
				"amount":      amount,
				"currency":    currency,
				"description": reason,
			})
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "in", "Adjustment direction (in or out)")
	cmd.Flags().StringVar(&amount, "amount", "", "Adjustment amount, e.g. 100.00")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency code")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the adjustment is needed")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func currenciesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currencies",
		Short: "Currency registry operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's configured currencies",
		Run: func(cmd *cobra.Command, args []string) {
			doGet("/api/v1/currencies/")
		},
	}

	var name string
	registerCmd := &cobra.Command{
		Use:   "register CODE",
		Short: "Register a currency for the tenant",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/currencies/", map[string]any{
				"code": args[0],
				"name": name,
			})
		},
	}
	registerCmd.Flags().StringVar(&name, "name", "", "Display name")

	cmd.AddCommand(listCmd, registerCmd)
	return cmd
}

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Expense review operations",
	}

	var status string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's expenses",
		Run: func(cmd *cobra.Command, args []string) {
			path := "/api/v1/expenses/"
			if status != "" {
				path += "?status=" + status
			}
			doGet(path)
		},
	}
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected, paid)")

	approveCmd := &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending expense",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/expenses/"+args[0]+"/approve", nil)
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a pending expense",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/expenses/"+args[0]+"/reject", nil)
		},
	}

	payCmd := &cobra.Command{
		Use:   "pay ID",
		Short: "Pay an approved expense and record the cash movement",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/expenses/"+args[0]+"/pay", nil)
		},
	}

	cmd.AddCommand(listCmd, approveCmd, rejectCmd, payCmd)
	return cmd
}

func backfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Attach synthesized vouchers to movements missing a document",
		Run: func(cmd *cobra.Command, args []string) {
			doPost("/api/v1/backfill/vouchers", nil)
		},
	}
	return cmd
}

func doGet(path string) {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	doRequest(req)
}

func doPost(path string, body map[string]any) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, reader)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	doRequest(req)
}

func doRequest(req *http.Request) {
	if tenant != "" {
		req.Header.Set("X-Tenant-ID", tenant)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, truncate(string(body), 2000))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Println(string(body))
		return
	}

	printJSON(result)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
