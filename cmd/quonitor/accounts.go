package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/j-veylop/quonitor/internal/models"
	"github.com/j-veylop/quonitor/internal/services"
	"github.com/j-veylop/quonitor/internal/ui/components"
	"github.com/j-veylop/quonitor/internal/ui/styles"
)

var (
	flagProvider     string
	flagName         string
	flagAPIKey       string
	flagToken        string
	flagRefreshToken string
	flagCode         string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage monitored accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an account after validating its credentials",
	Long: `Add an account. The credentials are checked with a live request before
anything is stored. Pass --api-key - to read the key from stdin.`,
	Args: cobra.NoArgs,
	RunE: runAccountsAdd,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove an account and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

var accountsGoogleLoginCmd = &cobra.Command{
	Use:   "google-login",
	Short: "Add a Google Cloud account through OAuth consent",
	Args:  cobra.NoArgs,
	RunE:  runGoogleLogin,
}

func init() {
	accountsAddCmd.Flags().StringVarP(&flagProvider, "provider", "p", "", "Provider id (see 'quonitor providers')")
	accountsAddCmd.Flags().StringVarP(&flagName, "name", "n", "", "Display name")
	accountsAddCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "API key, or - to read from stdin")
	accountsAddCmd.Flags().StringVar(&flagToken, "token", "", "OAuth access token")
	accountsAddCmd.Flags().StringVar(&flagRefreshToken, "refresh-token", "", "OAuth refresh token")
	_ = accountsAddCmd.MarkFlagRequired("provider")
	_ = accountsAddCmd.MarkFlagRequired("name")
	accountsAddCmd.MarkFlagsMutuallyExclusive("api-key", "token")

	accountsGoogleLoginCmd.Flags().StringVarP(&flagName, "name", "n", "", "Display name")
	accountsGoogleLoginCmd.Flags().StringVar(&flagCode, "code", "", "Authorization code (prompted when empty)")
	_ = accountsGoogleLoginCmd.MarkFlagRequired("name")

	accountsCmd.AddCommand(accountsListCmd, accountsAddCmd, accountsRemoveCmd, accountsGoogleLoginCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(_ *cobra.Command, _ []string) error {
	return withManager(func(m *services.Manager) error {
		accs, err := m.ListAccounts()
		if err != nil {
			return err
		}
		if len(accs) == 0 {
			fmt.Println(styles.HelpStyle.Render("No accounts yet. Add one with 'quonitor accounts add'."))
			return nil
		}

		now := time.Now()
		rows := make([][]string, 0, len(accs))
		for _, acc := range accs {
			rows = append(rows, []string{
				acc.ID,
				acc.Name,
				styles.GetProviderStyle(acc.Provider).Render(acc.Provider),
				acc.CreatedAt.Format("2006-01-02"),
				components.FormatAge(acc.LastSynced, now),
			})
		}

		fmt.Print(components.RenderTable(components.Table{
			Title:   "Accounts",
			Headers: []string{"ID", "Name", "Provider", "Added", "Last synced"},
			Rows:    rows,
		}))
		return nil
	})
}

func runAccountsAdd(cmd *cobra.Command, _ []string) error {
	creds, err := credentialsFromFlags(cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withManager(func(m *services.Manager) error {
		acc, err := m.AddAccount(cmd.Context(), flagProvider, flagName, creds)
		if err != nil {
			return err
		}
		printAdded(acc, m)
		return nil
	})
}

func credentialsFromFlags(stdin io.Reader) (models.Credentials, error) {
	switch {
	case flagAPIKey == "-":
		key, err := readLine(stdin, "API key: ")
		if err != nil {
			return models.Credentials{}, err
		}
		return models.NewAPIKeyCredentials(key), nil
	case flagAPIKey != "":
		return models.NewAPIKeyCredentials(flagAPIKey), nil
	case flagToken != "" || flagRefreshToken != "":
		return models.NewOAuthCredentials(flagToken, flagRefreshToken), nil
	default:
		return models.Credentials{}, fmt.Errorf("one of --api-key or --token is required")
	}
}

func runAccountsRemove(_ *cobra.Command, args []string) error {
	return withManager(func(m *services.Manager) error {
		if err := m.RemoveAccount(args[0]); err != nil {
			return err
		}
		fmt.Println(styles.SuccessTextStyle.Render("Removed account " + args[0]))
		return nil
	})
}

func runGoogleLogin(cmd *cobra.Command, _ []string) error {
	return withManager(func(m *services.Manager) error {
		code := flagCode
		if code == "" {
			url, err := m.GoogleAuthURL(uuid.NewString())
			if err != nil {
				return err
			}
			fmt.Println("Open this URL in your browser and approve access:")
			fmt.Println()
			fmt.Println("  " + styles.InfoTextStyle.Render(url))
			fmt.Println()

			code, err = readLine(cmd.InOrStdin(), "Authorization code: ")
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		acc, err := m.AddGoogleAccount(ctx, flagName, code)
		if err != nil {
			return err
		}
		printAdded(acc, m)
		return nil
	})
}

func printAdded(acc *models.Account, m *services.Manager) {
	fmt.Println(styles.SuccessTextStyle.Render(fmt.Sprintf("Added %s account %q", acc.Provider, acc.Name)))
	fmt.Println(styles.HelpStyle.Render("id: " + acc.ID))
	if q, ok := m.CachedQuota(acc.ID); ok {
		fmt.Println(renderQuotaLine(acc.Name, q))
	}
}

func readLine(r io.Reader, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("no input given")
	}
	return line, nil
}
