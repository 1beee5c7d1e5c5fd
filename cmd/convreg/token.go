package main

import (
	"fmt"
	"time"

	"github.com/artpar/convreg/adapters/auth"
	"github.com/artpar/convreg/adapters/clock"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin token for selector writes",
	Long: `Issue a signed admin token using auth.token_secret.

Send it as "Authorization: Bearer <token>" on PUT and DELETE
/api/v1/selectors/{name}. The token is printed to stdout and its expiry
to stderr. Rotating the secret revokes every issued token.

Examples:
  convreg token
  convreg token --subject deploy-bot --ttl 15m`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var (
	tokenSubject string
	tokenTTL     time.Duration
)

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ttl := tokenTTL
	if ttl == 0 {
		ttl = cfg.Auth.TokenTTL
	}
	tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret, ttl, clock.Real{})
	if err != nil {
		return fmt.Errorf("%w (set auth.token_secret or CONVREG_ADMIN_TOKEN_SECRET)", err)
	}

	token, expiresAt, err := tokens.Issue(tokenSubject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
