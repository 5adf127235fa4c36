package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/exam-ide/internal/auth"
	"github.com/sakif/exam-ide/internal/config"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a participant token",
	Long: `Print a signed token for one exam participant. The IDE sends it as
"Authorization: Bearer <token>". Requires auth.jwt_secret.

Examples:
  examide token --subject student-042
  examide token --subject student-042 --ttl 3h`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Participant ID stored in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 4*time.Hour, "How long the token stays valid")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	// Only the secret is needed; skip building the engine.
	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not set, tokens would not be checked")
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(tokenSubject, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
