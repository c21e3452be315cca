package cmd

import (
	"errors"
	"fmt"
	"time"

	authUsecase "push-relay/internal/auth/usecase"

	"github.com/spf13/cobra"
)

var tokenFlags struct {
	subject string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a calling service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := loadConfig()
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is required")
		}

		token, err := authUsecase.NewAuthUsecase(cfg.JWTSecret).IssueToken(tokenFlags.subject, tokenFlags.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "", "name of the calling service")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 30*24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}
