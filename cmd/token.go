package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hospital-app-server/internal/models"
	"hospital-app-server/internal/utils"
)

// newTokenCommand issues access tokens for local testing. Production tokens
// come from the identity service sharing JWT_SECRET.
func newTokenCommand() *cobra.Command {
	var (
		userID uint
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return errors.New("--user-id is required")
			}
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			token, err := utils.GenerateAccessToken(userID, r, cfg.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user-id", 0, "subject user id")
	cmd.Flags().StringVar(&role, "role", "PATIENT", "PATIENT, DOCTOR, LAB_ATTENDANT or ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
