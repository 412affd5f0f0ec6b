package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/UkralStul/blog-publication-service/internal/auth"
	"github.com/UkralStul/blog-publication-service/internal/config"
	"github.com/UkralStul/blog-publication-service/internal/domain"
)

// staffCmd создает модератора. Регистрация через сайт всегда дает обычного пользователя.
func staffCmd(g *globalFlags) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a staff user who can moderate comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			cfg, log, err := loadConfig(g)
			if err != nil {
				return err
			}
			if cfg.Storage.Type == config.StorageMemory {
				return errors.New("create-staff needs a persistent storage (postgres or sqlite)")
			}

			st, err := openStorage(cfg.Storage, log)
			if err != nil {
				return err
			}
			defer st.close()

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			user, err := st.CreateUser(cmd.Context(), &domain.User{
				Username:     username,
				Email:        email,
				PasswordHash: hash,
				IsStaff:      true,
			})
			if err != nil {
				return fmt.Errorf("create staff user: %w", err)
			}
			log.Info("Staff user created", "id", user.ID, "username", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}
