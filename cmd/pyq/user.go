package main

import (
	"fmt"
	"time"

	"github.com/pbaille/pyq/internal/auth"
	"github.com/spf13/cobra"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API accounts",
	}
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userListCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "add [email]",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			u, err := auth.Register(s, args[0], password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added user: %s (%s)\n", u.Email, u.ID[:8])
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := getStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			users, err := s.ListUsers()
			if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users yet. Use 'pyq user add' to create one.")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", u.ID[:8], u.Email, u.CreatedAt.Format(time.DateTime))
			}
			return nil
		},
	}
}
