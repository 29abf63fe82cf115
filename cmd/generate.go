package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/draftpress/draftpress/internal/auth"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate secrets for the dashboard",
}

var generateSecretCmd = &cobra.Command{
	Use:   "jwt-secret",
	Short: "Generate a secure JWT secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return err
		}
		fmt.Printf("Generated JWT secret:\n%s\n\n", secret)
		fmt.Println("Export it as JWT_SECRET or add it to draftpress.toml under [auth].")
		return nil
	},
}

var generatePasswordCmd = &cobra.Command{
	Use:   "password-hash [password]",
	Short: "Hash a dashboard password with bcrypt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.AddCommand(generateSecretCmd)
	generateCmd.AddCommand(generatePasswordCmd)
}
