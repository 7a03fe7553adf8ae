package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for preview.password_hash",
	Long: `Hashes a preview password so the config file need not hold it in plain
text. Put the output in preview.password_hash or MEMORIAL_PREVIEW_PASSWORD_HASH.`,
	Args: cobra.ExactArgs(1),
	RunE: runHashPassword,
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(hash))
	return nil
}
