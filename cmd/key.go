package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai_blog_post_writer/credential"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the stored Gemini API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Save the API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentialStore(cfg)
		if err != nil {
			return err
		}
		if err := store.Save(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API 키가 저장되었습니다.")
		return nil
	},
}

var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored key (masked) and its location",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentialStore(cfg)
		if err != nil {
			return err
		}
		key, err := store.Load()
		if err != nil {
			return err
		}
		if key == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "API 키를 먼저 설정해주세요.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", credential.Mask(key), store.Path())
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyShowCmd)
}
