package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ai_blog_post_writer/generator"
)

var suggestCmd = &cobra.Command{
	Use:     "suggest <category>",
	Short:   "Suggest ten blog post topics for a category",
	Example: "  blogwriter suggest 재테크",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := buildAgent(cfg, opts.Mock)
		if err != nil {
			return err
		}
		cred, err := resolveCredential(cfg, opts.Mock)
		if err != nil {
			return err
		}

		topics, err := agent.SuggestTopics(cmd.Context(), cred, args[0])
		if err != nil {
			return userError(err)
		}
		for i, t := range topics {
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, t)
		}
		return nil
	},
}

// userError returns the user-facing message, keeping the cause for errors.Is.
func userError(err error) error {
	return fmt.Errorf("%s: %w", generator.UserMessage(err), err)
}
