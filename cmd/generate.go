package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"ai_blog_post_writer/generator"
	"ai_blog_post_writer/publisher"
)

type generateOptions struct {
	Topic    string
	Category string
	Region   string
	Audience string
	Tone     string
	Freeform bool
	Out      string
	Format   string
}

var genOpts generateOptions

var stageLabels = map[generator.State]string{
	generator.StateGeneratingText:   "AI가 글을 작성하고 있습니다...",
	generator.StateGeneratingImages: "AI가 이미지를 생성하고 있습니다...",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an illustrated blog post and export it",
	Example: `  blogwriter generate --topic "2025년 ETF 투자 전략" --category 재테크
  blogwriter generate --topic "제주 여행" --category 여행 --freeform --tone concise --format md --out .`,
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := buildAgent(cfg, opts.Mock)
		if err != nil {
			return err
		}

		d := generator.Draft{
			Topic:          genOpts.Topic,
			Category:       genOpts.Category,
			Region:         genOpts.Region,
			TargetAudience: genOpts.Audience,
			Tone:           genOpts.Tone,
		}
		stderr := cmd.ErrOrStderr()

		onStage := func(s generator.State) {
			if label, ok := stageLabels[s]; ok {
				fmt.Fprintln(stderr, label)
			}
		}

		var post generator.Post
		if genOpts.Freeform {
			post, err = agent.GenerateFreeform(cmd.Context(), d, onStage)
		} else {
			cred, credErr := resolveCredential(cfg, opts.Mock)
			if credErr != nil {
				return credErr
			}
			post, err = agent.Generate(cmd.Context(), cred, d, onStage)
		}
		if err != nil {
			return userError(err)
		}

		if genOpts.Out == "" {
			return writeExport(cmd.OutOrStdout(), post, genOpts.Format)
		}
		path, err := publisher.WriteFile(genOpts.Out, post, genOpts.Format)
		if err != nil {
			return err
		}
		fmt.Fprintln(stderr, "saved:", path)
		return nil
	},
}

func writeExport(w io.Writer, post generator.Post, format string) error {
	out, err := publisher.Render(post, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genOpts.Topic, "topic", "", "post topic (required)")
	f.StringVar(&genOpts.Category, "category", "", "post category")
	f.StringVar(&genOpts.Region, "region", "국내", "region of interest")
	f.StringVar(&genOpts.Audience, "audience", "전체", "target audience")
	f.StringVar(&genOpts.Tone, "tone", "friendly", "freeform tone: friendly, concise or pro")
	f.BoolVar(&genOpts.Freeform, "freeform", false, "use the OpenAI freeform flow instead of the structured Gemini pipeline")
	f.StringVarP(&genOpts.Out, "out", "o", "", "write to this file or directory instead of stdout")
	f.StringVar(&genOpts.Format, "format", publisher.FormatHTML, "export format: html, md or text")
}
