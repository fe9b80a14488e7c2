package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/jlens/internal/ai"
	"github.com/oakwood-commons/jlens/internal/config"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

// newAIService builds the completion client. Tests replace it.
var newAIService = func(cfg config.AI) (ai.Service, error) {
	return ai.NewGeminiClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
}

// assistant returns the configured assistant, or ai.ErrNoAPIKey.
func (a *app) assistant() (*ai.Assistant, error) {
	if !a.cfg.AI.Enabled() {
		return nil, ai.ErrNoAPIKey
	}
	svc, err := newAIService(a.cfg.AI)
	if err != nil {
		return nil, err
	}
	model := a.cfg.AI.Model
	if strings.TrimSpace(a.opts.model) != "" {
		model = strings.TrimSpace(a.opts.model)
	}
	return ai.NewAssistant(svc, model, a.cfg.AI.MaxContext), nil
}

func newAICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ai",
		Short: "Ask an AI model about a document",
		Long: `Send the document to the configured model. Set ai.api_key in the config file
or the JLENS_API_KEY environment variable to enable these commands.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		a.newReplyCmd("summarize [file]", "Summarize the structure and content", cobra.MaximumNArgs(1),
			func(as *ai.Assistant, doc jsonvalue.Value, _ []string) (ai.Reply, error) {
				return as.Summarize(a.ctx, doc)
			}),
		a.newReplyCmd("schema [file]", "Describe the inferred schema", cobra.MaximumNArgs(1),
			func(as *ai.Assistant, doc jsonvalue.Value, _ []string) (ai.Reply, error) {
				return as.InferSchema(a.ctx, doc)
			}),
		a.newReplyCmd("explain PATH [file]", "Explain the node at PATH in the context of its parent", cobra.RangeArgs(1, 2),
			func(as *ai.Assistant, doc jsonvalue.Value, args []string) (ai.Reply, error) {
				return as.Explain(a.ctx, doc, args[0])
			}),
	)
	cmd.AddCommand(&cobra.Command{
		Use:   "query QUESTION [file]",
		Short: "Find the path that answers a natural-language question",
		Args:  usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, args[0], args[1:])
		},
	})
	return cmd
}

type replyFunc func(as *ai.Assistant, doc jsonvalue.Value, args []string) (ai.Reply, error)

// newReplyCmd builds an ai subcommand whose answer is a Markdown reply. A
// leading PATH argument, when the usage names one, is not a file.
func (a *app) newReplyCmd(use, short string, args cobra.PositionalArgs, fn replyFunc) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  usageArgs(args),
		RunE: func(cmd *cobra.Command, argv []string) error {
			files := argv
			if strings.Contains(use, "PATH") {
				files = argv[1:]
			}
			return a.runReply(cmd, argv, files, output, fn)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "reply format: text, markdown or html")
	return cmd
}

// renderReply formats a Markdown reply for output.
func renderReply(md, output string) (string, error) {
	switch output {
	case "", "text":
		return ai.PlainText(md), nil
	case "markdown", "md":
		return strings.TrimSpace(md), nil
	case "html":
		return ai.HTML(md), nil
	default:
		return "", usageErrorf("invalid output for ai: %s (use text|markdown|html)", output)
	}
}

func (a *app) runReply(cmd *cobra.Command, argv, files []string, output string, fn replyFunc) error {
	if _, err := renderReply("", output); err != nil {
		return err
	}
	as, err := a.assistant()
	if err != nil {
		return err
	}
	doc, err := a.readDocument(files)
	if err != nil {
		return err
	}
	logger.FromContext(a.ctx).V(logger.LevelDebug).Info("ai request", logger.ModelKey, as.Model(), "feature", cmd.Name())
	reply, err := fn(as, doc, argv)
	if err != nil {
		return err
	}
	if notice := reply.Notice(); notice != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), notice)
	}
	text, err := renderReply(reply.Text, output)
	if err != nil {
		return err
	}
	return writeLine(cmd.OutOrStdout(), text)
}

func (a *app) runQuery(cmd *cobra.Command, question string, args []string) error {
	as, err := a.assistant()
	if err != nil {
		return err
	}
	doc, err := a.readDocument(args)
	if err != nil {
		return err
	}
	answer, err := as.Query(a.ctx, doc, question)
	if err != nil {
		return err
	}
	if answer.Truncated {
		fmt.Fprintln(cmd.ErrOrStderr(), ai.Reply{Truncated: true, MaxContext: a.cfg.AI.MaxContext}.Notice())
	}
	sess := a.newSession(doc)
	if _, err := sess.ApplyAIPath(answer.Path); err != nil {
		return err
	}
	val, err := sess.ResolvePath(answer.Path)
	if err != nil {
		return fmt.Errorf("model returned %s: %w", answer.Path, err)
	}
	return writeQueryAnswer(cmd.OutOrStdout(), answer.Path, string(val.MarshalIndent("", "  ")))
}

func writeQueryAnswer(w io.Writer, path, value string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", path, value)
	return err
}
