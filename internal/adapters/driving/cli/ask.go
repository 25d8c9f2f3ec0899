package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

var (
	askTopK        int
	askTopN        int
	askJSON        bool
	askSave        bool
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed rulings",
	Long: `Retrieves and reranks the most relevant chunks, then asks the configured
LLM to answer in Spanish using only those chunks as context.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", domain.DefaultVectorTopK, "number of nearest chunks fetched from the index")
	askCmd.Flags().IntVarP(&askTopN, "top-n", "n", domain.DefaultRerankerTopN, "number of chunks given to the model")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and its sources as JSON")
	askCmd.Flags().BoolVar(&askSave, "save", false, "also write the supporting chunks to chunks/chunks<uuid>.txt")
	askCmd.Flags().BoolVarP(&askShowSources, "sources", "s", false, "print the supporting chunks after the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	if answerService == nil {
		return errAnswerNotConfigured
	}

	// Synthesis always works from reranked chunks.
	opts := searchOptions(cmd, askTopK, askTopN, false)
	opts.UseReranker = true

	answer, err := answerService.Ask(cmd.Context(), question, opts)
	if err != nil {
		return queryError("ask", err)
	}

	if askSave {
		if err := saveChunks(cmd, answer.Sources); err != nil {
			return err
		}
	}

	if askJSON {
		return outputJSON(cmd, answer)
	}

	cmd.Println(strings.TrimSpace(answer.Text))
	if askShowSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println(heading(cmd, "Sources:"))
		cmd.Println()
		outputChunks(cmd, answer.Sources)
	}
	return nil
}
