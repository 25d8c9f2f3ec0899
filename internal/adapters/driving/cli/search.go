package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

var (
	searchTopK     int
	searchTopN     int
	searchNoRerank bool
	searchJSON     bool
	searchSave     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed rulings",
	Long: `Embeds the query, fetches the nearest chunks from the local index and
reorders them with the configured reranker.

The index must be populated first with 'nexuspj ingest'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", domain.DefaultVectorTopK, "number of nearest chunks fetched from the index")
	searchCmd.Flags().IntVarP(&searchTopN, "top-n", "n", domain.DefaultRerankerTopN, "number of chunks kept after reranking (0 = all)")
	searchCmd.Flags().BoolVar(&searchNoRerank, "no-rerank", false, "keep vector order and skip the reranker")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchSave, "save", false, "also write the results to chunks/chunks<uuid>.txt")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if pipelineService == nil {
		return errPipelineNotConfigured
	}

	opts := searchOptions(cmd, searchTopK, searchTopN, searchNoRerank)
	results, err := pipelineService.Search(cmd.Context(), query, opts)
	if err != nil {
		return queryError("search", err)
	}

	if searchSave {
		if err := saveChunks(cmd, results); err != nil {
			return err
		}
	}

	if searchJSON {
		return outputJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	outputChunks(cmd, results)
	return nil
}
