package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/tui/components/list"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

// snippetLength is the number of runes of chunk text shown per result.
const snippetLength = 240

var headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D4A017"))

// styled reports whether cmd writes to a terminal.
func styled(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func heading(cmd *cobra.Command, s string) string {
	if styled(cmd) {
		return headingStyle.Render(s)
	}
	return s
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChunks(cmd *cobra.Command, results []domain.RetrievedChunk) {
	for i := range results {
		c := results[i].Chunk
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, heading(cmd, list.Heading(c)), results[i].Score)
		if p := list.Provenance(c); p != "" {
			cmd.Printf("      %s\n", p)
		}
		snippet := strings.Join(strings.Fields(c.Text), " ")
		if snippet != "" {
			cmd.Printf("      %s\n", list.Truncate(snippet, snippetLength))
		}
		cmd.Println()
	}
}

// saveChunks writes results through the configured saver and reports the path.
func saveChunks(cmd *cobra.Command, results []domain.RetrievedChunk) error {
	if chunkSaver == nil {
		return fmt.Errorf("saving results: no output directory configured")
	}
	path, err := chunkSaver.Save(results)
	if err != nil {
		return fmt.Errorf("saving results: %w", err)
	}
	cmd.PrintErrf("Saved %d chunks to %s\n", len(results), path)
	return nil
}
