package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [query]",
	Short: "Fetch rulings from NEXUS PJ and index them",
	Long: `Sends the query to the NEXUS PJ search service, splits every returned
ruling into chunks, embeds them and adds them to the local index.

A failing ruling or chunk is reported and skipped; the rest are still indexed.
Ingesting the same query twice stores its chunks twice.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(ingestCmd)
}

// ingestReportJSON is the JSON form of an ingestion report.
type ingestReportJSON struct {
	Query         string   `json:"query"`
	ProviderQuery string   `json:"provider_query"`
	Keywords      []string `json:"keywords,omitempty"`
	HitsReceived  int      `json:"hits_received"`
	ChunksIndexed int      `json:"chunks_indexed"`
	FailedHits    []string `json:"failed_hits,omitempty"`
	FailedChunks  []string `json:"failed_chunks,omitempty"`
	DurationMS    int64    `json:"duration_ms"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if pipelineService == nil {
		return errPipelineNotConfigured
	}

	report, err := pipelineService.Ingest(cmd.Context(), query)
	if err != nil {
		var ingestErr *domain.IngestionError
		if report == nil || !errors.As(err, &ingestErr) {
			return fmt.Errorf("ingest failed: %w", err)
		}
	}

	// A partial failure still prints what was indexed.
	if ingestJSON {
		if jerr := outputJSON(cmd, toIngestJSON(report)); jerr != nil {
			return jerr
		}
	} else {
		outputIngestReport(cmd, report)
	}

	if err != nil {
		return fmt.Errorf("ingest incomplete: %w", err)
	}
	return nil
}

func toIngestJSON(r *domain.IngestReport) ingestReportJSON {
	out := ingestReportJSON{
		Query:         r.Query.Raw,
		ProviderQuery: r.Query.ProviderQuery,
		Keywords:      r.Query.Keywords,
		HitsReceived:  r.HitsReceived,
		ChunksIndexed: r.ChunksIndexed,
		FailedChunks:  r.FailedChunks,
		DurationMS:    r.Duration.Milliseconds(),
	}
	for i := range r.FailedHits {
		out.FailedHits = append(out.FailedHits, r.FailedHits[i].Error())
	}
	return out
}

func outputIngestReport(cmd *cobra.Command, r *domain.IngestReport) {
	cmd.Println(heading(cmd, "Ingestion"))
	cmd.Printf("  Provider query: %s\n", r.Query.ProviderQuery)
	if len(r.Query.Keywords) > 0 {
		cmd.Printf("  Keywords:       %s\n", strings.Join(r.Query.Keywords, ", "))
	}
	cmd.Printf("  Hits received:  %d\n", r.HitsReceived)
	cmd.Printf("  Chunks indexed: %d\n", r.ChunksIndexed)
	cmd.Printf("  Duration:       %s\n", r.Duration.Round(time.Millisecond))

	if !r.HasFailures() {
		return
	}
	cmd.Println()
	if len(r.FailedHits) > 0 {
		cmd.Printf("Failed rulings (%d):\n", len(r.FailedHits))
		for i := range r.FailedHits {
			cmd.Printf("  - %s\n", r.FailedHits[i].Error())
		}
	}
	if len(r.FailedChunks) > 0 {
		cmd.Printf("Chunks not indexed (%d): %s\n", len(r.FailedChunks), strings.Join(r.FailedChunks, ", "))
	}
}
