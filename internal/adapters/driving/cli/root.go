// Package cli provides the nexuspj command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nexuspj/nexuspj-rag/internal/adapters/driving/mcp"
	"github.com/nexuspj/nexuspj-rag/internal/core/domain"
	"github.com/nexuspj/nexuspj-rag/internal/core/ports/driving"
	"github.com/nexuspj/nexuspj-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// needsAnnotation marks which services a command requires.
const needsAnnotation = "nexuspj/needs"

// Values for needsAnnotation. Commands without the annotation need the full pipeline.
const (
	needsNothing  = "nothing"
	needsSettings = "settings"
)

var (
	errPipelineNotConfigured = errors.New("pipeline service not configured")
	errAnswerNotConfigured   = errors.New("answer service not configured")
	errSettingsNotConfigured = errors.New("settings service not configured")
	errNoCorpus              = errors.New("no rulings indexed yet, run 'nexuspj ingest <query>' first")
)

// queryError reports a failed search or ask. An empty index is reported as a
// missing corpus rather than a retrieval failure.
func queryError(op string, err error) error {
	if errors.Is(err, domain.ErrEmptyIndex) {
		return fmt.Errorf("%w (%w)", errNoCorpus, err)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

// ChunkSaver writes retrieved chunks somewhere a user can read them.
type ChunkSaver interface {
	Save(results []domain.RetrievedChunk) (string, error)
}

// Services holds everything the commands use. Any field may be nil when the
// command being run does not need it.
type Services struct {
	Pipeline driving.PipelineService
	Answer   driving.AnswerService
	Settings driving.SettingsService
	Prompts  mcp.PromptSource
	Saver    ChunkSaver
	Defaults domain.SearchOptions

	// PromptEvents delivers names of prompt templates reloaded from disk.
	PromptEvents <-chan string

	// Close releases resources once the command finishes.
	Close func()
}

// Options are the global flags handed to the bootstrap function.
type Options struct {
	ConfigPath   string
	NoConfig     bool
	NeedPipeline bool
}

// BootstrapFunc builds services for a command.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap BootstrapFunc

	pipelineService driving.PipelineService
	answerService   driving.AnswerService
	settingsService driving.SettingsService
	promptSource    mcp.PromptSource
	promptEvents    <-chan string
	chunkSaver      ChunkSaver
	searchDefaults  = domain.SearchOptions{
		VectorTopK:   domain.DefaultVectorTopK,
		RerankerTopN: domain.DefaultRerankerTopN,
		UseReranker:  true,
	}
	closeServices func()
)

var (
	configPath string
	noConfig   bool
	verbose    bool
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "nexuspj",
	Short: "Retrieval and answers over Costa Rican case law",
	Long: `nexuspj fetches rulings from the NEXUS PJ search service, splits them into
chunks, indexes their embeddings locally, and retrieves or answers from them.

Run 'nexuspj ingest <query>' first, then 'nexuspj search' or 'nexuspj ask'.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		Release()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.nexuspj/config.toml, .yaml accepted)")
	flags.BoolVar(&noConfig, "no-config", false, "ignore the config file and use defaults")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&logJSON, "log-json", false, "log as JSON")
}

// SetBootstrap installs the function that builds services before each command.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetVersion sets the version printed by 'nexuspj version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetServices installs services directly. Nil fields clear the matching service.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	pipelineService = s.Pipeline
	answerService = s.Answer
	settingsService = s.Settings
	promptSource = s.Prompts
	promptEvents = s.PromptEvents
	chunkSaver = s.Saver
	if s.Defaults.VectorTopK > 0 {
		searchDefaults = s.Defaults
	}
	closeServices = s.Close
}

// Execute runs the root command with results on stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetVerbose(verbose)
	logger.SetJSON(logJSON)

	needs := needsOf(cmd)
	if bootstrap == nil || needs == needsNothing {
		return nil
	}

	svc, err := bootstrap(cmd.Context(), Options{
		ConfigPath:   configPath,
		NoConfig:     noConfig,
		NeedPipeline: needs != needsSettings,
	})
	if err != nil {
		return fmt.Errorf("starting %s: %w", cmd.Name(), err)
	}
	SetServices(svc)
	return nil
}

// Release closes services built by the bootstrap function. Safe to call twice.
func Release() {
	if closeServices != nil {
		closeServices()
		closeServices = nil
	}
}

// needsOf walks up from cmd to the first command that declares its needs.
func needsOf(cmd *cobra.Command) string {
	switch cmd.Name() {
	case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return needsNothing
	}
	if p := cmd.Parent(); p != nil && p.Name() == "completion" {
		return needsNothing
	}
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations[needsAnnotation]; ok {
			return v
		}
	}
	return ""
}

// searchOptions merges per-call flags over the configured defaults.
func searchOptions(cmd *cobra.Command, topK, topN int, noRerank bool) domain.SearchOptions {
	opts := searchDefaults
	if cmd.Flags().Changed("top-k") {
		opts.VectorTopK = topK
	}
	if cmd.Flags().Changed("top-n") {
		opts.RerankerTopN = topN
	}
	if noRerank {
		opts.UseReranker = false
	}
	return opts
}
