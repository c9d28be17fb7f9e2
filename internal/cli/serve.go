package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/contracts/internal/contract"
	"github.com/lacquerai/contracts/internal/server"
	"github.com/lacquerai/contracts/internal/store"
	"github.com/lacquerai/contracts/internal/style"
	"github.com/lacquerai/contracts/internal/validation"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for contract storage and payload validation",
	Long: `Start an HTTP server that stores agent payload contracts and validates payloads against them.

The server provides:
- REST API for reading and writing input/output contracts per agent
- Single and batch payload validation
- WebSocket streaming validation, one payload per frame
- Prometheus metrics endpoint

Contracts can be preloaded from a directory laid out as <agent>/<direction>.(json|yaml).

Examples:
  laqc serve                                   # In-memory store on localhost:8080
  laqc serve --contracts ./contracts           # Preload contracts from a directory
  laqc serve --store file --store-dir ./data   # Persist contracts on disk
  laqc serve --port 9000 --host 0.0.0.0        # Custom host and port`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := server.DefaultConfig()

	// Server configuration
	serveCmd.Flags().IntP("port", "p", defaults.Port, "server port")
	serveCmd.Flags().String("host", defaults.Host, "server host")
	serveCmd.Flags().Int64("max-body-bytes", defaults.MaxBodyBytes, "maximum request body size")

	// Contract storage
	serveCmd.Flags().String("store", "memory", "contract store (memory, file)")
	serveCmd.Flags().String("store-dir", "", "directory for the file store (default is $HOME/.laqc/schemas)")
	serveCmd.Flags().String("contracts", "", "directory of contracts to load at startup")

	// Validation
	serveCmd.Flags().Int("max-depth", validation.DefaultMaxDepth, "maximum nesting depth to validate")
	serveCmd.Flags().Int("batch-concurrency", contract.DefaultBatchConcurrency, "payloads validated concurrently per batch")

	// Features
	serveCmd.Flags().Bool("metrics", defaults.EnableMetrics, "enable Prometheus metrics endpoint")
	serveCmd.Flags().Bool("cors", defaults.EnableCORS, "enable CORS headers")

	for _, name := range []string{"port", "host", "max-body-bytes", "store", "store-dir", "contracts", "max-depth", "batch-concurrency", "metrics", "cors"} {
		_ = viper.BindPFlag("serve."+name, serveCmd.Flags().Lookup(name))
	}
}

func startServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	st, err := newStore(viper.GetString("serve.store"), viper.GetString("serve.store-dir"))
	if err != nil {
		return err
	}

	svc := contract.NewService(st,
		contract.WithValidationOptions(validation.Options{MaxDepth: viper.GetInt("serve.max-depth")}),
		contract.WithBatchConcurrency(viper.GetInt("serve.batch-concurrency")),
	)

	loaded := 0
	if dir := viper.GetString("serve.contracts"); dir != "" {
		loaded, err = loadContracts(cmd.Context(), svc, dir)
		if err != nil {
			return err
		}
	}

	config := server.DefaultConfig()
	config.Host = viper.GetString("serve.host")
	config.Port = viper.GetInt("serve.port")
	config.MaxBodyBytes = viper.GetInt64("serve.max-body-bytes")
	config.EnableMetrics = viper.GetBool("serve.metrics")
	config.EnableCORS = viper.GetBool("serve.cors")

	srv, err := server.New(config, svc)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if !viper.GetBool("quiet") {
		style.Success(out, fmt.Sprintf("Contract server starting at http://%s", srv.GetAddr()))
		fmt.Fprintf(out, "  Contracts loaded: %d\n", loaded)
		fmt.Fprintf(out, "  API: http://%s/api/v1/agents\n", srv.GetAddr())
		if config.EnableMetrics {
			fmt.Fprintf(out, "  Metrics: http://%s/metrics\n", srv.GetAddr())
		}
	}

	if err := srv.StartWithGracefulShutdown(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newStore(kind, dir string) (store.Store, error) {
	switch strings.ToLower(kind) {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "file":
		st, err := store.NewFileStore(dir)
		if err != nil {
			return nil, fmt.Errorf("opening file store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store %q (expected memory or file)", kind)
	}
}

// loadContracts stores every <agent>/<direction>.(json|yaml|yml) file found
// under dir and returns how many were loaded
func loadContracts(ctx context.Context, svc *contract.Service, dir string) (int, error) {
	loaded := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}

		direction, err := store.ParseDirection(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if err != nil {
			log.Debug().Str("file", path).Msg("Skipping file that is not named after a payload direction")
			return nil
		}
		agentID := filepath.Base(filepath.Dir(path))

		raw, err := os.ReadFile(path) // #nosec G304 - path comes from walking the configured directory
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if _, err := svc.SetSchema(ctx, agentID, direction, raw); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}

		log.Info().Str("agent_id", agentID).Str("direction", direction.String()).Str("file", path).Msg("Contract loaded")
		loaded++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("loading contracts from %s: %w", dir, err)
	}

	return loaded, nil
}
