package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nuveo/ultraocr-go/internal/logging"
	"github.com/spf13/cobra"

	ultraocr "github.com/nuveo/ultraocr-go"
)

// Persistent CLI flags
var (
	clientIDFlag     string
	clientSecretFlag string
	baseURLFlag      string
	authBaseURLFlag  string
	intervalFlag     time.Duration
	timeoutFlag      time.Duration
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "ultraocr",
	Short: "Submit documents to UltraOCR and retrieve results",
	Long: `ultraocr submits documents to the UltraOCR processing API, waits for the
asynchronous jobs to finish and retrieves structured results.

Credentials come from --client-id/--client-secret or the ULTRAOCR_CLIENT_ID
and ULTRAOCR_CLIENT_SECRET environment variables.

Examples:
  ultraocr send --service cnh --file ./cnh.jpg --wait
  ultraocr send --service rg --batch --file ./batch.zip --metadata meta.json
  ultraocr wait --batch 2AwrSd7bxEMbPrQ5jZHGDzQ4qL3
  ultraocr status 2AwrSd7bxEMbPrQ5jZHGDzQ4qL3
  ultraocr result 2AwrSd7bxEMbPrQ5jZHGDzQ4qL3 0ujsszwN8NRY24YaXiTIE2VWDTS
  ultraocr batch-result 2AwrSd7bxEMbPrQ5jZHGDzQ4qL3 --download results.json
  ultraocr jobs --start 2026-08-01 --end 2026-08-28`,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&clientIDFlag, "client-id", "", "UltraOCR client ID (default: env ULTRAOCR_CLIENT_ID)")
	flags.StringVar(&clientSecretFlag, "client-secret", "", "UltraOCR client secret (default: env ULTRAOCR_CLIENT_SECRET)")
	flags.StringVar(&baseURLFlag, "base-url", "", "API base URL override")
	flags.StringVar(&authBaseURLFlag, "auth-base-url", "", "Auth base URL override")
	flags.DurationVar(&intervalFlag, "poll-interval", 0, "Delay between status checks (default 1s)")
	flags.DurationVar(&timeoutFlag, "poll-timeout", 0, "Deadline for each wait operation (default 30s)")
}

func main() {
	logging.Init()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient builds an SDK client from the persistent flags. Auto-refresh is
// always on: the CLI never manages tokens explicitly.
func newClient() *ultraocr.Client {
	return ultraocr.NewClient(ultraocr.Config{
		ClientID:         clientIDFlag,
		ClientSecret:     clientSecretFlag,
		AutoRefresh:      true,
		BaseURL:          baseURLFlag,
		AuthBaseURL:      authBaseURLFlag,
		Interval:         intervalFlag,
		Timeout:          timeoutFlag,
		ValidateMetadata: true,
	})
}

func cmdContext() context.Context {
	return context.Background()
}

// printJSON writes v to stdout as indented JSON. Results go to stdout so
// they can be piped; logs go to stderr.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
