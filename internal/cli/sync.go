package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"csync/internal/syncer"
	"csync/internal/util"
	"csync/internal/watch"
)

func init() {
	syncCmd.SilenceErrors = true
	syncCmd.SilenceUsage = true
}

var syncCmd = &cobra.Command{
	Use:   "sync SOURCE",
	Short: "Mirror a directory tree into an encrypted destination",
	Long: `sync walks SOURCE and mirrors it into --out, encrypting every file's
name, directory name, and content along the way. The destination directory
must already exist.

Examples:
  # Sync interactively (prompts for password, with confirmation)
  csync sync ./documents -o ./backup

  # Sync with password on the command line (visible in shell history)
  csync sync ./documents -o ./backup -p "mypassword"

  # Read password from stdin (for scripts)
  echo "mypassword" | csync sync ./documents -o ./backup -P

  # Re-sync automatically whenever the source tree changes
  csync sync ./documents -o ./backup -w`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

var (
	syncOutput        string
	syncPassword      string
	syncPasswordStdin bool
	syncConcurrency   int
	syncWatch         bool
	syncQuiet         bool
)

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&syncOutput, "out", "o", "", "Destination directory (must already exist)")
	syncCmd.Flags().StringVarP(&syncPassword, "password", "p", "", "Sync password")
	syncCmd.Flags().BoolVarP(&syncPasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", syncer.DefaultConcurrency, "Maximum number of files encoded concurrently")
	syncCmd.Flags().BoolVarP(&syncWatch, "watch", "w", false, "Keep running, re-syncing whenever the source tree changes")
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "Suppress progress output")

	_ = syncCmd.MarkFlagRequired("out")
}

func runSync(cmd *cobra.Command, args []string) error {
	source := args[0]

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source not found: %s", source)
	}
	if !info.IsDir() {
		return fmt.Errorf("source must be a directory: %s", source)
	}

	password, err := resolveSyncPassword()
	if err != nil {
		return err
	}

	reporter := NewReporter(syncQuiet)
	globalReporter = reporter

	req := syncer.Request{
		SourceRoot:  source,
		DestRoot:    syncOutput,
		Password:    []byte(password),
		Concurrency: syncConcurrency,
		Reporter:    reporter,
	}

	if !syncQuiet {
		fmt.Fprintf(os.Stderr, "Syncing %s -> %s\n", source, syncOutput)
	}

	result, err := syncer.Sync(cmd.Context(), req)
	reporter.Finish()
	if err != nil {
		reporter.PrintError("%v", err)
		return err
	}
	reportResult(reporter, result, "Sync")

	if syncWatch {
		if !syncQuiet {
			fmt.Fprintln(os.Stderr, "Watching for changes (Ctrl+C to stop)...")
		}
		return watch.Run(cmd.Context(), source, func(ctx context.Context) {
			reporter := NewReporter(syncQuiet)
			globalReporter = reporter
			req.Reporter = reporter
			result, err := syncer.Sync(ctx, req)
			reporter.Finish()
			if err != nil {
				reporter.PrintError("%v", err)
				return
			}
			reportResult(reporter, result, "Re-sync")
		})
	}

	return nil
}

func resolveSyncPassword() (string, error) {
	if syncPasswordStdin {
		return ReadPasswordFromStdin()
	}
	if syncPassword != "" {
		return syncPassword, nil
	}
	return ReadPasswordInteractive(true)
}

func reportResult(reporter *Reporter, result syncer.Result, verb string) {
	reporter.PrintSuccess("%s completed: %d file(s), %d director(y/ies), %s",
		verb, result.FilesSynced, result.DirsCreated, util.Sizeify(result.BytesTotal))
	for _, s := range result.Skipped {
		reporter.PrintError("skipped %s: %s", s.RelPath, s.Reason)
	}
	for _, f := range result.Failures {
		reporter.PrintError("failed %s: %v", f.RelPath, f.Err)
	}
}
