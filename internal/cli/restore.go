package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"csync/internal/syncer"
)

func init() {
	restoreCmd.SilenceErrors = true
	restoreCmd.SilenceUsage = true
}

var restoreCmd = &cobra.Command{
	Use:   "restore SOURCE",
	Short: "Reconstruct a plaintext tree from an encrypted csync destination",
	Long: `restore is the inverse of sync: it walks an encrypted SOURCE tree
(previously produced by "csync sync") and reconstructs the plaintext
directory structure and file contents into --out.

csync carries no integrity tag (by design): a wrong password is not
rejected up front. Names decrypt to garbage, and each file whose content
then fails to decompress is reported as failed.

Examples:
  # Restore interactively (prompts for password, no confirmation)
  csync restore ./backup -o ./restored

  # Restore with password on the command line
  csync restore ./backup -o ./restored -p "mypassword"`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

var (
	restoreOutput        string
	restorePassword      string
	restorePasswordStdin bool
	restoreQuiet         bool
)

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringVarP(&restoreOutput, "out", "o", "", "Destination directory for the reconstructed tree (must already exist)")
	restoreCmd.Flags().StringVarP(&restorePassword, "password", "p", "", "Restore password")
	restoreCmd.Flags().BoolVarP(&restorePasswordStdin, "password-stdin", "P", false, "Read password from stdin")
	restoreCmd.Flags().BoolVarP(&restoreQuiet, "quiet", "q", false, "Suppress progress output")

	_ = restoreCmd.MarkFlagRequired("out")
}

func runRestore(cmd *cobra.Command, args []string) error {
	source := args[0]

	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("source not found: %s", source)
	}
	if !info.IsDir() {
		return fmt.Errorf("source must be a directory: %s", source)
	}

	password, err := resolveRestorePassword()
	if err != nil {
		return err
	}

	reporter := NewReporter(restoreQuiet)
	globalReporter = reporter

	req := syncer.RestoreRequest{
		SourceRoot: source,
		DestRoot:   restoreOutput,
		Password:   []byte(password),
		Reporter:   reporter,
	}

	if !restoreQuiet {
		fmt.Fprintf(os.Stderr, "Restoring %s -> %s\n", source, restoreOutput)
	}

	result, err := syncer.Restore(cmd.Context(), req)
	reporter.Finish()
	if err != nil {
		reporter.PrintError("%v", err)
		return err
	}
	reportResult(reporter, result, "Restore")
	return nil
}

func resolveRestorePassword() (string, error) {
	if restorePasswordStdin {
		return ReadPasswordFromStdin()
	}
	if restorePassword != "" {
		return restorePassword, nil
	}
	return ReadPasswordInteractive(false)
}
