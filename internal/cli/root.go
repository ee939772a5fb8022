// Package cli provides the command-line interface for csync.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version is set by main.go
var Version = "dev"

// rootCmd is the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "csync",
	Short: "Confidential directory-tree synchronization",
	Long: `csync mirrors a source directory tree into a destination directory,
encrypting every file's name, directory name, and content along the way,
while preserving the tree's shape:
  - AES-256-CFB for file contents, under a key derived per file
  - PBKDF2-HMAC-SHA512 for password-based key derivation
  - zstd for compression before encryption
  - RFC4648 path-safe base64 for encrypted path components

The result is a destination tree that is structurally identical to the
source (same number of files, same nesting) but whose names and contents
reveal nothing about the source without the password.`,
	Version: Version,
}

// globalReporter is used by the signal handler to request cancellation.
var globalReporter *Reporter

// Execute runs the CLI application. Returns true once dispatched.
func Execute(version string) bool {
	Version = version
	rootCmd.Version = version

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if globalReporter != nil {
			globalReporter.Cancel()
			fmt.Fprintln(os.Stderr, "\nCancelling operation...")
		} else {
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	return true
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
