package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brainless/GoFish/internal/config"
	"github.com/brainless/GoFish/internal/env"
	"github.com/brainless/GoFish/internal/expand"
	"github.com/brainless/GoFish/internal/log"
	"github.com/brainless/GoFish/internal/proc"
	"github.com/brainless/GoFish/internal/tui"
	"github.com/brainless/GoFish/internal/wildcard"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gofish",
		Short: "An interactive command shell with fish-style expansion",
		Long: `GoFish is an interactive command shell. Argument words are run
through a five-stage expansion pipeline: command substitution,
variable expansion with slicing, brace expansion, tilde and
process/job references, and filesystem wildcards. The same engine
serves tab completion while typing.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			log.InitLogger(verbose)
			return config.InitConfig()
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newShellCmd())
	rootCmd.AddCommand(newExpandCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			shell, err := tui.NewShell()
			if err != nil {
				return fmt.Errorf("failed to start shell: %w", err)
			}
			return shell.Run()
		},
	}
}

func newExpandCmd() *cobra.Command {
	expandCmd := &cobra.Command{
		Use:   "expand [word...]",
		Short: "Expand words and print the resulting arguments",
		Long: `Expand runs each word through the expansion pipeline against the
current environment and prints one resulting argument per line.
Command substitution is disabled in this one-shot mode.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			skipWildcards, _ := cmd.Flags().GetBool("skip-wildcards")
			skipHome, _ := cmd.Flags().GetBool("skip-home")

			flags := expand.SkipCmdSubst
			if skipWildcards {
				flags |= expand.SkipWildcards
			}
			if skipHome {
				flags |= expand.SkipHomeDirectories
			}

			store := env.NewFromEnviron()
			expander := expand.New(store)
			expander.Matcher = wildcard.New()
			expander.Procs = proc.NewSource()

			for _, word := range args {
				var completions []expand.Completion
				var errs expand.ErrorList
				status := expander.ExpandString(context.Background(), word, &completions, flags, &errs)
				if status == expand.Error {
					for _, e := range errs.Errors() {
						fmt.Fprintf(os.Stderr, "gofish: %s\n", e.Text)
					}
					return fmt.Errorf("could not expand '%s'", word)
				}
				for _, c := range completions {
					fmt.Println(c.Completion)
				}
			}
			return nil
		},
	}

	expandCmd.Flags().Bool("skip-wildcards", false, "Leave wildcards literal")
	expandCmd.Flags().Bool("skip-home", false, "Leave ~ literal")
	return expandCmd
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Storage path: %s\n", config.AppConfig.StoragePath)
			fmt.Printf("History max:  %d\n", config.AppConfig.HistoryMax)
		},
	}

	setStorageCmd := &cobra.Command{
		Use:   "set-storage [path]",
		Short: "Set the storage path for the history database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.SetStoragePath(args[0]); err != nil {
				return fmt.Errorf("failed to set storage path: %w", err)
			}
			fmt.Printf("Storage path set to: %s\n", args[0])
			return nil
		},
	}

	configCmd.AddCommand(showCmd, setStorageCmd)
	return configCmd
}
