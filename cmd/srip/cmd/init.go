package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/srip/internal/config"
	"github.com/hugo-lorenzo-mato/srip/internal/fsutil"
)

const configFileName = ".srip.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a commented .srip.yaml with the built-in defaults to the current
directory. Edit it to set the provider, the model fallback list and the
retry and scoring parameters.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
}

func runInit(cmd *cobra.Command, _ []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	configPath := filepath.Join(cwd, configFileName)
	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("configuration already exists, use --force to overwrite")
	}

	if err := fsutil.WriteFileAtomic(configPath, []byte(config.DefaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "Set gateway.api_key (or the provider's API key variable) before running 'srip analyze'.")
	return nil
}
