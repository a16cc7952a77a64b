package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/modsmith/modsmith/pkg/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbosity  int
	projectDir string
	policyPath string

	rootCmd = &cobra.Command{
		Use:   "modsmith",
		Short: "A Modrinth modpack manager",
		Long: `modsmith manages Minecraft modpacks: it expands your mod list by
compatibility policy, resolves every mod and its dependencies against
Modrinth, and downloads hash-verified files into a package index.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "d", ".", "Modpack project directory")
	rootCmd.PersistentFlags().StringVar(&policyPath, "policy", "", "Policy rules file (default: policy.json in the config dir)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(genConfigCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("modsmith %s\n", version)
	},
}
