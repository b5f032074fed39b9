package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomasrocks006-cmyk/Suno/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("Suno Architect %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration: %v\n", err)
		return nil
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Pro model: %s\n", cfg.ProModel)
	fmt.Printf("  Flash model: %s\n", cfg.FlashModel)
	fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("  Cover art: %t\n", cfg.CoverArt)
	fmt.Printf("  Data dir: %s\n", cfg.DataDir)
	fmt.Printf("  Address: %s\n", cfg.Addr)

	if cfg.RenderEnabled() {
		fmt.Println("  Music rendering: enabled")
	} else {
		fmt.Println("  Music rendering: disabled (set SUNO_API_KEY to enable)")
	}

	// Confirm key presence without printing it
	if os.Getenv("GEMINI_API_KEY") != "" {
		fmt.Println("  GEMINI_API_KEY: configured")
	} else {
		fmt.Println("  GEMINI_API_KEY: not set")
		fmt.Println()
		fmt.Println("Hint: export GEMINI_API_KEY=your-api-key")
	}

	return nil
}
