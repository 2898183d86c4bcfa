package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/saltyorg/sam/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new sam.yaml working directory",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

const starterScript = `describe("example", function() {
  it("starts with no components", function() {
    require(true, "replace this with a real check");
  });
});
`

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}

	if err := os.MkdirAll("scripts", 0o755); err != nil {
		return fmt.Errorf("create scripts/: %w", err)
	}
	if err := os.MkdirAll("modules", 0o755); err != nil {
		return fmt.Errorf("create modules/: %w", err)
	}

	scriptPath := filepath.Join("scripts", "main.js")
	if _, err := os.Stat(scriptPath); os.IsNotExist(err) {
		if err := os.WriteFile(scriptPath, []byte(starterScript), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", scriptPath, err)
		}
	}

	fmt.Printf("scaffolded %s, scripts/main.js, modules/\n", configPath)
	return nil
}
