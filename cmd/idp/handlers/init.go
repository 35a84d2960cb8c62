package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/shlapolosa/idp/internal/config"
)

// Factory function variables for init - replaced in tests.
var (
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	runWizard   = config.RunWizard
	writeConfig = config.WriteYAML
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", outputPath)
	}

	result, err := runWizard(ctx)
	if err != nil {
		return err
	}

	cfg := result.ToConfig()
	if err := writeConfig(cfg, outputPath); err != nil {
		return err
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Platform Summary")
	fmt.Println("----------------")
	fmt.Printf("  Cluster:  %s (%s, %s)\n", cfg.ClusterName, cfg.Cloud, cfg.Region)
	fmt.Printf("  Secrets:  %s\n", cfg.Secrets.Backend)
	fmt.Printf("  VClusters:")
	for _, vc := range cfg.VClusters {
		fmt.Printf(" %s", vc.Name)
	}
	fmt.Println()
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	switch cfg.Cloud {
	case config.CloudAWS:
		fmt.Println("  1. Export AWS credentials (AWS_PROFILE or AWS_ACCESS_KEY_ID)")
	case config.CloudAzure:
		fmt.Println("  1. Export AZURE_SUBSCRIPTION_ID and sign in with azidentity")
	}
	fmt.Printf("  2. Review %s if needed\n", outputPath)
	fmt.Println("  3. Provision the platform:")
	fmt.Println("     idp provision")
	fmt.Println()
}
