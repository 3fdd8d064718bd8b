// Command altctl runs the alt-text pipeline for one local image + YAML
// sidecar pair without a running HTTP server, for local testing and
// prompt iteration.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mkastner/imagealt-pipeline/internal/config"
	"github.com/mkastner/imagealt-pipeline/internal/describer"
	"github.com/mkastner/imagealt-pipeline/internal/identity"
	"github.com/mkastner/imagealt-pipeline/internal/localstore"
	"github.com/mkastner/imagealt-pipeline/internal/logging"
	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
	"github.com/mkastner/imagealt-pipeline/internal/orchestrator"
	"github.com/mkastner/imagealt-pipeline/internal/translator"
)

var imagePathFlag string

var rootCmd = &cobra.Command{
	Use:   "altctl",
	Short: "Run the alt-text pipeline against a local image, outside the webhook server",
	Long: `altctl processes one image file and its "<stem>.yml" sidecar exactly as
imagealt-server would for a blob-created event, writing "<stem>.alt.json" and
a "public_<image>" copy next to it — without a running server or a real
object-store account. Useful for iterating on prompts and strategy choices.

Examples:
  altctl --image ./fixtures/img_0.png
  DESCRIBER=strategy:vision altctl -i ./fixtures/img_0.png`,
	RunE: runAltctl,
}

func init() {
	rootCmd.Flags().StringVarP(&imagePathFlag, "image", "i", "", "path to the image file to process (required)")
	_ = rootCmd.MarkFlagRequired("image")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAltctl(cmd *cobra.Command, args []string) error {
	logging.Init()

	env := config.New()
	strategies := config.LoadStrategySelection(env, "slm", "translator")
	metadatadoc.SetDefaultLanguages(env.StringList("LOCALES", metadatadoc.DefaultLanguages))

	httpClient := &http.Client{}

	clientID := env.String("AZURE_CLIENT_ID", "")
	identityEndpoint := env.FirstOf("", "IDENTITY_ENDPOINT", "MSI_ENDPOINT")
	identityHeader := env.FirstOf("", "IDENTITY_HEADER", "MSI_SECRET")
	tokens := identity.New(httpClient, identityEndpoint, identityHeader, clientID)

	describerCfg := describer.Config{
		FoundryEndpoint: env.String("AZURE_FOUNDRY_ENDPOINT", ""),
		DeploymentSLM:   env.String("AZURE_FOUNDRY_DEPLOYMENT_SLM", ""),
		DeploymentLLM:   env.String("AZURE_FOUNDRY_DEPLOYMENT_LLM", ""),
		VisionEndpoint:  env.String("AZURE_VISION_ENDPOINT", ""),
	}
	desc, err := describer.New(strategies.Describer, httpClient, tokens, describerCfg)
	if err != nil {
		return fmt.Errorf("configure describer: %w", err)
	}

	translatorCfg := translator.Config{
		DedicatedEndpoint: env.String("AZURE_TRANSLATOR_ENDPOINT", ""),
		Region:            env.String("AZURE_TRANSLATOR_REGION", ""),
		ChatEndpoint:      describerCfg.FoundryEndpoint,
		ChatDeployment:    describerCfg.DeploymentLLM,
	}
	trans, err := translator.New(strategies.Translator, httpClient, tokens, translatorCfg)
	if err != nil {
		return fmt.Errorf("configure translator: %w", err)
	}

	dir := filepath.Dir(imagePathFlag)
	blobName := filepath.Base(imagePathFlag)
	store := localstore.New(dir)

	orch := orchestrator.New(store, desc, trans)

	log.Info().Str("image", blobName).Str("describer", strategies.Describer).Str("translator", strategies.Translator).Msg("altctl: processing")

	out, err := orch.Process(context.Background(), orchestrator.Input{
		Container: dir,
		BlobName:  blobName,
	})
	if err != nil {
		return fmt.Errorf("altctl: process failed: %w", err)
	}

	if out.Skipped {
		fmt.Printf("skipped: %s\n", out.SkipReason)
		return nil
	}

	encoded, err := json.MarshalIndent(out.AltJSON, "", "  ")
	if err != nil {
		return fmt.Errorf("altctl: marshal result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
