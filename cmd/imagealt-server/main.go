// Command imagealt-server runs the webhook HTTP surface: the Event Grid
// delivery-service handshake, blob-created dispatch, and the audit-only
// /login session issuer.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/mkastner/imagealt-pipeline/internal/blobstore"
	"github.com/mkastner/imagealt-pipeline/internal/config"
	"github.com/mkastner/imagealt-pipeline/internal/describer"
	"github.com/mkastner/imagealt-pipeline/internal/httpapi"
	"github.com/mkastner/imagealt-pipeline/internal/identity"
	"github.com/mkastner/imagealt-pipeline/internal/logging"
	"github.com/mkastner/imagealt-pipeline/internal/metadatadoc"
	"github.com/mkastner/imagealt-pipeline/internal/orchestrator"
	"github.com/mkastner/imagealt-pipeline/internal/translator"
)

var portFlag int

var rootCmd = &cobra.Command{
	Use:   "imagealt-server",
	Short: "Webhook server for the product-image alt-text pipeline",
	Long: `imagealt-server listens for Event Grid delivery-service webhooks, drives
the describer/translator pipeline for each blob-created event, and writes
the alt-text sidecar, tags, and public-container copy.

Examples:
  imagealt-server
  imagealt-server --port 9090`,
	RunE: runServer,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 8080, "port to listen on")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	start := time.Now()
	logging.Init()

	env := config.New()
	strategies := config.LoadStrategySelection(env, "slm", "translator")
	metadatadoc.SetDefaultLanguages(env.StringList("LOCALES", metadatadoc.DefaultLanguages))

	account, err := env.Require("AZURE_STORAGE_ACCOUNT")
	if err != nil {
		return err
	}

	httpClient := &http.Client{}

	clientID := env.String("AZURE_CLIENT_ID", "")
	identityEndpoint := env.FirstOf("", "IDENTITY_ENDPOINT", "MSI_ENDPOINT")
	identityHeader := env.FirstOf("", "IDENTITY_HEADER", "MSI_SECRET")
	tokens := identity.New(httpClient, identityEndpoint, identityHeader, clientID)

	store := blobstore.New(httpClient, tokens, account)

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

	orch := orchestrator.New(store, desc, trans)

	handler := httpapi.New(orch, "ingest")

	logging.NewStartupLogger("imagealt-server").
		Endpoint("storage", account).
		Endpoint("foundry", describerCfg.FoundryEndpoint).
		Endpoint("vision", describerCfg.VisionEndpoint).
		Endpoint("translator", translatorCfg.DedicatedEndpoint).
		Feature("describer:"+strategies.Describer, true).
		Feature("translator:"+strategies.Translator, true).
		Config("port", fmt.Sprintf("%d", portFlag)).
		Config("locales", strings.Join(metadatadoc.DefaultLanguages, ",")).
		InitDuration(time.Since(start)).
		Log()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", portFlag),
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("imagealt-server: shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Info().Int("port", portFlag).Msg("imagealt-server: listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
