package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/ultracard/pkg/adapters/hass"
	"github.com/aretw0/ultracard/pkg/adapters/memory"
	"github.com/aretw0/ultracard/pkg/ports"
)

func addProviderFlags(cmd *cobra.Command) {
	cmd.Flags().String("states", "", "JSON or YAML file of recorded entity states ({entity_id: {state, attributes}})")
	cmd.Flags().String("hass-url", "", "Home Assistant base URL for live states and templates")
	cmd.Flags().String("hass-token", "", "Home Assistant long-lived token (default $HASS_TOKEN)")
	cmd.Flags().Duration("hass-poll", hass.DefaultPollInterval, "Template subscription poll interval")
	cmd.Flags().Duration("hass-refresh", hass.DefaultRefreshInterval, "Entity state reload interval for long-running commands")
}

// providerFrom builds the state provider selected by flags: a live Home Assistant,
// recorded states, or an empty in-memory provider.
func providerFrom(cmd *cobra.Command, logger *slog.Logger) (ports.StateProvider, error) {
	url, _ := cmd.Flags().GetString("hass-url")
	statesFile, _ := cmd.Flags().GetString("states")

	switch {
	case url != "" && statesFile != "":
		return nil, fmt.Errorf("--states and --hass-url are mutually exclusive")

	case url != "":
		token, _ := cmd.Flags().GetString("hass-token")
		if token == "" {
			token = os.Getenv("HASS_TOKEN")
		}
		poll, _ := cmd.Flags().GetDuration("hass-poll")
		refresh, _ := cmd.Flags().GetDuration("hass-refresh")
		client := hass.New(url, token,
			hass.WithPollInterval(poll),
			hass.WithRefreshInterval(refresh),
			hass.WithLogger(logger),
		)
		start := time.Now()
		if err := client.Refresh(cmd.Context()); err != nil {
			return nil, fmt.Errorf("failed to load states from %s: %w", url, err)
		}
		logger.Info("Loaded Home Assistant states", "url", url, "took", time.Since(start))
		return client, nil

	case statesFile != "":
		data, err := os.ReadFile(statesFile)
		if err != nil {
			return nil, err
		}
		p, err := memory.LoadStates(data, memory.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", statesFile, err)
		}
		return p, nil

	default:
		return memory.NewProvider(memory.WithLogger(logger)), nil
	}
}
