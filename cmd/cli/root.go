package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serverURL string
	sharedKey string
)

var rootCmd = &cobra.Command{
	Use:   "lv-cli",
	Short: "lv-cli is the command-line interface for LotVision.",
	Long:  `A CLI for interacting with the LotVision service: signing request files, submitting batches, and following batch status.`,
	// main prints the final error itself.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "LotVision base URL")
	rootCmd.PersistentFlags().StringVarP(&sharedKey, "key", "k", "", "shared signing key")

	if err := viper.BindPFlag("SERVER_URL", rootCmd.PersistentFlags().Lookup("server")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("SHARED_KEY", rootCmd.PersistentFlags().Lookup("key")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix("LV")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// signingKey resolves the shared key from the flag or the LV_SHARED_KEY
// environment variable.
func signingKey() (string, error) {
	key := viper.GetString("SHARED_KEY")
	if key == "" {
		return "", fmt.Errorf("shared key is not set\n\nTip: pass --key or set LV_SHARED_KEY")
	}
	return key, nil
}

func baseURL() string {
	return strings.TrimRight(viper.GetString("SERVER_URL"), "/")
}

// errorDetail extracts the detail field from an error response body, falling
// back to the raw body.
func errorDetail(body []byte) string {
	var resp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Detail != "" {
		return resp.Detail
	}
	return strings.TrimSpace(string(body))
}
