package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/signature"
)

// Color definitions
var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var submitCmd = &cobra.Command{
	Use:   "submit [request-file]",
	Short: "Sign a batch request and submit it to the service",
	Long: `Sign a batch request and submit it to the service.

A request with a single lot is processed synchronously and its result is
printed when it arrives. Larger batches are accepted for asynchronous
processing; follow them with "lv-cli status" and the printed batch ID.

Examples:
  lv-cli submit batch.json
  lv-cli submit --server https://lots.example.com batch.json`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(_ *cobra.Command, args []string) error {
	key, err := signingKey()
	if err != nil {
		return err
	}

	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	signer := signature.NewSigner(key)
	sig, err := signer.Sign(json.RawMessage(doc))
	if err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	signed, err := injectSignature(doc, sig)
	if err != nil {
		return err
	}

	url := baseURL() + "/api/v1/generate-descriptions"
	dimColor.Printf("Submitting to %s\n", url)

	// Generous timeout: a single-lot request blocks on the vision model.
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(url, "application/json", bytes.NewReader(signed))
	if err != nil {
		return fmt.Errorf("failed to submit request: %w\n\nTip: Check that the service is running at %s", err, baseURL())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		var accepted struct {
			BatchID string `json:"batch_id"`
			Status  string `json:"status"`
			Lots    int    `json:"lots"`
		}
		if err := json.Unmarshal(body, &accepted); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		successColor.Println("✓ Batch accepted")
		infoColor.Printf("  Batch ID: %s\n", accepted.BatchID)
		infoColor.Printf("  Lots:     %d\n", accepted.Lots)
		dimColor.Printf("\nFollow it with: lv-cli status %s\n", accepted.BatchID)
		return nil

	case http.StatusOK:
		var payload core.CallbackPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		printResult(&payload)
		return nil

	default:
		return fmt.Errorf("request rejected: %s: %s", resp.Status, errorDetail(body))
	}
}

func printResult(payload *core.CallbackPayload) {
	if payload.Status != core.StatusSuccess {
		errorColor.Printf("✗ Lot %s failed\n", payload.LotID)
		if payload.Error != nil {
			infoColor.Printf("  Kind:    %s\n", payload.Error.Kind)
			infoColor.Printf("  Message: %s\n", payload.Error.Message)
		}
		return
	}

	successColor.Printf("✓ Lot %s processed\n", payload.LotID)

	languages := make([]string, 0, len(payload.Descriptions))
	for lang := range payload.Descriptions {
		languages = append(languages, lang)
	}
	sort.Strings(languages)

	for _, lang := range languages {
		fmt.Println()
		boldColor.Printf("[%s]\n", lang)
		infoColor.Println(payload.Descriptions[lang])
	}
}
