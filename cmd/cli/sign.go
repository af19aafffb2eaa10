package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sevigo/lot-vision/internal/signature"
)

var (
	rawSignature   bool
	printCanonical bool
)

var signCmd = &cobra.Command{
	Use:   "sign [request-file]",
	Short: "Sign a JSON request file with the shared key",
	Long: `Sign a JSON request file with the shared key.

The signature is computed over the canonical form of the document with any
existing top-level signature field removed. By default the signed document
is printed to stdout; --raw prints only the hex signature. Use "-" to read
from stdin.

Examples:
  lv-cli sign batch.json
  cat batch.json | lv-cli sign - --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	signCmd.Flags().BoolVar(&rawSignature, "raw", false, "Print only the hex signature")
	signCmd.Flags().BoolVar(&printCanonical, "canonical", false, "Print the canonical bytes the signature covers, without signing")
	rootCmd.AddCommand(signCmd)
}

func runSign(_ *cobra.Command, args []string) error {
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	if printCanonical {
		canonical, err := canonicalInput(doc)
		if err != nil {
			return err
		}
		fmt.Println(string(canonical))
		return nil
	}

	key, err := signingKey()
	if err != nil {
		return err
	}
	signer := signature.NewSigner(key)
	sig, err := signer.Sign(json.RawMessage(doc))
	if err != nil {
		return fmt.Errorf("failed to sign document: %w", err)
	}

	if rawSignature {
		fmt.Println(sig)
		return nil
	}

	signed, err := injectSignature(doc, sig)
	if err != nil {
		return err
	}
	fmt.Println(string(signed))
	return nil
}

// readDocument loads a JSON document from a file, or stdin when path is "-".
func readDocument(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// canonicalInput returns the exact bytes the signature covers: the canonical
// form of the document with the top-level signature field removed. Useful
// when debugging signing code in another language.
func canonicalInput(doc []byte) ([]byte, error) {
	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	delete(obj, "signature")
	canonical, err := signature.Canonicalize(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}
	return canonical, nil
}

// injectSignature returns the document with the top-level signature field set.
func injectSignature(doc []byte, sig string) ([]byte, error) {
	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("document is not a JSON object: %w", err)
	}
	obj["signature"] = sig
	return json.MarshalIndent(obj, "", "  ")
}
