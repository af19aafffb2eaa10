package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/lot-vision/internal/tracker"
)

var outputJSON bool

var statusCmd = &cobra.Command{
	Use:   "status [batch-id]",
	Short: "Shows the processing state of a submitted batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s/api/v1/batches/%s", baseURL(), args[0])

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("failed to fetch batch status: %w\n\nTip: Check that the service is running at %s", err, baseURL())
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("request rejected: %s: %s", resp.Status, errorDetail(body))
		}

		var view tracker.BatchView
		if err := json.Unmarshal(body, &view); err != nil {
			return fmt.Errorf("failed to decode batch view: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(view)
		}

		fmt.Printf("Batch %s: %s (%d lots)\n\n", view.BatchID, view.Status, len(view.Lots))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "LOT\tSTATE\tATTEMPTS\tUPDATED")
		for _, lot := range view.Lots {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				lot.LotID,
				lot.State,
				lot.DeliveryAttempts,
				lot.UpdatedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(statusCmd)
}
