package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewall/internal/vector"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the identity registry as JSON lines",
	Long: `Export all identities as JSON lines. Embeddings are written in the
versioned binary encoding (base64) so exports stay valid when the raw
vector layout changes.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("output", "", "Output file (defaults to stdout)")
}

// exportRecord is one exported identity line.
type exportRecord struct {
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Dim       int       `json:"dim"`
	Embedding string    `json:"embedding"` // base64 of the versioned binary encoding
	CreatedAt time.Time `json:"created_at"`
}

func runExport(cmd *cobra.Command, args []string) error {
	repo, _, err := openIdentityRepository()
	if err != nil {
		return err
	}

	identities, err := repo.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	out := os.Stdout
	if path := mustGetString(cmd, "output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	encoder := json.NewEncoder(out)
	for _, ident := range identities {
		encoded, err := vector.Encode(ident.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding for %s: %w", ident.UID, err)
		}
		record := exportRecord{
			UID:       ident.UID,
			Name:      ident.Name,
			Dim:       ident.Dim,
			Embedding: base64.StdEncoding.EncodeToString(encoded),
			CreatedAt: ident.CreatedAt,
		}
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "Exported %d identities\n", len(identities))
	return nil
}
