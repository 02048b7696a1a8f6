package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewall/internal/database"
	"github.com/kozaktomas/facewall/internal/database/mariadb"
	"github.com/kozaktomas/facewall/internal/vector"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import identities from the legacy MariaDB backend",
	Long: `Import identities from the old hosted backend. The legacy schema stored
face descriptors as comma-delimited text; each descriptor is parsed,
validated against the configured embedding dimension and written to
PostgreSQL. Rows with malformed descriptors are skipped and reported.`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("mysql-dsn", "", "MariaDB DSN of the legacy backend (defaults to LEGACY_MYSQL_DSN)")
	importCmd.Flags().Bool("dry-run", false, "Parse and validate without writing to PostgreSQL")
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun := mustGetBool(cmd, "dry-run")

	repo, cfg, err := openIdentityRepository()
	if err != nil {
		return err
	}

	dsn := mustGetString(cmd, "mysql-dsn")
	if dsn == "" {
		dsn = cfg.Legacy.MySQLDSN
	}
	if dsn == "" {
		return errors.New("legacy MariaDB DSN is required (--mysql-dsn or LEGACY_MYSQL_DSN)")
	}

	fmt.Printf("Connecting to legacy MariaDB...\n")
	legacy, err := mariadb.NewPool(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to MariaDB: %w", err)
	}
	defer legacy.Close()

	ctx := context.Background()

	total, err := legacy.CountIdentities(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d legacy identities\n", total)

	rows, err := legacy.ReadIdentities(ctx)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(rows)), "importing")

	imported := 0
	skipped := 0
	for _, row := range rows {
		_ = bar.Add(1)

		embedding, err := vector.ParseLegacyText(row.Descriptor, cfg.Detector.Dim)
		if err != nil {
			fmt.Printf("\nSkipping %q: %v\n", row.Name, err)
			skipped++
			continue
		}

		if dryRun {
			imported++
			continue
		}

		ident := database.StoredIdentity{
			UID:       uuid.NewString(),
			Name:      row.Name,
			Embedding: embedding,
			Dim:       cfg.Detector.Dim,
		}
		if err := repo.Save(ctx, &ident); err != nil {
			fmt.Printf("\nSkipping %q: %v\n", row.Name, err)
			skipped++
			continue
		}
		imported++
	}

	if dryRun {
		fmt.Printf("\nDry run: %d valid, %d skipped\n", imported, skipped)
	} else {
		fmt.Printf("\nImported %d identities, skipped %d\n", imported, skipped)
	}
	return nil
}
