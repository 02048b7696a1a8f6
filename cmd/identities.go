package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/facewall/internal/config"
	"github.com/kozaktomas/facewall/internal/database/postgres"
)

var identitiesCmd = &cobra.Command{
	Use:   "identities",
	Short: "Manage the identity registry",
}

var identitiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered identities, newest first",
	RunE:  runIdentitiesList,
}

var identitiesCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of registered identities",
	RunE:  runIdentitiesCount,
}

var identitiesDeleteCmd = &cobra.Command{
	Use:   "delete <uid>",
	Short: "Delete an identity by UID",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdentitiesDelete,
}

func init() {
	rootCmd.AddCommand(identitiesCmd)
	identitiesCmd.AddCommand(identitiesListCmd)
	identitiesCmd.AddCommand(identitiesCountCmd)
	identitiesCmd.AddCommand(identitiesDeleteCmd)
}

// openIdentityRepository connects to PostgreSQL and returns the identity
// repository. Used by all registry CLI commands.
func openIdentityRepository() (*postgres.IdentityRepository, *config.Config, error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}
	if err := postgres.Initialize(&cfg.Database, cfg.Detector.Dim); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return postgres.NewIdentityRepository(postgres.GetGlobalPool()), cfg, nil
}

func runIdentitiesList(cmd *cobra.Command, args []string) error {
	repo, _, err := openIdentityRepository()
	if err != nil {
		return err
	}

	identities, err := repo.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list identities: %w", err)
	}

	if len(identities) == 0 {
		fmt.Println("No identities registered")
		return nil
	}

	fmt.Printf("%-38s %-25s %-6s %s\n", "UID", "NAME", "DIM", "CREATED")
	for _, ident := range identities {
		fmt.Printf("%-38s %-25s %-6d %s\n",
			ident.UID, ident.Name, ident.Dim, ident.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("\nTotal: %d\n", len(identities))
	return nil
}

func runIdentitiesCount(cmd *cobra.Command, args []string) error {
	repo, _, err := openIdentityRepository()
	if err != nil {
		return err
	}

	count, err := repo.Count(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count identities: %w", err)
	}
	fmt.Printf("%d\n", count)
	return nil
}

func runIdentitiesDelete(cmd *cobra.Command, args []string) error {
	repo, _, err := openIdentityRepository()
	if err != nil {
		return err
	}

	uid := args[0]
	deleted, err := repo.Delete(context.Background(), uid)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	if !deleted {
		return fmt.Errorf("identity %s not found", uid)
	}
	fmt.Printf("Deleted identity %s\n", uid)
	return nil
}
