package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facewall",
	Short: "A self-hosted face check-in wall",
	Long: `Facewall is a self-hosted face check-in service. Browser clients stream
webcam frames to the server; the server recognizes registered people on a
periodic sampling loop, keeps the identity registry in PostgreSQL and
answers questions about it through a small chat assistant.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
