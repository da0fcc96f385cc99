package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/janpfeifer/GoTales/internal/config"
	"github.com/janpfeifer/GoTales/internal/server"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	serveConfigPath string
	serveEnvFile    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Run the web server hosting the app and the API it uses to reach the generative service.

The configuration is read from the YAML file given with --config, if it exists, and from the
environment. Environment variables:

` + config.Usage(),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(serveEnvFile); err != nil {
			return err
		}
		cfg, err := config.Load(serveConfigPath)
		if err != nil {
			return err
		}
		if cfg.Gemini.APIKey == "" {
			klog.Warningf("GEMINI_API_KEY is not set: stories, coloring pages and videos will fail")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		started := make(chan *server.Server, 1)
		go func() {
			s, ok := <-started
			if ok {
				fmt.Printf("GoTales server listening on http://%s\n", s.Address)
			}
		}()
		return server.Run(ctx, cfg, started)
	},
}

// loadEnvFile loads variables from a .env file, if there is one. Variables already set in the
// environment win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		klog.V(1).Infof("No env file %q", path)
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %q: %w", path, err)
	}
	klog.Infof("Loaded environment from %q", path)
	return nil
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "gotales.yaml", "YAML configuration file, optional")
	serveCmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "File with environment variables to load, optional")
	rootCmd.AddCommand(serveCmd)
}
