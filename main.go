package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aashish23092/travel-document-verification/config"
	"github.com/Aashish23092/travel-document-verification/pkg/logger"
)

var (
	cfgFile string
	v       = config.New()
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "travel-verify",
		Short: "Travel document MRZ extraction and eligibility checks",
		Long: `travel-verify reads passports, ID cards and visas, decodes their machine
readable zone, validates check digits and decides whether an applicant is
eligible to travel under a configurable policy.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./traveldoc.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("policy", "", "eligibility policy YAML file")

	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = v.BindPFlag("policy.file", rootCmd.PersistentFlags().Lookup("policy"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(evaluateCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	// stdout is reserved for command output
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	slog.Debug("configuration loaded", "config_file", v.ConfigFileUsed(), "ocr_engine", cfg.OCR.Engine)
	return nil
}
