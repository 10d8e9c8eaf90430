package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steveford-obs/btsdp/internal/config"
)

// toolVersion is bumped by hand; this module has no build-time ldflags
// wiring the way the teacher's release tooling does.
const toolVersion = "0.1.0"

var (
	logLevelStr string
	waitSeconds float64
	cfg         *config.Config
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "btsdp",
		Short: "btsdp discovers Bluetooth SDP service records and interprets A2DP endpoints",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevelStr)
			if err != nil {
				return fmt.Errorf("btsdp: %w", err)
			}
			log.SetLevel(lvl)

			var cerr error
			cfg, cerr = config.Load()
			if cerr != nil {
				return cerr
			}

			if !cmd.Flags().Changed("wait") {
				waitSeconds = float64(cfg.DefaultTimeoutSeconds)
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	root.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l", "info",
		"log level (panic, fatal, error, warn, info, debug, trace)")
	root.PersistentFlags().Float64VarP(&waitSeconds, "wait", "w", 10.0,
		"per-discovery time budget in seconds")

	versCmd := &cobra.Command{
		Use:   "version",
		Short: "print the btsdp version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("btsdp %s\n", toolVersion)
		},
	}

	root.AddCommand(versCmd)
	root.AddCommand(discoverCmd())
	root.AddCommand(interactiveCmd())

	return root
}

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Debug("btsdp: signal received, exiting")
		os.Exit(0)
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "btsdp: %s\n", err.Error())
		os.Exit(1)
	}
}
