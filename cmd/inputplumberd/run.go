package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/inputplumberd/internal/capabilitymap"
	"github.com/bnema/inputplumberd/internal/config"
	"github.com/bnema/inputplumberd/internal/controldbus"
	"github.com/bnema/inputplumberd/internal/controller"
	"github.com/bnema/inputplumberd/internal/logger"
)

var (
	profilePath       string
	capabilityMapPath string
	deviceName        string
	logToFile         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the composite device controller daemon",
	RunE:  runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&profilePath, "profile", "", "device profile YAML path (defaults to daemon.default_profile_path)")
	runCmd.Flags().StringVar(&capabilityMapPath, "capability-map", "", "static capability map YAML path")
	runCmd.Flags().StringVar(&deviceName, "name", "composite0", "composite device name")
	runCmd.Flags().BoolVar(&logToFile, "log-file", false, "write logs to the daemon log file instead of stderr")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := config.Init(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.Get()
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
		if err := viper.Unmarshal(cfg); err != nil {
			return fmt.Errorf("load config %s: %w", configPath, err)
		}
	}

	if logToFile || cfg.Logging.ToFile {
		if _, err := logger.SetupFileLogging(); err != nil {
			return fmt.Errorf("setup file logging: %w", err)
		}
	}
	logger.SetPrefix(deviceName)

	if profilePath == "" {
		profilePath = cfg.Daemon.DefaultProfilePath
	}

	var opts []controller.Option
	if capabilityMapPath != "" {
		cm, err := capabilitymap.LoadFile(capabilityMapPath)
		if err != nil {
			return fmt.Errorf("load capability map: %w", err)
		}
		opts = append(opts, controller.WithCapabilityMap(cm))
	}

	ctrl := controller.New(deviceName, unavailableManager{}, opts...)

	if profilePath != "" {
		if err := ctrl.LoadProfilePath(profilePath); err != nil {
			logger.Warnf("loading profile %s: %v", profilePath, err)
		}
	}

	busObj, err := controldbus.Export(fmt.Sprintf("/org/inputplumberd/CompositeDevice/%s", deviceName), ctrl)
	if err != nil {
		logger.Warnf("control bus export failed, continuing without it: %v", err)
	} else {
		defer busObj.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	logger.Infof("inputplumberd starting: device=%s profile=%s", deviceName, profilePath)
	if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("controller run: %w", err)
	}
	logger.Info("inputplumberd stopped")
	return nil
}
