package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/glint/internal/config"
	"github.com/zjrosen/glint/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 reply does not race the preview's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// localConfigPath is checked before the user config directory.
const localConfigPath = ".glint/config.yaml"

var (
	version      = "dev"
	cfgFile      string
	debugFlag    bool
	storeBackend string
	cfg          config.Config
	cfgErr       error
)

var rootCmd = &cobra.Command{
	Use:   "glint",
	Short: "Highlight user-defined patterns in text",
	Long: `glint highlights lexical patterns (comments, keywords, numbers, delimiters)
described by an ordered list of regex rules. Later rules win where matches
overlap.

Rules, the master switch and the default text color are stored in the
configured settings store and shared by every command.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return cfgErr
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .glint/config.yaml, then ~/.config/glint/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also GLINT_DEBUG=1)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "",
		"settings store backend: file, sqlite or memory (overrides config)")
}

func initConfig() {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .glint/config.yaml (current directory)
		// 2. ~/.config/glint/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			v.SetConfigFile(localConfigPath)
		} else if dir := config.Dir(); dir != "" {
			v.AddConfigPath(dir)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && config.Dir() != "":
			// First run: write the commented default into the user config dir.
			defaultPath := filepath.Join(config.Dir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				v.SetConfigFile(defaultPath)
				_ = v.ReadInConfig()
			}
		case errors.As(err, &notFound):
		default:
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
	}

	cfg, cfgErr = config.Load(v)
	if cfgErr != nil {
		return
	}
	if storeBackend != "" {
		cfg.Store.Backend = storeBackend
		cfgErr = config.ValidateStore(cfg.Store)
	}
	configFileUsed = v.ConfigFileUsed()
}

// configFileUsed is where palette edits are written.
var configFileUsed string

// configWritePath returns the loaded config file, or the user config path
// when none was loaded.
func configWritePath() string {
	if configFileUsed != "" {
		return configFileUsed
	}
	if dir := config.Dir(); dir != "" {
		return filepath.Join(dir, "config.yaml")
	}
	return localConfigPath
}

// initLogging enables the debug log when --debug, GLINT_DEBUG or log.path
// asks for it. The returned cleanup is never nil.
func initLogging(prefix string, useTea bool) (func(), error) {
	debug := debugFlag || os.Getenv("GLINT_DEBUG") != ""
	path := cfg.Log.Path
	if path == "" && debug {
		path = os.Getenv("GLINT_LOG")
		if path == "" {
			path = "debug.log"
		}
	}
	if path == "" {
		return func() {}, nil
	}

	var (
		cleanup func()
		err     error
	)
	if useTea {
		cleanup, err = log.InitWithTeaLog(path, prefix)
	} else {
		cleanup, err = log.Init(path)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}

	level := log.ParseLevel(cfg.Log.Level)
	if debug {
		level = log.LevelDebug
	}
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "glint starting", "version", version, "config", configFileUsed, "store", cfg.Store.Backend)
	return cleanup, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
