package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Borgerr/blogthing/internal/config"
	"github.com/Borgerr/blogthing/internal/logger"
)

// Set with -ldflags "-X github.com/Borgerr/blogthing/cmd.version=..."
var version = "0.1.0"

var cfgFile string
var appConfig config.Config

var rootCmd = &cobra.Command{
	Use:     "blogthing",
	Short:   "Serve a directory of markdown files as a blog",
	Version: version,
	Long: `blogthing is a webserver that converts local markdown files to HTML on
request, ideal for low effort blogs. The index lists every post by its first
line, most recently modified first.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.StringP("markdown-dir", "m", "", "Directory to find Markdown files. Defaults to current working directory.")
	flags.BoolP("with-css", "w", false, "A style.css is present in the markdown directory and should be served.")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"markdown-dir":  "contentDir",
	"with-css":      "withCSS",
	"log-level":     "log.level",
	"internal-addr": "internalAddr",
	"output":        "outputDir",
}

func initializeConfig(cmd *cobra.Command) error {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BLOGTHING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
