package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/category"
	"github.com/usageflow/screensync/pkg/notion"
	"github.com/usageflow/screensync/pkg/reconcile"
	"github.com/usageflow/screensync/pkg/screentime"
	"github.com/usageflow/screensync/pkg/usage"
)

var cfgFile string

const (
	LOGO = `
	 ___  ___ _ __ ___  ___ _ __  ___ _   _ _ __   ___
	/ __|/ __| '__/ _ \/ _ \ '_ \/ __| | | | '_ \ / __|
	\__ \ (__| | |  __/  __/ | | \__ \ |_| | | | | (__
	|___/\___|_|  \___|\___|_| |_|___/\__, |_| |_|\___|
	                                  |___/
`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screensync",
	Short: "Sync macOS Screen Time usage into a Notion database.",
	Long: LOGO + `screensync rebuilds weekly app, website and sleep summaries from the local
Screen Time database and reconciles them into a Notion database, never
touching rows you created by hand.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.screensync.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().StringP("db-path", "", "", "Path to knowledgeC.db (default is the system Screen Time database)")
	rootCmd.PersistentFlags().StringP("categories", "", "", "Path to the categories config (default is $HOME/.screensync-categories.json)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A .env file in the working directory is the simplest place for the
	// Notion credentials; missing is fine.
	godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".screensync")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()
	viper.BindEnv("notion.token", "NOTION_API_KEY")
	viper.BindEnv("notion.database", "NOTION_DATABASE_ID")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, _ := homedir.Dir()
			configPath := home + "/.screensync.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default empty values for all keys
	viper.SetDefault("notion.token", "")
	viper.SetDefault("notion.database", "")
	viper.SetDefault("timezone", "")
	viper.SetDefault("browsers", []string{})

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

func notionClient() (*notion.Client, error) {
	token := viper.GetString("notion.token")
	database := viper.GetString("notion.database")
	if token == "" || database == "" {
		return nil, errors.New("notion credentials missing: set NOTION_API_KEY and NOTION_DATABASE_ID (or notion.token / notion.database in the config file)")
	}
	return notion.NewClient(token, database), nil
}

func newReader(cmd *cobra.Command) (*screentime.Reader, error) {
	dbPath, _ := cmd.Flags().GetString("db-path")
	return screentime.NewReader(dbPath)
}

func categoriesPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("categories"); path != "" {
		return path, nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return home + "/.screensync-categories.json", nil
}

func loadMapper(cmd *cobra.Command) (*category.Mapper, error) {
	path, err := categoriesPath(cmd)
	if err != nil {
		return nil, err
	}
	return category.Load(path)
}

func pipelineConfig() usage.Config {
	cfg := usage.DefaultConfig()
	if tz := viper.GetString("timezone"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			utils.Log.Warnf("ignoring invalid timezone %q: %v", tz, err)
		} else {
			cfg.Location = loc
		}
	}
	if browsers := viper.GetStringSlice("browsers"); len(browsers) > 0 {
		cfg.Browsers = browsers
	}
	return cfg
}

// parseRange resolves --from/--to, falling back to the last --days.
func parseRange(cmd *cobra.Command) (reconcile.DateRange, error) {
	days, _ := cmd.Flags().GetInt("days")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	cfg := pipelineConfig()
	now := time.Now().In(cfg.Location)
	rng := reconcile.LastDays(days, now)
	if fromStr != "" {
		from, err := time.ParseInLocation("2006-01-02", fromStr, cfg.Location)
		if err != nil {
			return rng, fmt.Errorf("invalid --from date: %v", err)
		}
		rng.From = from
	}
	if toStr != "" {
		to, err := time.ParseInLocation("2006-01-02", toStr, cfg.Location)
		if err != nil {
			return rng, fmt.Errorf("invalid --to date: %v", err)
		}
		// --to names the last day, inclusive.
		rng.To = to.AddDate(0, 0, 1)
	}
	if !rng.From.Before(rng.To) {
		return rng, errors.New("empty date range")
	}
	return rng, nil
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("days", "d", 7, "How many days back to process")
	cmd.Flags().StringP("from", "", "", "Start date (YYYY-MM-DD, overrides --days)")
	cmd.Flags().StringP("to", "", "", "End date, inclusive (YYYY-MM-DD)")
}
