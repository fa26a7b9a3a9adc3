package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/F1nal04/wattlyzer/internal/cache"
	"github.com/F1nal04/wattlyzer/internal/prices"
	"github.com/F1nal04/wattlyzer/internal/sched"
	"github.com/F1nal04/wattlyzer/internal/solar"
	"github.com/F1nal04/wattlyzer/internal/store"
	"github.com/F1nal04/wattlyzer/internal/uiapi"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	var port int
	var dbPath string
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "wattlyzerd",
		Short: "Wattlyzer HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			} else {
				home, _ := os.UserHomeDir()
				viper.AddConfigPath(filepath.Join(home, ".wattlyzer"))
				viper.SetConfigName("config")
				viper.SetConfigType("yaml")
			}
			viper.SetEnvPrefix("wattlyzer")
			viper.AutomaticEnv()
			viper.ReadInConfig()

			if dbPath == "" {
				home, _ := os.UserHomeDir()
				dbPath = filepath.Join(home, ".wattlyzer", "wattlyzer.db")
			}

			log := zerolog.New(os.Stderr).With().Timestamp().Logger()

			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer st.Close()

			scheduler := sched.New(cache.New(st), solar.NewClient(log), prices.NewClient(log), log)

			var position *uiapi.Position
			if viper.IsSet("latitude") && viper.IsSet("longitude") {
				position = &uiapi.Position{
					Latitude:  viper.GetFloat64("latitude"),
					Longitude: viper.GetFloat64("longitude"),
				}
			} else {
				log.Warn().Msg("no position configured, scheduling endpoints disabled")
			}

			srv := uiapi.NewServer(scheduler, st, position, log)

			addr := fmt.Sprintf(":%d", port)
			log.Info().Int("port", port).Str("db", dbPath).Msg("wattlyzer API server starting")

			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP port")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "database path")
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
