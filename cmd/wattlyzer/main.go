package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/F1nal04/wattlyzer/internal/cache"
	"github.com/F1nal04/wattlyzer/internal/engine"
	"github.com/F1nal04/wattlyzer/internal/prices"
	"github.com/F1nal04/wattlyzer/internal/sched"
	"github.com/F1nal04/wattlyzer/internal/solar"
	"github.com/F1nal04/wattlyzer/internal/store"
	"github.com/F1nal04/wattlyzer/internal/sun"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	dbPath  string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wattlyzer",
		Short: "Wattlyzer - Find the best time to run your appliances",
		Long: `Wattlyzer recommends the optimal future time window to run a
fixed-duration electrical load, balancing your forecasted solar production
against day-ahead market prices.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.wattlyzer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default is $HOME/.wattlyzer/wattlyzer.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(settingsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".wattlyzer")
		os.MkdirAll(configDir, 0755)

		viper.AddConfigPath(configDir)
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
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// position resolves the configured location. Scheduling cannot proceed
// without one; this is not an error state, just a missing prerequisite.
func position() (lat, lon float64, ok bool) {
	if !viper.IsSet("latitude") || !viper.IsSet("longitude") {
		return 0, 0, false
	}
	return viper.GetFloat64("latitude"), viper.GetFloat64("longitude"), true
}

func openScheduler(log zerolog.Logger) (*sched.Scheduler, *store.Store, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	c := cache.New(st)
	scheduler := sched.New(c, solar.NewClient(log), prices.NewClient(log), log)
	return scheduler, st, nil
}

func panelFromSettings(settings store.Settings) engine.PanelConfig {
	return engine.PanelConfig{
		AzimuthDeg: settings.AzimuthDeg,
		TiltDeg:    settings.TiltDeg,
		CapacityKw: settings.CapacityKw,
	}
}

func planCmd() *cobra.Command {
	var duration int
	var window string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Recommend the best start time for your load",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			log := newLogger()

			lat, lon, ok := position()
			if !ok {
				return fmt.Errorf("no position configured (set latitude/longitude in %s)", filepath.Join("$HOME", ".wattlyzer", "config.yaml"))
			}

			scheduler, st, err := openScheduler(log)
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now()
			windowHours, err := sun.ResolveWindow(window, now, lat, lon)
			if err != nil {
				return err
			}

			settings := st.LoadSettings()
			prefs := engine.Preferences{
				LoadDurationHours: duration,
				SearchWindowHours: windowHours,
				MinQualifyingWh:   settings.MinQualifyingWh,
				MorningShading:    settings.MorningShading,
				ShadingEndHour:    settings.ShadingEndHour,
			}

			if prefs.SearchWindowHours < prefs.LoadDurationHours {
				fmt.Fprintf(os.Stderr, "Warning: search window (%dh) is shorter than the load duration (%dh)\n",
					prefs.SearchWindowHours, prefs.LoadDurationHours)
			}

			rec, err := scheduler.Recommend(ctx, now, lat, lon, panelFromSettings(settings), prefs)
			if err != nil {
				return err
			}

			if !rec.HasResult {
				fmt.Println("Insufficient data to make a recommendation")
				return nil
			}

			fmt.Printf("Best start: %s\n", rec.Result.BestTime.Local().Format("Mon 15:04"))
			fmt.Printf("Reason:     %s\n", rec.Result.Reason)
			fmt.Printf("Avg solar:  %.0f Wh\n", rec.Result.AvgSolarWh)
			fmt.Printf("Avg price:  %.2f EUR/MWh\n", rec.Result.AvgPrice)

			fmt.Println("\nTop solar slots:")
			for _, s := range rec.Top.Solar {
				fmt.Printf("  %s  %.0f Wh  %.2f EUR/MWh\n", s.StartTime.Local().Format("Mon 15:04"), s.AvgSolarWh, s.AvgPrice)
			}
			fmt.Println("Top price slots:")
			for _, s := range rec.Top.Price {
				fmt.Printf("  %s  %.0f Wh  %.2f EUR/MWh\n", s.StartTime.Local().Format("Mon 15:04"), s.AvgSolarWh, s.AvgPrice)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&duration, "duration", "d", 3, "load duration in hours")
	cmd.Flags().StringVarP(&window, "window", "w", "24", "search window: hours, 'eod' or 'sunset'")

	return cmd
}

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [solar|market]",
		Short: "Fetch raw forecast data from the upstream providers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			log := newLogger()

			scheduler, st, err := openScheduler(log)
			if err != nil {
				return err
			}
			defer st.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			switch args[0] {
			case "solar":
				lat, lon, ok := position()
				if !ok {
					return fmt.Errorf("no position configured")
				}
				settings := st.LoadSettings()
				series, err := scheduler.SolarSeries(ctx, lat, lon, panelFromSettings(settings))
				if err != nil {
					return err
				}
				return enc.Encode(series)
			case "market":
				periods, err := scheduler.MarketSeries(ctx)
				if err != nil {
					return err
				}
				return enc.Encode(periods)
			default:
				return fmt.Errorf("unknown data kind %q (want solar or market)", args[0])
			}
		},
	}

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the local forecast cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show per-namespace cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			scheduler, st, err := openScheduler(log)
			if err != nil {
				return err
			}
			defer st.Close()

			lat, lon, _ := position()
			settings := st.LoadSettings()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scheduler.CacheInfo(lat, lon, panelFromSettings(settings)))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop all cached forecast data",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			scheduler, st, err := openScheduler(log)
			if err != nil {
				return err
			}
			defer st.Close()

			scheduler.ClearCache()
			fmt.Println("Cache cleared")
			return nil
		},
	})

	return cmd
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persisted panel and scheduling settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st.LoadSettings())
		},
	})

	cmd.AddCommand(settingsSetCmd())

	return cmd
}

func settingsSetCmd() *cobra.Command {
	var azimuth, tilt, capacity, minWh float64
	var shading bool
	var shadingEnd int

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update settings (only provided flags change)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			settings := st.LoadSettings()
			if cmd.Flags().Changed("azimuth") {
				settings.AzimuthDeg = azimuth
			}
			if cmd.Flags().Changed("tilt") {
				settings.TiltDeg = tilt
			}
			if cmd.Flags().Changed("capacity") {
				settings.CapacityKw = capacity
			}
			if cmd.Flags().Changed("min-wh") {
				settings.MinQualifyingWh = minWh
			}
			if cmd.Flags().Changed("morning-shading") {
				settings.MorningShading = shading
			}
			if cmd.Flags().Changed("shading-end") {
				settings.ShadingEndHour = shadingEnd
			}

			if err := st.SaveSettings(settings); err != nil {
				return err
			}

			fmt.Println("Settings saved")
			return nil
		},
	}

	cmd.Flags().Float64Var(&azimuth, "azimuth", 180, "panel azimuth, compass degrees (180 = south)")
	cmd.Flags().Float64Var(&tilt, "tilt", 45, "panel tilt in degrees")
	cmd.Flags().Float64Var(&capacity, "capacity", 5, "panel capacity in kWp")
	cmd.Flags().Float64Var(&minWh, "min-wh", 500, "minimum average Wh for a solar-qualified slot")
	cmd.Flags().BoolVar(&shading, "morning-shading", false, "halve estimates before the shading end hour")
	cmd.Flags().IntVar(&shadingEnd, "shading-end", 10, "local hour at which morning shading ends")

	return cmd
}
