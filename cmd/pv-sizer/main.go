package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pv-sizer/config"
	"pv-sizer/internal/api"
	"pv-sizer/internal/export"
	"pv-sizer/internal/modbus"
	"pv-sizer/internal/monitor"
	"pv-sizer/internal/mqtt"
	"pv-sizer/internal/sizing"
	"pv-sizer/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pv-sizer",
		Short: "PV string sizing calculator",
		Long:  "Size PV strings against inverter MPPT windows, estimate production and plan shortfalls",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(presetsCmd())
	rootCmd.AddCommand(probeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	logCfg := zap.NewProductionConfig()

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return err
	}
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	logCfg.Sampling = nil

	logger, err := logCfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the sizing service",
		Long:  "Start the HTTP API, database, MQTT publisher and optional live monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := storage.NewDatabase(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			zap.S().Infof("Database opened at %s", cfg.Database.Path)

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				Enabled:     cfg.MQTT.Enabled,
			})
			if err != nil {
				zap.S().Warnf("MQTT connection failed: %v", err)
				publisher = &mqtt.Publisher{}
			} else if cfg.MQTT.Enabled {
				zap.S().Infof("MQTT connected to %s", cfg.MQTT.Broker)
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			var mon *monitor.Monitor
			if cfg.Monitor.Enabled && cfg.Inverter.IP != "" {
				mon, err = buildMonitor(cfg, publisher, db)
				if err != nil {
					return err
				}
				go func() {
					if err := mon.Start(ctx); err != nil {
						zap.S().Errorf("Monitor error: %v", err)
					}
				}()
			}

			if cfg.API.Enabled {
				server := api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					Database:  db,
					Publisher: publisher,
					Monitor:   mon,
					Engine:    cfg.Engine,
				})

				go func() {
					if err := server.Start(); err != nil {
						zap.S().Errorf("API server error: %v", err)
					}
				}()
			}

			zap.S().Info("pv-sizer started. Press Ctrl+C to stop.")

			<-sigChan
			zap.S().Info("Shutting down...")
			cancel()
			if mon != nil {
				mon.Stop()
			}
			publisher.Close()
			db.Close()

			return nil
		},
	}
}

// buildMonitor derives the design window to supervise from the most
// recent persisted run, falling back to the built-in presets when the
// history is empty.
func buildMonitor(cfg *config.Config, publisher *mqtt.Publisher, db *storage.Database) (*monitor.Monitor, error) {
	inv, _ := sizing.PresetInverter("aeg4200")
	mod, _ := sizing.PresetModule("era450")
	nSeries := 2
	tAmbMin := cfg.Engine.TAmbMin
	pol := cfg.Engine.Policy

	if record, err := db.GetLatestRecord(); err == nil {
		if rep, err := db.GetReport(record.ID); err == nil {
			inv = rep.Inputs.Inverter
			mod = rep.Inputs.Module
			nSeries = rep.Inputs.NSeries
			tAmbMin = rep.Inputs.TAmbMin
			pol = rep.Inputs.Policy
			zap.S().Infof("Monitoring design from run #%d: %dS x %s on %s",
				record.ID, nSeries, mod.Name, inv.Name)
		}
	}

	client := modbus.NewClient(cfg.Inverter.IP, cfg.Inverter.Port, cfg.Inverter.SlaveID, cfg.Inverter.Timeout)

	return monitor.New(monitor.Config{
		Client:    client,
		Publisher: publisher,
		Interval:  cfg.Monitor.Interval,
		Enabled:   true,
		Inverter:  inv,
		Module:    mod,
		NSeries:   nSeries,
		TAmbMin:   tAmbMin,
		Policy:    pol,
	}), nil
}

func calcCmd() *cobra.Command {
	var (
		req    sizing.Request
		format string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run one sizing calculation",
		Long:  "Compute a sizing report from flags and print it as text, JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if req.HSP == 0 {
				req.HSP = cfg.Engine.HSP
			}
			if req.PR == 0 {
				req.PR = cfg.Engine.PR
			}
			if req.TAmbMin == 0 {
				req.TAmbMin = cfg.Engine.TAmbMin
			}
			if req.TCellHot == 0 {
				req.TCellHot = cfg.Engine.TCellHot
			}
			if req.Days == 0 {
				req.Days = cfg.Engine.Days
			}
			if req.DCACTarget == 0 {
				req.DCACTarget = cfg.Engine.DCACTarget
			}
			pol := cfg.Engine.Policy
			req.Policy = &pol

			rep, err := sizing.ComputeReport(req)
			if err != nil {
				return err
			}

			if save {
				db, err := storage.NewDatabase(cfg.Database.Path)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()
				record, err := db.SaveReport(rep)
				if err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
				zap.S().Infof("Saved as run #%d", record.ID)
			}

			switch format {
			case "text":
				return export.WriteText(os.Stdout, rep)
			case "json":
				return export.WriteJSON(os.Stdout, rep)
			case "csv":
				return export.WriteCSV(os.Stdout, rep)
			default:
				return fmt.Errorf("unknown format %q (text, json, csv)", format)
			}
		},
	}

	f := cmd.Flags()

	// Energy target
	f.Float64Var(&req.KWhMonth, "kwh-month", 0, "monthly consumption target in kWh")
	f.Float64Var(&req.WhDay, "wh-day", 0, "daily consumption target in Wh (overrides --kwh-month)")
	f.Float64Var(&req.Days, "days", 0, "days per month for the energy target")

	// Site assumptions
	f.Float64Var(&req.HSP, "hsp", 0, "peak sun hours per day")
	f.Float64Var(&req.PR, "pr", 0, "performance ratio (0..1]")
	f.Float64Var(&req.TAmbMin, "t-amb-min", 0, "minimum ambient temperature in C")
	f.Float64Var(&req.TCellHot, "t-cell-hot", 0, "hot cell temperature in C")

	// Inverter
	f.StringVar(&req.InverterPreset, "preset-inverter", "", "inverter preset id")
	f.StringVar(&req.Inverter.Name, "inv-name", "", "inverter name")
	f.Float64Var(&req.Inverter.MPPTMinV, "inv-mppt-min", 0, "MPPT window minimum voltage")
	f.Float64Var(&req.Inverter.MPPTMaxV, "inv-mppt-max", 0, "MPPT window maximum voltage")
	f.Float64Var(&req.Inverter.VdcMax, "inv-vdc-max", 0, "absolute maximum DC input voltage")
	f.Float64Var(&req.Inverter.ImaxMPPT, "inv-imax", 0, "maximum operating current per MPPT")
	f.Float64Var(&req.Inverter.IscMaxMPPT, "inv-iscmax", 0, "maximum short-circuit current per MPPT")
	f.IntVar(&req.Inverter.NumMPPT, "inv-n-mppt", 0, "number of MPPT inputs")

	// Module
	f.StringVar(&req.ModulePreset, "preset-module", "", "module preset id")
	f.StringVar(&req.Module.Name, "mod-name", "", "module name")
	f.Float64Var(&req.Module.Wp, "mod-wp", 0, "module power at STC in Wp")
	f.Float64Var(&req.Module.Vmp, "mod-vmp", 0, "module Vmp at STC")
	f.Float64Var(&req.Module.Imp, "mod-imp", 0, "module Imp at STC")
	f.Float64Var(&req.Module.Voc, "mod-voc", 0, "module Voc at STC")
	f.Float64Var(&req.Module.Isc, "mod-isc", 0, "module Isc at STC")
	f.Float64Var(&req.Module.MaxSystemV, "mod-max-system-v", 0, "module maximum system voltage")
	f.Float64Var(&req.Module.GammaPmaxPctPerC, "mod-gamma", 0, "Pmax temperature coefficient in %/C")
	f.Float64Var(&req.Module.BetaVocPctPerC, "mod-beta", 0, "Voc temperature coefficient in %/C")
	f.Float64Var(&req.Module.AlphaIscPctPerC, "mod-alpha", 0, "Isc temperature coefficient in %/C")

	// Topology
	f.BoolVar(&req.AutoSeries, "auto-series", false, "pick the smallest series count that reaches the MPPT window")
	f.IntVar(&req.NSeries, "series", 0, "modules in series per string")
	f.IntVar(&req.NParallel, "parallel", 0, "strings in parallel per MPPT")
	f.IntVar(&req.MPPTsUsed, "mppts-used", 0, "MPPT inputs in use")

	// AC sizing
	f.Float64Var(&req.DCACTarget, "dc-ac-target", 0, "target DC/AC ratio")
	f.Float64Var(&req.InverterACkW, "inv-ac-kw", 0, "actual inverter AC rating in kW")

	f.StringVar(&format, "format", "text", "output format (text, json, csv)")
	f.BoolVar(&save, "save", false, "persist the run to the database")

	return cmd
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in hardware catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Inverters:")
			for _, key := range sizing.PresetKeys(sizing.PresetInverters) {
				inv := sizing.PresetInverters[key]
				fmt.Printf("  %-10s %s (MPPT %g-%gV, Vdc max %gV, %d MPPT)\n",
					key, inv.Name, inv.MPPTMinV, inv.MPPTMaxV, inv.VdcMax, inv.NumMPPT)
			}
			fmt.Println("Modules:")
			for _, key := range sizing.PresetKeys(sizing.PresetModules) {
				mod := sizing.PresetModules[key]
				fmt.Printf("  %-10s %s (%gWp, Vmp %gV, Voc %gV)\n",
					key, mod.Name, mod.Wp, mod.Vmp, mod.Voc)
			}
			return nil
		},
	}
}

func probeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Read the DC side of a live inverter once",
		Long:  "Connect over Modbus TCP and print the current MPPT voltages, currents and DC power",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Inverter.IP == "" {
				return fmt.Errorf("inverter.ip is not configured")
			}

			client := modbus.NewClient(cfg.Inverter.IP, cfg.Inverter.Port, cfg.Inverter.SlaveID, cfg.Inverter.Timeout)

			mon := monitor.New(monitor.Config{
				Client:  client,
				Enabled: true,
				TAmbMin: cfg.Engine.TAmbMin,
				Policy:  cfg.Engine.Policy,
			})
			defer client.Close()

			data, err := mon.ProbeOnce()
			if err != nil {
				return fmt.Errorf("failed to read inverter: %w", err)
			}

			output, _ := json.MarshalIndent(data, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}
}
