package main

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/David-Antunes/gone-analyzer/internal/analyzer"
	"github.com/David-Antunes/gone-analyzer/internal/ansible"
	"github.com/David-Antunes/gone-analyzer/internal/executor"
	"github.com/David-Antunes/gone-analyzer/internal/facts"
	"github.com/David-Antunes/gone-analyzer/internal/graphDB"
	"github.com/David-Antunes/gone-analyzer/internal/iputil"
	"github.com/David-Antunes/gone-analyzer/internal/lab"
	"github.com/David-Antunes/gone-analyzer/internal/logger"
	"github.com/David-Antunes/gone-analyzer/internal/remediation"
	"github.com/David-Antunes/gone-analyzer/internal/server"
)

var mainLog = logger.New("main")

func setEnvVariables() {
	viper.SetConfigFile(".env")
	if err := viper.ReadInConfig(); err != nil {
		mainLog.Debug("no .env", "err", err)
	}
	viper.SetDefault("DATA_DIR", "ansible")
	viper.SetDefault("ANSIBLE_RUNNER", "ansible-runner")
	viper.SetDefault("FACTS_PLAYBOOK", "gather_facts.yml")
	viper.SetDefault("FACTS", "")
	viper.SetDefault("INTERFACE_ROLE", "enable_interfaces")
	viper.SetDefault("ROUTE_ROLE", "static_routes")
	viper.SetDefault("MANAGEMENT_NETWORK", "192.168.122.0/24")
	viper.SetDefault("CHANGE_INTERVAL_MS", 0)
	viper.SetDefault("GRAPHDB", "")
	viper.SetDefault("GRAPHDB_USER", "")
	viper.SetDefault("GRAPHDB_PASSWORD", "")
	viper.SetDefault("LISTEN", "0.0.0.0:3000")
	viper.SetDefault("MAX_CONNECTIONS", 64)
	viper.SetDefault("MAX_SESSIONS", server.DefaultMaxSessions)
	viper.SetDefault("SESSION_TTL_MIN", int(server.DefaultSessionTTL/time.Minute))
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FILE", "analyzer.log")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
}

func printVariables() {
	settings := viper.AllSettings()
	sortedList := make([]string, 0, len(settings))
	for id := range settings {
		sortedList = append(sortedList, id)
	}

	sort.Strings(sortedList)

	for _, id := range sortedList {
		if strings.Contains(id, "password") {
			continue
		}
		mainLog.Debug("setting", "key", id, "value", settings[id])
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func managementNetwork() (netip.Prefix, error) {
	mgmt := viper.GetString("MANAGEMENT_NETWORK")
	if mgmt == "" {
		return netip.Prefix{}, nil
	}
	p, err := iputil.ParseNetwork(mgmt)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("MANAGEMENT_NETWORK: %w", err)
	}
	return p, nil
}

// buildEngine wires the fact source and executor. A facts snapshot combined with
// dryRun runs every change against an in-memory copy of the snapshot.
func buildEngine(prerequisite string, dryRun bool) (*analyzer.Engine, error) {
	mgmt, err := managementNetwork()
	if err != nil {
		return nil, err
	}

	path := viper.GetString("FACTS")
	if dryRun {
		if path == "" {
			return nil, errors.New("--dry-run needs a facts snapshot")
		}
		snapshot, err := facts.LoadSnapshot(path)
		if err != nil {
			return nil, err
		}
		network := lab.NewNetwork(snapshot)
		return analyzer.NewEngine(network, remediation.NewPlanner(network, mgmt)), nil
	}

	runner := ansible.NewRunner(viper.GetString("ANSIBLE_RUNNER"), viper.GetString("DATA_DIR"))
	var source facts.Source = &facts.RunnerSource{
		Runner:       runner,
		Playbook:     viper.GetString("FACTS_PLAYBOOK"),
		Prerequisite: prerequisite,
	}
	if path != "" {
		mainLog.Info("facts snapshot without --dry-run, changes go to the devices", "facts", path)
		source = &facts.SnapshotSource{Path: path}
	}

	var exec executor.Executor = executor.NewRunner(runner, viper.GetString("INTERFACE_ROLE"), viper.GetString("ROUTE_ROLE"))
	if ms := viper.GetInt("CHANGE_INTERVAL_MS"); ms > 0 {
		exec = executor.NewPaced(exec, rate.Every(time.Duration(ms)*time.Millisecond))
	}
	return analyzer.NewEngine(source, remediation.NewPlanner(exec, mgmt)), nil
}

func diagnoseCmd() *cobra.Command {
	var (
		src, dst  string
		autoFix   bool
		noAutoFix bool
		playbook  string
		dryRun    bool
		factsFlag string
	)

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Classify the path between two networks and repair it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if factsFlag != "" {
				viper.Set("FACTS", factsFlag)
			}
			source, err := iputil.ParseNetwork(src)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			destination, err := iputil.ParseNetwork(dst)
			if err != nil {
				return fmt.Errorf("destination: %w", err)
			}

			engine, err := buildEngine(playbook, dryRun)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			s, err := engine.Diagnose(ctx, source, destination)
			if err != nil {
				return err
			}
			report := s.Report()
			fmt.Fprintf(cmd.OutOrStdout(), "forward: %s\nreverse: %s\n", report.Forward.State(), report.Reverse.State())
			if report.Healthy() {
				fmt.Fprintf(cmd.OutOrStdout(), "route: %s\n", strings.Join(s.ShortestPath(), " -> "))
				return nil
			}
			for host, names := range s.DownInterfaces() {
				fmt.Fprintf(cmd.OutOrStdout(), "down on %s: %s\n", host, strings.Join(names, ", "))
			}

			out, err := engine.Remediate(ctx, s, autoFix && !noAutoFix)
			if err != nil {
				return err
			}
			for _, a := range out.Attempts {
				status := "failed"
				if a.Fixed {
					status = "fixed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", a.Strategy, status)
				for _, c := range a.Changes {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", c)
				}
				if a.Err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  error: %v\n", a.Err)
				}
			}
			if !out.Fixed {
				return fmt.Errorf("network not fixed: forward %s, reverse %s", out.Report.Forward.State(), out.Report.Reverse.State())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fixed, route: %s\n", strings.Join(s.ShortestPath(), " -> "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&src, "source", "s", "", "source network")
	cmd.Flags().StringVarP(&dst, "destination", "d", "", "destination network")
	cmd.Flags().BoolVar(&autoFix, "auto-fix", true, "apply repairs to the devices")
	cmd.Flags().BoolVar(&noAutoFix, "no-auto-fix", false, "only diagnose")
	cmd.Flags().StringVar(&playbook, "playbook", "", "playbook run once before gathering facts")
	cmd.Flags().StringVar(&factsFlag, "facts", "", "facts snapshot instead of gathering from the devices")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "apply repairs to the facts snapshot only")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("destination")
	cmd.MarkFlagsMutuallyExclusive("auto-fix", "no-auto-fix")
	return cmd
}

func serveCmd() *cobra.Command {
	var playbook string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagnoses and remediations over http",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine(playbook, false)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			var store *graphDB.Store
			if host := viper.GetString("GRAPHDB"); host != "" {
				store, err = graphDB.StartConnection(ctx, "neo4j://"+host, viper.GetString("GRAPHDB_USER"), viper.GetString("GRAPHDB_PASSWORD"))
				if err != nil {
					return fmt.Errorf("graph database: %w", err)
				}
				defer store.Close(context.Background())
			}

			d, err := server.CreateDaemon(engine, store, viper.GetString("LISTEN"), viper.GetInt("MAX_CONNECTIONS"),
				viper.GetInt("MAX_SESSIONS"), time.Duration(viper.GetInt("SESSION_TTL_MIN"))*time.Minute)
			if err != nil {
				return err
			}

			go func() {
				<-ctx.Done()
				shutdown, done := context.WithTimeout(context.Background(), 10*time.Second)
				defer done()
				if err := d.Shutdown(shutdown); err != nil {
					mainLog.Error("shutdown", "err", err)
				}
			}()
			return d.Serve()
		},
	}
	cmd.Flags().StringVar(&playbook, "playbook", "", "playbook run once before gathering facts")
	return cmd
}

func main() {

	// Read environment variables from .env
	setEnvVariables()

	closer, err := logger.Setup(viper.GetString("LOG_LEVEL"), viper.GetString("LOG_FILE"))
	if err != nil {
		mainLog.Warn("log file", "err", err)
	}
	defer closer.Close()
	printVariables()

	root := &cobra.Command{
		Use:           "gone-analyzer",
		Short:         "Diagnose and repair routing faults between two networks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(diagnoseCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		mainLog.Error("analyzer", "err", err)
		closer.Close()
		os.Exit(1)
	}
}
