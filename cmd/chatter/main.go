package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/YallaPapi/chatter/internal/analytics"
	"github.com/YallaPapi/chatter/internal/bus"
	"github.com/YallaPapi/chatter/internal/channel"
	"github.com/YallaPapi/chatter/internal/config"
	"github.com/YallaPapi/chatter/internal/cron"
	"github.com/YallaPapi/chatter/internal/engine"
	"github.com/YallaPapi/chatter/internal/generate"
	"github.com/YallaPapi/chatter/internal/memory"
	"github.com/YallaPapi/chatter/internal/phase"
	"github.com/YallaPapi/chatter/internal/scenario"
)

var rootCmd = &cobra.Command{
	Use:   "chatter",
	Short: "chatter - automated DM conversation engine",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start channels, engine, and maintenance jobs",
	RunE:  runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the persona as a fan in a local REPL",
	RunE:  runChat,
}

var fansCmd = &cobra.Command{
	Use:   "fans",
	Short: "Inspect remembered fans",
}

var fansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all fan records",
	RunE:  runFansList,
}

var fansShowCmd = &cobra.Command{
	Use:   "show <fan-id>",
	Short: "Dump one fan record",
	Args:  cobra.ExactArgs(1),
	RunE:  runFansShow,
}

var fansDeleteCmd = &cobra.Command{
	Use:   "delete <fan-id>",
	Short: "Forget one fan",
	Args:  cobra.ExactArgs(1),
	RunE:  runFansDelete,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show funnel stats from the analytics log",
	RunE:  runStats,
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize config and data directories",
	RunE:  runOnboard,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chatter status",
	RunE:  runStatus,
}

var chatFanFlag string

func init() {
	chatCmd.Flags().StringVar(&chatFanFlag, "fan", "repl-fan", "fan username to chat as")
	fansCmd.AddCommand(fansListCmd, fansShowCmd, fansDeleteCmd)
	rootCmd.AddCommand(serveCmd, chatCmd, fansCmd, statsCmd, onboardCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildEngine wires everything below the channels: store, scenario,
// generator, analytics, engine.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, *memory.Store, *analytics.Logger, error) {
	store, err := memory.NewStore(cfg.Memory.Dir, memory.Caps{
		Messages: cfg.Memory.MessageCap,
		Phrases:  cfg.Memory.PhraseCap,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open memory store: %w", err)
	}

	sc, err := scenario.Load(cfg.Scenario.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load scenario: %w", err)
	}

	gen, err := generate.NewClient(ctx, cfg.Provider, cfg.Generation)
	if err != nil {
		return nil, nil, nil, err
	}

	var logger *analytics.Logger
	if cfg.Analytics.Enabled {
		logger, err = analytics.NewLogger(cfg.Analytics.DBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open analytics: %w", err)
		}
	}

	var al engine.EventLogger
	if logger != nil {
		al = logger
	}
	eng := engine.New(engine.Options{
		Store:     store,
		Machine:   &phase.Machine{ColdReentry: cfg.Memory.ColdReentryEnabled()},
		Generator: gen,
		Scenario:  sc,
		Analytics: al,

		SessionGap:      cfg.Memory.SessionGapDuration(),
		SobProbability:  cfg.Scenario.SobProbability,
		GenerateTimeout: time.Duration(cfg.Generation.TimeoutSec) * time.Second,
	})
	return eng, store, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("API key not set. Run 'chatter onboard' or set CHATTER_API_KEY / ANTHROPIC_API_KEY")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eng, _, logger, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	if logger != nil {
		defer logger.Close()
	}

	b := bus.NewMessageBus(config.DefaultBufSize)

	mgr, err := channel.NewManager(cfg.Channels, cfg.Gateway, b)
	if err != nil {
		return err
	}
	if len(mgr.EnabledChannels()) == 0 {
		return fmt.Errorf("no channels enabled; enable telegram or console in %s", config.ConfigPath())
	}
	if err := mgr.StartAll(ctx); err != nil {
		return err
	}
	defer mgr.StopAll()

	if logger != nil {
		svc := cron.NewService(filepath.Join(config.ConfigDir(), "data", "jobs.json"))
		svc.OnJob = func(job cron.Job) (string, error) {
			if job.Payload.Task != "rollup" {
				return "", fmt.Errorf("unknown task %q", job.Payload.Task)
			}
			day := time.Now().AddDate(0, 0, -1)
			if err := logger.Rollup(ctx, day); err != nil {
				return "", err
			}
			return "rolled up " + day.Format("2006-01-02"), nil
		}
		// nightly, ten past midnight
		if _, err := svc.EnsureJob("analytics-rollup",
			cron.Schedule{Kind: "cron", Expr: "0 10 0 * * *"},
			cron.Payload{Task: "rollup"}); err != nil {
			return fmt.Errorf("schedule rollup: %w", err)
		}
		if err := svc.Start(ctx); err != nil {
			return fmt.Errorf("start cron: %w", err)
		}
		defer svc.Stop()
	}

	go b.DispatchOutbound(ctx)
	eng.Run(ctx, b)
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	return runChatWithIO(os.Stdin, os.Stdout)
}

func runChatWithIO(stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Provider.APIKey == "" {
		return fmt.Errorf("API key not set. Run 'chatter onboard' or set CHATTER_API_KEY / ANTHROPIC_API_KEY")
	}

	ctx := context.Background()
	eng, store, logger, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	if logger != nil {
		defer logger.Close()
	}

	fanID := memory.FanID("chat", chatFanFlag)
	fmt.Fprintf(stdout, "chatting as fan %q (id %s), type 'exit' to quit\n", chatFanFlag, fanID)

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\nfan> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		out, err := eng.HandleInbound(ctx, bus.InboundMessage{
			Channel:   "chat",
			FanID:     chatFanFlag,
			ChatID:    "repl",
			Content:   input,
			Timestamp: time.Now(),
		})
		if err != nil {
			fmt.Fprintf(stdout, "error: %v\n", err)
			continue
		}
		for _, o := range out {
			if o.Content != "" {
				fmt.Fprintf(stdout, "her> %s\n", o.Content)
			}
			if o.ImageTag != "" {
				fmt.Fprintf(stdout, "her> [photo: %s]\n", o.ImageTag)
			}
		}

		if rec, err := store.Load(fanID); err == nil && rec != nil {
			fmt.Fprintf(stdout, "     (phase=%s rapport=%d %s)\n",
				rec.State.Phase, rec.State.RapportLevel, rec.Mood.String())
		}
	}
	return nil
}

func openStore(cfg *config.Config) (*memory.Store, error) {
	return memory.NewStore(cfg.Memory.Dir, memory.Caps{
		Messages: cfg.Memory.MessageCap,
		Phrases:  cfg.Memory.PhraseCap,
	})
}

func runFansList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	ids, err := store.ListIDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no fans yet")
		return nil
	}

	fmt.Printf("%-18s %-12s %-16s %-11s %8s %6s\n", "FAN ID", "PLATFORM", "USERNAME", "PHASE", "MESSAGES", "RAPPORT")
	for _, id := range ids {
		rec, err := store.Load(id)
		if err != nil || rec == nil {
			continue
		}
		fmt.Printf("%-18s %-12s %-16s %-11s %8d %6d\n",
			rec.FanID, rec.Platform, rec.Username, rec.State.Phase, len(rec.Messages), rec.State.RapportLevel)
	}
	return nil
}

func runFansShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	rec, err := store.Load(args[0])
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no record for fan %s", args[0])
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runFansDelete(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("deleted fan %s\n", args[0])
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := analytics.NewLogger(cfg.Analytics.DBPath)
	if err != nil {
		return err
	}
	defer logger.Close()

	st, err := logger.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("events:        %d\n", st.TotalEvents)
	fmt.Printf("fans:          %d\n", st.UniqueFans)
	fmt.Printf("pitches:       %d\n", st.Pitches)
	fmt.Printf("subscriptions: %d\n", st.Subscriptions)
	fmt.Printf("fallbacks:     %d\n", st.Fallbacks)
	if len(st.ByIntent) > 0 {
		fmt.Println("by intent:")
		for in, n := range st.ByIntent {
			fmt.Printf("  %-12s %d\n", in, n)
		}
	}

	// phase distribution comes from the records themselves
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	ids, err := store.ListIDs()
	if err != nil {
		return err
	}
	byPhase := map[string]int{}
	for _, id := range ids {
		rec, err := store.Load(id)
		if err != nil || rec == nil {
			continue
		}
		byPhase[string(rec.State.Phase)]++
	}
	if len(byPhase) > 0 {
		fmt.Println("by phase:")
		for p, n := range byPhase {
			fmt.Printf("  %-12s %d\n", p, n)
		}
	}
	return nil
}

func runOnboard(cmd *cobra.Command, args []string) error {
	cfgDir := config.ConfigDir()
	cfgPath := config.ConfigPath()

	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		data, _ := json.MarshalIndent(cfg, "", "  ")
		if err := os.WriteFile(cfgPath, data, 0644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Created config: %s\n", cfgPath)
	} else {
		fmt.Printf("Config already exists: %s\n", cfgPath)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Memory.Dir, 0755); err != nil {
		return fmt.Errorf("create memory dir: %w", err)
	}

	// write the default scenario so operators have something to edit
	scPath := filepath.Join(cfgDir, "scenario.yaml")
	if _, err := os.Stat(scPath); os.IsNotExist(err) {
		sc := scenario.Default()
		fmt.Printf("Default persona: %s, %d, %s\n", sc.Persona.Name, sc.Persona.Age, sc.Persona.Location)
		fmt.Printf("Write your own scenario to %s and set scenario.path in config\n", scPath)
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Edit %s to set your API key\n", cfgPath)
	fmt.Println("  2. Or set CHATTER_API_KEY environment variable")
	fmt.Println("  3. Run 'chatter chat' to talk to the persona locally")

	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Config: error (%v)\n", err)
		return nil
	}

	fmt.Printf("Config: %s\n", config.ConfigPath())
	fmt.Printf("Model: %s\n", cfg.Generation.Model)
	fmt.Printf("Provider: %s\n", providerDisplay(cfg.Provider.Type))
	if cfg.Provider.APIKey != "" && len(cfg.Provider.APIKey) > 8 {
		masked := cfg.Provider.APIKey[:4] + "..." + cfg.Provider.APIKey[len(cfg.Provider.APIKey)-4:]
		fmt.Printf("API Key: %s\n", masked)
	} else if cfg.Provider.APIKey != "" {
		fmt.Println("API Key: set")
	} else {
		fmt.Println("API Key: not set")
	}
	fmt.Printf("Memory dir: %s\n", cfg.Memory.Dir)
	fmt.Printf("Session gap: %s\n", cfg.Memory.SessionGapDuration())
	fmt.Printf("Telegram: enabled=%v\n", cfg.Channels.Telegram.Enabled)
	fmt.Printf("Console: enabled=%v\n", cfg.Channels.Console.Enabled)
	fmt.Printf("Analytics: enabled=%v (%s)\n", cfg.Analytics.Enabled, cfg.Analytics.DBPath)

	store, err := openStore(cfg)
	if err == nil {
		if ids, err := store.ListIDs(); err == nil {
			fmt.Printf("Fans remembered: %d\n", len(ids))
		}
	}

	sc, err := scenario.Load(cfg.Scenario.Path)
	if err != nil {
		fmt.Printf("Scenario: error (%v)\n", err)
	} else {
		fmt.Printf("Persona: %s, %d, %s (%d sob stories)\n",
			sc.Persona.Name, sc.Persona.Age, sc.Persona.Location, len(sc.SobStories))
	}
	return nil
}

func providerDisplay(t string) string {
	if t == "" {
		return "anthropic (default)"
	}
	return t
}
