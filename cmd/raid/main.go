package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"raidline/internal/app"
	"raidline/internal/auth"
	"raidline/internal/bungie"
	"raidline/internal/config"
	"raidline/internal/db"
	"raidline/internal/domain"
	"raidline/internal/engine"
	"raidline/internal/intent"
	"raidline/internal/render"
	"raidline/internal/repo"
	"raidline/internal/resolve"
	"raidline/internal/server"
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "raid",
	Short: "Raidline raid scheduler",
	Long: `Raidline reads raid commands typed in French in a chat channel and keeps
each guild's raid schedule: activities, dates, squads and substitutes.
- Workspace: the .raidline directory holding config.yml and the SQLite database.
- Guild: one chat community; each has its own schedule and player stats.
- Stats: raid completion counts fetched from Bungie.net, used to rate players.
- Event log: every command, accepted or rejected, view with 'raid log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if viper.GetBool("verbose") {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("RAIDLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().StringP("guild", "g", "local", "guild id")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	for _, name := range []string{"workspace", "json", "guild", "actor-id", "verbose"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(execCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(guildsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(serveCmd())
}

func execCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "exec <message...>",
		Short: "Run one chat message",
		Long:  `Runs a message as if it was typed in the guild channel, e.g. raid exec '!raid leviathan mardi 21h +Cosa58'.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service, _ *config.Config) error {
				reply, err := svc.Handle(ctx, viper.GetString("guild"), viper.GetString("actor-id"), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printReply(reply, outDir)
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write posters to")
	return cmd
}

func chatCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read chat messages from stdin, one per line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service, cfg *config.Config) error {
				fmt.Fprintf(os.Stderr, "Tapez vos messages (%s help pour l'aide), Ctrl-D pour quitter.\n", cfg.Bot.Marker)
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					reply, err := svc.Handle(ctx, viper.GetString("guild"), viper.GetString("actor-id"), scanner.Text())
					if err != nil {
						fmt.Fprintln(os.Stderr, "error:", err)
						continue
					}
					if reply.Ignored {
						continue
					}
					if err := printReply(reply, outDir); err != nil {
						return err
					}
				}
				return scanner.Err()
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory to write posters to")
	return cmd
}

func scheduleCmd() *cobra.Command {
	sched := &cobra.Command{Use: "schedule", Short: "Inspect a guild schedule"}
	sched.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				s, err := r.LoadSchedule(ctx, viper.GetString("guild"))
				if errors.Is(err, repo.ErrNotFound) {
					s, err = domain.Schedule{}, nil
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				fmt.Println(render.ScheduleTable(s))
				return nil
			})
		},
	})
	return sched
}

func statsCmd() *cobra.Command {
	stats := &cobra.Command{Use: "stats", Short: "Inspect synced player stats"}
	var kindName string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show completions per player",
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := domain.Kinds()
			if kindName != "" {
				k, err := domain.ParseKind(strings.ToUpper(kindName))
				if err != nil {
					return err
				}
				kinds = []domain.Kind{k}
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.LoadStats(ctx, viper.GetString("guild"))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(t)
				}
				fmt.Println(statsTable(t, kinds))
				return nil
			})
		},
	}
	show.Flags().StringVar(&kindName, "kind", "", "only this activity kind, e.g. LAST_WISH")
	stats.AddCommand(show)
	return stats
}

func statsTable(t domain.StatsTable, kinds []domain.Kind) string {
	tw := table.NewWriter()
	header := table.Row{"Joueur"}
	for _, k := range kinds {
		header = append(header, k.DisplayName())
	}
	tw.AppendHeader(header)
	for _, tag := range t.Roster() {
		row := table.Row{tag}
		for _, k := range kinds {
			n, _ := t.Completions(tag, k)
			row = append(row, n)
		}
		tw.AppendRow(row)
	}
	if !t.LastSync.IsZero() {
		tw.SetCaption("Dernière synchronisation : %s", t.LastSync.Format(time.RFC3339))
	}
	return tw.Render()
}

func guildsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guilds",
		Short: "List known guilds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				ids, err := r.ListGuilds(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(ids)
				}
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "Every command a guild ran, accepted or rejected, plus bootstraps and stats syncs.",
	}
	var n int
	var evtType string
	var all bool
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			guild := viper.GetString("guild")
			if all {
				guild = ""
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, guild, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Guild", "Actor", "Payload"})
				for _, e := range events {
					tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.GuildID, e.ActorID, e.Payload})
				}
				fmt.Println(tw.Render())
				return nil
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&evtType, "type", "", "event type filter")
	tail.Flags().BoolVar(&all, "all", false, "events of every guild")
	log.AddCommand(tail)
	return log
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config lives in .raidline/config.yml. Secrets come from RAIDLINE_BUNGIE_API_KEY and RAIDLINE_JWT_SECRET.",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(c)
			}
			out, err := c.YAML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate config.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.DefaultYAML()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	return cfg
}

func tokenCmd() *cobra.Command {
	var subject string
	var guilds, perms []string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for a chat bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("jwt_secret")
			if secret == "" {
				return fmt.Errorf("RAIDLINE_JWT_SECRET is required to sign tokens")
			}
			tok, err := auth.Sign(secret, auth.Principal{ActorID: subject, Guilds: guilds, Permissions: perms}, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "bridge identity")
	cmd.Flags().StringSliceVar(&guilds, "guild-grant", nil, "guilds the token may act on (default all)")
	cmd.Flags().StringSliceVar(&perms, "perm", []string{auth.PermCommand, auth.PermRead}, "granted permissions")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (0 never expires)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			authCfg := server.AuthConfig{JWTSecret: viper.GetString("jwt_secret")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("RAIDLINE_JWT_SECRET is required for bearer auth")
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *app.Service, cfg *config.Config) error {
				if !cmd.Flags().Changed("addr") {
					addr = cfg.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") && cfg.Server.BasePath != "" {
					basePath = cfg.Server.BasePath
				}
				handler, err := server.New(server.Config{App: svc, BasePath: basePath, Auth: authCfg, Logger: logger})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				logger.Info("serving raidline api", zap.String("addr", addr), zap.String("base_path", basePath))
				fmt.Printf("Serving Raidline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withService(ctx context.Context, fn func(context.Context, *app.Service, *config.Config) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()

	var stats engine.StatsSource
	if client, err := bungie.New(cfg.Bungie, viper.GetString("bungie_api_key"), logger.Named("bungie")); err == nil {
		stats = client
	} else {
		logger.Warn("stats sync disabled", zap.Error(err))
	}
	clock := func() time.Time { return time.Now().In(loc) }
	exec := engine.New(stats, render.Posters{PageSize: cfg.Render.PageSize})
	exec.Now = clock
	builder := intent.Builder{
		Marker: cfg.Bot.Marker,
		Dates: resolve.DateTimeResolver{
			Engine: resolve.DateParser{Location: loc, Languages: []string{cfg.Bot.Locale}},
		},
	}
	svc := app.New(repo.Repo{DB: conn}, builder, exec, logger.Named("app"))
	return fn(ctx, svc, cfg)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, repo.Repo{DB: conn})
}

func printReply(reply app.Reply, outDir string) error {
	if viper.GetBool("json") {
		return printJSON(reply)
	}
	if reply.Ignored {
		fmt.Fprintln(os.Stderr, "(pas une commande)")
		return nil
	}
	for _, n := range reply.Notices {
		fmt.Println(n)
	}
	fmt.Println(reply.Feedback)
	if len(reply.Artifacts) == 0 {
		return nil
	}
	if outDir == "" {
		for _, a := range reply.Artifacts {
			fmt.Println(string(a.Data))
		}
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	names := make([]string, 0, len(reply.Artifacts))
	for _, a := range reply.Artifacts {
		path := filepath.Join(outDir, a.Name)
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return err
		}
		names = append(names, path)
	}
	sort.Strings(names)
	fmt.Println(strings.Join(names, "\n"))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
