package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"konbini-planner/internal/advisor"
	"konbini-planner/internal/api"
	"konbini-planner/internal/auth"
	"konbini-planner/internal/catalog"
	"konbini-planner/internal/config"
	"konbini-planner/internal/database"
	"konbini-planner/internal/llm"
	"konbini-planner/internal/logging"
	"konbini-planner/internal/metrics"
	"konbini-planner/internal/planner"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	logging.Setup(cfg.LogLevel, cmd != "serve")

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg)
	case "plan":
		err = runPlan(ctx, cfg, args, os.Stdout)
	case "import-catalog":
		err = runImportCatalog(ctx, args)
	case "issue-token":
		err = runIssueToken(cfg, args)
	case "metrics-cleanup":
		err = runMetricsCleanup(cfg, args)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("command failed")
	}
}

func printUsage() {
	fmt.Println("Usage: konbini-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the HTTP API")
	fmt.Println("  plan               Compute one day of meals and print it")
	fmt.Println("  import-catalog     Convert an HTML product table to a catalog file")
	fmt.Println("  issue-token        Print a bearer token for the HTTP API")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}

func runServe(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	collector := metrics.NewCollector()

	opts := []planner.Option{
		planner.WithPool(cfg.PlanWorkers, cfg.PlanTimeout),
		planner.WithHistory(planner.NewPlanRepository(db.SQL)),
		planner.WithRecorder(metrics.NewMulti(metricsStore, collector)),
	}

	textGen, err := llm.FromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize llm client: %w", err)
	}
	if closer, ok := textGen.(llm.Closer); ok {
		defer closer.Close()
	}
	if adv := advisor.New(textGen); adv != nil {
		opts = append(opts, planner.WithCommenter(adv))
	}

	serverOpts := []api.Option{
		api.WithCollector(collector),
		api.WithDataPath(filepath.Dir(cfg.DatabasePath)),
	}
	if cfg.JWTSecret != "" {
		issuer, err := auth.NewIssuer(cfg.JWTSecret, auth.DefaultTTL)
		if err != nil {
			return err
		}
		serverOpts = append(serverOpts, api.WithAuth(issuer))
	}

	log.Info().
		Int("items", cat.Len()).
		Strs("stores", cat.Stores()).
		Int("workers", cfg.PlanWorkers).
		Bool("advisor", textGen != nil).
		Bool("auth", cfg.JWTSecret != "").
		Msg("starting konbini-planner")

	srv := api.NewServer(planner.NewPlanner(cat, opts...), serverOpts...)
	return srv.Run(ctx, ":"+cfg.Port)
}

func runPlan(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	age := fs.Int("age", 33, "Age in years")
	sex := fs.String("sex", "male", "male or female")
	height := fs.Float64("height", 173, "Height in cm")
	weight := fs.Float64("weight", 78, "Current weight in kg")
	goal := fs.Float64("goal", 70, "Goal weight in kg")
	days := fs.Int("days", 60, "Days until the goal date")
	activity := fs.String("activity", "medium", "low, medium or high")
	budget := fs.Int("budget", 1000, "Daily budget in yen")
	store := fs.String("store", "seven", "Store to shop at")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return err
	}

	req := planner.Request{
		Age:      *age,
		Sex:      *sex,
		HeightCM: *height,
		WeightKG: *weight,
		GoalKG:   *goal,
		Deadline: time.Now().AddDate(0, 0, *days).Format(planner.DateLayout),
		Activity: *activity,
		Budget:   *budget,
		Store:    strings.ToLower(*store),
	}

	p := planner.NewPlanner(cat, planner.WithPool(1, cfg.PlanTimeout))
	res, err := p.Plan(ctx, req)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprintln(out, renderResult(res))
	return err
}

func runImportCatalog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import-catalog", flag.ContinueOnError)
	url := fs.String("url", "", "Page to download")
	file := fs.String("file", "", "Local HTML file")
	store := fs.String("store", "", "Store name for every imported row")
	outPath := fs.String("out", "", "Output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *store == "" || (*url == "") == (*file == "") {
		return fmt.Errorf("import-catalog needs -store and exactly one of -url or -file")
	}

	var src io.ReadCloser
	var err error
	if *url != "" {
		src, err = catalog.FetchHTML(ctx, *url)
	} else {
		src, err = os.Open(*file)
	}
	if err != nil {
		return err
	}
	defer src.Close()

	items, err := catalog.ParseHTML(src, *store)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := catalog.WriteYAML(out, items); err != nil {
		return err
	}
	log.Info().Int("items", len(items)).Str("store", *store).Msg("catalog imported")
	return nil
}

func runIssueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	user := fs.String("user", "", "User id carried as the token subject")
	ttl := fs.Duration("ttl", auth.DefaultTTL, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, *ttl)
	if err != nil {
		return fmt.Errorf("API_JWT_SECRET is required: %w", err)
	}
	token, err := issuer.Issue(*user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func runMetricsCleanup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ContinueOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	affected, err := metrics.NewStore(db.SQL).Cleanup(*days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Printf("Successfully removed %d old metric records.\n", affected)
	return nil
}
