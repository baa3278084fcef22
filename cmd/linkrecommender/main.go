// Package main is the link recommendation service entry point.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/wikimedia/research-mwaddlink/internal/classifier"
	"github.com/wikimedia/research-mwaddlink/internal/config"
	"github.com/wikimedia/research-mwaddlink/internal/dataset"
	"github.com/wikimedia/research-mwaddlink/internal/linker"
	"github.com/wikimedia/research-mwaddlink/internal/mwapi"
	"github.com/wikimedia/research-mwaddlink/internal/server"
	"github.com/wikimedia/research-mwaddlink/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "query":
		runQuery()
	case "version", "--version", "-v":
		fmt.Printf("linkrecommender version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: linkrecommender <command> [flags]

Commands:
  server    start the HTTP API
  query     get link recommendations for one article
  version   print the version
  help      print this help

Run "linkrecommender <command> -h" for command flags.
`)
}

// openDatasetDB opens the MySQL pool when the configured backend needs one.
func openDatasetDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.Datasets.Backend != dataset.BackendMySQL {
		return nil, nil
	}
	db, err := sql.Open("mysql", cfg.Datasets.MySQL.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := openDatasetDB(cfg)
	if err != nil {
		logger.Fatal("Failed to open dataset database", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	models, err := classifier.NewCache(logger)
	if err != nil {
		logger.Fatal("Failed to create model cache", zap.Error(err))
	}
	defer models.Close()

	srv := server.NewServer(cfg, models, db, version, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// stringSliceFlag collects repeated flag values.
type stringSliceFlag []string

func (f *stringSliceFlag) String() string { return strings.Join(*f, ",") }

func (f *stringSliceFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func runQuery() {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	project := fs.String("project", "wikipedia", "wiki project, e.g. wikipedia or wiktionary")
	domain := fs.String("wiki-domain", "", "wiki domain, e.g. cs (required)")
	pageTitle := fs.String("page-title", "", "page title to process (required)")
	revision := fs.Int64("revision", 0, "page revision (defaults to latest)")
	threshold := fs.Float64("threshold", 0, "minimum probability for a recommendation")
	maxRec := fs.Int("max-recommendations", 0, "maximum number of recommendations (-1 for all, 0 for none)")
	var sectionsToExclude stringSliceFlag
	fs.Var(&sectionsToExclude, "sections-to-exclude", "section title to skip (repeatable)")
	_ = fs.Parse(os.Args[2:])

	// 0 is a meaningful cap, so only a flag the caller actually set
	// overrides the configured default.
	var maxRecommendations *int
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "max-recommendations" {
			maxRecommendations = maxRec
		}
	})

	if *domain == "" || *pageTitle == "" {
		fmt.Println("query requires -wiki-domain and -page-title")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	resp, err := query(cfg, logger, queryArgs{
		project:            *project,
		domain:             *domain,
		pageTitle:          *pageTitle,
		revision:           *revision,
		threshold:          *threshold,
		maxRecommendations: maxRecommendations,
		sectionsToExclude:  sectionsToExclude,
	})
	if err != nil {
		logger.Error("query failed", zap.Error(err))
		fmt.Printf("Query failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(resp, "", "    ")
	if err != nil {
		fmt.Printf("Failed to encode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

type queryArgs struct {
	project            string
	domain             string
	pageTitle          string
	revision           int64
	threshold          float64
	maxRecommendations *int // nil means the configured default
	sectionsToExclude  []string
}

// query performs a one-shot recommendation run against the configured
// datasets, fetching the article from the wiki.
func query(cfg *config.Config, logger *zap.Logger, args queryArgs) (*linker.Response, error) {
	ctx := context.Background()

	db, err := openDatasetDB(cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	wikiID := mwapi.WikiID(args.project, args.domain)
	loader := dataset.NewLoader(cfg.Datasets.Backend, cfg.Datasets.DataDir, wikiID, db, logger)
	defer loader.Close()

	modelPath, err := loader.ModelPath()
	if err != nil {
		return nil, err
	}
	model, err := classifier.LoadXGBClassifier(modelPath)
	if err != nil {
		return nil, err
	}
	defer model.Close()

	stores := make(map[string]dataset.Store, 4)
	for _, name := range []string{
		dataset.DatasetAnchors, dataset.DatasetPageIDs,
		dataset.DatasetRedirects, dataset.DatasetEmbeddings,
	} {
		store, err := loader.Open(name)
		if err != nil {
			return nil, err
		}
		stores[name] = store
	}

	client := mwapi.NewClient(mwapi.Options{
		Domain:       args.domain,
		Project:      args.project,
		BaseURL:      cfg.MediaWiki.APIBaseURL,
		ProxyBaseURL: cfg.MediaWiki.ProxyAPIBaseURL,
		Logger:       logger,
	})
	article, err := client.GetArticle(ctx, args.pageTitle, args.revision)
	if err != nil {
		return nil, err
	}

	threshold := args.threshold
	if threshold == 0 {
		threshold = cfg.Linker.Threshold
	}
	maxRec := cfg.Linker.MaxRecommendations
	if args.maxRecommendations != nil {
		maxRec = *args.maxRecommendations
	}
	sections := args.sectionsToExclude
	if len(sections) > cfg.Linker.MaxSectionsToExclude {
		sections = sections[:cfg.Linker.MaxSectionsToExclude]
	}

	lk := linker.New(
		stores[dataset.DatasetAnchors],
		stores[dataset.DatasetPageIDs],
		stores[dataset.DatasetRedirects],
		stores[dataset.DatasetEmbeddings],
		model, logger)
	resp, err := lk.Run(ctx, &linker.Request{
		Wikitext:           article.Wikitext,
		PageTitle:          args.pageTitle,
		PageID:             article.PageID,
		RevID:              article.RevID,
		LanguageCode:       mwapi.LanguageCode(args.domain),
		Threshold:          threshold,
		MaxRecommendations: &maxRec,
		SectionsToExclude:  sections,
		ContextChars:       cfg.Linker.ContextChars,
		TimeBudget:         time.Duration(cfg.Linker.TimeBudgetSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	resp.Meta.ApplicationVersion = version
	resp.Meta.DatasetChecksums = loader.Checksums(ctx)
	resp.Meta.QueryCounts = loader.QueryCounts()
	return resp, nil
}
