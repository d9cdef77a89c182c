package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"loanintel/pkg/core/bankstmt"
	"loanintel/pkg/core/classifier"
	"loanintel/pkg/core/config"
	"loanintel/pkg/core/gst"
	"loanintel/pkg/core/ocr"
	"loanintel/pkg/core/queue"
	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load("config/loanintel.yaml")
	if err != nil {
		fmt.Printf("[FATAL] Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[FATAL] Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	files, err := storage.NewLocalStorage(cfg.StorageDir)
	if err != nil {
		fmt.Printf("[FATAL] Failed to init storage at %s: %v\n", cfg.StorageDir, err)
		os.Exit(1)
	}

	// Metrics on a side port so the pool can be scraped independently.
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("GET /metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				fmt.Printf("[WARNING] Metrics server failed: %v\n", err)
			}
		}()
	}

	pool := queue.NewPool(buildProcessor(cfg, files), cfg.Queue.Workers, cfg.Queue.PollInterval)
	pool.Run(ctx)
}

func buildProcessor(cfg *config.Config, files storage.Storage) *queue.Processor {
	cls := classifier.New(loadModel())
	if path := os.Getenv("CLASSIFIER_RULES_PATH"); path != "" {
		if err := classifier.LoadRuleOverrides(path); err != nil {
			fmt.Printf("[WARNING] Failed to load classifier rules from %s: %v\n", path, err)
		}
	}

	var engine ocr.Engine
	if url := os.Getenv("OCR_API_URL"); url != "" {
		engine = ocr.NewHTTPEngine(url, os.Getenv("OCR_API_KEY"))
	} else {
		fmt.Println("[WARNING] OCR_API_URL not set, documents will be classified by filename only")
	}

	var parser bankstmt.Parser
	if cfg.BankAnalysis.ParserURL != "" {
		parser = bankstmt.NewRemoteParser(cfg.BankAnalysis.ParserURL, os.Getenv("BANK_PARSER_KEY"))
	}
	bankSvc := bankstmt.NewService(parser, files, bankstmt.Options{
		Timeout:       cfg.BankAnalysis.Timeout,
		MaxPDFBytes:   cfg.BankAnalysis.MaxPDFBytes,
		MaxStatements: cfg.BankAnalysis.MaxStatements,
	})

	var gstClient *gst.Client
	if cfg.GST.BaseURL != "" {
		gstClient = gst.NewClient(cfg.GST.BaseURL, os.Getenv("GST_API_KEY"), cfg.GST.Timeout)
	}

	return queue.NewProcessor(cls, engine, bankSvc, gstClient, files)
}

func loadModel() classifier.Scorer {
	path := os.Getenv("CLASSIFIER_MODEL_PATH")
	if path == "" {
		return nil
	}
	model, err := classifier.LoadLinearModel(path)
	if err != nil {
		fmt.Printf("[WARNING] Failed to load classifier model from %s: %v\n", path, err)
		return nil
	}
	fmt.Printf("[classifier] Loaded linear model from %s\n", path)
	return model
}
