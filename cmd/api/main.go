package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"loanintel/pkg/api/cases"
	"loanintel/pkg/api/lenders"
	"loanintel/pkg/core/bankstmt"
	"loanintel/pkg/core/classifier"
	"loanintel/pkg/core/config"
	"loanintel/pkg/core/eligibility"
	"loanintel/pkg/core/features"
	"loanintel/pkg/core/gst"
	"loanintel/pkg/core/intake"
	"loanintel/pkg/core/ledger"
	"loanintel/pkg/core/lenderkb"
	"loanintel/pkg/core/llm"
	"loanintel/pkg/core/ocr"
	"loanintel/pkg/core/queue"
	"loanintel/pkg/core/report"
	"loanintel/pkg/core/storage"
	"loanintel/pkg/core/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfg, err := config.Load("config/loanintel.yaml")
	if err != nil {
		fmt.Printf("[FATAL] Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
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

	// Services
	ledgerSvc := ledger.NewService(files)
	intakeSvc := intake.NewService(files, intake.Options{
		MaxFileBytes:      cfg.Intake.MaxFileBytes,
		MaxUploadBytes:    cfg.Intake.MaxUploadBytes,
		AllowedExtensions: cfg.Intake.AllowedExtensions,
		MaxAttempts:       cfg.Queue.MaxAttempts,
	})
	featuresSvc := features.NewService(cfg.Features.ConfidenceThreshold)
	eligSvc := eligibility.NewService()
	provider := llm.New(cfg.LLM.Provider, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
	reportSvc := report.NewService(files, eligSvc, provider)
	kbSvc := lenderkb.NewService()

	// HTTP surface
	cases.InitHandler(ledgerSvc, intakeSvc, featuresSvc, eligSvc, reportSvc)
	lenders.InitHandler(kbSvc)

	mux := http.NewServeMux()
	cases.Register(mux)
	lenders.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Optional in-process workers: the job table is the contract, so a single
	// binary can carry the whole pipeline in dev.
	if cfg.Queue.Workers > 0 {
		pool := queue.NewPool(buildProcessor(cfg, files), cfg.Queue.Workers, cfg.Queue.PollInterval)
		go pool.Run(ctx)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("[api] Server starting on :%s\n", port)
	fmt.Println("  - POST /v1/cases")
	fmt.Println("  - POST /v1/cases/{caseID}/documents")
	fmt.Println("  - GET  /v1/cases/{caseID}/checklist")
	fmt.Println("  - POST /v1/cases/{caseID}/eligibility")
	fmt.Println("  - POST /v1/cases/{caseID}/report")
	fmt.Println("  - POST /v1/whatsapp")

	if err := http.ListenAndServe(":"+port, mux); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// buildProcessor assembles the document pipeline. Collaborators without
// configuration stay nil and the processor degrades per stage.
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
