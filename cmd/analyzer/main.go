package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/futures-analyzer/internal/config"
	"github.com/Alias1177/futures-analyzer/internal/database"
	"github.com/Alias1177/futures-analyzer/internal/ingest"
	"github.com/Alias1177/futures-analyzer/internal/metrics"
	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/notify"
	"github.com/Alias1177/futures-analyzer/internal/pipeline"
	"github.com/Alias1177/futures-analyzer/internal/platform/http"
)

type options struct {
	dataFile  string
	dataURL   string
	mapping   string
	modelType string
	contract  string
	output    string
}

func main() {
	var opts options
	flag.StringVar(&opts.dataFile, "data", "", "CSV file with daily bars (overrides DATA_FILE)")
	flag.StringVar(&opts.dataURL, "url", "", "URL of a CSV file with daily bars (overrides DATA_URL)")
	flag.StringVar(&opts.mapping, "map", "", "column mapping as source=field pairs separated by commas (overrides COLUMN_MAPPING)")
	flag.StringVar(&opts.modelType, "model", "", "model type (overrides MODEL_TYPE)")
	flag.StringVar(&opts.contract, "contract", "", "recommend for this contract; \"all\" for every contract; empty for the latest row")
	flag.StringVar(&opts.output, "out", "", "write the run report as JSON to this file instead of stdout")
	flag.Parse()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyFlags(cfg, opts)

	// 2. Configure logging
	setupLogging(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Starting Futures Analyzer")

	// 3. Print configuration
	printConfig(cfg)

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatal().Err(err).Msg("Analysis failed")
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel, format string) {
	if format != "json" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		log.Logger = log.Output(output)
	}

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.dataFile != "" {
		cfg.DataFile = opts.dataFile
	}
	if opts.dataURL != "" {
		cfg.DataURL = opts.dataURL
	}
	if opts.mapping != "" {
		cfg.ColumnMapping = opts.mapping
	}
	if opts.modelType != "" {
		cfg.Pipeline.Training.ModelType = opts.modelType
	}
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	p := cfg.Pipeline
	log.Info().
		Str("DataFile", cfg.DataFile).
		Str("DataURL", cfg.DataURL).
		Bool("Postgres", cfg.Database.Enabled()).
		Bool("Telegram", cfg.TelegramBotToken != "").
		Str("MetricsAddr", cfg.MetricsAddr).
		Ints("MovingAverages", p.Features.MovingAverages).
		Int("RSIPeriod", p.Features.RSIPeriod).
		Int("MACDFast", p.Features.MACDFast).
		Int("MACDSlow", p.Features.MACDSlow).
		Int("MACDSignal", p.Features.MACDSignal).
		Int("WarmUp", p.Features.WarmUp()).
		Int("Lookforward", p.Labels.Lookforward).
		Float64("ProfitThreshold", p.Labels.ProfitThreshold).
		Float64("LossThreshold", p.Labels.LossThreshold).
		Str("ModelType", p.Training.ModelType).
		Float64("TestFraction", p.Training.TestFraction).
		Msg("Configuration loaded")
}

// runReport is written at the end of a run
type runReport struct {
	Overview        pipeline.Overview              `json:"overview"`
	Ingest          ingest.Report                  `json:"ingest"`
	Evaluation      model.EvaluationReport         `json:"evaluation"`
	Recommendations []model.StrategyRecommendation `json:"recommendations"`
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	recorder := metrics.New(nil)
	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("Serving metrics")
	}

	var db *database.DB
	if cfg.Database.Enabled() {
		var err error
		db, err = database.New(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer db.Close()
	}

	src, closeSource, err := openSource(cfg, db)
	if err != nil {
		return err
	}
	defer closeSource()

	var mapping ingest.ColumnMapping
	if cfg.ColumnMapping != "" {
		mapping, err = ingest.ParseMapping(strings.Split(cfg.ColumnMapping, ","))
		if err != nil {
			return err
		}
	}

	observe := func(res pipeline.Result) error {
		recorder.ObserveStage(res.Stage, res.Success, res.Duration, res.Rows)
		if !res.Success {
			return fmt.Errorf("[%s] %s", res.Code, res.Message)
		}
		log.Info().Str("stage", res.Stage).Msg(res.Message)
		return nil
	}

	p := cfg.Pipeline
	s := pipeline.New()
	var res pipeline.Result

	s, res = pipeline.LoadData(ctx, s, src, mapping)
	if err := observe(res); err != nil {
		return err
	}
	s, res = pipeline.BuildFeatures(s, p.Features)
	if err := observe(res); err != nil {
		return err
	}
	s, res = pipeline.CreateTarget(s, p.Labels)
	if err := observe(res); err != nil {
		return err
	}
	s, res = pipeline.TrainModel(s, p.Training)
	if err := observe(res); err != nil {
		return err
	}
	recorder.RecordAccuracy(string(s.Model.Kind), s.Model.Report.Accuracy)

	recs, err := recommend(s, cfg, opts.contract, observe)
	if err != nil {
		return err
	}

	var tg *notify.Telegram
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err = notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Error().Err(err).Msg("Telegram disabled")
		}
	}

	for _, rec := range recs {
		recorder.RecordRecommendation(rec.Instrument, string(rec.Action), rec.SuccessRate)
		if db != nil {
			if err := db.SaveRecommendation(ctx, s.Session, string(s.Model.Kind), rec); err != nil {
				log.Error().Err(err).Str("contract", rec.Instrument).Msg("Failed to save recommendation")
			}
		}
		if tg != nil {
			if err := tg.Send(ctx, rec); err != nil {
				log.Error().Err(err).Str("contract", rec.Instrument).Msg("Failed to send recommendation")
			}
		}
	}

	return writeReport(opts.output, runReport{
		Overview:        pipeline.Summarize(s),
		Ingest:          s.Ingest,
		Evaluation:      s.Model.Report,
		Recommendations: recs,
	})
}

func openSource(cfg *config.Config, db *database.DB) (ingest.TableSource, func(), error) {
	if cfg.DataFile != "" {
		f, err := os.Open(cfg.DataFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open data file: %w", err)
		}
		return ingest.NewCSVSource(f), func() { f.Close() }, nil
	}
	if cfg.DataURL != "" {
		client := http.NewClient(http.ClientOptions{Timeout: time.Minute})
		return ingest.NewURLSource(client, cfg.DataURL), func() {}, nil
	}
	if db != nil {
		return db.BarSource(cfg.Database.Table), func() {}, nil
	}
	return nil, nil, fmt.Errorf("no data source: set DATA_FILE (-data), DATA_URL (-url) or DB_HOST")
}

func recommend(s pipeline.State, cfg *config.Config, contract string, observe func(pipeline.Result) error) ([]model.StrategyRecommendation, error) {
	riskCfg := cfg.Pipeline.Risk

	switch contract {
	case "":
		rec, res := pipeline.PredictStrategy(s, nil, riskCfg)
		if err := observe(res); err != nil {
			return nil, err
		}
		return []model.StrategyRecommendation{rec}, nil
	case "all":
		var recs []model.StrategyRecommendation
		for _, c := range pipeline.Summarize(s).Contracts {
			rec, res := pipeline.PredictFor(s, nil, c, riskCfg)
			if err := observe(res); err != nil {
				log.Warn().Err(err).Str("contract", c).Msg("Skipping contract")
				continue
			}
			recs = append(recs, rec)
		}
		return recs, nil
	default:
		rec, res := pipeline.PredictFor(s, nil, contract, riskCfg)
		if err := observe(res); err != nil {
			return nil, err
		}
		return []model.StrategyRecommendation{rec}, nil
	}
}

func writeReport(path string, report runReport) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
