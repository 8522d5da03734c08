package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"weeromzet/config"
	"weeromzet/models"
	"weeromzet/report"
	"weeromzet/server"
	"weeromzet/services"
	"weeromzet/storage"
	"weeromzet/utils"
	"weeromzet/weather"
)

const usage = `usage:
  weeromzet analyze [-weather] [-html out.html] [-pdf out.pdf] [-export] [-store] <file.csv>
  weeromzet serve`

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, cfg, logger, os.Args[2:])
	case "serve":
		err = runServe(ctx, cfg, logger)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func runAnalyze(ctx context.Context, cfg *config.Config, logger *utils.Logger, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	withWeather := fs.Bool("weather", false, "correlate revenue with daily weather")
	htmlOut := fs.String("html", "", "write an HTML chart report to this path")
	pdfOut := fs.String("pdf", "", "write a PDF report to this path (needs Chrome)")
	export := fs.Bool("export", false, "write the parsed records to CSV_EXPORT_PATH")
	store := fs.Bool("store", cfg.StoreResults, "persist the run in PostgreSQL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New(usage)
	}
	path := fs.Arg(0)

	logger.Info("=== WeerOmzet analysis starting ===")
	logger.Info("Input: %s | weather: %v | store: %v", path, *withWeather, *store)

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fetcher services.WeatherFetcher
	if *withWeather {
		f, closeFn := buildWeather(ctx, cfg, logger)
		defer closeFn()
		fetcher = f
	}
	pipeline := services.NewPipeline(logger, fetcher, coordinates(cfg), cfg.MaxUploadBytes)

	result, records, err := pipeline.Run(ctx, payload, *withWeather)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			fmt.Println(services.GenerateReport(verr.Result))
		}
		return err
	}

	services.Print(os.Stdout, result)

	if *export {
		if err := exportRecords(cfg.CSVExportPath, records); err != nil {
			logger.Error("CSV export failed: %v", err)
		} else {
			logger.Info("Parsed records saved to %s", cfg.CSVExportPath)
		}
	}

	if *store {
		if err := storeResult(ctx, cfg, logger, path, records, result); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
	}

	if *htmlOut != "" {
		if err := writeHTML(*htmlOut, result); err != nil {
			logger.Error("HTML report failed: %v", err)
		} else {
			logger.Info("HTML report saved to %s", *htmlOut)
		}
	}

	if *pdfOut != "" {
		exporter := report.NewPDFExporter(cfg.ChromeBin, logger)
		pdf, err := exporter.Export(ctx, result)
		if err == nil {
			err = os.WriteFile(*pdfOut, pdf, 0o644)
		}
		if err != nil {
			logger.Error("PDF report failed: %v", err)
		} else {
			logger.Info("PDF report saved to %s", *pdfOut)
		}
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	fetcher, closeFn := buildWeather(ctx, cfg, logger)
	defer closeFn()

	var store storage.ResultStore
	if cfg.StoreResults {
		pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer pg.Close()
		store = pg
	}

	pipeline := services.NewPipeline(logger, fetcher, coordinates(cfg), cfg.MaxUploadBytes)
	handler := server.NewAnalysisHandler(pipeline, store, cfg.MaxUploadBytes, logger)
	muxRouter := mux.NewRouter()
	router := server.NewRouter(handler, muxRouter, logger)

	logger.Info("=== WeerOmzet server starting ===")
	return server.NewHTTPServer(router, muxRouter, cfg.HTTPPort, logger).Start(ctx)
}

// buildWeather assembles Meteostat -> climate fallback -> cache. Without a
// RapidAPI key only the climate generator is used.
func buildWeather(ctx context.Context, cfg *config.Config, logger *utils.Logger) (weather.Fetcher, func()) {
	climate := weather.NewClimateFetcher(logger)
	if !cfg.WeatherEnabled() {
		logger.Warn("[weather] RAPIDAPI_KEY not set, using climate normals")
		return climate, func() {}
	}

	meteostat := weather.NewMeteostatClient(weather.MeteostatOptions{
		BaseURL:        cfg.MeteostatBaseURL,
		APIKey:         cfg.RapidAPIKey,
		Host:           cfg.RapidAPIHost,
		MaxConcurrency: cfg.MaxConcurrency,
		RateLimitMs:    cfg.RateLimitMs,
		MaxRetries:     cfg.MaxRetries,
	}, logger)
	fallback := weather.NewFallbackFetcher(meteostat, climate, logger)

	var redis storage.RedisClient
	closeFn := func() {}
	if cfg.RedisAddr != "" {
		rc, err := storage.NewGoRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("[weather] Redis unavailable, caching in memory only: %v", err)
		} else {
			redis = rc
			closeFn = func() { _ = rc.Close() }
		}
	}
	return weather.NewCachedFetcher(fallback, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, redis, logger), closeFn
}

func coordinates(cfg *config.Config) models.Coordinates {
	return models.Coordinates{Lat: cfg.WeatherLat, Lon: cfg.WeatherLon}
}

func exportRecords(path string, records []models.SalesRecord) error {
	w, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.WriteRecords(records)
}

func storeResult(ctx context.Context, cfg *config.Config, logger *utils.Logger, path string, records []models.SalesRecord, result *models.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pg, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	id, err := pg.SaveAnalysis(ctx, storage.Upload{
		ID:       uuid.New(),
		Filename: filepath.Base(path),
		Format:   *result.Format,
		Summary:  *result.Parse,
	}, records, result)
	if err != nil {
		return err
	}
	logger.Info("Analysis stored in PostgreSQL (id: %s)", id)
	return nil
}

func writeHTML(path string, result *models.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.RenderHTML(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
