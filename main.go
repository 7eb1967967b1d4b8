// Command krakendca performs one dollar-cost-averaging pass over the
// configured pairs on Kraken: for each pair it checks clock sync and
// funds, detects whether the period's purchase already happened, and
// submits a fee-adjusted buy limit order if not.
//
// Usage:
//
//	krakendca --config config.yaml
//	krakendca --init            (interactive config wizard)
//
// API credentials come from KRAKEN_API_KEY and KRAKEN_API_SECRET
// (a .env file is honored) or from the config file. Schedule the
// command externally, e.g. once per day from cron; re-invocation is
// the retry mechanism.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal"
	"github.com/vadiminshakov/krakendca/internal/kraken"
	"github.com/vadiminshakov/krakendca/internal/report"
	"github.com/vadiminshakov/krakendca/internal/setup"
	"github.com/vadiminshakov/krakendca/internal/storage/orders"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	runWizard := flag.Bool("init", false, "run the interactive configuration wizard")
	historyPath := flag.String("orders", "orders.csv", "path to the csv order history")
	journalDir := flag.String("journal", orders.DefaultDir, "directory of the order journal")
	flag.Parse()

	if *runWizard {
		if err := setup.RunWizard(*configPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	// .env is optional, the variables may come from the environment.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}

	os.Exit(run(logger, *configPath, *historyPath, *journalDir))
}

func run(logger *zap.Logger, configPath, historyPath, journalDir string) int {
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	creds, err := kraken.NewCredentials(cfg.APIKey, cfg.APISecret)
	if err != nil {
		logger.Error("invalid API credentials", zap.Error(err))
		return 1
	}
	client := kraken.NewClient(creds)

	journal, err := orders.NewWALStore(journalDir)
	if err != nil {
		logger.Error("failed to open order journal", zap.Error(err))
		return 1
	}
	defer journal.Close()

	recorder := orders.MultiRecorder{journal, orders.NewCSVStore(historyPath)}

	bot := internal.NewBot(logger, client, recorder, cfg)
	results, err := bot.Run(context.Background())
	if err != nil {
		logger.Error("run aborted", zap.Error(err))
		return 1
	}

	report.Render(os.Stdout, results)

	if internal.AnyFailed(results) {
		return 1
	}
	return 0
}
