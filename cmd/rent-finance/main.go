package main

import (
	"flag"
	"fmt"

	"github.com/iwvelando/rent-finance/internal/config"
	"github.com/iwvelando/rent-finance/internal/engine"
	"github.com/iwvelando/rent-finance/internal/logging"
	"github.com/iwvelando/rent-finance/internal/optimizer"
	"github.com/iwvelando/rent-finance/pkg/constants"
	"github.com/iwvelando/rent-finance/pkg/output"
	"github.com/iwvelando/rent-finance/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	optimize := flag.Bool("optimize", false, "search tenures for requests that declare an optimize block")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	var optimization *optimizer.Result
	if *optimize {
		runner, err := optimizer.NewRunner(logger, conf)
		if err != nil {
			logger.Fatal("failed to initialize optimizer",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		optimization, err = runner.Run()
		if err != nil {
			logger.Fatal("optimizer execution failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	report, err := engine.Evaluate(logger, *conf)
	if err != nil {
		logger.Fatal("failed to evaluate configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if optimization != nil {
		optimization.Apply(&report)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(report, conf.Currency.Symbol)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(report); err != nil {
			logger.Fatal("failed to write CSV output",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
