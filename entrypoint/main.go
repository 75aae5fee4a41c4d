package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"text2phenotype.com/standoff/api"
	"text2phenotype.com/standoff/logger"
	"text2phenotype.com/standoff/metrics"
	"text2phenotype.com/standoff/standoff"
	"text2phenotype.com/standoff/types"
	"text2phenotype.com/standoff/worker"
)

type Config struct {
	ConfigPath    string `envconfig:"STANDOFF_CONFIG_PATH" required:"true"`
	RestAPIActive bool   `envconfig:"STANDOFF_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"STANDOFF_REST_API_PORT" default:"10000"`
	WorkerActive  bool   `envconfig:"STANDOFF_WORKER_ACTIVE" default:"true"`
}

const configLoadMaxRetries = 5

func main() {
	supervise := flag.Bool("supervise", false, "run the service as a child process and relay its logs")
	flag.Parse()

	logger.SetupLogging()
	fdlLogger := logger.NewLogger("Main")

	if *supervise {
		logger.WrapProcess(os.Args[0], withoutFlag(os.Args[1:], "supervise")...)
		return
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fdlLogger.Fatal().Caller().Err(err).Msg("Failed to read environment")
	}

	var cfgs types.Configurations
	for retry := 0; ; retry++ {
		var err error
		cfgs, err = types.LoadConfigurations(config.ConfigPath)
		if err == nil {
			break
		}
		if retry+1 == configLoadMaxRetries {
			fdlLogger.Fatal().Err(err).Msgf("Could not load configurations after %d retries, exiting", configLoadMaxRetries)
		}
		fdlLogger.Err(err).Msg("Failed to load configurations. Retrying in 5 sec")
		time.Sleep(5 * time.Second)
	}
	fdlLogger.Info().Msgf("Loaded %d configurations", len(cfgs))

	loaders := standoff.NewLoaders(cfgs)
	recorder := metrics.NewRecorder()

	apiErrCh := make(chan error, 1)
	if config.RestAPIActive {
		go func() {
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			fdlLogger.Info().Msgf("REST API on %s", host)
			apiErrCh <- http.ListenAndServe(host, api.NewServer(loaders, recorder).Handler())
		}()
	}

	if !config.WorkerActive {
		if !config.RestAPIActive {
			fdlLogger.Fatal().Msg("Neither worker nor REST API is active")
		}
		err := <-apiErrCh
		fdlLogger.Fatal().Err(err).Msg("REST API stopped with error")
	}

	fdlLogger.Info().Msg("Start standoff worker")
	for {
		select {
		case err := <-apiErrCh:
			fdlLogger.Fatal().Err(err).Msg("REST API stopped with error")
		default:
		}
		rmqWorker, err := worker.New(loaders, recorder)
		if err != nil {
			fdlLogger.Err(err).Msg("Could not initialize RMQ worker. Retrying in 5 seconds")
			time.Sleep(5 * time.Second)
			continue
		}
		if err = rmqWorker.StartWorker(); err != nil {
			fdlLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

// withoutFlag drops -name and --name, with or without a value, from args.
func withoutFlag(args []string, name string) []string {
	kept := make([]string, 0, len(args))
	for _, arg := range args {
		trimmed := strings.TrimLeft(arg, "-")
		if strings.HasPrefix(arg, "-") && (trimmed == name || strings.HasPrefix(trimmed, name+"=")) {
			continue
		}
		kept = append(kept, arg)
	}
	return kept
}
