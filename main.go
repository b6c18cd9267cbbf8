package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/reaandrew/secsweep/core"
	log "github.com/sirupsen/logrus"
)

var Version string

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	// Log to stderr and a local log file so scheduled runs leave a trail.
	logFile, err := os.OpenFile("secsweep.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Println("Failed to open log file:", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
}

// exitCodeFor maps errors onto the process exit code: configuration
// problems exit 2, everything else fatal exits 1.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var configErr *core.ConfigError
	if errors.As(err, &configErr) {
		return 2
	}
	return 1
}

func main() {
	_ = godotenv.Load()
	setupLogging()

	if _, exists := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME"); exists {
		// Running in Lambda mode
		log.Println("Starting in Lambda mode")
		lambda.Start(Handler)
		return
	}

	// Running in CLI mode
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &Cli{}
	if err := cli.Execute(ctx); err != nil {
		var configErr *core.ConfigError
		if !errors.As(err, &configErr) {
			log.Errorf("Error executing command: %v", err)
		}
		stop()
		os.Exit(exitCodeFor(err))
	}
}
