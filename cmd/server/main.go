package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bkonicek/scramble/pkg/api"
	"github.com/bkonicek/scramble/pkg/board"
	"github.com/bkonicek/scramble/pkg/log"
	"github.com/bkonicek/scramble/pkg/version"
)

func main() {
	port := flag.Int("port", 8080, "HTTP port to listen on")
	boardFile := flag.String("board", "boards/perfect.txt", "Board file to serve")
	logLevel := flag.String("log-level", "info", "Log level")
	certFile := flag.String("tls-cert", "", "TLS certificate file")
	keyFile := flag.String("tls-key", "", "TLS key file")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())

	b, err := board.ParseFile(*boardFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load board %s: %v", *boardFile, err))
	}
	rows, cols := b.Size()
	log.Info("Loaded %dx%d board from %s", rows, cols, *boardFile)

	var tlsConfig *api.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tlsConfig = &api.TLSConfig{
			CertFile: *certFile,
			KeyFile:  *keyFile,
		}
	}

	server := api.NewAPIServer(api.NewAPIServerOptions{
		Port:  *port,
		TLS:   tlsConfig,
		Board: b,
	})
	if err := server.Start(); err != nil {
		log.Error("API server error: %v", err)
		os.Exit(1)
	}
}
