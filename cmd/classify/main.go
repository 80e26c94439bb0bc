package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"

	"tg-antijudi/internal/classifier"
	"tg-antijudi/internal/config"
)

// classify runs the configured classifier on a message, for checking a
// provider setup by hand.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	provider := flag.String("provider", "", "Override classifier.provider (http or gemini)")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("Usage: classify [-config file] [-provider name] <message>")
	}
	message := strings.Join(flag.Args(), " ")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *provider != "" {
		cfg.Classifier.Provider = *provider
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Classifier.Timeout)
	defer cancel()

	cls, err := classifier.New(ctx, cfg.Classifier)
	if err != nil {
		log.Fatalf("Failed to create classifier: %v", err)
	}
	if closer, ok := cls.(io.Closer); ok {
		defer closer.Close()
	}

	fmt.Printf("substantive: %v\n", classifier.IsSubstantive(message, cfg.Moderation.MinTextLength))
	violating, err := cls.Classify(ctx, message)
	if err != nil {
		log.Fatalf("Classification failed: %v", err)
	}
	fmt.Printf("violating: %v\n", violating)
}
