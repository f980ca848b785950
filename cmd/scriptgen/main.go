package main

import (
	"fmt"
	"os"

	"sessionrecorder/backend/internal/cli"
	"sessionrecorder/backend/pkg/logger"
)

func main() {
	defer logger.Sync()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
