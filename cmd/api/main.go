// Command api serves the stock-publisher HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jonesrussell/stock-publisher/internal/app"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	flag.Parse()

	ctx := context.Background()

	a, err := app.New(ctx, app.Options{ConfigPath: *configPath, Version: version})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
