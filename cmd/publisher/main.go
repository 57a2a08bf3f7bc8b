// Command publisher runs a single publishing run from the command line:
// load profiles, resolve tickers, create scheduled posts, save state.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/stock-publisher/internal/app"
	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/publish"
	"github.com/jonesrussell/stock-publisher/internal/tickers"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yml", "path to config file")
	posts := flag.Int("posts", 1, "posts to publish per profile this run")
	profileIDs := flag.String("profiles", "", "comma-separated profile ids (default: all)")
	customTickers := flag.String("tickers", "", "comma-separated tickers, requires exactly one profile")
	uploadPath := flag.String("upload", "", "path to a ticker CSV, requires exactly one profile")
	flag.Parse()

	if err := run(*configPath, *posts, *profileIDs, *customTickers, *uploadPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string, posts int, profileIDs, customTickers, uploadPath string) error {
	ctx := context.Background()

	a, err := app.New(ctx, app.Options{ConfigPath: configPath, Version: version})
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := buildRequest(ctx, a, posts, profileIDs, customTickers, uploadPath)
	if err != nil {
		return err
	}

	summary, err := a.RunOnce(ctx, req)
	if err != nil {
		return err
	}

	for id, result := range summary.Results {
		a.Logger().Info("profile result",
			logger.String("profile_id", id),
			logger.String("summary", result.StatusSummary),
		)
		fmt.Printf("%s: %s\n", result.ProfileName, result.StatusSummary)
	}
	return nil
}

func buildRequest(ctx context.Context, a *app.App, posts int, profileIDs, customTickers, uploadPath string) (publish.Request, error) {
	var req publish.Request

	all, err := a.Profiles().List(ctx, "local")
	if err != nil {
		return req, fmt.Errorf("list profiles: %w", err)
	}

	selected := all
	if profileIDs != "" {
		want := make(map[string]bool)
		for _, id := range strings.Split(profileIDs, ",") {
			want[strings.TrimSpace(id)] = true
		}
		selected = selected[:0]
		for _, p := range all {
			if want[p.ID] {
				selected = append(selected, p)
			}
		}
	}
	if len(selected) == 0 {
		return req, fmt.Errorf("no matching profiles")
	}

	req = publish.Request{
		UserID:          "local",
		Profiles:        selected,
		PostsPerProfile: make(map[string]int, len(selected)),
		CustomTickers:   make(map[string][]string),
		Uploads:         make(map[string]tickers.UploadedFile),
		// A run without -profiles covers every configured profile, so
		// state entries for deleted profiles can be garbage-collected.
		AllProfiles: profileIDs == "",
	}
	for _, p := range selected {
		req.PostsPerProfile[p.ID] = posts
	}

	if customTickers != "" || uploadPath != "" {
		if len(selected) != 1 {
			return req, fmt.Errorf("-tickers and -upload require exactly one profile, got %d", len(selected))
		}
		target := selected[0].ID
		if customTickers != "" {
			var list []string
			for _, t := range strings.Split(customTickers, ",") {
				if t = strings.TrimSpace(t); t != "" {
					list = append(list, strings.ToUpper(t))
				}
			}
			req.CustomTickers[target] = list
		}
		if uploadPath != "" {
			content, err := os.ReadFile(uploadPath)
			if err != nil {
				return req, fmt.Errorf("read upload file: %w", err)
			}
			req.Uploads[target] = tickers.UploadedFile{
				Filename: filepath.Base(uploadPath),
				Content:  content,
			}
		}
	}

	return req, nil
}
