package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"diggdaily/internal/app"
	"diggdaily/internal/config"
	"diggdaily/internal/logging"
	"diggdaily/internal/player"
	"diggdaily/internal/storage"
)

func main() {
	latest := flag.Bool("latest", false, "print the current episode and exit")
	refresh := flag.Bool("refresh", false, "with -latest, drop the cached record first")
	save := flag.Bool("save", false, "save the current episode audio and exit")
	feedPath := flag.String("feed", "", "write the podcast feed to a file and exit")
	feedLimit := flag.Int("limit", 0, "with -feed, maximum number of items (0 uses the configured limit)")
	annotatePath := flag.String("annotate", "", "annotate a saved community page once and exit")
	watchPath := flag.String("watch", "", "keep a saved community page annotated until interrupted")
	notifyLoop := flag.Bool("notify", false, "check for new episodes on an interval and push alerts")
	checkOnce := flag.Bool("check", false, "run a single new-episode check and exit")
	editConfig := flag.Bool("config", false, "edit the configuration interactively and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to resolve home directory: %v", err)
	}

	baseDir := filepath.Join(home, ".diggdaily")
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		log.Fatalf("failed to create config directory: %v", err)
	}

	modes := 0
	for _, set := range []bool{*latest, *save, *feedPath != "", *annotatePath != "", *watchPath != "", *notifyLoop, *checkOnce, *editConfig} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "error: pick a single mode flag")
		os.Exit(1)
	}

	// The player owns the terminal, so its logs go to the file only.
	logPath := filepath.Join(baseDir, "diggdaily.log")
	if modes == 0 {
		logging.Configure(logPath)
	} else {
		logging.ConfigureWithConsole(logPath)
	}

	configPath := filepath.Join(baseDir, "config.yaml")
	cfg, err := config.Ensure(ctx, configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	dbPath := filepath.Join(baseDir, "app.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	application := app.New(cfg, configPath, db)
	defer application.Close()

	switch {
	case *latest:
		ep, err := application.Resolve(ctx, *refresh)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error resolving episode: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Episode %d: %s\n", ep.Number, ep.Title)
		if ep.HasDate() {
			fmt.Fprintf(os.Stdout, "  Date:  %s\n", ep.Date.Format("2006-01-02"))
		}
		fmt.Fprintf(os.Stdout, "  Audio: %s\n", ep.AudioURL)
		fmt.Fprintf(os.Stdout, "  Page:  %s\n", ep.SourceURL)

	case *save:
		ep, err := application.Resolve(ctx, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error resolving episode: %v\n", err)
			os.Exit(1)
		}
		path, err := application.SaveAudio(ctx, ep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error saving audio: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Saved %s to %s.\n", ep.Title, path)

	case *feedPath != "":
		count, err := application.WriteFeed(ctx, *feedPath, *feedLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error writing feed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stdout, "Wrote %d episodes to %s.\n", count, *feedPath)

	case *annotatePath != "":
		result, err := application.AnnotateFile(*annotatePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error annotating page: %v\n", err)
			os.Exit(1)
		}
		switch {
		case result.Skipped:
			fmt.Fprintln(os.Stdout, "Page is not a digg.com page, left untouched.")
		default:
			fmt.Fprintf(os.Stdout, "Scanned %d community links, marked %d official posts.\n", result.Scanned, result.Marked)
		}

	case *watchPath != "":
		log.Printf("watching %s", *watchPath)
		if err := application.WatchFile(ctx, *watchPath); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "error watching page: %v\n", err)
			os.Exit(1)
		}

	case *notifyLoop:
		log.Println("starting new-episode watch")
		if err := application.NotifyLoop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "error in notify loop: %v\n", err)
			os.Exit(1)
		}

	case *checkOnce:
		sent, err := application.CheckAndNotify(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error checking for a new episode: %v\n", err)
			os.Exit(1)
		}
		if sent {
			fmt.Fprintln(os.Stdout, "New episode alert sent.")
		} else {
			fmt.Fprintln(os.Stdout, "No new episode.")
		}

	case *editConfig:
		if err := application.EditConfig(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error editing configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, "Configuration saved.")

	default:
		if err := player.Run(ctx, application); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}
