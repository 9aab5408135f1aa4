package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/handiism/tlc-downloader/internal/config"
	"github.com/handiism/tlc-downloader/internal/download"
	"github.com/handiism/tlc-downloader/internal/progress"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Command line flags
	var (
		typeFlag        = flag.String("type", "", "Data type: yellow, green, fhv or fhvhv (overrides config)")
		startFlag       = flag.String("start", "", "First month to download, YYYY-MM")
		endFlag         = flag.String("end", "", "Last month to download, YYYY-MM (defaults to -start)")
		outputFlag      = flag.String("output", "", "Output directory (overrides config)")
		concurrencyFlag = flag.Int("concurrency", 0, "Simultaneous downloads (overrides config)")
		configFlag      = flag.String("config", "", "Path to config file")
		verboseFlag     = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	if *startFlag == "" {
		fmt.Println("TLC Downloader - Download NYC TLC trip record data")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  tlc-dl -start 2023-01 [-end 2023-12] [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: tlc-tui")
		fmt.Println()
		flag.PrintDefaults()
		return 1
	}
	end := *endFlag
	if end == "" {
		end = *startFlag
	}

	// Load config
	path := *configFlag
	if path == "" {
		path = config.DefaultPath()
	}
	settings := config.DefaultSettings()
	if path != "" {
		var err error
		settings, err = config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			return 1
		}
	}
	if err := settings.ApplyEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		return 1
	}

	// Apply flags
	if *typeFlag != "" {
		settings.Type = *typeFlag
	}
	if *outputFlag != "" {
		settings.Output = *outputFlag
	}
	if *concurrencyFlag != 0 {
		settings.Concurrency = *concurrencyFlag
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log := newLogger(settings)

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	// Create manager with progress callback
	options := append(settings.ManagerOptions(), download.WithLogger(log))
	manager := download.NewManager(settings.ToOptions(*startFlag, end), func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := ""
		switch event.Level {
		case download.LevelError:
			prefix = "❌ "
		case download.LevelWarning:
			prefix = "⚠️  "
		case download.LevelSuccess:
			prefix = "✅ "
		case download.LevelInfo:
			prefix = "ℹ️  "
		default:
			prefix = "   "
		}

		fmt.Println(prefix + event.Message)
	}, options...)

	fmt.Println("🚕 TLC Downloader")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	if err := manager.Initialize(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing: %v\n", err)
		return 1
	}

	// Start downloads
	fmt.Println("\n📥 Starting downloads...")
	fmt.Println()

	summary, err := manager.StartDownloads(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during download: %v\n", err)
		return 1
	}

	snap := manager.GetProgress()
	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if manager.Cancelled() {
		fmt.Printf("Download cancelled. %s\n", summary)
		return 130
	}

	fmt.Printf("✨ Complete! %s\n", summary)
	fmt.Printf("   %d/%d files, %s\n", snap.CompletedTasks, snap.TotalTasks, progress.FormatBytes(snap.TransferredBytes))
	if len(summary.Failures) > 0 {
		fmt.Println()
		fmt.Println("Failures:")
		for _, f := range summary.Failures {
			fmt.Printf("  - %s\n", f)
		}
	}
	return 0
}

// newLogger writes structured logs to stderr, leaving stdout to progress
// messages.
func newLogger(settings *config.Settings) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := settings.Level(); err == nil {
		log.SetLevel(level)
	}
	return log
}
