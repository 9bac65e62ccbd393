package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"cardscan/config"
	"cardscan/database"
	"cardscan/detector"
	"cardscan/logging"
	"cardscan/mapper"
	"cardscan/signalhandler"
	"cardscan/utils"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	// Set the optimal number of CPUs to use
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	// Parse command line arguments into a map
	args := utils.ParseArguments()

	// Get the command (hash, detect or map)
	command, hasCommand := args["command"]

	// Set default database path
	dbPath := utils.GetDefaultDatabasePath()
	if customDB, ok := args["database"]; ok && customDB != "" {
		dbPath = customDB
	} else if customDB, ok := args["db"]; ok && customDB != "" {
		// Allow --db as an alias for --database
		dbPath = customDB
	}

	// Setup debug logging if enabled
	if _, ok := args["debug"]; ok {
		logPath := "cardscan.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
			defer logging.CloseLogger()
		}
	}

	// Check if required arguments are missing
	showUsage := !hasCommand

	if hasCommand && (command == "hash" || command == "detect") && args["folder"] == "" {
		showUsage = true
	}

	if hasCommand && command == "map" && (args["setlist"] == "" || args["cards"] == "" || args["set"] == "") {
		showUsage = true
	}

	// Show usage if required arguments are missing
	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	switch command {
	case "hash":
		handleHashCommand(args, dbPath)
	case "detect":
		handleDetectCommand(args, dbPath)
	case "map":
		handleMapCommand(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}
}

// loadConfig resolves the pipeline configuration, reading a YAML file when
// one is given.
func loadConfig(args map[string]string) config.Config {
	if path, ok := args["config"]; ok && path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			log.Fatalf("Error loading configuration: %v", err)
		}
		return cfg
	}
	return config.Default()
}

// openDatabaseWithRetry initializes the reference database, retrying with
// backoff when the file is busy.
func openDatabaseWithRetry(dbPath string) *sql.DB {
	var db *sql.DB
	var err error
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = database.InitDatabase(dbPath)
		if err == nil {
			return db
		}

		if i < maxRetries-1 {
			log.Printf("Error initializing database (attempt %d/%d): %v - retrying...",
				i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		}
	}
	log.Fatalf("Error initializing database after %d attempts: %v", maxRetries, err)
	return nil
}

func requireFolder(path string) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatalf("Folder path does not exist: %s", path)
		}
		log.Fatalf("Cannot access folder path: %s (%v)", path, err)
	}
	if !info.IsDir() {
		log.Fatalf("Path is not a directory: %s", path)
	}
}

func handleHashCommand(args map[string]string, dbPath string) {
	folderPath := args["folder"]
	requireFolder(folderPath)

	cfg := loadConfig(args)

	forceRewrite := false
	if _, ok := args["force"]; ok {
		forceRewrite = true
	}

	db := openDatabaseWithRetry(dbPath)
	defer db.Close()

	fmt.Printf("Starting reference hashing...\n")
	fmt.Printf("Reference folder: %s\n", folderPath)
	fmt.Printf("Hash size: %d\n", cfg.HashSize)
	fmt.Printf("Force rewrite mode: %v\n", forceRewrite)

	startTime := time.Now()
	processed, err := detector.BuildReferenceTable(context.Background(), db, folderPath, cfg, forceRewrite)
	if err != nil {
		log.Fatalf("Error building reference table: %v", err)
	}

	fmt.Printf("\nHashing completed successfully!\n")
	fmt.Printf("Total execution time: %v\n", time.Since(startTime))
	fmt.Printf("Images processed: %d\n", processed)
	fmt.Printf("Database: %s\n", dbPath)

	// Print summary statistics if available
	stats, err := database.GetReferenceStats(db)
	if err == nil && stats != nil {
		fmt.Printf("\nSummary:\n")
		fmt.Printf("- Total reference cards: %d\n", stats.TotalCards)
		fmt.Printf("- Unique hashes: %d\n", stats.UniqueHashes)
	}
}

func handleDetectCommand(args map[string]string, dbPath string) {
	queryPath := args["folder"]
	info, err := os.Stat(queryPath)
	if err != nil {
		log.Fatalf("Cannot access query path: %s (%v)", queryPath, err)
	}

	cfg := loadConfig(args)
	if _, ok := args["ocr"]; ok {
		cfg.EnableOCRFallback = true
	}

	db, err := database.OpenDatabase(dbPath)
	if err != nil {
		log.Fatalf("Error opening database %s: %v", dbPath, err)
	}
	defer db.Close()

	refs, err := database.LoadReferenceTable(db, cfg.HashSize)
	if err != nil {
		log.Fatalf("Error loading reference table: %v", err)
	}

	det, err := detector.New(cfg, refs)
	if err != nil {
		log.Fatalf("Error initializing detector: %v", err)
	}
	defer det.Close()

	outputDir := args["output"]

	fmt.Printf("Starting card detection...\n")
	fmt.Printf("Query path: %s\n", queryPath)
	fmt.Printf("Reference cards: %d\n", len(refs))
	if outputDir != "" {
		fmt.Printf("Annotated output: %s\n", outputDir)
	}

	startTime := time.Now()
	var results []*detector.ImageResult
	if info.IsDir() {
		results, err = det.ProcessDirectory(context.Background(), queryPath, outputDir)
	} else {
		var result *detector.ImageResult
		result, err = det.ProcessImage(context.Background(), queryPath, outputDir)
		results = []*detector.ImageResult{result}
	}
	if err != nil {
		log.Fatalf("Error processing %s: %v", queryPath, err)
	}

	var reportOut io.Writer = os.Stdout
	if reportPath, ok := args["report"]; ok && reportPath != "" {
		f, err := os.Create(reportPath)
		if err != nil {
			log.Fatalf("Error creating report file %s: %v", reportPath, err)
		}
		defer f.Close()
		reportOut = f
		fmt.Printf("Report: %s\n", reportPath)
	}
	if err := detector.WriteReport(reportOut, results); err != nil {
		log.Fatalf("Error writing report: %v", err)
	}

	recognized, unrecognized := 0, 0
	for _, result := range results {
		for _, cand := range result.Candidates {
			if cand.Fragment {
				continue
			}
			if cand.Recognized {
				recognized++
			} else {
				unrecognized++
			}
		}
	}

	fmt.Printf("\nDetection completed successfully!\n")
	fmt.Printf("Total execution time: %v\n", time.Since(startTime))
	fmt.Printf("\nSummary:\n")
	fmt.Printf("- Images processed: %d\n", len(results))
	fmt.Printf("- Cards recognized: %d\n", recognized)
	fmt.Printf("- Unrecognized detections: %d\n", unrecognized)
}

func handleMapCommand(args map[string]string) {
	setListFile, err := os.Open(args["setlist"])
	if err != nil {
		log.Fatalf("Error opening set list %s: %v", args["setlist"], err)
	}
	defer setListFile.Close()

	setList, err := mapper.LoadSetList(args["set"], setListFile)
	if err != nil {
		log.Fatalf("Error loading set list: %v", err)
	}

	cardsFile, err := os.Open(args["cards"])
	if err != nil {
		log.Fatalf("Error opening detection report %s: %v", args["cards"], err)
	}
	defer cardsFile.Close()

	var out io.Writer = os.Stdout
	if outputPath, ok := args["output"]; ok && outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("Error creating output file %s: %v", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	missing, err := setList.MapCards(cardsFile, out)
	if err != nil {
		log.Fatalf("Error mapping cards: %v", err)
	}
	if len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "Cards not found in set list %s:\n", setList.Code)
		for _, name := range missing {
			fmt.Fprintf(os.Stderr, "- %s\n", name)
		}
	}
}
