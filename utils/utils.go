package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	args := make(map[string]string)

	// First, identify the command (hash/detect/map)
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "hash" || os.Args[i] == "detect" || os.Args[i] == "map" {
			command = os.Args[i]
			commandIndex = i
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(os.Args) || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				// The next argument is the value
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

// GetDefaultDatabasePath returns the default path for the reference database
func GetDefaultDatabasePath() string {
	// Get the executable path
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "cards.db"
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exePath)

	// Return the default database path in the same directory
	return filepath.Join(exeDir, "cards.db")
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s hash --folder=PATH [--database=PATH] [--config=PATH] [--force] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s detect --folder=PATH [--database=PATH] [--config=PATH] [--output=PATH] [--report=PATH] [--ocr] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s map --setlist=PATH --cards=PATH --set=CODE [--output=PATH]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --folder      : Path to folder of reference images (hash), or folder/single image of query photos (detect)\n")
	fmt.Printf("  --database    : Path to reference database file (default: %s)\n", GetDefaultDatabasePath())
	fmt.Printf("  --config      : Path to YAML configuration file\n")
	fmt.Printf("  --force       : Force rewrite existing reference entries during hashing\n")
	fmt.Printf("  --output      : Directory for annotated result images (detect) or mapped CSV path (map)\n")
	fmt.Printf("  --report      : Path for the detection report CSV (default: stdout)\n")
	fmt.Printf("  --ocr         : Run title OCR on unrecognized detections\n")
	fmt.Printf("  --setlist     : Path to the name;number set list CSV\n")
	fmt.Printf("  --cards       : Path to the detection report CSV to map\n")
	fmt.Printf("  --set         : Set code written to mapped records\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: cardscan.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s hash --folder=/path/to/references --force\n", os.Args[0])
	fmt.Printf("  %s detect --folder=/path/to/photos --output=results --report=cards.csv\n", os.Args[0])
	fmt.Printf("  %s map --setlist=lea.csv --cards=cards.csv --set=LEA --output=mapped.csv\n", os.Args[0])
}
