// cmd/tools/codebook/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"rsd-dataset/internal/export"
	"rsd-dataset/pkg/codebook"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		help(stderr)
		return 1
	}

	writeCmd := flag.NewFlagSet("write", flag.ContinueOnError)
	writeCmd.SetOutput(stderr)
	writePath := writeCmd.String("path", "configs/codebook.json", "Where to write the codebook")

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validateCmd.SetOutput(stderr)
	validatePath := validateCmd.String("path", "", "Codebook JSON to validate (default: built-in codebook)")
	csvPath := validateCmd.String("csv", "", "CSV file whose header is checked against the codebook")
	delimiter := validateCmd.String("delimiter", ",", "CSV field delimiter")

	schemaCmd := flag.NewFlagSet("schema", flag.ContinueOnError)
	schemaCmd.SetOutput(stderr)
	schemaPath := schemaCmd.String("path", "", "Codebook JSON (default: built-in codebook)")

	switch args[0] {
	case "write":
		if err := writeCmd.Parse(args[1:]); err != nil {
			return 1
		}
		cb := codebook.Default()
		cb.Touch()
		if err := codebook.Save(cb, *writePath); err != nil {
			fmt.Fprintf(stderr, "Error writing codebook: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote codebook with %d columns to %s\n", len(cb.Columns), *writePath)

	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return 1
		}
		cb, err := load(*validatePath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading codebook: %v\n", err)
			return 1
		}
		if err := cb.Validate(); err != nil {
			fmt.Fprintf(stderr, "Codebook validation failed: %v\n", err)
			return 1
		}
		if *csvPath != "" {
			d, size := utf8.DecodeRuneInString(*delimiter)
			if size == 0 || size != len(*delimiter) {
				fmt.Fprintf(stderr, "Error: delimiter must be a single character\n")
				return 1
			}
			header, rows, err := export.ReadFile(*csvPath, d)
			if err != nil {
				fmt.Fprintf(stderr, "Error reading CSV: %v\n", err)
				return 1
			}
			if err := cb.CheckHeader(header); err != nil {
				fmt.Fprintf(stderr, "CSV header does not match codebook: %v\n", err)
				return 1
			}
			fmt.Fprintf(stdout, "CSV header matches codebook (%d rows).\n", len(rows))
		}
		fmt.Fprintf(stdout, "Codebook validation passed. Found %d columns.\n", len(cb.Columns))

	case "schema":
		if err := schemaCmd.Parse(args[1:]); err != nil {
			return 1
		}
		cb, err := load(*schemaPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading codebook: %v\n", err)
			return 1
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cb.JSONSchema()); err != nil {
			fmt.Fprintf(stderr, "Error encoding schema: %v\n", err)
			return 1
		}

	case "help", "-h", "--help":
		help(stdout)

	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		help(stderr)
		return 1
	}
	return 0
}

func load(path string) (*codebook.Codebook, error) {
	if path == "" {
		return codebook.Default(), nil
	}
	return codebook.LoadCodebook(path)
}

func help(w io.Writer) {
	fmt.Fprintln(w, `
Usage: codebook <command> [flags]

Commands:
  write     Write the built-in codebook as JSON
  validate  Validate a codebook and optionally a CSV header against it
  schema    Print the JSON Schema records are audited against
  help      Show this help message

Examples:
  codebook write -path configs/codebook.json
  codebook validate -path configs/codebook.json -csv synthetic_RSD_dataset.csv
  codebook schema`)
}
