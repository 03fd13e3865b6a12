// Package outwriter has output and writer logic.
package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/huangsam/actionstat/internal/contract"
	"github.com/huangsam/actionstat/schema"
	"golang.org/x/term"
)

// WriteReport outputs the aggregation result, dispatching based on the
// output format configured. Table output renders to stdout; the file formats
// write into cfg.OutputDir using names derived from the workflow ID.
func WriteReport(result *schema.AggregationResult, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONReport(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVReports(result, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetReports(result, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable tables
		return writeReportTables(os.Stdout, result, cfg, duration)
	}
	return nil
}

// writeWithFile handles the common pattern of opening a file, writing to it,
// and cleaning up. It accepts a writer function that takes an io.Writer and
// returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// reportPath builds an output file path from the workflow ID and suffix,
// creating the output directory as needed.
func reportPath(cfg *contract.Config, suffix string) (string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", cfg.OutputDir, err)
	}
	base := unsafeNameChars.ReplaceAllString(cfg.WorkflowID, "_")
	return filepath.Join(cfg.OutputDir, base+suffix), nil
}

// getMaxNameWidth calculates the maximum width for job and step names in
// table output based on terminal width.
func getMaxNameWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		termWidth = 80 // Conservative default for narrow terminals and CI
	}

	// Reserve space for the fixed metric columns with borders and padding
	available := termWidth - 60
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}

// truncateName shortens long job or step names for table display.
func truncateName(name string, maxWidth int) string {
	runes := []rune(name)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return name
}

// groupLabel joins the non-empty grouping parts of a row for display.
func groupLabel(row schema.MetricRow) string {
	parts := make([]string, 0, 3)
	if row.JobName != "" {
		parts = append(parts, row.JobName)
	}
	if row.StepName != "" {
		parts = append(parts, row.StepName)
	}
	if row.Matrix != "" {
		parts = append(parts, "["+row.Matrix+"]")
	}
	return strings.Join(parts, " / ")
}
