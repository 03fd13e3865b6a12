package contract

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Health label constants.
const (
	HealthyValue  = "Healthy"  // Healthy value
	UnsteadyValue = "Unsteady" // Unsteady value
	DegradedValue = "Degraded" // Degraded value
	CriticalValue = "Critical" // Critical value
)

// Color variables for console output.
var (
	HealthyColor  = color.New(color.FgGreen)            // healthyColor represents a passing pipeline.
	UnsteadyColor = color.New(color.FgYellow)           // unsteadyColor represents standard caution, not bold.
	DegradedColor = color.New(color.FgMagenta, color.Bold) // degradedColor represents strong, distinct warning.
	CriticalColor = color.New(color.FgRed, color.Bold)  // criticalColor represents standard danger.
)

// GetPlainLabel returns a plain text label indicating pipeline health based
// on the success rate percentage. This is the core logic used for CSV, JSON,
// and table printing.
func GetPlainLabel(successRate float64) string {
	switch {
	case successRate >= 95:
		return HealthyValue
	case successRate >= 80:
		return UnsteadyValue
	case successRate >= 50:
		return DegradedValue
	default:
		return CriticalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the
// appropriate color.
func GetColorLabel(successRate float64) string {
	text := GetPlainLabel(successRate)

	switch text {
	case HealthyValue:
		return HealthyColor.Sprint(text)
	case UnsteadyValue:
		return UnsteadyColor.Sprint(text)
	case DegradedValue:
		return DegradedColor.Sprint(text)
	default: // "Critical"
		return CriticalColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// FormatMillis renders a millisecond duration for human-readable output,
// rounded to the second.
func FormatMillis(ms float64) string {
	d := time.Duration(ms) * time.Millisecond
	return d.Round(time.Second).String()
}
