package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// PromptForTickers asks for a comma-separated ticker list.
func PromptForTickers() (string, error) {
	var raw string
	prompt := &survey.Input{
		Message: "Enter the ticker symbols, comma separated (e.g. AAPL,MSFT):",
		Help:    "Each symbol may use letters, numbers, dots and hyphens",
	}

	err := survey.AskOne(prompt, &raw, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return fmt.Errorf("ticker list cannot be empty")
		}
		for _, part := range strings.Split(str, ",") {
			part = strings.TrimSpace(strings.ToUpper(part))
			if part == "" {
				continue
			}
			if len(part) > 10 {
				return fmt.Errorf("ticker %q too long (max 10 characters)", part)
			}
			if !tickerPattern.MatchString(part) {
				return fmt.Errorf("invalid ticker %q", part)
			}
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(raw)), nil
}

// PromptForDate asks for one date with a default.
func PromptForDate(message string, def time.Time) (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: message,
		Help:    "Format: YYYY-MM-DD",
		Default: def.Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if _, err := time.Parse("2006-01-02", str); err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse("2006-01-02", strings.TrimSpace(dateStr))
}

// PromptForMode asks which decision mode to run.
func PromptForMode() (string, error) {
	var selected string
	prompt := &survey.Select{
		Message: "Select the decision mode:",
		Options: []string{"portfolio", "direction"},
		Default: "portfolio",
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return selected, nil
}

// PromptForFeed asks whether to serve the live feed during the run.
func PromptForFeed() (bool, error) {
	var serve bool
	prompt := &survey.Confirm{
		Message: "Serve the live feed while the session runs?",
		Default: false,
	}
	if err := survey.AskOne(prompt, &serve); err != nil {
		return false, err
	}
	return serve, nil
}
