// Command validate checks a generated feed file: it must parse as RSS, hold
// exactly one item with a weather- GUID matching its pubDate, carry a
// non-empty description, and never report "no alerts" next to an alert
// section.
//
// Usage:
//
//	go run ./cmd/validate -feed docs/weather.xml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/couchcryptid/weather-digest/internal/adapter/rss"
	"github.com/couchcryptid/weather-digest/internal/domain"
)

const titlePrefix = "今日天气（"

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "docs/weather.xml", "path to the generated RSS feed")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*feedPath))
}

func run(path string) int {
	fmt.Println("=== Weather Feed Validation ===")
	fmt.Println()

	feed, err := rss.NewChecker(path).Parse(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateShape(feed),
		validateBody(feed),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Feed: %q, %d item(s)\n", feed.Title, len(feed.Items))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateShape runs the published-shape checks shared with readiness.
func validateShape(feed *gofeed.Feed) *phase {
	p := &phase{name: "Phase 1: Feed Shape (RSS, item, guid)"}
	for _, problem := range rss.Problems(feed) {
		p.errorf("%s", problem)
	}
	return p
}

// validateBody checks the digest sections a reader relies on.
func validateBody(feed *gofeed.Feed) *phase {
	p := &phase{name: "Phase 2: Digest Body (sections)"}
	for i, it := range feed.Items {
		if !hasAlertState(it.Description) {
			p.errorf("item %d: body has neither the no-alerts line nor an alert section", i)
		}
		// The title carries the local run time, so only the prefix is checked.
		if !strings.HasPrefix(it.Title, titlePrefix) {
			p.errorf("item %d: title %q lacks the %s prefix", i, it.Title, titlePrefix)
		}
	}
	return p
}

func hasAlertState(body string) bool {
	for _, marker := range []string{
		domain.NoAlertsLine,
		domain.AlertsHeader,
		domain.AlertSummaryHeader,
		domain.SummaryFailedNotice,
	} {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}
