package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Fixed lines of the digest body.
const (
	NoAlertsLine        = "✅ 当前无天气预警"
	AlertsHeader        = "⚠️ 当前预警："
	AlertSummaryHeader  = "⚠️ 预警摘要："
	SummaryFailedNotice = "⚠️ 预警摘要生成失败，以下为原始预警："
	ClothingHeader      = "👕 穿衣建议："
	NoDataText          = "暂无数据"

	// regionWideLabel groups alerts that carry no city.
	regionWideLabel = "全区"
)

// AlertMode records how the alert section was rendered.
type AlertMode string

const (
	AlertModeNone       AlertMode = "none"
	AlertModeVerbatim   AlertMode = "verbatim"
	AlertModeSummarized AlertMode = "summarized"
	AlertModeFallback   AlertMode = "fallback"
)

// Builder renders a Snapshot into a Digest.
type Builder struct {
	policy     SummaryPolicy
	summarizer Summarizer
	logger     *slog.Logger
}

// NewBuilder creates a Builder. Pass a nil summarizer to always list alerts
// verbatim.
func NewBuilder(policy SummaryPolicy, summarizer Summarizer, logger *slog.Logger) *Builder {
	return &Builder{
		policy:     policy,
		summarizer: summarizer,
		logger:     logger,
	}
}

// Build renders the title and line-oriented body for a snapshot.
func (b *Builder) Build(ctx context.Context, snap Snapshot) (Digest, AlertMode) {
	var sections [][]string

	sections = append(sections, b.cityLines(snap))
	if outlook := b.outlookLines(snap); len(outlook) > 0 {
		sections = append(sections, outlook)
	}
	if clothing := clothingLines(snap); len(clothing) > 0 {
		sections = append(sections, clothing)
	}

	alertLines, mode := b.alertLines(ctx, snap)
	sections = append(sections, alertLines)

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, strings.Join(s, "\n"))
	}

	return Digest{
		Title: Title(snap.Run),
		Body:  strings.TrimSpace(strings.Join(parts, "\n\n")),
	}, mode
}

// Title is the feed item title for a run.
func Title(run Run) string {
	return fmt.Sprintf("今日天气（%s）", run.Local().Format("2006-01-02 15:04"))
}

func (b *Builder) cityLines(snap Snapshot) []string {
	lines := make([]string, 0, len(snap.Cities))
	for _, c := range snap.Cities {
		if len(c.Hourly) == 0 {
			lines = append(lines, fmt.Sprintf("【%s】%s", c.Name, NoDataText))
			continue
		}
		parts := make([]string, 0, len(b.policy.Windows))
		for _, w := range b.policy.Windows {
			parts = append(parts, formatWindow(SummarizeWindow(c.Hourly, w, snap.Run.Location)))
		}
		lines = append(lines, fmt.Sprintf("【%s】%s", c.Name, strings.Join(parts, "；")))
	}
	return lines
}

func formatWindow(s WindowSummary) string {
	if s.Empty() {
		return fmt.Sprintf("%s %s", s.Window.Label, NoDataText)
	}
	text := s.Text
	if text == "" {
		text = "—"
	}
	return fmt.Sprintf("%s %s %d~%d℃", s.Window.Label, text, s.Min, s.Max)
}

func (b *Builder) outlookLines(snap Snapshot) []string {
	if b.policy.OutlookDays <= 0 {
		return nil
	}
	var lines []string
	for _, c := range snap.Cities {
		lines = append(lines, fmt.Sprintf("📅 %s 未来%d天：", c.Name, b.policy.OutlookDays))
		if len(c.Daily) == 0 {
			lines = append(lines, "- "+NoDataText)
			continue
		}
		days := c.Daily
		if len(days) > b.policy.OutlookDays {
			days = days[:b.policy.OutlookDays]
		}
		for _, d := range days {
			lines = append(lines, fmt.Sprintf("- %s: %s ~ %s，%d~%d℃", d.Date, d.TextDay, d.TextNight, d.TempMin, d.TempMax))
		}
	}
	return lines
}

func clothingLines(snap Snapshot) []string {
	var lines []string
	for _, c := range snap.Cities {
		if c.Clothing.IsZero() {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s：%s，%s", c.Name, c.Clothing.Category, c.Clothing.Text))
	}
	if len(lines) == 0 {
		return nil
	}
	return append([]string{ClothingHeader}, lines...)
}

func (b *Builder) alertLines(ctx context.Context, snap Snapshot) ([]string, AlertMode) {
	if len(snap.Alerts) == 0 {
		return []string{NoAlertsLine}, AlertModeNone
	}

	verbatim := verbatimAlertLines(snap.Alerts)
	if b.summarizer == nil {
		return append([]string{AlertsHeader}, verbatim...), AlertModeVerbatim
	}

	summary, err := b.summarize(ctx, snap.Alerts)
	if err != nil {
		b.logger.Warn("alert summarization failed, listing alerts verbatim",
			"run_id", snap.Run.ID,
			"alerts", len(snap.Alerts),
			"error", err,
		)
		return append([]string{SummaryFailedNotice}, verbatim...), AlertModeFallback
	}
	return []string{AlertSummaryHeader, summary}, AlertModeSummarized
}

func (b *Builder) summarize(ctx context.Context, alerts []Alert) (string, error) {
	prompt := make([]string, 0, len(alerts))
	for _, a := range alerts {
		prompt = append(prompt, fmt.Sprintf("[%s] %s: %s", alertGroup(a), a.Title, a.Text))
	}

	summary, err := b.summarizer.Summarize(ctx, strings.Join(prompt, "\n"))
	if err != nil {
		if errors.Is(err, ErrExternalService) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	summary = strings.TrimSpace(summary)
	switch {
	case summary == "":
		return "", fmt.Errorf("%w: empty summary", ErrExternalService)
	case strings.Contains(summary, NoAlertsLine):
		// The body must never claim "no alerts" while alerts exist.
		return "", fmt.Errorf("%w: summary contradicts active alerts", ErrExternalService)
	}
	return summary, nil
}

// verbatimAlertLines groups alerts by city in first-seen order.
func verbatimAlertLines(alerts []Alert) []string {
	var order []string
	groups := make(map[string][]Alert)
	for _, a := range alerts {
		g := alertGroup(a)
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], a)
	}

	var lines []string
	for _, g := range order {
		lines = append(lines, fmt.Sprintf("【%s】", g))
		for _, a := range groups[g] {
			lines = append(lines, fmt.Sprintf("- %s: %s", a.Title, oneLine(a.Text)))
		}
	}
	return lines
}

func alertGroup(a Alert) string {
	if a.City == "" {
		return regionWideLabel
	}
	return a.City
}

// oneLine collapses internal line breaks so each alert stays on one line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
