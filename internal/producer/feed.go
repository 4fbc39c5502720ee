// Package producer pulls citizen reports from an external feed (for
// example a city-hall API) and files them into the report service. It
// is optional: deployments without a feed run on simulated reports
// alone.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"citysense/internal/metrics"
	"citysense/internal/models"
)

// ReportSink is where fetched reports are filed.
type ReportSink interface {
	Create(ctx context.Context, report *models.PopulationReport) error
}

// feedItem is the wire shape of one report in the external feed.
type feedItem struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Type           string  `json:"type"`
	Priority       string  `json:"priority"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Location       string  `json:"location"`
	CitizenName    *string `json:"citizenName,omitempty"`
	CitizenContact *string `json:"citizenContact,omitempty"`
}

// FeedPoller fetches the external report feed once per scheduler tick.
type FeedPoller struct {
	client  *resty.Client
	reports ReportSink
	logger  *zap.Logger
}

// NewFeedPoller builds a poller for the given feed URL. An empty URL
// returns nil, which callers treat as "feed disabled".
func NewFeedPoller(feedURL string, timeout time.Duration, reports ReportSink, logger *zap.Logger) *FeedPoller {
	if feedURL == "" {
		return nil
	}
	client := resty.New().
		SetBaseURL(feedURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &FeedPoller{client: client, reports: reports, logger: logger}
}

// Poll fetches the feed and files every well-formed item. Malformed
// items are logged and dropped; one bad item never blocks the rest.
// Returns the number of reports filed.
func (p *FeedPoller) Poll(ctx context.Context) (int, error) {
	var items []feedItem
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&items).
		Get("")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch report feed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("report feed returned status %d", resp.StatusCode())
	}

	filed := 0
	for i := range items {
		report, err := items[i].toReport()
		if err != nil {
			p.logger.Warn("dropping malformed feed item",
				zap.String("title", items[i].Title),
				zap.Error(err))
			continue
		}
		if err := p.reports.Create(ctx, report); err != nil {
			p.logger.Error("failed to file feed report",
				zap.String("title", report.Title),
				zap.Error(err))
			continue
		}
		metrics.ReportsFiledTotal.WithLabelValues("feed").Inc()
		filed++
	}

	if filed > 0 {
		p.logger.Info("report feed processed",
			zap.Int("received", len(items)),
			zap.Int("filed", filed))
	}
	return filed, nil
}

func (i *feedItem) toReport() (*models.PopulationReport, error) {
	if i.Title == "" {
		return nil, fmt.Errorf("missing title: %w", models.ErrInvalidInput)
	}
	reportType := models.ReportType(i.Type)
	if !reportType.Valid() {
		return nil, fmt.Errorf("unknown report type %q: %w", i.Type, models.ErrInvalidInput)
	}
	report := &models.PopulationReport{
		Title:          i.Title,
		Description:    i.Description,
		Type:           reportType,
		Latitude:       i.Latitude,
		Longitude:      i.Longitude,
		Location:       i.Location,
		CitizenName:    i.CitizenName,
		CitizenContact: i.CitizenContact,
	}
	if i.Priority != "" {
		priority := models.ReportPriority(i.Priority)
		if !priority.Valid() {
			return nil, fmt.Errorf("unknown priority %q: %w", i.Priority, models.ErrInvalidInput)
		}
		report.Priority = priority
	}
	return report, nil
}
