// Package builder orchestrates one calendar generation run per account:
// resolve host, fan out the per-week fetches, enrich, group, synthesize
// free periods and hand the assembled day buckets to the projector.
package builder

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"timetable-ical-backend/config"
	"timetable-ical-backend/internal/calendar"
	"timetable-ical-backend/internal/enrich"
	"timetable-ical-backend/internal/schoolyear"
	"timetable-ical-backend/internal/timetable"
	"timetable-ical-backend/internal/untis"
)

// MinWeeks and MaxWeeks bound the weeks parameter of one generation run.
const (
	MinWeeks = 1
	MaxWeeks = 40
)

// Service generates calendars for a single configured account.
type Service struct {
	account    config.Account
	timetable  config.TimetableConfig
	enrichment config.EnrichmentConfig
	resolver   *untis.Resolver
	logger     *log.Logger
}

// NewService creates a generation service for one account.
func NewService(account config.Account, cfg *config.Config) *Service {
	return &Service{
		account:    account,
		timetable:  cfg.Timetable,
		enrichment: cfg.Enrichment,
		resolver:   untis.NewResolver(),
		logger:     log.New(os.Stdout, "builder["+account.ID+"] ", log.LstdFlags),
	}
}

// Window fetches and processes weeks starting at start, returning the
// assembled day buckets in deterministic chronological order together with
// the run's enrichment statistics. A week that fails upstream is logged and
// skipped; it never aborts its siblings.
func (s *Service) Window(ctx context.Context, start time.Time, weeks int) ([]timetable.Day, enrich.Stats, error) {
	if weeks < MinWeeks || weeks > MaxWeeks {
		return nil, enrich.Stats{}, fmt.Errorf("weeks must be between %d and %d", MinWeeks, MaxWeeks)
	}

	if schoolyear.IsSummerBreak(start) {
		start = schoolyear.NextStart(start)
		s.logger.Printf("start date falls into summer break; shifted to %s", start.Format("2006-01-02"))
	}
	if remaining := schoolyear.RemainingWeeks(start); remaining < weeks {
		weeks = remaining
	}
	if weeks == 0 {
		return nil, enrich.Stats{}, nil
	}

	client, err := s.clientForRun(ctx)
	if err != nil {
		return nil, enrich.Stats{}, err
	}

	enricher := enrich.New(client, enrich.Options{
		Username:   s.account.Username,
		Password:   s.account.Password,
		MaxDetails: s.enrichment.MaxDetails,
		Verbose:    s.enrichment.Verbose,
	})

	// Fan out the independent week fetches; results land in their slot so
	// reassembly is deterministic regardless of completion order.
	results := make([][]timetable.Day, weeks)
	var wg sync.WaitGroup
	for i := 0; i < weeks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			weekStart := start.AddDate(0, 0, 7*i)
			days, err := s.fetchWeek(ctx, client, enricher, weekStart)
			if err != nil {
				s.logger.Printf("week of %s could not be generated: %v", weekStart.Format("2006-01-02"), err)
				return
			}
			results[i] = days
		}(i)
	}
	wg.Wait()

	var all []timetable.Day
	for _, days := range results {
		all = append(all, days...)
	}
	return all, enricher.Stats(), nil
}

// GenerateICal produces the serialized iCal document for the window.
func (s *Service) GenerateICal(ctx context.Context, start time.Time, weeks int) (string, error) {
	days, _, err := s.Window(ctx, start, weeks)
	if err != nil {
		return "", err
	}
	return calendar.BuildICal(days, calendar.ICalOptions{
		Name:     s.timetable.CalendarName,
		Timezone: s.timetable.Timezone,
	})
}

// GenerateClean produces the cleaned JSON document for the window.
func (s *Service) GenerateClean(ctx context.Context, start time.Time, weeks int) (*calendar.CleanDocument, error) {
	days, stats, err := s.Window(ctx, start, weeks)
	if err != nil {
		return nil, err
	}
	if s.enrichment.Enabled {
		s.logger.Printf("enrichment: attempted=%d enriched=%d missing=%d",
			stats.Attempted, stats.Enriched, stats.TotalMissing)
	}
	return calendar.BuildClean(days, time.Now().UTC()), nil
}

// clientForRun resolves the account's server for this run. Accounts with an
// explicit base URL skip resolution entirely.
func (s *Service) clientForRun(ctx context.Context) (*untis.Client, error) {
	if s.account.BaseURL != "" {
		return untis.NewClientWithBaseURL(s.account.BaseURL, s.account.School), nil
	}
	host, err := s.resolver.Resolve(ctx, s.account.Domain)
	if err != nil {
		return nil, fmt.Errorf("server resolution failed: %w", err)
	}
	return untis.NewClient(host, s.account.School), nil
}

// fetchWeek runs the full pipeline for one week: login, fetch, decode,
// enrich, group, free periods.
func (s *Service) fetchWeek(ctx context.Context, client *untis.Client, enricher *enrich.Enricher, weekStart time.Time) ([]timetable.Day, error) {
	sess, err := client.Login(ctx, s.account.Username, s.account.Password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	payload, err := client.FetchWeek(ctx, sess, weekStart.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}

	periods := payload.ElementPeriods[strconv.Itoa(sess.PersonID)]
	if len(periods) == 0 {
		return nil, fmt.Errorf("weekly payload carries no periods for person %d", sess.PersonID)
	}

	lessons := timetable.Decode(periods, payload.Elements)
	if s.enrichment.Enabled {
		enricher.Enrich(ctx, sess, lessons)
	}

	days := timetable.Group(lessons, timetable.DefaultExclusionMarker)
	return timetable.InsertFreePeriods(days), nil
}
