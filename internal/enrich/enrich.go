// Package enrich backfills missing teacher names through the provider's
// REST detail endpoint, using a cascade of bearer- and cookie-authenticated
// lookups with a bounded retry on token rejection.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"timetable-ical-backend/internal/timetable"
	"timetable-ical-backend/internal/untis"
)

// DefaultMaxDetails bounds the detail lookups of one run.
const DefaultMaxDetails = 60

// Options configures an enrichment run.
type Options struct {
	// Username/Password enable the credential-based bearer fallback when
	// the session exchange fails.
	Username string
	Password string
	// Bearer presets a token and skips acquisition.
	Bearer string
	// TenantID and SchoolYearID preset the corresponding request headers.
	TenantID     string
	SchoolYearID string
	// MaxDetails caps detail lookups per run. Zero means DefaultMaxDetails.
	MaxDetails int
	Verbose    bool
}

// Stats counts the outcome of an enrichment run.
type Stats struct {
	Attempted    int `json:"attempted"`
	Enriched     int `json:"enriched"`
	TotalMissing int `json:"totalMissing"`
}

// Enricher holds the state of a single enrichment run: the bearer token,
// tenant context and the detail cache. It must not outlive the run and must
// not be shared across invocations.
type Enricher struct {
	client *untis.Client
	opts   Options
	logger *log.Logger

	// mu guards the bearer state. Refresh-on-401 takes this lock so only
	// one re-acquisition happens even when lessons are enriched
	// concurrently.
	mu           sync.Mutex
	bearer       string
	tenantID     string
	schoolYearID string
	acquired     bool

	cacheMu sync.Mutex
	cache   map[string]*untis.CalendarDetail // nil entry = permanent miss

	statsMu sync.Mutex
	stats   Stats
}

// New creates an enricher scoped to one run.
func New(client *untis.Client, opts Options) *Enricher {
	if opts.MaxDetails <= 0 {
		opts.MaxDetails = DefaultMaxDetails
	}
	return &Enricher{
		client:       client,
		opts:         opts,
		logger:       log.New(log.Writer(), "enrich ", log.LstdFlags),
		bearer:       opts.Bearer,
		tenantID:     opts.TenantID,
		schoolYearID: opts.SchoolYearID,
		cache:        make(map[string]*untis.CalendarDetail),
	}
}

// Stats returns the accumulated counts of the run so far.
func (e *Enricher) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// Enrich resolves missing teacher names in place. Failures are never fatal:
// an unresolved lesson keeps its empty teacher field.
func (e *Enricher) Enrich(ctx context.Context, sess *untis.Session, lessons []timetable.Lesson) Stats {
	var missing []int
	for i := range lessons {
		if lessons[i].TeacherName == "" {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return Stats{}
	}

	e.ensureBearer(ctx, sess)

	run := Stats{TotalMissing: len(missing)}
	for _, idx := range missing {
		if !e.reserveAttempt() {
			break
		}
		run.Attempted++

		l := &lessons[idx]
		detail, unauthorized := e.fetchDetail(ctx, sess, l)
		if unauthorized {
			// Invalidate and re-acquire exactly once, then retry the
			// same lesson's cascade. A second failure stays a miss.
			e.refreshBearer(ctx, sess)
			detail, _ = e.fetchDetail(ctx, sess, l)
		}

		if detail == nil || len(detail.Teachers) == 0 {
			continue
		}
		t := detail.Teachers[0]
		name := firstNonEmpty(t.LongName, t.ShortName, t.DisplayName)
		if name == "" {
			continue
		}
		l.TeacherName = name
		run.Enriched++
		if e.opts.Verbose {
			e.logger.Printf("resolved teacher %q for lesson %d on %s", name, l.ID, l.Date)
		}
	}

	e.statsMu.Lock()
	e.stats.Enriched += run.Enriched
	e.stats.TotalMissing += run.TotalMissing
	e.statsMu.Unlock()

	return run
}

// reserveAttempt consumes one slot of the per-run detail budget.
func (e *Enricher) reserveAttempt() bool {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	if e.stats.Attempted >= e.opts.MaxDetails {
		return false
	}
	e.stats.Attempted++
	return true
}

// ensureBearer acquires a bearer token once per run. Acquisition failure is
// non-fatal; the cookie-based fallback queries still work without one.
func (e *Enricher) ensureBearer(ctx context.Context, sess *untis.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bearer != "" || e.acquired {
		return
	}
	e.acquired = true
	e.acquireLocked(ctx, sess)
}

// refreshBearer drops the current token and re-acquires under the lock, so
// concurrent queries see at most one re-acquisition.
func (e *Enricher) refreshBearer(ctx context.Context, sess *untis.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bearer = ""
	e.acquireLocked(ctx, sess)
}

func (e *Enricher) acquireLocked(ctx context.Context, sess *untis.Session) {
	if bt, err := e.client.BearerFromSession(ctx, sess); err == nil {
		e.adoptLocked(bt)
		if e.schoolYearID == "" {
			if sy, err := e.client.SchoolYearID(ctx, sess); err == nil {
				e.schoolYearID = sy
			}
		}
		return
	} else if e.opts.Verbose {
		e.logger.Printf("session token exchange failed: %v", err)
	}

	if e.opts.Username == "" {
		return
	}
	if bt, err := e.client.BearerFromCredentials(ctx, e.opts.Username, e.opts.Password); err == nil {
		e.adoptLocked(bt)
	} else if e.opts.Verbose {
		e.logger.Printf("credential bearer login failed: %v", err)
	}
}

func (e *Enricher) adoptLocked(bt *untis.BearerToken) {
	e.bearer = bt.Token
	if bt.TenantID != "" {
		e.tenantID = bt.TenantID
	}
	if e.schoolYearID == "" && bt.SchoolYearID != "" {
		e.schoolYearID = bt.SchoolYearID
	}
}

// fetchDetail runs the query cascade for one lesson: bearer+student,
// bearer+lesson, cookie+student, cookie+lesson, stopping at the first
// usable payload. Transport errors on individual attempts are swallowed.
// The second return value reports a bearer rejection (401); that outcome is
// not cached so a post-refresh retry re-issues the queries.
func (e *Enricher) fetchDetail(ctx context.Context, sess *untis.Session, l *timetable.Lesson) (*untis.CalendarDetail, bool) {
	key := cacheKey(l)

	e.cacheMu.Lock()
	if detail, ok := e.cache[key]; ok {
		e.cacheMu.Unlock()
		return detail, false
	}
	e.cacheMu.Unlock()

	start, end, ok := detailWindow(l)
	if !ok {
		e.storeDetail(key, nil)
		return nil, false
	}

	e.mu.Lock()
	bearer, tenantID, schoolYearID := e.bearer, e.tenantID, e.schoolYearID
	e.mu.Unlock()

	lessonElementID := l.LessonID
	if lessonElementID == 0 {
		lessonElementID = l.ID
	}

	var queries []untis.DetailQuery
	if bearer != "" {
		queries = append(queries,
			untis.DetailQuery{ElementID: sess.PersonID, ElementType: untis.ElementTypeStudent, Bearer: bearer},
			untis.DetailQuery{ElementID: lessonElementID, ElementType: untis.ElementTypeLesson, Bearer: bearer},
		)
	}
	queries = append(queries,
		untis.DetailQuery{ElementID: sess.PersonID, ElementType: untis.ElementTypeStudent, Session: sess},
		untis.DetailQuery{ElementID: lessonElementID, ElementType: untis.ElementTypeLesson, Session: sess},
	)

	for _, q := range queries {
		q.Start = start
		q.End = end
		q.TenantID = tenantID
		q.SchoolYearID = schoolYearID

		detail, err := e.client.CalendarEntryDetail(ctx, q)
		if err == nil {
			e.storeDetail(key, detail)
			return detail, false
		}
		if errors.Is(err, untis.ErrUnauthorized) {
			return nil, true
		}
		if e.opts.Verbose {
			e.logger.Printf("detail query failed for lesson %d: %v", l.ID, err)
		}
	}

	e.storeDetail(key, nil)
	return nil, false
}

func (e *Enricher) storeDetail(key string, detail *untis.CalendarDetail) {
	e.cacheMu.Lock()
	e.cache[key] = detail
	e.cacheMu.Unlock()
}

// cacheKey identifies a time slot: two lessons sharing it resolve to the
// same detail lookup within the run.
func cacheKey(l *timetable.Lesson) string {
	id := l.LessonID
	if id == 0 {
		id = l.ID
	}
	return fmt.Sprintf("%s|%s|%s|%d", l.Date, l.StartTime, l.EndTime, id)
}

// detailWindow converts the lesson's dd.mm.yyyy date and HH:mm times into
// the local ISO date-times the detail endpoint expects.
func detailWindow(l *timetable.Lesson) (start, end string, ok bool) {
	parts := strings.Split(l.Date, ".")
	if len(parts) != 3 {
		return "", "", false
	}
	iso := parts[2] + "-" + parts[1] + "-" + parts[0]
	return iso + "T" + l.StartTime + ":00", iso + "T" + l.EndTime + ":00", true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
