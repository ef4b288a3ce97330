// Package services – JournalService
//
// This file implements JournalService, the record store of the journal. It
// owns every read-modify-write sequence over the orders, debts and snapshot
// collections, keeps debts consistent with their orders, and supports a
// time-boxed undo of deletes.
//
// Mutating operations are serialized by a mutex so each one is atomic with
// respect to the others; reads take the shared side of the same lock.
//
// Observability: public methods are OpenTelemetry-instrumented and log their
// outcome through the injected zerolog logger.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/service-journal/internal/export"
	"github.com/tbourn/service-journal/internal/observability"
	"github.com/tbourn/service-journal/internal/repo"
	"github.com/tbourn/service-journal/internal/search"
)

// DefaultSnapshotTTL is how long a deleted order can be restored.
const DefaultSnapshotTTL = 5 * time.Minute

// Options configures a JournalService. Zero values select the defaults.
type Options struct {
	// Now is the clock; time.Now by default.
	Now func() time.Time
	// Logger receives operation logs; the global zerolog logger by default.
	Logger *zerolog.Logger
	// SnapshotTTL is the undo window.
	SnapshotTTL time.Duration
	// Location is the timezone calendar dates are taken in; time.Local by default.
	Location *time.Location
	// Suggester drives client and car suggestions.
	Suggester *search.Suggester
	// Renderer turns the printable report into a document.
	Renderer export.DocumentRenderer
	// SheetWriter writes the spreadsheet export; excelize by default.
	SheetWriter export.SheetWriter
	// NewID generates record ids for a prefix such as "order".
	NewID func(prefix string) string
}

// JournalService is the journal's record store.
type JournalService struct {
	repo repo.Repository
	mu   sync.RWMutex

	now         func() time.Time
	log         zerolog.Logger
	ttl         time.Duration
	loc         *time.Location
	suggester   *search.Suggester
	renderer    export.DocumentRenderer
	sheetWriter export.SheetWriter
	newID       func(prefix string) string
	tracer      trace.Tracer
}

// NewJournalService builds a service over r.
func NewJournalService(r repo.Repository, opts Options) *JournalService {
	s := &JournalService{
		repo:        r,
		now:         opts.Now,
		ttl:         opts.SnapshotTTL,
		loc:         opts.Location,
		suggester:   opts.Suggester,
		renderer:    opts.Renderer,
		sheetWriter: opts.SheetWriter,
		newID:       opts.NewID,
		tracer:      observability.Tracer("services/Journal"),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "journal").Logger()
	} else {
		s.log = log.Logger.With().Str("component", "journal").Logger()
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSnapshotTTL
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.suggester == nil {
		s.suggester = search.New()
	}
	if s.sheetWriter == nil {
		s.sheetWriter = export.ExcelizeWriter{}
	}
	if s.newID == nil {
		s.newID = s.randomID
	}
	return s
}

// randomID returns "<prefix>_<unix ms>_<9 random hex chars>".
func (s *JournalService) randomID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", prefix, s.now().UnixMilli(), suffix)
}

func (s *JournalService) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// finish records err on span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Init prepares the store: missing collections are created and stored orders
// are migrated to the current schema. Migration failures are logged and
// leave the data as it was.
func (s *JournalService) Init(ctx context.Context) (err error) {
	ctx, span := s.start(ctx, "Init")
	defer func() { finish(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Init(ctx); err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	report, merr := s.repo.Migrate(ctx)
	switch {
	case merr != nil:
		s.log.Error().Err(merr).Msg("migration failed, data left unmigrated")
	case report.Skipped:
		s.log.Debug().Msg("schema already current")
	default:
		s.log.Info().Int("scanned", report.Scanned).Int("changed", report.Changed).Msg("migration complete")
	}
	return nil
}

// ClearAllData removes every collection and re-initializes the store.
func (s *JournalService) ClearAllData(ctx context.Context) (err error) {
	ctx, span := s.start(ctx, "ClearAllData")
	defer func() { finish(span, err) }()

	s.mu.Lock()
	if err := s.repo.Clear(ctx); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("clear data: %w", err)
	}
	s.mu.Unlock()

	if err := s.Init(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("all data cleared")
	return nil
}
