package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/models"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
)

type plannerSubjectReader interface {
	ListByIDs(ctx context.Context, ids []string) ([]models.Subject, error)
	ListByDisciplines(ctx context.Context, disciplineIDs []string) ([]models.Subject, error)
}

type plannerPlanWriter interface {
	Create(ctx context.Context, exec sqlx.ExtContext, plan *models.Plan) error
	UpdateStats(ctx context.Context, planID string, stats models.PlanStats) error
}

type plannerSessionWriter interface {
	BulkInsertMain(ctx context.Context, tx *sqlx.Tx, sessions []models.PlanSession) ([]string, error)
	BulkInsertRevisions(ctx context.Context, tx *sqlx.Tx, sessions []models.PlanSession) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generatorMetrics interface {
	PlanGenerated(status string)
	ForcedPlacement()
}

// rankedSubject carries a subject with its computed priority score.
type rankedSubject struct {
	models.Subject
	Priority      float64
	DaysRemaining int
}

// GeneratorConfig governs session sizing and placement behaviour. The window
// values are "HH:MM" clocks used when a request carries no availability.
type GeneratorConfig struct {
	MinSessionMinutes    int
	MaxSessionMinutes    int
	RevisionPercentage   int
	DefaultStrategy      models.RevisionStrategy
	DefaultWindowStart   string
	DefaultWindowEnd     string
	MaxPlacementAttempts int
	DailyLoadFactor      float64
	FallbackMinutesFloor int
}

// PlanGeneratorService turns ranked subjects and weekly availability into a
// persisted study plan with main and revision sessions.
type PlanGeneratorService struct {
	subjects      plannerSubjectReader
	plans         plannerPlanWriter
	sessions      plannerSessionWriter
	tx            txProvider
	metrics       generatorMetrics
	validator     *validator.Validate
	logger        *zap.Logger
	cfg           GeneratorConfig
	defaultWindow timeRange
	now           func() time.Time
}

// NewPlanGeneratorService wires generator dependencies.
func NewPlanGeneratorService(
	subjects plannerSubjectReader,
	plans plannerPlanWriter,
	sessions plannerSessionWriter,
	tx txProvider,
	metrics generatorMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *PlanGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinSessionMinutes <= 0 {
		cfg.MinSessionMinutes = 30
	}
	if cfg.MaxSessionMinutes <= 0 {
		cfg.MaxSessionMinutes = 120
	}
	if cfg.RevisionPercentage <= 0 {
		cfg.RevisionPercentage = 30
	}
	if !cfg.DefaultStrategy.Valid() {
		cfg.DefaultStrategy = models.RevisionNextAvailable
	}
	if cfg.MaxPlacementAttempts <= 0 {
		cfg.MaxPlacementAttempts = 14
	}
	if cfg.DailyLoadFactor <= 0 {
		cfg.DailyLoadFactor = 0.7
	}
	if cfg.FallbackMinutesFloor <= 0 {
		cfg.FallbackMinutesFloor = 60
	}
	window := timeRange{Start: defaultWindowStart, End: defaultWindowEnd}
	if start, startErr := parseClock(cfg.DefaultWindowStart); startErr == nil {
		if end, endErr := parseClock(cfg.DefaultWindowEnd); endErr == nil && end > start {
			window = timeRange{Start: start, End: end}
		}
	}
	return &PlanGeneratorService{
		subjects:      subjects,
		plans:         plans,
		sessions:      sessions,
		tx:            tx,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		cfg:           cfg,
		defaultWindow: window,
		now:           time.Now,
	}
}

// Generate builds and persists a full study plan for the user.
func (s *PlanGeneratorService) Generate(ctx context.Context, userID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan generation payload")
	}
	if len(req.SubjectIDs) == 0 && len(req.DisciplineIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one subject or discipline is required")
	}

	planStart, err := models.ParsePlainDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}
	planEnd, err := models.ParsePlainDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
	}
	if planEnd.Before(planStart) {
		return nil, appErrors.Clone(appErrors.ErrInvalidDateRange, "")
	}

	windows, err := parseAvailability(req.Availability)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability window")
	}
	availability := newWeeklyAvailability(s.defaultWindows(windows))

	subjects, err := s.loadSubjects(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(subjects) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no subjects available for plan generation")
	}

	today := models.DateOf(s.now())
	ranked := rankSubjects(subjects, planEnd, today)

	mains, revisions, warnings := s.buildSessions(ranked, availability, planStart, planEnd, req)

	plan := &models.Plan{
		UserID:    userID,
		Name:      req.Name,
		StartDate: planStart,
		EndDate:   planEnd,
		Status:    models.PlanStatusDraft,
	}
	if req.ActivateOnCreate {
		plan.Status = models.PlanStatusActive
	}
	if settings, marshalErr := json.Marshal(planSettings(req)); marshalErr == nil {
		plan.Settings = types.JSONText(settings)
	}

	persisted, persistWarnings, err := s.persist(ctx, plan, mains, revisions)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, persistWarnings...)

	stats := computePlanStats(persisted, planStart, planEnd)
	if err := s.plans.UpdateStats(ctx, plan.ID, stats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan stats")
	}

	if s.metrics != nil {
		s.metrics.PlanGenerated(string(plan.Status))
	}

	return &dto.GeneratePlanResponse{
		PlanID:         plan.ID,
		Status:         string(plan.Status),
		TotalSessions:  stats.TotalSessions,
		TotalMinutes:   stats.TotalMinutes,
		SessionsPerDay: stats.SessionsPerDay,
		Warnings:       warnings,
	}, nil
}

// defaultWindows substitutes the configured fallback window on every weekday
// when the request carries no availability.
func (s *PlanGeneratorService) defaultWindows(input []availabilityWindow) []availabilityWindow {
	if len(input) > 0 {
		return input
	}
	windows := make([]availabilityWindow, 0, 7)
	for day := 0; day < 7; day++ {
		windows = append(windows, availabilityWindow{Day: day, Start: s.defaultWindow.Start, End: s.defaultWindow.End})
	}
	return windows
}

// buildSessions runs the allocation loop over the ranked subjects. It keeps a
// single date cursor shared by all subjects that only ever rests on available
// days, wrapping past the plan end back to the start.
func (s *PlanGeneratorService) buildSessions(
	ranked []rankedSubject,
	availability *weeklyAvailability,
	planStart, planEnd models.PlainDate,
	req dto.GeneratePlanRequest,
) ([]models.PlanSession, []revisionDraft, []dto.PlanWarning) {
	registry := newUsedSlotRegistry()
	allocator := newSlotAllocator(availability, registry)
	walker := dayWalker{availability: availability, planStart: planStart, planEnd: planEnd}

	var revPlanner *revisionPlanner
	if req.Revisions.Enabled {
		strategy := models.RevisionStrategy(req.Revisions.Strategy)
		if !strategy.Valid() {
			strategy = s.cfg.DefaultStrategy
		}
		percentage := req.Revisions.DurationPercentage
		if percentage <= 0 {
			percentage = s.cfg.RevisionPercentage
		}
		revPlanner = newRevisionPlanner(allocator, walker, strategy, percentage)
	}

	minDuration, maxDuration := s.durationBounds(req.SessionDuration)
	avgDaily := s.averageDailyMinutes(req.DailyMinutes, availability, minDuration, maxDuration)
	totalPriority := 0.0
	for _, subj := range ranked {
		totalPriority += subj.Priority
	}

	mains := make([]models.PlanSession, 0, len(ranked))
	revisions := make([]revisionDraft, 0)
	warnings := make([]dto.PlanWarning, 0)
	cursor := planStart
	if resolved, ok := walker.forward(cursor); ok {
		cursor = resolved
	}

	for _, subj := range ranked {
		target := s.targetDuration(subj.Priority, totalPriority, avgDaily, len(ranked), minDuration, maxDuration)

		placed := false
		for attempt := 0; attempt < s.cfg.MaxPlacementAttempts; attempt++ {
			if !cursor.After(planEnd) {
				if slot, ok := allocator.allocate(cursor, target); ok {
					main := buildMainSession(subj, cursor, slot)
					mains = append(mains, main)
					if revPlanner != nil {
						revisions = append(revisions, revPlanner.planFor(main, len(mains)-1, subj)...)
					}
					placed = true
				}
			}
			cursor = advanceCursor(walker, cursor)
			if placed {
				break
			}
		}

		// Forced sessions stand alone: no revisions are derived from a slot
		// that may already collide.
		if !placed {
			main := s.forcePlacement(subj, planStart, availability, target)
			mains = append(mains, main)
			warnings = append(warnings, dto.PlanWarning{
				Type:    "forced_placement",
				Message: "session placed without collision check after exhausting placement attempts",
				Subject: subj.ID,
				Date:    main.Date.String(),
			})
			if s.metrics != nil {
				s.metrics.ForcedPlacement()
			}
			cursor = advanceCursor(walker, planStart)
		}
	}

	return mains, revisions, warnings
}

// loadSubjects resolves the requested subjects. Discipline ids pull in every
// subject under the discipline, deduplicated against the explicit selection.
func (s *PlanGeneratorService) loadSubjects(ctx context.Context, req dto.GeneratePlanRequest) ([]models.Subject, error) {
	subjects, err := s.subjects.ListByIDs(ctx, req.SubjectIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	if len(req.DisciplineIDs) == 0 {
		return subjects, nil
	}

	extra, err := s.subjects.ListByDisciplines(ctx, req.DisciplineIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load discipline subjects")
	}
	seen := make(map[string]bool, len(subjects))
	for _, subj := range subjects {
		seen[subj.ID] = true
	}
	for _, subj := range extra {
		if seen[subj.ID] {
			continue
		}
		seen[subj.ID] = true
		subjects = append(subjects, subj)
	}
	return subjects, nil
}

func (s *PlanGeneratorService) durationBounds(bounds dto.SessionDurationBounds) (int, int) {
	minDuration := bounds.Min
	if minDuration <= 0 {
		minDuration = s.cfg.MinSessionMinutes
	}
	maxDuration := bounds.Max
	if maxDuration <= 0 {
		maxDuration = s.cfg.MaxSessionMinutes
	}
	if maxDuration < minDuration {
		maxDuration = minDuration
	}
	return minDuration, maxDuration
}

// averageDailyMinutes prefers the user's budget and otherwise derives one
// from the weekly availability, floored so a day can hold at least two
// typical sessions.
func (s *PlanGeneratorService) averageDailyMinutes(requested int, availability *weeklyAvailability, minDuration, maxDuration int) int {
	if requested > 0 {
		return requested
	}
	days := availability.dayCount()
	if days == 0 {
		days = 1
	}
	perDay := availability.totalWeeklyMinutes() / days
	sessionFloor := minDuration + maxDuration
	budget := perDay
	if sessionFloor > budget {
		budget = sessionFloor
	}
	if s.cfg.FallbackMinutesFloor > budget {
		budget = s.cfg.FallbackMinutesFloor
	}
	return budget
}

// targetDuration sizes one subject's session from its priority share. The
// clamp runs before the 5-minute round-up, so results can exceed the upper
// bound by up to four minutes.
func (s *PlanGeneratorService) targetDuration(priority, totalPriority float64, avgDaily, subjectCount, minDuration, maxDuration int) int {
	share := 1.0 / float64(subjectCount)
	if totalPriority > 0 {
		share = priority / totalPriority
	}
	target := int(math.Round(share * float64(avgDaily) * s.cfg.DailyLoadFactor / float64(subjectCount)))
	if target < minDuration {
		target = minDuration
	}
	if target > maxDuration {
		target = maxDuration
	}
	return alignUp(target, 5)
}

func buildMainSession(subj rankedSubject, date models.PlainDate, slot timeRange) models.PlanSession {
	meta := models.SessionMetadata{
		SubjectDifficulty: subj.Difficulty,
		SubjectImportance: subj.Importance,
	}
	encoded, _ := meta.Encode()
	return models.PlanSession{
		Title:           subj.Title,
		DisciplineID:    subj.DisciplineID,
		SubjectID:       subj.ID,
		Date:            date,
		StartTime:       formatClock(slot.Start),
		EndTime:         formatClock(slot.End),
		DurationMinutes: slot.End - slot.Start,
		IsRevision:      false,
		Metadata:        encoded,
	}
}

// forcePlacement guarantees the subject at least one session after the
// attempt budget is exhausted. It deliberately skips the registry, so the
// emitted slot may collide with an existing session.
func (s *PlanGeneratorService) forcePlacement(subj rankedSubject, planStart models.PlainDate, availability *weeklyAvailability, duration int) models.PlanSession {
	start := s.defaultWindow.Start
	if windows := availability.windowsFor(planStart.Weekday()); len(windows) > 0 {
		start = windows[0].Start - windows[0].Start%30
	}
	s.logger.Warn("forced session placement without collision check",
		zap.String("subject_id", subj.ID),
		zap.String("date", planStart.String()),
		zap.Int("duration_minutes", duration),
	)
	return buildMainSession(subj, planStart, timeRange{Start: start, End: start + duration})
}

// advanceCursor moves the cursor to the next day whose weekday has an
// availability window, wrapping past the plan end back to the start. If the
// wrap scan cycles without a hit, the walker's weekday fallback decides.
func advanceCursor(walker dayWalker, cursor models.PlainDate) models.PlainDate {
	origin := cursor
	step := func(d models.PlainDate) models.PlainDate {
		d = d.AddDays(1)
		if d.After(walker.planEnd) {
			return walker.planStart
		}
		return d
	}

	cursor = step(cursor)
	visited := map[models.PlainDate]bool{cursor: true}
	for attempt := 0; attempt < maxWalkAttempts; attempt++ {
		if walker.availability.hasDay(cursor.Weekday()) {
			return cursor
		}
		cursor = step(cursor)
		if visited[cursor] {
			break
		}
		visited[cursor] = true
	}

	if resolved, ok := walker.forward(origin); ok {
		return resolved
	}
	return cursor
}

// persist runs the two-phase insert: plan plus main sessions first, then the
// revision batch with placeholder references rewritten to real ids. A failed
// revision batch keeps the committed mains and is surfaced as a warning.
func (s *PlanGeneratorService) persist(ctx context.Context, plan *models.Plan, mains []models.PlanSession, revisions []revisionDraft) ([]models.PlanSession, []dto.PlanWarning, error) {
	if s.tx == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.plans.Create(ctx, tx, plan); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create plan")
		return nil, nil, err
	}
	for i := range mains {
		mains[i].PlanID = plan.ID
	}
	mainIDs, insertErr := s.sessions.BulkInsertMain(ctx, tx, mains)
	if insertErr != nil {
		err = appErrors.Wrap(insertErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist main sessions")
		return nil, nil, err
	}
	for i := range mains {
		if i < len(mainIDs) {
			mains[i].ID = mainIDs[i]
		}
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit plan transaction")
		return nil, nil, err
	}

	persisted := append([]models.PlanSession(nil), mains...)
	warnings := make([]dto.PlanWarning, 0)
	if len(revisions) == 0 {
		return persisted, warnings, nil
	}

	batch := make([]models.PlanSession, 0, len(revisions))
	for _, draft := range revisions {
		originalID := ""
		if draft.mainIndex >= 0 && draft.mainIndex < len(mainIDs) {
			originalID = mainIDs[draft.mainIndex]
		}
		if originalID == "" {
			if len(mainIDs) == 0 {
				continue
			}
			originalID = mainIDs[0]
			s.logger.Warn("revision reference unresolved, falling back to first main session",
				zap.String("plan_id", plan.ID),
				zap.Int("main_index", draft.mainIndex),
			)
			warnings = append(warnings, dto.PlanWarning{
				Type:    "revision_link_fallback",
				Message: "revision linked to an arbitrary main session after reference resolution failed",
			})
		}
		session := draft.session
		session.PlanID = plan.ID
		session.OriginalSessionID = &originalID
		batch = append(batch, session)
	}

	revTx, revErr := s.tx.BeginTxx(ctx, nil)
	if revErr == nil {
		revErr = s.sessions.BulkInsertRevisions(ctx, revTx, batch)
		if revErr == nil {
			revErr = revTx.Commit()
		} else {
			_ = revTx.Rollback()
		}
	}
	if revErr != nil {
		s.logger.Error("revision batch persistence failed, keeping main sessions",
			zap.String("plan_id", plan.ID),
			zap.Error(revErr),
		)
		warnings = append(warnings, dto.PlanWarning{
			Type:    "revisions_not_saved",
			Message: "revision sessions could not be saved; main sessions were kept",
		})
		return persisted, warnings, nil
	}

	persisted = append(persisted, batch...)
	return persisted, warnings, nil
}

func rankSubjects(subjects []models.Subject, planEnd, today models.PlainDate) []rankedSubject {
	ranked := make([]rankedSubject, 0, len(subjects))
	for _, subj := range subjects {
		due := planEnd
		if subj.DueDate != nil && !subj.DueDate.IsZero() {
			due = *subj.DueDate
		}
		days := today.DaysUntil(due)
		if days < 1 {
			days = 1
		}
		importance := models.LevelValue(subj.Importance)
		difficulty := models.LevelValue(subj.Difficulty)
		ranked = append(ranked, rankedSubject{
			Subject:       subj,
			Priority:      float64(2*importance+difficulty) / float64(days+1),
			DaysRemaining: days,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})
	return ranked
}

func computePlanStats(sessions []models.PlanSession, planStart, planEnd models.PlainDate) models.PlanStats {
	totalMinutes := 0
	for _, session := range sessions {
		totalMinutes += session.DurationMinutes
	}
	totalDays := planStart.DaysUntil(planEnd) + 1
	if totalDays < 1 {
		totalDays = 1
	}
	perDay := math.Round(float64(len(sessions))/float64(totalDays)*10) / 10
	return models.PlanStats{
		TotalSessions:  len(sessions),
		TotalMinutes:   totalMinutes,
		SessionsPerDay: perDay,
	}
}

func parseAvailability(input []dto.AvailabilityWindowRequest) ([]availabilityWindow, error) {
	windows := make([]availabilityWindow, 0, len(input))
	for _, w := range input {
		start, err := parseClock(w.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(w.EndTime)
		if err != nil {
			return nil, err
		}
		windows = append(windows, availabilityWindow{Day: w.Day, Start: start, End: end})
	}
	return windows, nil
}

func planSettings(req dto.GeneratePlanRequest) map[string]any {
	return map[string]any{
		"availability":    req.Availability,
		"dailyMinutes":    req.DailyMinutes,
		"sessionDuration": req.SessionDuration,
		"revisions":       req.Revisions,
	}
}
