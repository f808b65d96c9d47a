package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"ADRFlow/internal/basket"
	"ADRFlow/internal/model"
	"ADRFlow/internal/notifier"
	"ADRFlow/internal/report"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler runs the daily report and answers chat commands.
type Scheduler struct {
	Cron       *cron.Cron
	Builder    *report.Builder
	Definition *basket.Definition
	Notifier   Sender
	Ctx        context.Context

	logger *zap.Logger
}

// NewScheduler creates a new Scheduler. Cron expressions carry a seconds field
// and are evaluated in loc. A nil sender disables delivery.
func NewScheduler(ctx context.Context, b *report.Builder, def *basket.Definition, sender Sender, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Builder:    b,
		Definition: def,
		Notifier:   sender,
		Ctx:        ctx,
		logger:     logger.Named("scheduler"),
	}
}

// Register adds the daily report job.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes the report task immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.reportTask()
}

func (s *Scheduler) reportTask() {
	today := s.Builder.Today()
	s.logger.Info("running report task", zap.String("date", today.Format(model.DateLayout)))

	rep, err := s.Builder.Build(s.Ctx, today)
	if err != nil {
		s.logger.Error("build report failed", zap.Error(err))
		s.trySend(fmt.Sprintf("❌ report failed: %v", err))
		return
	}
	s.trySend(notifier.FormatReport(rep))
}

// HandleCommand processes a user command and returns a reply.
//
//	/report                   today's report
//	/report DATE              report for DATE (YYYY-MM-DD)
//	/report FROM TO           both dates and the change between them
//	/baskets                  basket definitions
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return help()
	}
	name := fields[0]
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}

	switch name {
	case "/report":
		return s.handleReport(ctx, fields[1:])
	case "/baskets":
		return notifier.FormatBaskets(s.Definition.Baskets, s.Definition.CrossListing)
	default:
		return help()
	}
}

func (s *Scheduler) handleReport(ctx context.Context, args []string) string {
	if len(args) > 2 {
		return "❌ " + model.ErrTooManyDates.Error()
	}
	dates := make([]time.Time, 0, 2)
	for _, a := range args {
		d, err := model.ParseDate(a)
		if err != nil {
			return fmt.Sprintf("❌ invalid date %q, expected YYYY-MM-DD", a)
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		dates = append(dates, s.Builder.Today())
	}

	rep, err := s.Builder.Build(ctx, dates...)
	if err != nil {
		s.logger.Warn("report command failed", zap.Strings("args", args), zap.Error(err))
		return fmt.Sprintf("❌ %v", err)
	}
	return notifier.FormatReport(rep)
}

func help() string {
	return "Available commands:\n" +
		"• /report [YYYY-MM-DD] [YYYY-MM-DD]\n" +
		"• /baskets"
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.logger.Info("no notifier configured, report not sent")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.logger.Error("send notification failed", zap.Error(err))
	}
}
