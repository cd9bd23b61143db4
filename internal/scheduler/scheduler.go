package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"SettleBook/internal/bubble"
	"SettleBook/internal/collector"
	"SettleBook/internal/notifier"
	"SettleBook/internal/settlement"

	"github.com/robfig/cron/v3"
)

// StatusSetter updates a player's engaged or paid flag for a week.
type StatusSetter interface {
	SetStatus(ctx context.Context, weekID, entityID, field string, value bool) error
}

// Scheduler runs the weekly settlement and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Service   *settlement.Service
	Notifier  notifier.Sender
	Status    StatusSetter
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. status may be nil when no store is available.
func NewScheduler(ctx context.Context, col *collector.Collector, svc *settlement.Service, n notifier.Sender, status StatusSetter) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Service:   svc,
		Notifier:  n,
		Status:    status,
		Ctx:       ctx,
	}
}

// RegisterAll registers the weekly settlement task.
func (s *Scheduler) RegisterAll(weeklyCron string) error {
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWeeklyNow executes the weekly task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunWeeklyNow() {
	s.weeklyTask()
}

func (s *Scheduler) weeklyTask() {
	log.Println("[INFO] running weekly settlement")
	report, err := s.settle(s.Ctx, "")
	if err != nil {
		log.Printf("[ERROR] weekly settlement: %v", err)
		s.trySend(fmt.Sprintf("❌ Weekly settlement failed: %v", err))
		return
	}
	s.trySend(report)
}

func (s *Scheduler) settle(ctx context.Context, weekID string) (string, error) {
	week, rows, err := s.Collector.Collect(ctx, weekID)
	if err != nil {
		return "", err
	}
	st, err := s.Service.Run(ctx, week, rows)
	if err != nil {
		return "", fmt.Errorf("settle %s: %w", week, err)
	}
	return notifier.FormatSettlementReport(week, st), nil
}

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	args := strings.Fields(command)
	if len(args) == 0 {
		return notifier.FormatHelp()
	}
	name := strings.ToLower(args[0])
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}

	switch name {
	case "/settle":
		week := ""
		if len(args) > 1 {
			week = args[1]
		}
		report, err := s.settle(ctx, week)
		if err != nil {
			log.Printf("[ERROR] settle command: %v", err)
			if errors.Is(err, collector.ErrNoRows) {
				return "❌ No rows to settle"
			}
			return fmt.Sprintf("❌ Settlement failed: %v", err)
		}
		return report
	case "/bubble":
		st, err := s.Service.Bubble.Status(ctx)
		if err != nil && !errors.Is(err, bubble.ErrNoEntity) {
			log.Printf("[ERROR] bubble status: %v", err)
			return fmt.Sprintf("❌ Bubble status unavailable: %v", err)
		}
		return notifier.FormatBubbleStatus(st)
	case "/mark":
		return s.mark(ctx, args[1:])
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) mark(ctx context.Context, args []string) string {
	if len(args) != 4 {
		return "Usage: /mark &lt;week&gt; &lt;player&gt; &lt;engaged|paid&gt; &lt;on|off&gt;"
	}
	if s.Status == nil {
		return "❌ Status updates need the SQLite store"
	}
	week, player, field := args[0], strings.ToLower(args[1]), strings.ToLower(args[2])

	var value bool
	switch strings.ToLower(args[3]) {
	case "on", "yes", "true", "1":
		value = true
	case "off", "no", "false", "0":
		value = false
	default:
		return fmt.Sprintf("❌ Unknown value %q, use on or off", args[3])
	}

	if err := s.Status.SetStatus(ctx, week, player, field, value); err != nil {
		log.Printf("[ERROR] mark %s %s %s: %v", week, player, field, err)
		return fmt.Sprintf("❌ %v", err)
	}
	log.Printf("[INFO] week %s: %s %s=%v", week, player, field, value)
	return fmt.Sprintf("✅ %s %s set to %v for %s", player, field, value, week)
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
