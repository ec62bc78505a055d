package scheduler

import (
	"log/slog"
	"time"

	"complyflow/internal/config"
	"complyflow/internal/email"
	"complyflow/internal/repository"
)

// Scheduler runs periodic maintenance: draft reminders, review-queue
// reminders and expired session cleanup.
type Scheduler struct {
	submissionRepo *repository.SubmissionRepository
	userRepo       *repository.UserRepository
	roleRepo       *repository.RoleRepository
	sessionRepo    *repository.SessionRepository
	emailService   *email.Service
	config         *config.SchedulerConfig
	stopChan       chan struct{}
}

// NewScheduler creates a new scheduler
func NewScheduler(
	submissionRepo *repository.SubmissionRepository,
	userRepo *repository.UserRepository,
	roleRepo *repository.RoleRepository,
	sessionRepo *repository.SessionRepository,
	emailService *email.Service,
	cfg *config.SchedulerConfig,
) *Scheduler {
	return &Scheduler{
		submissionRepo: submissionRepo,
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		sessionRepo:    sessionRepo,
		emailService:   emailService,
		config:         cfg,
		stopChan:       make(chan struct{}),
	}
}

// Start runs the scheduler loop until Stop is called
func (s *Scheduler) Start() {
	if !s.config.Enabled {
		slog.Info("Scheduler disabled")
		return
	}

	slog.Info("Starting scheduler", "interval", s.config.Interval)
	go s.run()
}

// Stop terminates the scheduler loop
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runTasks()
		case <-s.stopChan:
			slog.Info("Scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) runTasks() {
	s.cleanupSessions()
	s.sendDraftReminders()
	s.sendReviewReminders()
}

func (s *Scheduler) cleanupSessions() {
	if err := s.sessionRepo.DeleteExpired(); err != nil {
		slog.Error("Failed to clean up expired sessions", "error", err)
	}
}

// sendDraftReminders emails owners of drafts that have not been touched for
// the configured period
func (s *Scheduler) sendDraftReminders() {
	cutoff := time.Now().Add(-s.config.DraftStaleAfter)
	drafts, err := s.submissionRepo.GetStaleDrafts(cutoff)
	if err != nil {
		slog.Error("Failed to load stale drafts", "error", err)
		return
	}

	for _, draft := range drafts {
		user, err := s.userRepo.GetByID(draft.UserID)
		if err != nil {
			slog.Warn("Could not load draft owner", "submission_id", draft.ID, "error", err)
			continue
		}

		name := user.FirstName + " " + user.LastName
		if err := s.emailService.SendDraftReminder(user.Email, name, draft.TemplateTitle, draft.ID); err != nil {
			slog.Warn("Failed to send draft reminder", "submission_id", draft.ID, "error", err)
		}
	}

	if len(drafts) > 0 {
		slog.Info("Sent draft reminders", "count", len(drafts))
	}
}

// sendReviewReminders emails every manager once when audits have been
// awaiting verification for longer than the configured period
func (s *Scheduler) sendReviewReminders() {
	cutoff := time.Now().Add(-s.config.UnreviewedStaleAfter)
	pending, err := s.submissionRepo.GetUnreviewedAudits(cutoff)
	if err != nil {
		slog.Error("Failed to load unreviewed audits", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	users, err := s.userRepo.GetAll()
	if err != nil {
		slog.Error("Failed to load users for review reminders", "error", err)
		return
	}

	for _, user := range users {
		isManager, err := s.roleRepo.UserHasRole(user.ID, "manager")
		if err != nil || !isManager {
			continue
		}
		if err := s.emailService.SendReviewReminder(user.Email, len(pending)); err != nil {
			slog.Warn("Failed to send review reminder", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("Sent review reminders", "pending_audits", len(pending))
}
