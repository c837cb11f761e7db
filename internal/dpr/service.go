package dpr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/internal/activity"
	"github.com/neinfra/dpr-dashboard/internal/notifications"
	"github.com/neinfra/dpr-dashboard/internal/risk"
	"github.com/neinfra/dpr-dashboard/pkg/i18n"
	"github.com/neinfra/dpr-dashboard/pkg/kvstore"
	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

// ErrNotFound is returned when no DPR matches the given id.
var ErrNotFound = errors.New("dpr: not found")

// ActivityRecorder is the audit-trail fan-out target.
type ActivityRecorder interface {
	Record(ctx context.Context, user, action, details string, module activity.Module, notify bool) (activity.Record, error)
}

// Notifier is the admin-notification fan-out target.
type Notifier interface {
	Add(ctx context.Context, text string) (notifications.Record, error)
}

// Service manages the stored DPR records and drives their evaluation
// through the risk scorer.
type Service struct {
	list       *kvstore.List[DPR]
	scorer     risk.Scorer
	activities ActivityRecorder
	notifier   Notifier
	validate   *validator.Validate
	now        func() time.Time
	newID      func() uuid.UUID
}

// NewService creates a DPR service over the shared store. activities and
// notifier may be nil when fan-out is not wanted.
func NewService(store kvstore.Store, scorer risk.Scorer, activities ActivityRecorder, notifier Notifier) *Service {
	return &Service{
		list:       kvstore.NewList[DPR](store, StorageKey, 0),
		scorer:     scorer,
		activities: activities,
		notifier:   notifier,
		validate:   validator.New(),
		now:        time.Now,
		newID:      uuid.New,
	}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create validates the submission, stores the new record with status
// Pending and fans out an upload notification plus an audit entry.
func (s *Service) Create(ctx context.Context, upload Upload) (DPR, error) {
	if err := s.validate.Struct(upload); err != nil {
		return DPR{}, fmt.Errorf("dpr: invalid upload: %w", err)
	}

	record := DPR{
		ID:            s.newID(),
		Title:         upload.Title,
		ProjectCode:   upload.ProjectCode,
		Department:    upload.Department,
		Location:      upload.Location,
		Sector:        upload.Sector,
		EstimatedCost: upload.EstimatedCost,
		Description:   upload.Description,
		FileName:      upload.FileName,
		FileSize:      upload.FileSize,
		FileType:      upload.FileType,
		UploadDate:    s.now(),
		Status:        StatusPending,
		RiskFactors:   []string{},
		UploadedBy:    upload.UploadedBy,
	}

	_, err := s.list.Update(ctx, func(items []DPR) []DPR {
		return append([]DPR{record}, items...)
	})
	if err != nil {
		return DPR{}, err
	}

	if s.notifier != nil {
		text := i18n.Translate("notification.dpr.uploaded", i18n.DefaultLang, record.Title)
		if _, err := s.notifier.Add(ctx, text); err != nil {
			logger.Warn("Failed to add upload notification", zap.Error(err))
		}
	}
	if s.activities != nil {
		if _, err := s.activities.Record(ctx, record.UploadedBy.Name, "uploaded DPR", record.Title, activity.ModuleDPR, false); err != nil {
			logger.Warn("Failed to record upload activity", zap.Error(err))
		}
	}

	logger.Info("DPR uploaded",
		zap.String("id", record.ID.String()),
		zap.String("title", record.Title))
	return record, nil
}

// Get returns the DPR with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (DPR, error) {
	items, _, err := s.list.Load(ctx)
	if err != nil && !kvstore.IsCorrupted(err) {
		return DPR{}, err
	}

	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return DPR{}, ErrNotFound
}

// List returns the stored DPRs, newest first, narrowed by filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]DPR, error) {
	items, _, err := s.list.Load(ctx)
	if err != nil && !kvstore.IsCorrupted(err) {
		return nil, err
	}

	matched := make([]DPR, 0, len(items))
	for _, item := range items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.RiskLevel != "" && item.RiskLevel != filter.RiskLevel {
			continue
		}
		if filter.Sector != "" && item.Sector != filter.Sector {
			continue
		}
		if filter.Location != "" && item.Location != filter.Location {
			continue
		}
		if !filter.Start.IsZero() && item.UploadDate.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && item.UploadDate.After(filter.End) {
			continue
		}
		matched = append(matched, item)
	}
	return matched, nil
}

// Search returns DPRs whose title or project code contains query,
// case-insensitively.
func (s *Service) Search(ctx context.Context, query string) ([]DPR, error) {
	items, err := s.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	matched := make([]DPR, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), query) ||
			strings.Contains(strings.ToLower(item.ProjectCode), query) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

// Update replaces the stored record with the same id.
func (s *Service) Update(ctx context.Context, record DPR) error {
	found := false
	_, err := s.list.TryUpdate(ctx, func(items []DPR) ([]DPR, bool) {
		found = false
		for i := range items {
			if items[i].ID == record.ID {
				items[i] = record
				found = true
			}
		}
		return items, found
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Delete removes the DPR with the given id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.list.TryUpdate(ctx, func(items []DPR) ([]DPR, bool) {
		removed := false
		kept := items[:0]
		for _, item := range items {
			if item.ID == id {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		return kept, removed
	})
	return err
}

// Stats summarizes the stored DPRs.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	items, _, err := s.list.Load(ctx)
	if err != nil && !kvstore.IsCorrupted(err) {
		return Stats{}, err
	}

	stats := Stats{
		Total:    len(items),
		ByStatus: make(map[Status]int),
		ByRisk:   make(map[risk.Level]int),
	}
	for _, item := range items {
		stats.ByStatus[item.Status]++
		if item.RiskLevel != "" {
			stats.ByRisk[item.RiskLevel]++
		}
	}
	return stats, nil
}

// MarkInProgress moves a pending DPR into the processing state.
func (s *Service) MarkInProgress(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, func(item *DPR) {
		item.Status = StatusInProgress
	})
}

// Evaluate runs the risk scorer against the DPR and stores the outcome:
// status Evaluated, evaluation date, risk level and factors. A
// notification and an audit entry are fanned out.
func (s *Service) Evaluate(ctx context.Context, id uuid.UUID) (DPR, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return DPR{}, err
	}

	assessment, err := s.scorer.Score(ctx, record.Title)
	if err != nil {
		return DPR{}, fmt.Errorf("dpr: score %s: %w", id, err)
	}

	evaluatedAt := s.now()
	err = s.transition(ctx, id, func(item *DPR) {
		item.Status = StatusEvaluated
		item.RiskLevel = assessment.Level
		item.RiskFactors = assessment.Factors
		item.EvaluationDate = &evaluatedAt
	})
	if err != nil {
		return DPR{}, err
	}

	if s.notifier != nil {
		text := i18n.Translate("notification.dpr.evaluated", i18n.DefaultLang, record.Title, string(assessment.Level))
		if _, err := s.notifier.Add(ctx, text); err != nil {
			logger.Warn("Failed to add evaluation notification", zap.Error(err))
		}
	}
	if s.activities != nil {
		details := fmt.Sprintf("%s: %s risk", record.Title, assessment.Level)
		if _, err := s.activities.Record(ctx, "system", "evaluated DPR", details, activity.ModuleRisks, false); err != nil {
			logger.Warn("Failed to record evaluation activity", zap.Error(err))
		}
	}

	logger.Info("DPR evaluated",
		zap.String("id", id.String()),
		zap.String("risk_level", string(assessment.Level)))
	return s.Get(ctx, id)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, apply func(*DPR)) error {
	found := false
	_, err := s.list.TryUpdate(ctx, func(items []DPR) ([]DPR, bool) {
		found = false
		for i := range items {
			if items[i].ID == id {
				apply(&items[i])
				found = true
			}
		}
		return items, found
	})
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
