package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
	"github.com/lumina-beauty/lumina-offer/internal/store"
)

// Open connects to PostgreSQL and migrates the row-store tables.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(&UserDTO{}, &PostingDTO{}, &HistoryDTO{}, &QueueEntryDTO{}); err != nil {
		return nil, fmt.Errorf("migrate tables: %w", err)
	}

	return db, nil
}

// UserRepository implements store.Users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*salon.UserWishes, error) {
	var dto UserDTO
	if err := r.db.WithContext(ctx).First(&dto, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return userToDomain(dto), nil
}

// Upsert writes the profile columns, preserving any questionnaire answers
// already on the row.
func (r *UserRepository) Upsert(ctx context.Context, user *salon.UserWishes) error {
	dto := userFromDomain(user)

	var existing UserDTO
	err := r.db.WithContext(ctx).First(&existing, "user_id = ?", user.UserID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		dto.RegisteredAt = time.Now().Format("2006/01/02")
		dto.Status = "オファー中"
		return r.db.WithContext(ctx).Create(&dto).Error
	case err != nil:
		return err
	}

	dto.RegisteredAt = existing.RegisteredAt
	dto.Status = existing.Status
	return r.db.WithContext(ctx).Model(&UserDTO{}).Where("user_id = ?", user.UserID).Updates(&dto).Error
}

func (r *UserRepository) SaveQuestionnaire(ctx context.Context, userID string, q *salon.Questionnaire) error {
	result := r.db.WithContext(ctx).Model(&UserDTO{}).Where("user_id = ?", userID).Updates(map[string]any{
		"q_area":               q.Area,
		"q_job_changes":        q.JobChanges,
		"q_current_employment": q.CurrentEmployment,
		"q_experience_years":   q.ExperienceYears,
		"q_desired_employment": q.DesiredEmployment,
		"q_priorities":         q.Priorities,
		"q_improvement_point":  q.ImprovementPoint,
		"q_ideal_beautician":   q.IdealBeautician,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// PostingRepository implements store.Postings.
type PostingRepository struct {
	db *gorm.DB
}

func NewPostingRepository(db *gorm.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

func (r *PostingRepository) All(ctx context.Context) (*salon.Postings, error) {
	var dtos []PostingDTO
	if err := r.db.WithContext(ctx).Order("posting_id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	postings := &salon.Postings{Items: make([]*salon.Posting, 0, len(dtos))}
	for _, dto := range dtos {
		postings.Items = append(postings.Items, postingToDomain(dto))
	}
	return postings, nil
}

// ReplaceAll swaps the posting master for the provided set in one
// transaction. Used by the import command, not by the request path.
func (r *PostingRepository) ReplaceAll(ctx context.Context, postings *salon.Postings) error {
	dtos := make([]PostingDTO, 0, postings.Len())
	for _, p := range postings.Items {
		dtos = append(dtos, postingFromDomain(p))
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM salon_postings").Error; err != nil {
			return err
		}
		if len(dtos) == 0 {
			return nil
		}
		return tx.Create(&dtos).Error
	})
}

func (r *PostingRepository) Get(ctx context.Context, postingID string) (*salon.Posting, error) {
	var dto PostingDTO
	if err := r.db.WithContext(ctx).First(&dto, "posting_id = ?", postingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return postingToDomain(dto), nil
}

// HistoryRepository implements store.History.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) ListByUser(ctx context.Context, userID string) ([]*salon.OfferHistoryEntry, error) {
	var dtos []HistoryDTO
	if err := r.db.WithContext(ctx).Find(&dtos, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}

	entries := make([]*salon.OfferHistoryEntry, 0, len(dtos))
	for _, dto := range dtos {
		entries = append(entries, historyToDomain(dto))
	}
	return entries, nil
}

func (r *HistoryRepository) Append(ctx context.Context, entry *salon.OfferHistoryEntry) error {
	dto := HistoryDTO{
		UserID:    entry.UserID,
		PostingID: entry.PostingID,
		SentDate:  entry.SentDate,
		Status:    entry.Status,
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *HistoryRepository) MarkScheduling(ctx context.Context, userID, postingID string, iv *salon.Interview) error {
	result := r.db.WithContext(ctx).Model(&HistoryDTO{}).
		Where("user_id = ? AND posting_id = ?", userID, postingID).
		Updates(map[string]any{
			"status":           salon.OfferScheduling,
			"interview_method": iv.Method,
			"date1":            iv.Date1,
			"start1":           iv.Start1,
			"end1":             iv.End1,
			"date2":            iv.Date2,
			"start2":           iv.Start2,
			"end2":             iv.End2,
			"date3":            iv.Date3,
			"start3":           iv.Start3,
			"end3":             iv.End3,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// QueueRepository implements store.Queue.
type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

func (r *QueueRepository) Enqueue(ctx context.Context, entries []*salon.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}

	dtos := make([]QueueEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, QueueEntryDTO{
			ID:        entry.ID,
			UserID:    entry.UserID,
			PostingID: entry.PostingID,
			SendAt:    entry.SendAt,
			Status:    entry.Status,
		})
	}
	return r.db.WithContext(ctx).Create(&dtos).Error
}

func (r *QueueRepository) PendingBefore(ctx context.Context, now string) ([]*salon.QueueEntry, error) {
	var dtos []QueueEntryDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND send_at <= ?", salon.QueuePending, now).
		Order("send_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*salon.QueueEntry, 0, len(dtos))
	for _, dto := range dtos {
		entries = append(entries, queueEntryToDomain(dto))
	}
	return entries, nil
}

func (r *QueueRepository) MarkSent(ctx context.Context, id string) error {
	return r.markStatus(ctx, id, salon.QueueSent)
}

func (r *QueueRepository) MarkError(ctx context.Context, id string) error {
	return r.markStatus(ctx, id, salon.QueueError)
}

// markStatus transitions a pending entry exactly once; an entry already
// marked sent or error is left untouched.
func (r *QueueRepository) markStatus(ctx context.Context, id, status string) error {
	result := r.db.WithContext(ctx).Model(&QueueEntryDTO{}).
		Where("id = ? AND status = ?", id, salon.QueuePending).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
