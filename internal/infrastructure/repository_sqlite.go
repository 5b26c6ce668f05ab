package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/ytdt/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrJobNotFound is returned when no job matches an ID or prefix
var ErrJobNotFound = errors.New("job not found")

// ErrAmbiguousJobID is returned when a prefix matches several jobs
var ErrAmbiguousJobID = errors.New("job id prefix is ambiguous")

// filterColumns are the columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"stage":        true,
	"failed_stage": true,
	"error_kind":   true,
	"format":       true,
	"video_id":     true,
}

// SQLiteJobRepository implements JobRepository using SQLite
type SQLiteJobRepository struct {
	db *gorm.DB
}

// NewSQLiteJobRepository creates a new SQLite repository
func NewSQLiteJobRepository(dbPath string) (*SQLiteJobRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Job{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteJobRepository{db: db}, nil
}

// Create creates a new job
func (r *SQLiteJobRepository) Create(job *domain.Job) error {
	return r.db.Create(job).Error
}

// Update updates an existing job
func (r *SQLiteJobRepository) Update(job *domain.Job) error {
	return r.db.Save(job).Error
}

// Delete deletes a job by ID
func (r *SQLiteJobRepository) Delete(id string) error {
	return r.db.Delete(&domain.Job{}, "id = ?", id).Error
}

// FindByID finds a job by its full ID or a unique prefix of it
func (r *SQLiteJobRepository) FindByID(id string) (*domain.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrJobNotFound
	}

	var job domain.Job
	err := r.db.First(&job, "id = ?", id).Error
	if err == nil {
		return &job, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var matches []*domain.Job
	if err := r.db.Where("id LIKE ?", escapeLike(id)+"%").Limit(2).Find(&matches).Error; err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousJobID, id)
	}
}

// FindAll finds jobs with optional filters, newest first. A limit of 0
// returns every job.
func (r *SQLiteJobRepository) FindAll(filters map[string]interface{}, limit int) ([]*domain.Job, error) {
	var jobs []*domain.Job
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("created_at DESC").Find(&jobs).Error
	return jobs, err
}

// Count returns the total number of jobs
func (r *SQLiteJobRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.Job{}).Count(&count).Error
	return count, err
}

// GetStats returns job statistics
func (r *SQLiteJobRepository) GetStats() (*domain.JobStats, error) {
	stats := &domain.JobStats{}

	if err := r.db.Model(&domain.Job{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	stageCounts := []struct {
		Stage domain.JobStage
		Count int64
	}{}

	if err := r.db.Model(&domain.Job{}).
		Select("stage, count(*) as count").
		Group("stage").
		Scan(&stageCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range stageCounts {
		switch sc.Stage {
		case domain.StageResolving:
			stats.Resolving = sc.Count
		case domain.StageDownloading:
			stats.Downloading = sc.Count
		case domain.StageTranscoding:
			stats.Transcoding = sc.Count
		case domain.StageDone:
			stats.Done = sc.Count
		case domain.StageFailed:
			stats.Failed = sc.Count
		}
	}

	var bytes struct{ Total int64 }
	if err := r.db.Model(&domain.Job{}).
		Select("coalesce(sum(bytes_downloaded), 0) as total").
		Where("stage = ?", domain.StageDone).
		Scan(&bytes).Error; err != nil {
		return nil, err
	}
	stats.BytesTotal = bytes.Total

	return stats, nil
}

// Close closes the database connection
func (r *SQLiteJobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`%`, ``, `_`, ``)

// escapeLike drops LIKE wildcards from a user supplied prefix
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
