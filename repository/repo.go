package repository

import (
	"context"
	"database/sql"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"medianode/constant"
	"medianode/entities"
)

type VideoRepository interface {
	Create(ctx context.Context, video *entities.Video) error
	FindByJobID(ctx context.Context, jobID string) (*entities.Video, error)
	List(ctx context.Context) ([]*entities.Video, error)
	UpdateStatus(ctx context.Context, jobID string, status constant.JobStatus) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) (VideoRepository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	return &repo{db: gormDB}, nil
}

func (r *repo) Create(ctx context.Context, video *entities.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *repo) FindByJobID(ctx context.Context, jobID string) (*entities.Video, error) {
	video := &entities.Video{}
	err := r.db.WithContext(ctx).First(video, "job_id = ?", jobID).Error
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (r *repo) List(ctx context.Context) ([]*entities.Video, error) {
	var videos []*entities.Video
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *repo) UpdateStatus(ctx context.Context, jobID string, status constant.JobStatus) error {
	return r.db.WithContext(ctx).Model(&entities.Video{}).
		Where("job_id = ?", jobID).
		Update("status", status).Error
}
