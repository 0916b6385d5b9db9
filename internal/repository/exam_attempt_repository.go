package repository

import (
	"github.com/examhall/examhall/internal/model"
	"gorm.io/gorm"
)

type ExamAttemptRepository interface {
	Create(attempt *model.ExamAttempt) error
	Update(attempt *model.ExamAttempt) error
	FindByID(id string) (*model.ExamAttempt, error)
	// FindOpen returns the student's unfinished attempt for the exam,
	// or gorm.ErrRecordNotFound when none is open.
	FindOpen(examID, studentID string) (*model.ExamAttempt, error)
	FindByExamID(examID string) ([]model.ExamAttempt, error)
	FindUnfinishedByStudent(studentID string) ([]model.ExamAttempt, error)
	FindFinishedByStudent(studentID string) ([]model.ExamAttempt, error)
}

type examAttemptRepository struct {
	db *gorm.DB
}

func NewExamAttemptRepository(db *gorm.DB) ExamAttemptRepository {
	return &examAttemptRepository{db: db}
}

func (r *examAttemptRepository) Create(attempt *model.ExamAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *examAttemptRepository) Update(attempt *model.ExamAttempt) error {
	return r.db.Save(attempt).Error
}

func (r *examAttemptRepository) FindByID(id string) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := r.db.Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *examAttemptRepository) FindOpen(examID, studentID string) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.db.
		Where("exam_id = ? AND student_id = ? AND end_time IS NULL", examID, studentID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *examAttemptRepository) FindByExamID(examID string) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.Where("exam_id = ?", examID).Order("start_time ASC").Find(&attempts).Error
	return attempts, err
}

func (r *examAttemptRepository) FindUnfinishedByStudent(studentID string) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.
		Where("student_id = ? AND end_time IS NULL", studentID).
		Order("start_time DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *examAttemptRepository) FindFinishedByStudent(studentID string) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.
		Where("student_id = ? AND end_time IS NOT NULL", studentID).
		Order("end_time DESC").
		Find(&attempts).Error
	return attempts, err
}
