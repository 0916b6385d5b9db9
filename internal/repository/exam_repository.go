package repository

import (
	"github.com/examhall/examhall/internal/model"
	"gorm.io/gorm"
)

type ExamRepository interface {
	Create(exam *model.Exam) error
	FindByID(id string) (*model.Exam, error)
	FindAll() ([]model.Exam, error)
	FindPublished() ([]model.Exam, error)
	Update(exam *model.Exam) error
	Delete(id string) error
}

type examRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(exam *model.Exam) error {
	// GORM creates the exam_questions join rows for exam.Questions.
	return r.db.Create(exam).Error
}

func (r *examRepository) FindByID(id string) (*model.Exam, error) {
	var exam model.Exam
	if err := r.db.Preload("Questions").Where("id = ?", id).First(&exam).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepository) FindAll() ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.Preload("Questions").Order("created_at DESC").Find(&exams).Error
	return exams, err
}

func (r *examRepository) FindPublished() ([]model.Exam, error) {
	var exams []model.Exam
	err := r.db.Preload("Questions").Where("is_published = ?", true).Order("start_time ASC").Find(&exams).Error
	return exams, err
}

func (r *examRepository) Update(exam *model.Exam) error {
	return r.db.Save(exam).Error
}

// Delete removes the exam with its question links, attempts, answers
// and evaluations. Questions themselves are shared and stay.
func (r *examRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM evaluations WHERE answer_id IN (
				SELECT a.id FROM answers a
				JOIN exam_attempts t ON t.id = a.attempt_id
				WHERE t.exam_id = ?)`, id,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM answers WHERE attempt_id IN (SELECT id FROM exam_attempts WHERE exam_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := tx.Where("exam_id = ?", id).Delete(&model.ExamAttempt{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM exam_questions WHERE exam_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&model.Exam{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
