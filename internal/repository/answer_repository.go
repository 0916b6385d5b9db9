package repository

import (
	"github.com/examhall/examhall/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	Create(answer *model.Answer) error
	Update(answer *model.Answer) error
	// FindByAttemptAndQuestion returns gorm.ErrRecordNotFound when the
	// question has not been answered in this attempt yet.
	FindByAttemptAndQuestion(attemptID, questionID string) (*model.Answer, error)
	FindByID(id string) (*model.Answer, error)
	FindByAttemptID(attemptID string) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(answer *model.Answer) error {
	return r.db.Create(answer).Error
}

func (r *answerRepository) Update(answer *model.Answer) error {
	return r.db.Save(answer).Error
}

func (r *answerRepository) FindByAttemptAndQuestion(attemptID, questionID string) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.
		Where("attempt_id = ? AND question_id = ?", attemptID, questionID).
		First(&answer).Error
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) FindByID(id string) (*model.Answer, error) {
	var answer model.Answer
	if err := r.db.Where("id = ?", id).First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (r *answerRepository) FindByAttemptID(attemptID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}
