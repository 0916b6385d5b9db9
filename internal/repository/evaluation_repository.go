package repository

import (
	"github.com/examhall/examhall/internal/model"
	"gorm.io/gorm"
)

type EvaluationRepository interface {
	Create(evaluation *model.Evaluation) error
	Update(evaluation *model.Evaluation) error
	FindByAnswerID(answerID string) (*model.Evaluation, error)
	FindByAnswerIDs(answerIDs []string) ([]model.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(evaluation *model.Evaluation) error {
	return r.db.Create(evaluation).Error
}

func (r *evaluationRepository) Update(evaluation *model.Evaluation) error {
	return r.db.Save(evaluation).Error
}

func (r *evaluationRepository) FindByAnswerID(answerID string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	if err := r.db.Where("answer_id = ?", answerID).First(&evaluation).Error; err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *evaluationRepository) FindByAnswerIDs(answerIDs []string) ([]model.Evaluation, error) {
	var evaluations []model.Evaluation
	if len(answerIDs) == 0 {
		return evaluations, nil
	}
	err := r.db.Where("answer_id IN ?", answerIDs).Find(&evaluations).Error
	return evaluations, err
}
