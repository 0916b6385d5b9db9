package service

import "github.com/examhall/examhall/internal/model"

// manualScoreTotal sums awarded scores over evaluations of manually
// graded answers only. Evaluations that happen to exist on choice
// answers never contribute.
func manualScoreTotal(
	answers []model.Answer,
	questionsByID map[string]model.Question,
	evalsByAnswerID map[string]model.Evaluation,
) float64 {
	total := 0.0
	for _, answer := range answers {
		question, ok := questionsByID[answer.QuestionID]
		if !ok || !question.IsManuallyGraded() {
			continue
		}
		evaluation, ok := evalsByAnswerID[answer.ID]
		if !ok || evaluation.ScoreAwarded == nil {
			continue
		}
		total += *evaluation.ScoreAwarded
	}
	return total
}

// mergedFinalScore folds manual evaluations into the attempt's auto
// score. With an auto score present, the sum is capped at the total
// possible. An attempt that was never auto graded reports the manual
// total alone, uncapped.
func mergedFinalScore(
	attempt *model.ExamAttempt,
	answers []model.Answer,
	questionsByID map[string]model.Question,
	evalsByAnswerID map[string]model.Evaluation,
) float64 {
	manual := manualScoreTotal(answers, questionsByID, evalsByAnswerID)
	if attempt.Score == nil {
		return manual
	}
	final := *attempt.Score + manual
	if attempt.TotalPossibleScore != nil && final > *attempt.TotalPossibleScore {
		final = *attempt.TotalPossibleScore
	}
	return final
}

func percentageOf(score float64, totalPossible *float64) float64 {
	if totalPossible == nil || *totalPossible <= 0 {
		return 0
	}
	return score / *totalPossible * 100
}

func questionsByID(questions []model.Question) map[string]model.Question {
	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	return byID
}

func evaluationsByAnswerID(evaluations []model.Evaluation) map[string]model.Evaluation {
	byAnswer := make(map[string]model.Evaluation, len(evaluations))
	for _, e := range evaluations {
		byAnswer[e.AnswerID] = e
	}
	return byAnswer
}

func answerIDs(answers []model.Answer) []string {
	ids := make([]string, 0, len(answers))
	for _, a := range answers {
		ids = append(ids, a.ID)
	}
	return ids
}
