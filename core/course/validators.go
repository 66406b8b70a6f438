package course

import (
	"errors"
	"fmt"

	"github.com/productfruits/academy/core"
)

var (
	errQuestionaryNoQuestions = errors.New("a questionary milestone needs at least one question")
	errCorrectAnswerOOB       = errors.New("correctAnswer must index into answers")
)

// validateChapters covers the structural rules validator tags cannot
// express: questionaries carry questions and every correctAnswer index is
// in bounds.
func validateChapters(chapters []Chapter) error {
	for i, ch := range chapters {
		for j, m := range ch.Milestones {
			field := fmt.Sprintf("chapters[%d].milestones[%d]", i, j)
			if m.IsQuestionary() && len(m.Questions) == 0 {
				return core.NewValidationError(errQuestionaryNoQuestions,
					core.FieldError{Field: field, Error: errQuestionaryNoQuestions.Error()})
			}
			for _, q := range m.Questions {
				if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Answers) {
					return core.NewValidationError(errCorrectAnswerOOB,
						core.FieldError{Field: field, Error: errCorrectAnswerOOB.Error()})
				}
			}
		}
	}
	return nil
}
