// Package grading scores a submitted answer set against a question snapshot.
// Everything here is pure: no I/O, no clock, no randomness.
package grading

import "math"

// DefaultPoints is awarded for a question whose point value was left unset.
const DefaultPoints = 1.0

// Question is the minimal view of a question needed for grading.
type Question struct {
	CorrectAnswer string
	Points        float64
}

// EffectivePoints returns the question's point value, substituting
// DefaultPoints when it is unset.
func (q Question) EffectivePoints() float64 {
	if q.Points == 0 {
		return DefaultPoints
	}
	return q.Points
}

// Answers maps a question index to the submitted value.
type Answers map[int]string

// Result is the outcome of grading one submission.
type Result struct {
	TotalQuestions  int
	CorrectAnswers  int
	EarnedPoints    float64
	TotalPoints     float64
	PercentageScore float64      // 0..100, rounded to two decimals
	QuestionResults map[int]bool // question index -> correct
}

// Grade compares each answer with the question's correct answer using exact
// string equality. A missing or empty answer is never correct, there is no
// partial credit and no normalisation of case or whitespace.
func Grade(questions []Question, answers Answers) Result {
	res := Result{
		TotalQuestions:  len(questions),
		QuestionResults: make(map[int]bool, len(questions)),
	}

	for i, q := range questions {
		points := q.EffectivePoints()
		res.TotalPoints += points

		submitted, ok := answers[i]
		correct := ok && submitted != "" && submitted == q.CorrectAnswer
		if correct {
			res.CorrectAnswers++
			res.EarnedPoints += points
		}
		res.QuestionResults[i] = correct
	}

	if res.TotalQuestions > 0 {
		res.PercentageScore = Round2(float64(res.CorrectAnswers) / float64(res.TotalQuestions) * 100)
	}
	return res
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
