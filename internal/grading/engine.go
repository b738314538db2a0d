package grading

import (
	"encoding/json"
	"math"

	"nclex_prep_backend/internal/model"
)

// Result of grading one submitted answer. PointsEarned never exceeds
// TotalPoints.
type Result struct {
	IsCorrect          bool `json:"isCorrect"`
	IsPartiallyCorrect bool `json:"isPartiallyCorrect"`
	PointsEarned       int  `json:"pointsEarned"`
	TotalPoints        int  `json:"totalPoints"`
}

const bowtieRubricTotal = 5

// Grade determines correctness and points for a submitted answer. It is a
// pure function: no I/O, no mutation of the question.
func Grade(q *model.Question, submitted json.RawMessage) Result {
	key := Decode(q.CorrectAnswer)
	answer := Decode(submitted)

	maxPoints := q.Points
	if maxPoints <= 0 {
		if q.Type == model.Bowtie {
			maxPoints = bowtieRubricTotal
		} else {
			maxPoints = 1
		}
	}

	switch q.Type {
	case model.SATA:
		return gradeSATA(key, answer, maxPoints)
	case model.Ordering:
		return gradeOrdering(key, answer, maxPoints)
	case model.Bowtie:
		return gradeBowtie(key, answer, maxPoints)
	case model.CaseStudy:
		return gradeCaseStudy(key, answer, maxPoints)
	case model.DosageCalc:
		return gradeDosage(key, answer, q.Tolerance, maxPoints)
	case model.Matrix, model.DragDrop:
		return gradeMapping(key, answer, maxPoints)
	default:
		// single_choice and anything unrecognised: strict equality
		return gradeExact(key, answer, maxPoints)
	}
}

func gradeExact(key, answer AnswerValue, maxPoints int) Result {
	if !answer.IsEmpty() && answer.Scalar() == key.Scalar() {
		return Result{IsCorrect: true, PointsEarned: maxPoints, TotalPoints: maxPoints}
	}
	return Result{TotalPoints: maxPoints}
}

// gradeSATA compares option sets ignoring order. Overlap without full
// equality earns floor(matched/total × maxPoints).
func gradeSATA(key, answer AnswerValue, maxPoints int) Result {
	correct := toSet(key.List())
	submitted := toSet(answer.List())
	if len(correct) == 0 {
		return gradeExact(key, answer, maxPoints)
	}

	matched := 0
	for option := range submitted {
		if correct[option] {
			matched++
		}
	}

	if matched == len(correct) && len(submitted) == len(correct) {
		return Result{IsCorrect: true, PointsEarned: maxPoints, TotalPoints: maxPoints}
	}
	if matched > 0 {
		earned := int(math.Floor(float64(matched) / float64(len(correct)) * float64(maxPoints)))
		return Result{IsPartiallyCorrect: earned > 0, PointsEarned: earned, TotalPoints: maxPoints}
	}
	return Result{TotalPoints: maxPoints}
}

// gradeOrdering is all-or-nothing: only the exact stored sequence scores.
func gradeOrdering(key, answer AnswerValue, maxPoints int) Result {
	correct := key.List()
	submitted := answer.List()
	if len(correct) == 0 || len(submitted) != len(correct) {
		return Result{TotalPoints: maxPoints}
	}
	for i := range correct {
		if submitted[i] != correct[i] {
			return Result{TotalPoints: maxPoints}
		}
	}
	return Result{IsCorrect: true, PointsEarned: maxPoints, TotalPoints: maxPoints}
}

// gradeBowtie applies the fixed 5-point rubric: 1 for the condition, up to
// 2 for findings overlap, up to 2 for actions overlap. Fully correct only
// at the full 5.
func gradeBowtie(key, answer AnswerValue, maxPoints int) Result {
	condition, findings, actions, keyOK := key.BowtieParts()
	if !keyOK {
		return gradeExact(key, answer, maxPoints)
	}
	subCondition, subFindings, subActions, _ := answer.BowtieParts()

	score := 0
	if subCondition != "" && subCondition == condition {
		score++
	}
	score += overlapCapped(findings, subFindings, 2)
	score += overlapCapped(actions, subActions, 2)

	earned := score
	if earned > maxPoints {
		earned = maxPoints
	}
	return Result{
		IsCorrect:          score == bowtieRubricTotal,
		IsPartiallyCorrect: score > 0 && score < bowtieRubricTotal,
		PointsEarned:       earned,
		TotalPoints:        maxPoints,
	}
}

// gradeCaseStudy awards 1 point per step whose submitted value equals that
// step's correct value; the key's step manifest defines N.
func gradeCaseStudy(key, answer AnswerValue, maxPoints int) Result {
	steps := key.Mapping()
	if len(steps) == 0 {
		return gradeExact(key, answer, maxPoints)
	}
	submitted := answer.Mapping()

	matched := 0
	for step, want := range steps {
		if submitted[step] == want {
			matched++
		}
	}

	if matched == len(steps) {
		return Result{IsCorrect: true, PointsEarned: maxPoints, TotalPoints: maxPoints}
	}
	earned := matched
	if earned > maxPoints {
		earned = maxPoints
	}
	return Result{IsPartiallyCorrect: matched > 0, PointsEarned: earned, TotalPoints: maxPoints}
}

// gradeDosage accepts any value within ±tolerance of the stored answer.
// When either side fails numeric parsing it falls back to strict string
// equality.
func gradeDosage(key, answer AnswerValue, tolerance float64, maxPoints int) Result {
	want, okWant := key.Number()
	got, okGot := answer.Number()
	if !okWant || !okGot {
		return gradeExact(key, answer, maxPoints)
	}
	if math.Abs(got-want) <= tolerance {
		return Result{IsCorrect: true, PointsEarned: maxPoints, TotalPoints: maxPoints}
	}
	return Result{TotalPoints: maxPoints}
}

// gradeMapping compares matrix / drag-drop answers per key. Fully correct
// requires identical key sets with every value matching; otherwise partial
// credit is floor(matchingKeys/totalKeys × maxPoints) when at least one key
// matches.
func gradeMapping(key, answer AnswerValue, maxPoints int) Result {
	correct := key.Mapping()
	if len(correct) == 0 {
		return gradeExact(key, answer, maxPoints)
	}
	submitted := answer.Mapping()

	matched := 0
	for cell, want := range correct {
		if got, found := submitted[cell]; found && got == want {
			matched++
		}
	}

	if matched == len(correct) && len(submitted) == len(correct) {
		return Result{IsCorrect: true, PointsEarned: maxPoints, TotalPoints: maxPoints}
	}
	if matched > 0 {
		earned := int(math.Floor(float64(matched) / float64(len(correct)) * float64(maxPoints)))
		return Result{IsPartiallyCorrect: earned > 0, PointsEarned: earned, TotalPoints: maxPoints}
	}
	return Result{TotalPoints: maxPoints}
}

func overlapCapped(correct, submitted []string, limit int) int {
	set := toSet(correct)
	count := 0
	for _, item := range submitted {
		if set[item] {
			count++
			delete(set, item)
		}
	}
	if count > limit {
		return limit
	}
	return count
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		if item != "" {
			set[item] = true
		}
	}
	return set
}
