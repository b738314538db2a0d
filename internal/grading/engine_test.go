package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nclex_prep_backend/internal/model"
)

func question(qType model.QuestionType, key string, points int) *model.Question {
	return &model.Question{
		Type:          qType,
		CorrectAnswer: json.RawMessage(key),
		Points:        points,
	}
}

func TestGradeSingleChoice(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		submitted string
		correct   bool
		points    int
	}{
		{"exact match", `"B"`, `"B"`, true, 2},
		{"bare scalar key", `B`, `"B"`, true, 2},
		{"single element array collapses", `"B"`, `["B"]`, true, 2},
		{"wrong option", `"B"`, `"A"`, false, 0},
		{"empty submission", `"B"`, `""`, false, 0},
		{"case sensitive", `"B"`, `"b"`, false, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grade(question(model.SingleChoice, tc.key, 2), json.RawMessage(tc.submitted))
			assert.Equal(t, tc.correct, got.IsCorrect)
			assert.False(t, got.IsPartiallyCorrect)
			assert.Equal(t, tc.points, got.PointsEarned)
			assert.Equal(t, 2, got.TotalPoints)
		})
	}
}

func TestGradeSATA(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		submitted string
		correct   bool
		partial   bool
		points    int
	}{
		{"order irrelevant", `["A","C"]`, `["C","A"]`, true, false, 4},
		{"exact same order", `["A","C"]`, `["A","C"]`, true, false, 4},
		{"half overlap", `["A","C"]`, `["A","D"]`, false, true, 2},
		{"one of four", `["A","B","C","D"]`, `["A"]`, false, true, 1},
		{"no overlap", `["A","C"]`, `["B","D"]`, false, false, 0},
		{"empty submission", `["A","C"]`, `[]`, false, false, 0},
		{"duplicates do not double count", `["A","C"]`, `["A","A"]`, false, true, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grade(question(model.SATA, tc.key, 4), json.RawMessage(tc.submitted))
			assert.Equal(t, tc.correct, got.IsCorrect)
			assert.Equal(t, tc.partial, got.IsPartiallyCorrect)
			assert.Equal(t, tc.points, got.PointsEarned)
		})
	}
}

// Grading outcome must be invariant to submitted option order.
func TestGradeSATAOrderInvariance(t *testing.T) {
	q := question(model.SATA, `["A","B","C"]`, 3)
	permutations := []string{
		`["A","B","C"]`, `["A","C","B"]`, `["B","A","C"]`,
		`["B","C","A"]`, `["C","A","B"]`, `["C","B","A"]`,
	}
	for _, p := range permutations {
		got := Grade(q, json.RawMessage(p))
		assert.True(t, got.IsCorrect, "permutation %s", p)
		assert.Equal(t, 3, got.PointsEarned)
	}
}

func TestGradeSATAPartialCreditFloors(t *testing.T) {
	// 2 of 3 matched on a 5-point question: floor(2/3*5) = 3
	q := question(model.SATA, `["A","B","C"]`, 5)
	got := Grade(q, json.RawMessage(`["A","B","X"]`))
	assert.False(t, got.IsCorrect)
	assert.True(t, got.IsPartiallyCorrect)
	assert.Equal(t, 3, got.PointsEarned)
}

func TestGradeOrdering(t *testing.T) {
	q := question(model.Ordering, `["wash","glove","insert","secure"]`, 4)

	got := Grade(q, json.RawMessage(`["wash","glove","insert","secure"]`))
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 4, got.PointsEarned)

	// any other permutation is incorrect with no partial credit
	wrong := []string{
		`["glove","wash","insert","secure"]`,
		`["wash","glove","secure","insert"]`,
		`["secure","insert","glove","wash"]`,
		`["wash","glove","insert"]`,
	}
	for _, p := range wrong {
		got := Grade(q, json.RawMessage(p))
		assert.False(t, got.IsCorrect, "permutation %s", p)
		assert.False(t, got.IsPartiallyCorrect)
		assert.Zero(t, got.PointsEarned)
	}
}

func TestGradeBowtie(t *testing.T) {
	key := `{"condition":"X","findings":["F1","F2","F3"],"actions":["A1","A2"]}`

	tests := []struct {
		name      string
		submitted string
		correct   bool
		partial   bool
		points    int
	}{
		{
			"fully correct",
			`{"condition":"X","findings":["F1","F2"],"actions":["A1","A2"]}`,
			true, false, 5,
		},
		{
			// spec scenario 2: 1 (condition) + 2 (findings) + 1 (action) = 4
			"four of five",
			`{"condition":"X","findings":["F1","F2"],"actions":["A1"]}`,
			false, true, 4,
		},
		{
			"findings capped at two",
			`{"condition":"Y","findings":["F1","F2","F3"],"actions":[]}`,
			false, true, 2,
		},
		{
			"nothing right",
			`{"condition":"Z","findings":["Q"],"actions":["R"]}`,
			false, false, 0,
		},
		{
			"empty submission",
			`{}`,
			false, false, 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grade(question(model.Bowtie, key, 5), json.RawMessage(tc.submitted))
			assert.Equal(t, tc.correct, got.IsCorrect)
			assert.Equal(t, tc.partial, got.IsPartiallyCorrect)
			assert.Equal(t, tc.points, got.PointsEarned)
			assert.GreaterOrEqual(t, got.PointsEarned, 0)
			assert.LessOrEqual(t, got.PointsEarned, 5)
		})
	}
}

func TestGradeCaseStudy(t *testing.T) {
	key := `{"step1":"B","step2":"A","step3":"D"}`

	got := Grade(question(model.CaseStudy, key, 3), json.RawMessage(`{"step1":"B","step2":"A","step3":"D"}`))
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 3, got.PointsEarned)

	got = Grade(question(model.CaseStudy, key, 3), json.RawMessage(`{"step1":"B","step2":"C","step3":"D"}`))
	assert.False(t, got.IsCorrect)
	assert.True(t, got.IsPartiallyCorrect)
	assert.Equal(t, 2, got.PointsEarned)

	got = Grade(question(model.CaseStudy, key, 3), json.RawMessage(`{"step1":"C"}`))
	assert.False(t, got.IsCorrect)
	assert.False(t, got.IsPartiallyCorrect)
	assert.Zero(t, got.PointsEarned)
}

func TestGradeDosage(t *testing.T) {
	q := question(model.DosageCalc, `50`, 1)
	q.Tolerance = 2

	tests := []struct {
		name      string
		submitted string
		correct   bool
	}{
		{"exact", `50`, true},
		{"within tolerance", `51.5`, true}, // spec scenario 3
		{"at upper bound", `52`, true},
		{"at lower bound", `48`, true},
		{"just above bound", `52.001`, false},
		{"just below bound", `47.999`, false},
		{"string number", `"50"`, true},
		{"non-numeric falls back to string equality", `"fifty"`, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grade(q, json.RawMessage(tc.submitted))
			assert.Equal(t, tc.correct, got.IsCorrect, tc.submitted)
		})
	}
}

func TestGradeDosageStringFallback(t *testing.T) {
	// non-numeric key: tolerance cannot apply, strict equality instead
	q := question(model.DosageCalc, `"1 tablet"`, 1)
	q.Tolerance = 2

	got := Grade(q, json.RawMessage(`"1 tablet"`))
	assert.True(t, got.IsCorrect)

	got = Grade(q, json.RawMessage(`"2 tablets"`))
	assert.False(t, got.IsCorrect)
}

func TestGradeMatrix(t *testing.T) {
	key := `{"row1":"indicated","row2":"contraindicated","row3":"indicated"}`

	tests := []struct {
		name      string
		submitted string
		correct   bool
		partial   bool
		points    int
	}{
		{"all cells match", `{"row1":"indicated","row2":"contraindicated","row3":"indicated"}`, true, false, 3},
		{"two of three", `{"row1":"indicated","row2":"indicated","row3":"indicated"}`, false, true, 2},
		{"one of three", `{"row1":"indicated","row2":"indicated","row3":"contraindicated"}`, false, true, 1},
		{"none match", `{"row1":"contraindicated","row2":"indicated","row3":"contraindicated"}`, false, false, 0},
		{"missing rows earn credit only for matched rows", `{"row1":"indicated"}`, false, true, 1},
		{"extra rows block full credit", `{"row1":"indicated","row2":"contraindicated","row3":"indicated","row4":"x"}`, false, true, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grade(question(model.Matrix, key, 3), json.RawMessage(tc.submitted))
			assert.Equal(t, tc.correct, got.IsCorrect)
			assert.Equal(t, tc.partial, got.IsPartiallyCorrect)
			assert.Equal(t, tc.points, got.PointsEarned)
		})
	}
}

func TestGradeDragDropSetCells(t *testing.T) {
	// drag-drop buckets hold option sets; cell order must not matter
	key := `{"bucket1":["a","b"],"bucket2":["c"]}`
	q := question(model.DragDrop, key, 2)

	got := Grade(q, json.RawMessage(`{"bucket1":["b","a"],"bucket2":["c"]}`))
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 2, got.PointsEarned)

	got = Grade(q, json.RawMessage(`{"bucket1":["a"],"bucket2":["c"]}`))
	assert.False(t, got.IsCorrect)
	assert.True(t, got.IsPartiallyCorrect)
	assert.Equal(t, 1, got.PointsEarned)
}

func TestGradeUnknownTypeDefaultsToExact(t *testing.T) {
	q := question(model.QuestionType("hotspot"), `"B"`, 1)

	got := Grade(q, json.RawMessage(`"B"`))
	assert.True(t, got.IsCorrect)

	got = Grade(q, json.RawMessage(`"A"`))
	assert.False(t, got.IsCorrect)
}

func TestGradeMalformedKeyNeverPanics(t *testing.T) {
	keys := []string{`{"broken`, `B`, ``, `[1,`, `null`, `{"a":{"b":{"c":1}}}`}
	for _, key := range keys {
		for _, qType := range []model.QuestionType{
			model.SingleChoice, model.SATA, model.Ordering, model.Bowtie,
			model.CaseStudy, model.DosageCalc, model.Matrix, model.DragDrop,
		} {
			require.NotPanics(t, func() {
				Grade(question(qType, key, 2), json.RawMessage(`"B"`))
			}, "type=%s key=%q", qType, key)
		}
	}
}

// Legacy rows store the key as a bare option letter rather than JSON.
func TestGradeLegacyScalarKey(t *testing.T) {
	got := Grade(question(model.SingleChoice, `C`, 1), json.RawMessage(`"C"`))
	assert.True(t, got.IsCorrect)
	assert.Equal(t, 1, got.PointsEarned)
}

func TestGradeZeroPointQuestionDefaultsToOne(t *testing.T) {
	got := Grade(question(model.SingleChoice, `"A"`, 0), json.RawMessage(`"A"`))
	assert.Equal(t, 1, got.PointsEarned)
	assert.Equal(t, 1, got.TotalPoints)
}

func TestGradePointsNeverExceedMax(t *testing.T) {
	// 6-step case study on a 4-point question: matches clamp at max
	key := `{"s1":"a","s2":"b","s3":"c","s4":"d","s5":"e","s6":"f"}`
	q := question(model.CaseStudy, key, 4)
	got := Grade(q, json.RawMessage(`{"s1":"a","s2":"b","s3":"c","s4":"d","s5":"e","s6":"x"}`))
	assert.False(t, got.IsCorrect)
	assert.Equal(t, 4, got.PointsEarned)
	assert.LessOrEqual(t, got.PointsEarned, got.TotalPoints)
}
