package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedAnswerJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  AnswerKind
		empty bool
	}{
		{"string", `"b"`, AnswerSingle, false},
		{"blank string", `"  "`, AnswerSingle, true},
		{"list", `["a","c"]`, AnswerMulti, false},
		{"empty list", `[]`, AnswerMulti, true},
		{"null", `null`, AnswerNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a SelectedAnswer
			require.NoError(t, json.Unmarshal([]byte(tt.input), &a))
			assert.Equal(t, tt.kind, a.Kind())
			assert.Equal(t, tt.empty, a.IsEmpty())

			out, err := json.Marshal(a)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}
}

func TestSelectedAnswerRejectsOtherShapes(t *testing.T) {
	for _, input := range []string{`1`, `true`, `{"a":1}`, `[1,2]`} {
		var a SelectedAnswer
		assert.Error(t, json.Unmarshal([]byte(input), &a), input)
	}
}

func TestSelectedAnswerInsideAnswer(t *testing.T) {
	var answer Answer
	require.NoError(t, json.Unmarshal([]byte(`{"questionId":"q1","selectedAnswer":["x"]}`), &answer))
	values, ok := answer.SelectedAnswer.Multi()
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, values)

	var missing Answer
	require.NoError(t, json.Unmarshal([]byte(`{"questionId":"q1"}`), &missing))
	assert.True(t, missing.SelectedAnswer.IsEmpty())
}

func TestMultiAnswerCopiesInput(t *testing.T) {
	in := []string{"a", "b"}
	a := MultiAnswer(in...)
	in[0] = "z"

	values, _ := a.Multi()
	assert.Equal(t, []string{"a", "b"}, values)
	values[1] = "z"
	again, _ := a.Multi()
	assert.Equal(t, []string{"a", "b"}, again)
}
