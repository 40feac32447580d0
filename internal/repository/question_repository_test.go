package repository

import (
	"testing"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "fraction", want: `%fraction%`},
		{in: "50%", want: `%50\%%`},
		{in: "x_1", want: `%x\_1%`},
		{in: `a\b`, want: `%a\\b%`},
		{in: `%_\`, want: `%\%\_\\%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.in), tt.in)
	}
}

func TestQuestionWhere_SearchIsLiteral(t *testing.T) {
	where, args := questionWhere(model.QuestionFilter{ActiveOnly: true, Search: "  100%  "})

	assert.Equal(t, ` WHERE q.active AND q.question_text ILIKE $1 ESCAPE '\'`, where)
	require.Len(t, args, 1)
	assert.Equal(t, `%100\%%`, args[0])
}

func TestQuestionWhere_Empty(t *testing.T) {
	where, args := questionWhere(model.QuestionFilter{Search: "   "})
	assert.Empty(t, where)
	assert.Empty(t, args)
}
