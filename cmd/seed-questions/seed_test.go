package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed, err := decodeSeed(bytes.NewReader(defaultSeed))
	require.NoError(t, err)
	require.NotEmpty(t, seed.Subjects)

	for _, subj := range seed.Subjects {
		for _, topic := range subj.Topics {
			for _, sub := range topic.Subtopics {
				difficulties := map[int]int{}
				for _, q := range sub.Questions {
					name := subj.Name + "/" + topic.Name + "/" + sub.Name + ": " + q.Text
					assert.GreaterOrEqual(t, q.Difficulty, 1, name)
					assert.LessOrEqual(t, q.Difficulty, 5, name)
					difficulties[q.Difficulty]++

					if len(q.Options) == 0 {
						assert.NotEmpty(t, q.Answer, name)
						continue
					}
					correct := 0
					for _, o := range q.Options {
						if o.Correct {
							correct++
						}
					}
					assert.Equal(t, 1, correct, name)
				}
				// Even splits over three tiers need every tier stocked.
				for d := 1; d <= 3; d++ {
					assert.Positive(t, difficulties[d], "%s/%s difficulty %d", topic.Name, sub.Name, d)
				}
			}
		}
	}
}

func TestDecodeSeed_RejectsUnknownKeys(t *testing.T) {
	_, err := decodeSeed(strings.NewReader(`
subjects:
  - name: Maths
    topics:
      - name: Arithmetic
        subtopics:
          - name: Addition
            questions:
              - text: "1 + 1"
                difficulty: 1
                anwser: "2"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anwser")
}

func TestSeedQuestion_Request(t *testing.T) {
	q := seedQuestion{
		Text:       "Which fraction equals 1/2?",
		Difficulty: 1,
		Options:    []seedOption{{Text: "2/4", Correct: true}, {Text: "2/3"}},
	}

	req := q.request(10, 20)
	topicID, err := identity.Parse("topic_id", req.TopicID)
	require.NoError(t, err)
	subtopicID, err := identity.Parse("subtopic_id", req.SubtopicID)
	require.NoError(t, err)
	assert.Equal(t, identity.ID(10), topicID)
	assert.Equal(t, identity.ID(20), subtopicID)
	require.Len(t, req.Options, 2)
	assert.True(t, req.Options[0].IsCorrect)
	assert.False(t, req.Options[1].IsCorrect)
	assert.Empty(t, req.CorrectAnswer)
}
