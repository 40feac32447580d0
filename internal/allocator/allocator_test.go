package allocator

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ---------------- in-memory question pool ---------------- */

type memoryPool struct {
	questions []model.Question
	calls     []model.QuestionFilter
	err       error
}

func (p *memoryPool) FindQuestions(_ context.Context, f model.QuestionFilter) ([]model.Question, error) {
	p.calls = append(p.calls, f)
	if p.err != nil {
		return nil, p.err
	}

	// Topics that have at least one configured subtopic.
	restricted := map[identity.ID]bool{}
	for _, q := range p.questions {
		if slices.Contains(f.SubtopicIDs, q.SubtopicID) {
			restricted[q.TopicID] = true
		}
	}

	var out []model.Question
	for _, q := range p.questions {
		if f.ActiveOnly && !q.Active {
			continue
		}
		if f.Difficulty != nil && q.Difficulty != *f.Difficulty {
			continue
		}
		if len(f.TopicIDs) > 0 && !slices.Contains(f.TopicIDs, q.TopicID) {
			continue
		}
		if restricted[q.TopicID] && !slices.Contains(f.SubtopicIDs, q.SubtopicID) {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// addQuestions appends n active questions for every (topic, difficulty) pair.
func (p *memoryPool) addQuestions(n int, topics []identity.ID, difficulties []int) {
	for _, t := range topics {
		for _, d := range difficulties {
			for i := 0; i < n; i++ {
				id := identity.ID(len(p.questions) + 1)
				p.questions = append(p.questions, model.Question{
					ID:           id,
					TopicID:      t,
					SubtopicID:   t*100 + identity.ID(d),
					QuestionText: "q" + id.String(),
					Options: []model.Option{
						{Text: "right", IsCorrect: true},
						{Text: "wrong"},
					},
					Difficulty: d,
					Active:     true,
				})
			}
		}
	}
}

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func ids(snaps []model.QuestionSnapshot) []identity.ID {
	out := make([]identity.ID, len(snaps))
	for i, s := range snaps {
		out[i] = s.QuestionID
	}
	return out
}

func assertUnique(t *testing.T, snaps []model.QuestionSnapshot) {
	t.Helper()
	seen := map[identity.ID]bool{}
	for _, s := range snaps {
		assert.False(t, seen[s.QuestionID], "question %s selected twice", s.QuestionID)
		seen[s.QuestionID] = true
	}
}

/* ---------------- tests ---------------- */

func TestAllocate_EvenSplitCompleteness(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(10, []identity.ID{1}, []int{1, 2, 3})

	cfg := model.TestPlanConfiguration{Topics: []identity.ID{1}, TotalQuestions: 13}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	got, err := New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	require.NoError(t, err)
	require.Len(t, got, 13)
	assertUnique(t, got)

	perTier := map[int]int{}
	for _, s := range got {
		perTier[s.Difficulty]++
	}
	assert.Equal(t, map[int]int{1: 5, 2: 4, 3: 4}, perTier)
}

func TestAllocate_ByDifficulty(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(6, []identity.ID{1}, []int{1, 2, 3, 4, 5})

	cfg := model.TestPlanConfiguration{
		Topics:         []identity.ID{1},
		QuestionCounts: map[string]int{"EASY": 2, "hard": 3, "5": 1},
	}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	got, err := New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	require.NoError(t, err)
	require.Len(t, got, 6)

	perTier := map[int]int{}
	for _, s := range got {
		perTier[s.Difficulty]++
	}
	assert.Equal(t, map[int]int{1: 2, 3: 3, 5: 1}, perTier)
}

func TestAllocate_ByTopic(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(3, []identity.ID{7, 8}, []int{1, 2})

	cfg := model.TestPlanConfiguration{
		Topics:         []identity.ID{7, 8},
		QuestionCounts: map[string]int{"7": 5, "8": 1},
	}
	spec, err := Resolve(cfg)
	require.NoError(t, err)
	require.IsType(t, ByTopic{}, spec)

	got, err := New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	require.NoError(t, err)
	require.Len(t, got, 6)
	assertUnique(t, got)

	perTopic := map[identity.ID]int{}
	for _, s := range got {
		perTopic[s.TopicID]++
	}
	assert.Equal(t, map[identity.ID]int{7: 5, 8: 1}, perTopic)
}

func TestAllocate_TopicBalance(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(10, []identity.ID{1, 2, 3}, []int{1, 2, 3})

	cfg := model.TestPlanConfiguration{Topics: []identity.ID{1, 2, 3}, TotalQuestions: 12}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	for seed := uint64(0); seed < 20; seed++ {
		got, err := New(pool, rand.New(rand.NewPCG(seed, seed))).Allocate(context.Background(), cfg, spec)
		require.NoError(t, err)
		require.Len(t, got, 12)
		assertUnique(t, got)

		perTopic := map[identity.ID]int{}
		for _, s := range got {
			perTopic[s.TopicID]++
		}
		for topic, n := range perTopic {
			assert.LessOrEqual(t, n, 4, "topic %s dominates with seed %d", topic, seed)
		}
	}
}

func TestAllocate_MultipleSubtopics(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(4, []identity.ID{1, 2}, []int{1, 2, 3})

	// 101 and 103 belong to topic 1; topic 2 has no configured subtopic.
	cfg := model.TestPlanConfiguration{
		Topics:         []identity.ID{1, 2},
		Subtopics:      []identity.ID{101, 103},
		QuestionCounts: map[string]int{"1": 8, "2": 3},
	}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	got, err := New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	require.NoError(t, err)
	require.Len(t, got, 11)

	for _, s := range got {
		if s.TopicID == 1 {
			assert.Contains(t, []identity.ID{101, 103}, s.SubtopicID)
		}
	}
}

func TestAllocate_InsufficientBucketFailsWhole(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(5, []identity.ID{1}, []int{1, 2})
	pool.addQuestions(3, []identity.ID{1}, []int{3})

	cfg := model.TestPlanConfiguration{Topics: []identity.ID{1}, TotalQuestions: 12}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	got, err := New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	assert.Nil(t, got)

	var insufficient *apperror.InsufficientQuestionsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 3, insufficient.Found)
	assert.Equal(t, 4, insufficient.Needed)
	assert.Equal(t, "difficulty 3", insufficient.Bucket)
}

func TestAllocate_IgnoresInactive(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(2, []identity.ID{1}, []int{1})
	pool.questions[0].Active = false

	cfg := model.TestPlanConfiguration{QuestionCounts: map[string]int{"EASY": 2}}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	_, err = New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	var insufficient *apperror.InsufficientQuestionsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Found)
}

func TestAllocate_PoolErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	pool := &memoryPool{err: boom}

	cfg := model.TestPlanConfiguration{TotalQuestions: 3}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	_, err = New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	assert.ErrorIs(t, err, boom)
}

func TestAllocate_ShufflesFinalOrder(t *testing.T) {
	pool := &memoryPool{}
	pool.addQuestions(20, []identity.ID{1}, []int{1, 2, 3})

	cfg := model.TestPlanConfiguration{TotalQuestions: 30}
	spec, err := Resolve(cfg)
	require.NoError(t, err)

	got, err := New(pool, seeded()).Allocate(context.Background(), cfg, spec)
	require.NoError(t, err)

	// Grouped output would have non-decreasing difficulty.
	sorted := slices.IsSortedFunc(got, func(a, b model.QuestionSnapshot) int {
		return a.Difficulty - b.Difficulty
	})
	assert.False(t, sorted, "final order still grouped by difficulty: %v", ids(got))
}
