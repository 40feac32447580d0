// Package allocator selects the questions of a test plan from the question
// bank according to a DistributionSpec.
package allocator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// Pool is the read-only view of the question bank the allocator needs.
type Pool interface {
	FindQuestions(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error)
}

// Allocator draws questions from a Pool.
type Allocator struct {
	pool Pool

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates an Allocator. A nil rng seeds a fresh PCG source.
func New(pool Pool, rng *rand.Rand) *Allocator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Allocator{pool: pool, rng: rng}
}

// Allocate selects spec.Total() distinct active questions within the topic
// and subtopic scope of cfg and returns them in random order.
//
// Any bucket that cannot be filled fails the whole allocation with an
// *apperror.InsufficientQuestionsError; no partial result is returned.
func (a *Allocator) Allocate(ctx context.Context, cfg model.TestPlanConfiguration, spec DistributionSpec) ([]model.QuestionSnapshot, error) {
	total := spec.Total()
	if total <= 0 {
		return nil, apperror.Validation("total_questions", "must be positive")
	}

	_, byTopic := spec.(ByTopic)
	balance := len(cfg.Topics) > 1 && !byTopic

	seen := make(map[identity.ID]struct{}, total)
	selected := make([]model.Question, 0, total)
	rotation := 0

	for _, b := range spec.Buckets() {
		if b.Count == 0 {
			continue
		}

		candidates, err := a.pool.FindQuestions(ctx, bucketFilter(cfg, b))
		if err != nil {
			return nil, fmt.Errorf("find questions for %s: %w", b.Label, err)
		}
		candidates = unseen(candidates, seen)

		if len(candidates) < b.Count {
			return nil, &apperror.InsufficientQuestionsError{
				Bucket: b.Label,
				Found:  len(candidates),
				Needed: b.Count,
			}
		}

		a.shuffle(candidates)

		var picked []model.Question
		if balance {
			picked = roundRobinByTopic(candidates, cfg.Topics, b.Count, rotation)
			rotation++
		} else {
			picked = candidates[:b.Count]
		}

		for _, q := range picked {
			seen[q.ID] = struct{}{}
		}
		selected = append(selected, picked...)
	}

	if len(selected) != total {
		return nil, &apperror.InsufficientQuestionsError{Found: len(selected), Needed: total}
	}

	if balance {
		selected = a.balanceTopics(selected, len(cfg.Topics), total)
	}

	a.shuffle(selected)

	snapshots := make([]model.QuestionSnapshot, len(selected))
	for i := range selected {
		snapshots[i] = selected[i].Snapshot()
	}
	return snapshots, nil
}

func bucketFilter(cfg model.TestPlanConfiguration, b Bucket) model.QuestionFilter {
	filter := model.QuestionFilter{
		TopicIDs:    cfg.Topics,
		SubtopicIDs: cfg.Subtopics,
		ActiveOnly:  true,
	}
	if b.Difficulty != 0 {
		d := b.Difficulty
		filter.Difficulty = &d
	}
	if b.TopicID != 0 {
		filter.TopicIDs = []identity.ID{b.TopicID}
	}
	return filter
}

func unseen(questions []model.Question, seen map[identity.ID]struct{}) []model.Question {
	out := make([]model.Question, 0, len(questions))
	dup := make(map[identity.ID]struct{}, len(questions))
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		if _, ok := dup[q.ID]; ok {
			continue
		}
		dup[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// roundRobinByTopic takes n questions from already shuffled candidates,
// cycling over topics so no topic dominates a bucket. rotation shifts which
// topic goes first so leftovers spread across buckets.
func roundRobinByTopic(candidates []model.Question, topics []identity.ID, n, rotation int) []model.Question {
	groups := make(map[identity.ID][]model.Question, len(topics))
	var others []model.Question
	known := make(map[identity.ID]struct{}, len(topics))
	for _, t := range topics {
		known[t] = struct{}{}
	}
	for _, q := range candidates {
		if _, ok := known[q.TopicID]; ok {
			groups[q.TopicID] = append(groups[q.TopicID], q)
		} else {
			others = append(others, q)
		}
	}

	picked := make([]model.Question, 0, n)
	for len(picked) < n {
		progressed := false
		for i := range topics {
			if len(picked) == n {
				break
			}
			t := topics[(i+rotation)%len(topics)]
			if g := groups[t]; len(g) > 0 {
				picked = append(picked, g[0])
				groups[t] = g[1:]
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	for len(picked) < n && len(others) > 0 {
		picked = append(picked, others[0])
		others = others[1:]
	}
	return picked
}

// balanceTopics caps every topic at ceil(len/topicCount) questions and
// truncates to total. Capped-out questions refill the set when the cap left
// it short, so the result always holds exactly total questions.
func (a *Allocator) balanceTopics(selected []model.Question, topicCount, total int) []model.Question {
	perTopic := (len(selected) + topicCount - 1) / topicCount

	kept := make([]model.Question, 0, len(selected))
	var overflow []model.Question
	perTopicKept := make(map[identity.ID]int, topicCount)

	a.shuffle(selected)
	for _, q := range selected {
		if perTopicKept[q.TopicID] < perTopic {
			perTopicKept[q.TopicID]++
			kept = append(kept, q)
			continue
		}
		overflow = append(overflow, q)
	}

	if len(kept) > total {
		kept = kept[:total]
	}
	for i := 0; len(kept) < total && i < len(overflow); i++ {
		kept = append(kept, overflow[i])
	}
	return kept
}

func (a *Allocator) shuffle(questions []model.Question) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rng.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
}
