package allocator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// DefaultTiers is the number of difficulty tiers used by an even split when
// the configuration does not name one.
const DefaultTiers = 3

// difficultyLabels maps the named difficulty labels to tiers.
var difficultyLabels = map[string]int{
	"EASY":   1,
	"MEDIUM": 2,
	"HARD":   3,
}

// DistributionSpec is the resolved, typed form of a plan's requested
// question counts. It is one of ByTopic, ByDifficulty or EvenSplit.
type DistributionSpec interface {
	// Buckets lists the buckets in a deterministic order.
	Buckets() []Bucket
	// Total is the number of questions requested.
	Total() int
}

// Bucket is one group of questions sharing a discriminator.
type Bucket struct {
	Label      string
	Difficulty int         // 0 when the bucket is keyed by topic
	TopicID    identity.ID // 0 when the bucket is keyed by difficulty
	Count      int
}

// ByTopic asks for an explicit number of questions per topic.
type ByTopic struct {
	Counts map[identity.ID]int
}

// ByDifficulty asks for an explicit number of questions per difficulty tier.
type ByDifficulty struct {
	Counts map[int]int
}

// EvenSplit spreads Total questions across tiers 1..Tiers.
type EvenSplit struct {
	Questions int
	Tiers     int
}

func (s ByTopic) Buckets() []Bucket {
	ids := make([]identity.ID, 0, len(s.Counts))
	for id := range s.Counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	buckets := make([]Bucket, 0, len(ids))
	for _, id := range ids {
		buckets = append(buckets, Bucket{
			Label:   "topic " + id.String(),
			TopicID: id,
			Count:   s.Counts[id],
		})
	}
	return buckets
}

func (s ByTopic) Total() int { return sumCounts(s.Counts) }

func (s ByDifficulty) Buckets() []Bucket { return difficultyBuckets(s.Counts) }

func (s ByDifficulty) Total() int { return sumCounts(s.Counts) }

func (s EvenSplit) Buckets() []Bucket {
	counts, err := Distribute(s.Questions, s.Tiers)
	if err != nil {
		return nil
	}
	return difficultyBuckets(counts)
}

func (s EvenSplit) Total() int { return s.Questions }

func difficultyBuckets(counts map[int]int) []Bucket {
	tiers := make([]int, 0, len(counts))
	for tier := range counts {
		tiers = append(tiers, tier)
	}
	sort.Ints(tiers)

	buckets := make([]Bucket, 0, len(tiers))
	for _, tier := range tiers {
		buckets = append(buckets, Bucket{
			Label:      "difficulty " + strconv.Itoa(tier),
			Difficulty: tier,
			Count:      counts[tier],
		})
	}
	return buckets
}

func sumCounts[K comparable](counts map[K]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// Distribute splits total across tiers 1..n. The first total%n tiers, in
// ascending order, receive one extra question.
func Distribute(total, n int) (map[int]int, error) {
	if n < model.MinDifficulty || n > model.MaxDifficulty {
		return nil, apperror.Validation("difficulty_tiers", fmt.Sprintf("must be between %d and %d", model.MinDifficulty, model.MaxDifficulty))
	}
	if total < 0 {
		return nil, apperror.Validation("total_questions", "must not be negative")
	}

	base := total / n
	remainder := total % n

	counts := make(map[int]int, n)
	for tier := 1; tier <= n; tier++ {
		counts[tier] = base
		if tier <= remainder {
			counts[tier]++
		}
	}
	return counts, nil
}

// Resolve turns a configuration's polymorphic counts into a DistributionSpec.
// First match wins:
//  1. every key is a topic id listed in cfg.Topics: ByTopic
//  2. every key is a difficulty label or numeric tier: ByDifficulty
//  3. otherwise: EvenSplit of the summed counts (or TotalQuestions when no
//     counts are given) across cfg.DifficultyTiers tiers.
func Resolve(cfg model.TestPlanConfiguration) (DistributionSpec, error) {
	tiers := cfg.DifficultyTiers
	if tiers == 0 {
		tiers = DefaultTiers
	}
	if tiers < model.MinDifficulty || tiers > model.MaxDifficulty {
		return nil, apperror.Validation("difficulty_tiers", fmt.Sprintf("must be between %d and %d", model.MinDifficulty, model.MaxDifficulty))
	}

	if len(cfg.QuestionCounts) == 0 {
		if cfg.TotalQuestions <= 0 {
			return nil, apperror.Validation("total_questions", "must be positive when question_counts is empty")
		}
		return EvenSplit{Questions: cfg.TotalQuestions, Tiers: tiers}, nil
	}

	total := 0
	for key, n := range cfg.QuestionCounts {
		if n < 0 {
			return nil, apperror.Validation("question_counts."+key, "must not be negative")
		}
		total += n
	}
	if total == 0 {
		return nil, apperror.Validation("question_counts", "must request at least one question")
	}
	if cfg.TotalQuestions != 0 && cfg.TotalQuestions != total {
		return nil, apperror.Validation("question_counts", fmt.Sprintf("sum %d does not match total_questions %d", total, cfg.TotalQuestions))
	}

	if counts, ok := topicCounts(cfg); ok {
		return ByTopic{Counts: counts}, nil
	}

	counts, ok, err := difficultyCounts(cfg.QuestionCounts)
	if err != nil {
		return nil, err
	}
	if ok {
		return ByDifficulty{Counts: counts}, nil
	}

	return EvenSplit{Questions: total, Tiers: tiers}, nil
}

func topicCounts(cfg model.TestPlanConfiguration) (map[identity.ID]int, bool) {
	if len(cfg.Topics) == 0 {
		return nil, false
	}
	topics := make(map[identity.ID]struct{}, len(cfg.Topics))
	for _, t := range cfg.Topics {
		topics[t] = struct{}{}
	}

	counts := make(map[identity.ID]int, len(cfg.QuestionCounts))
	for key, n := range cfg.QuestionCounts {
		id, err := identity.Parse("question_counts", key)
		if err != nil {
			return nil, false
		}
		if _, ok := topics[id]; !ok {
			return nil, false
		}
		counts[id] += n
	}
	return counts, true
}

// difficultyCounts normalises label or numeric keys. ok is false when any
// key is not a difficulty; err is set when two keys name the same tier.
func difficultyCounts(raw map[string]int) (map[int]int, bool, error) {
	counts := make(map[int]int, len(raw))
	for key, n := range raw {
		tier, ok := ParseDifficulty(key)
		if !ok {
			return nil, false, nil
		}
		if _, dup := counts[tier]; dup {
			return nil, false, apperror.Validation("question_counts."+key, fmt.Sprintf("difficulty %d is listed twice", tier))
		}
		counts[tier] = n
	}
	return counts, true, nil
}

// ParseDifficulty maps EASY/MEDIUM/HARD (any case) or "1".."5" to a tier.
func ParseDifficulty(key string) (int, bool) {
	key = strings.TrimSpace(key)
	if tier, ok := difficultyLabels[strings.ToUpper(key)]; ok {
		return tier, true
	}
	tier, err := strconv.Atoi(key)
	if err != nil || tier < model.MinDifficulty || tier > model.MaxDifficulty {
		return 0, false
	}
	return tier, true
}
