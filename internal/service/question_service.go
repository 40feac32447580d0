package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/allocator"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/response"
	"github.com/rs/zerolog"
)

// QuestionStore persists the question bank. *repository.QuestionRepository
// implements it.
type QuestionStore interface {
	ListPaginated(ctx context.Context, f model.QuestionFilter, limit, page int) ([]model.Question, int, error)
	GetByID(ctx context.Context, id identity.ID) (*model.Question, error)
	Create(ctx context.Context, q *model.Question) error
	Update(ctx context.Context, q *model.Question) error
	Deactivate(ctx context.Context, id identity.ID) error
}

// SubtopicGetter loads one subtopic.
type SubtopicGetter interface {
	GetSubtopic(ctx context.Context, id identity.ID) (*model.Subtopic, error)
}

// QuestionService handles question bank business logic.
type QuestionService struct {
	questions QuestionStore
	subtopics SubtopicGetter
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questions QuestionStore, subtopics SubtopicGetter, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: questions,
		subtopics: subtopics,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// List retrieves questions with pagination. Inactive questions are hidden
// unless asked for.
func (s *QuestionService) List(ctx context.Context, q model.QuestionListQuery) ([]model.Question, *response.Pagination, error) {
	page, perPage := pageBounds(q.Page, q.PerPage)

	filter := model.QuestionFilter{ActiveOnly: !q.IncludeInactive, Search: q.Search}
	if q.TopicID != "" {
		id, err := identity.Parse("topic_id", q.TopicID)
		if err != nil {
			return nil, nil, err
		}
		filter.TopicIDs = []identity.ID{id}
	}
	if q.SubtopicID != "" {
		id, err := identity.Parse("subtopic_id", q.SubtopicID)
		if err != nil {
			return nil, nil, err
		}
		filter.SubtopicIDs = []identity.ID{id}
		// A subtopic filter only narrows its own topic, so pin that topic.
		if len(filter.TopicIDs) == 0 {
			sub, err := s.subtopics.GetSubtopic(ctx, id)
			if err != nil {
				return nil, nil, err
			}
			filter.TopicIDs = []identity.ID{sub.TopicID}
		}
	}
	if q.Difficulty != "" {
		d, ok := allocator.ParseDifficulty(q.Difficulty)
		if !ok {
			return nil, nil, apperror.Validation("difficulty", "must be EASY, MEDIUM, HARD or a level from 1 to 5")
		}
		filter.Difficulty = &d
	}

	questions, total, err := s.questions.ListPaginated(ctx, filter, perPage, page)
	if err != nil {
		return nil, nil, err
	}
	return questions, response.NewPagination(page, perPage, total), nil
}

// Get retrieves a question by ID.
func (s *QuestionService) Get(ctx context.Context, id identity.ID) (*model.Question, error) {
	return s.questions.GetByID(ctx, id)
}

// Create adds a question to the bank.
func (s *QuestionService) Create(ctx context.Context, actor Actor, req model.QuestionRequest) (*model.Question, error) {
	q, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	q.CreatedBy = actor.ID
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, err
	}
	s.log.Info().Str("question_id", q.ID.String()).Int("difficulty", q.Difficulty).Msg("Question created")
	return q, nil
}

// Update replaces a question. Snapshots already taken are not affected.
func (s *QuestionService) Update(ctx context.Context, id identity.ID, req model.QuestionRequest) (*model.Question, error) {
	existing, err := s.questions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	q, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	q.ID = id
	if req.Active == nil {
		q.Active = existing.Active
	}
	if err := s.questions.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Deactivate hides a question from future allocations. Questions are never
// hard-deleted since executions reference them by snapshot.
func (s *QuestionService) Deactivate(ctx context.Context, id identity.ID) error {
	if err := s.questions.Deactivate(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("question_id", id.String()).Msg("Question deactivated")
	return nil
}

func (s *QuestionService) build(ctx context.Context, req model.QuestionRequest) (*model.Question, error) {
	topicID, err := identity.Parse("topic_id", req.TopicID)
	if err != nil {
		return nil, err
	}
	subtopicID, err := identity.Parse("subtopic_id", req.SubtopicID)
	if err != nil {
		return nil, err
	}
	if req.Difficulty < model.MinDifficulty || req.Difficulty > model.MaxDifficulty {
		return nil, apperror.Validation("difficulty", fmt.Sprintf("must be between %d and %d", model.MinDifficulty, model.MaxDifficulty))
	}

	options := make([]model.Option, len(req.Options))
	correct := 0
	for i, o := range req.Options {
		options[i] = model.Option{Text: o.Text, IsCorrect: o.IsCorrect}
		if o.IsCorrect {
			correct++
		}
	}
	switch {
	case len(options) == 0 && req.CorrectAnswer == "":
		return nil, apperror.Validation("correct_answer", "is required when no options are given")
	case len(options) > 0 && correct == 0 && req.CorrectAnswer == "":
		return nil, apperror.Validation("options", "must flag at least one correct option")
	}

	st, err := s.subtopics.GetSubtopic(ctx, subtopicID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Validation("subtopic_id", "does not exist")
		}
		return nil, err
	}
	if st.TopicID != topicID {
		return nil, apperror.Validation("subtopic_id", "does not belong to topic_id")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &model.Question{
		TopicID:       topicID,
		SubtopicID:    subtopicID,
		QuestionText:  req.QuestionText,
		Options:       options,
		CorrectAnswer: req.CorrectAnswer,
		Difficulty:    req.Difficulty,
		Active:        active,
	}, nil
}

// pageBounds clamps a page request to sane values.
func pageBounds(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
