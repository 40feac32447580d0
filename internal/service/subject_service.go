package service

import (
	"context"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/repository"
	"github.com/rs/zerolog"
)

// SubjectService manages the subject -> topic -> subtopic hierarchy.
type SubjectService struct {
	subjectRepo *repository.SubjectRepository
	log         zerolog.Logger
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjectRepo: subjectRepo,
		log:         log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return s.subjectRepo.ListSubjects(ctx)
}

func (s *SubjectService) GetSubject(ctx context.Context, id identity.ID) (*model.Subject, error) {
	return s.subjectRepo.GetSubject(ctx, id)
}

func (s *SubjectService) CreateSubject(ctx context.Context, req model.SubjectRequest) (*model.Subject, error) {
	sub := &model.Subject{Name: req.Name, Description: req.Description}
	if err := s.subjectRepo.CreateSubject(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info().Str("subject_id", sub.ID.String()).Msg("Subject created")
	return sub, nil
}

func (s *SubjectService) UpdateSubject(ctx context.Context, id identity.ID, req model.SubjectRequest) (*model.Subject, error) {
	sub := &model.Subject{ID: id, Name: req.Name, Description: req.Description}
	if err := s.subjectRepo.UpdateSubject(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubjectService) DeleteSubject(ctx context.Context, id identity.ID) error {
	return s.subjectRepo.DeleteSubject(ctx, id)
}

// ListTopics returns the topics of a subject. A missing subject is NotFound
// rather than an empty list.
func (s *SubjectService) ListTopics(ctx context.Context, subjectID identity.ID) ([]model.Topic, error) {
	if _, err := s.subjectRepo.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.subjectRepo.ListTopics(ctx, subjectID)
}

func (s *SubjectService) CreateTopic(ctx context.Context, subjectID identity.ID, req model.TopicRequest) (*model.Topic, error) {
	if _, err := s.subjectRepo.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	t := &model.Topic{SubjectID: subjectID, Name: req.Name, Description: req.Description}
	if err := s.subjectRepo.CreateTopic(ctx, t); err != nil {
		return nil, err
	}
	s.log.Info().Str("topic_id", t.ID.String()).Str("subject_id", subjectID.String()).Msg("Topic created")
	return t, nil
}

func (s *SubjectService) UpdateTopic(ctx context.Context, id identity.ID, req model.TopicRequest) (*model.Topic, error) {
	t, err := s.subjectRepo.GetTopic(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Name, t.Description = req.Name, req.Description
	if err := s.subjectRepo.UpdateTopic(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *SubjectService) DeleteTopic(ctx context.Context, id identity.ID) error {
	return s.subjectRepo.DeleteTopic(ctx, id)
}

func (s *SubjectService) ListSubtopics(ctx context.Context, topicID identity.ID) ([]model.Subtopic, error) {
	if _, err := s.subjectRepo.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	return s.subjectRepo.ListSubtopics(ctx, topicID)
}

func (s *SubjectService) CreateSubtopic(ctx context.Context, topicID identity.ID, req model.TopicRequest) (*model.Subtopic, error) {
	if _, err := s.subjectRepo.GetTopic(ctx, topicID); err != nil {
		return nil, err
	}
	st := &model.Subtopic{TopicID: topicID, Name: req.Name, Description: req.Description}
	if err := s.subjectRepo.CreateSubtopic(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info().Str("subtopic_id", st.ID.String()).Str("topic_id", topicID.String()).Msg("Subtopic created")
	return st, nil
}

func (s *SubjectService) UpdateSubtopic(ctx context.Context, id identity.ID, req model.TopicRequest) (*model.Subtopic, error) {
	st, err := s.subjectRepo.GetSubtopic(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Name, st.Description = req.Name, req.Description
	if err := s.subjectRepo.UpdateSubtopic(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *SubjectService) DeleteSubtopic(ctx context.Context, id identity.ID) error {
	return s.subjectRepo.DeleteSubtopic(ctx, id)
}
