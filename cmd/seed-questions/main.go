package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/database"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/logger"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/repository"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/service"
)

func main() {
	file := flag.String("file", "", "seed file (defaults to the built-in demo bank)")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var src io.Reader = bytes.NewReader(defaultSeed)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open seed file")
		}
		defer f.Close()
		src = f
	}

	seed, err := decodeSeed(src)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read seed file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	s := &seeder{
		subjects:  service.NewSubjectService(subjectRepo, log),
		questions: service.NewQuestionService(repository.NewQuestionRepository(pool), subjectRepo, log),
	}

	fmt.Println("=== Seeding Question Bank ===")

	for _, subj := range seed.Subjects {
		if err := s.subject(ctx, subj); err != nil {
			log.Fatal().Err(err).Str("subject", subj.Name).Msg("Seeding failed")
		}
	}

	fmt.Printf("\nSeed completed! Added %d questions, skipped %d subtopics that already had questions.\n", s.added, s.skipped)
}

type seeder struct {
	subjects  *service.SubjectService
	questions *service.QuestionService
	added     int
	skipped   int
}

func (s *seeder) subject(ctx context.Context, in seedSubject) error {
	existing, err := s.subjects.ListSubjects(ctx)
	if err != nil {
		return err
	}
	var subj *model.Subject
	for i := range existing {
		if existing[i].Name == in.Name {
			subj = &existing[i]
			break
		}
	}
	if subj == nil {
		subj, err = s.subjects.CreateSubject(ctx, model.SubjectRequest{Name: in.Name, Description: in.Description})
		if err != nil {
			return fmt.Errorf("create subject: %w", err)
		}
		fmt.Printf("Created subject %q\n", subj.Name)
	}

	topics, err := s.subjects.ListTopics(ctx, subj.ID)
	if err != nil {
		return err
	}
	for _, t := range in.Topics {
		topic := findTopic(topics, t.Name)
		if topic == nil {
			topic, err = s.subjects.CreateTopic(ctx, subj.ID, model.TopicRequest{Name: t.Name, Description: t.Description})
			if err != nil {
				return fmt.Errorf("create topic %q: %w", t.Name, err)
			}
		}
		if err := s.topic(ctx, topic, t); err != nil {
			return err
		}
	}
	return nil
}

func (s *seeder) topic(ctx context.Context, topic *model.Topic, in seedTopic) error {
	subtopics, err := s.subjects.ListSubtopics(ctx, topic.ID)
	if err != nil {
		return err
	}
	for _, st := range in.Subtopics {
		var sub *model.Subtopic
		for i := range subtopics {
			if subtopics[i].Name == st.Name {
				sub = &subtopics[i]
				break
			}
		}
		if sub == nil {
			sub, err = s.subjects.CreateSubtopic(ctx, topic.ID, model.TopicRequest{Name: st.Name, Description: st.Description})
			if err != nil {
				return fmt.Errorf("create subtopic %q: %w", st.Name, err)
			}
		}

		_, page, err := s.questions.List(ctx, model.QuestionListQuery{
			TopicID:         topic.ID.String(),
			SubtopicID:      sub.ID.String(),
			IncludeInactive: true,
			PerPage:         1,
		})
		if err != nil {
			return err
		}
		if page.TotalItems > 0 {
			s.skipped++
			continue
		}

		for _, q := range st.Questions {
			// The zero Actor records the question without an author.
			if _, err := s.questions.Create(ctx, service.Actor{}, q.request(topic.ID, sub.ID)); err != nil {
				return fmt.Errorf("create question %q: %w", q.Text, err)
			}
			s.added++
		}
		fmt.Printf("Seeded %d questions into %s / %s\n", len(st.Questions), topic.Name, sub.Name)
	}
	return nil
}

func findTopic(topics []model.Topic, name string) *model.Topic {
	for i := range topics {
		if topics[i].Name == name {
			return &topics[i]
		}
	}
	return nil
}
