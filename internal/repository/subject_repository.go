package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// SubjectRepository handles the subject -> topic -> subtopic hierarchy.
type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

/* ---------------- subjects ---------------- */

func (r *SubjectRepository) CreateSubject(ctx context.Context, s *model.Subject) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, description) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		s.Name, s.Description).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return wrapErr(err, "subject", 0)
}

func (r *SubjectRepository) GetSubject(ctx context.Context, id identity.ID) (*model.Subject, error) {
	s := &model.Subject{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, updated_at FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, wrapErr(err, "subject", id)
	}
	return s, nil
}

func (r *SubjectRepository) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, wrapErr(err, "subjects", 0)
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) UpdateSubject(ctx context.Context, s *model.Subject) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE subjects SET name = $1, description = $2, updated_at = NOW()
		 WHERE id = $3 RETURNING created_at, updated_at`,
		s.Name, s.Description, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
	return wrapErr(err, "subject", s.ID)
}

func (r *SubjectRepository) DeleteSubject(ctx context.Context, id identity.ID) error {
	return r.deleteOne(ctx, `DELETE FROM subjects WHERE id = $1`, "subject", id)
}

/* ---------------- topics ---------------- */

func (r *SubjectRepository) CreateTopic(ctx context.Context, t *model.Topic) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO topics (subject_id, name, description) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		t.SubjectID, t.Name, t.Description).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return wrapErr(err, "topic", 0)
}

func (r *SubjectRepository) GetTopic(ctx context.Context, id identity.ID) (*model.Topic, error) {
	t := &model.Topic{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, name, description, created_at, updated_at FROM topics WHERE id = $1`, id,
	).Scan(&t.ID, &t.SubjectID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, wrapErr(err, "topic", id)
	}
	return t, nil
}

// ListTopics returns the topics of a subject.
func (r *SubjectRepository) ListTopics(ctx context.Context, subjectID identity.ID) ([]model.Topic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, name, description, created_at, updated_at
		 FROM topics WHERE subject_id = $1 ORDER BY name ASC`, subjectID)
	if err != nil {
		return nil, wrapErr(err, "topics", 0)
	}
	defer rows.Close()

	topics := []model.Topic{}
	for rows.Next() {
		var t model.Topic
		if err := rows.Scan(&t.ID, &t.SubjectID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func (r *SubjectRepository) UpdateTopic(ctx context.Context, t *model.Topic) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE topics SET name = $1, description = $2, updated_at = NOW()
		 WHERE id = $3 RETURNING subject_id, created_at, updated_at`,
		t.Name, t.Description, t.ID).Scan(&t.SubjectID, &t.CreatedAt, &t.UpdatedAt)
	return wrapErr(err, "topic", t.ID)
}

func (r *SubjectRepository) DeleteTopic(ctx context.Context, id identity.ID) error {
	return r.deleteOne(ctx, `DELETE FROM topics WHERE id = $1`, "topic", id)
}

// CountExistingTopics returns how many of ids exist.
func (r *SubjectRepository) CountExistingTopics(ctx context.Context, ids []identity.ID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM topics WHERE id = ANY($1)`, int64s(ids)).Scan(&n)
	return n, wrapErr(err, "topics", 0)
}

/* ---------------- subtopics ---------------- */

func (r *SubjectRepository) CreateSubtopic(ctx context.Context, s *model.Subtopic) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subtopics (topic_id, name, description) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		s.TopicID, s.Name, s.Description).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return wrapErr(err, "subtopic", 0)
}

func (r *SubjectRepository) GetSubtopic(ctx context.Context, id identity.ID) (*model.Subtopic, error) {
	s := &model.Subtopic{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, topic_id, name, description, created_at, updated_at FROM subtopics WHERE id = $1`, id,
	).Scan(&s.ID, &s.TopicID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, wrapErr(err, "subtopic", id)
	}
	return s, nil
}

// ListSubtopics returns the subtopics of a topic.
func (r *SubjectRepository) ListSubtopics(ctx context.Context, topicID identity.ID) ([]model.Subtopic, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, topic_id, name, description, created_at, updated_at
		 FROM subtopics WHERE topic_id = $1 ORDER BY name ASC`, topicID)
	if err != nil {
		return nil, wrapErr(err, "subtopics", 0)
	}
	defer rows.Close()

	subtopics := []model.Subtopic{}
	for rows.Next() {
		var s model.Subtopic
		if err := rows.Scan(&s.ID, &s.TopicID, &s.Name, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subtopics = append(subtopics, s)
	}
	return subtopics, rows.Err()
}

func (r *SubjectRepository) UpdateSubtopic(ctx context.Context, s *model.Subtopic) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE subtopics SET name = $1, description = $2, updated_at = NOW()
		 WHERE id = $3 RETURNING topic_id, created_at, updated_at`,
		s.Name, s.Description, s.ID).Scan(&s.TopicID, &s.CreatedAt, &s.UpdatedAt)
	return wrapErr(err, "subtopic", s.ID)
}

func (r *SubjectRepository) DeleteSubtopic(ctx context.Context, id identity.ID) error {
	return r.deleteOne(ctx, `DELETE FROM subtopics WHERE id = $1`, "subtopic", id)
}

// SubtopicTopics maps each existing subtopic in ids to its topic.
func (r *SubjectRepository) SubtopicTopics(ctx context.Context, ids []identity.ID) (map[identity.ID]identity.ID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, topic_id FROM subtopics WHERE id = ANY($1)`, int64s(ids))
	if err != nil {
		return nil, wrapErr(err, "subtopics", 0)
	}
	defer rows.Close()

	out := make(map[identity.ID]identity.ID, len(ids))
	for rows.Next() {
		var id, topicID identity.ID
		if err := rows.Scan(&id, &topicID); err != nil {
			return nil, err
		}
		out[id] = topicID
	}
	return out, rows.Err()
}

func (r *SubjectRepository) deleteOne(ctx context.Context, sql, resource string, id identity.ID) error {
	tag, err := r.pool.Exec(ctx, sql, id)
	if err != nil {
		return wrapErr(err, resource, id)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr(pgx.ErrNoRows, resource, id)
	}
	return nil
}
