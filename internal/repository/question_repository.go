package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
)

// QuestionRepository handles question bank data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `q.id, q.topic_id, q.subtopic_id, q.question_text, q.options, q.correct_answer,
	q.difficulty, q.active, q.created_by, q.created_at, q.updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	var createdBy *int64
	err := row.Scan(&q.ID, &q.TopicID, &q.SubtopicID, &q.QuestionText, &q.Options, &q.CorrectAnswer,
		&q.Difficulty, &q.Active, &createdBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		q.CreatedBy = identity.ID(*createdBy)
	}
	if q.Options == nil {
		q.Options = []model.Option{}
	}
	return q, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into a LIKE pattern matching s literally anywhere
// in the text.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// questionWhere renders f as a WHERE clause. A subtopic list restricts a
// topic only when at least one listed subtopic belongs to that topic.
func questionWhere(f model.QuestionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		conds = append(conds, "q.active")
	}
	if f.Difficulty != nil {
		conds = append(conds, "q.difficulty = "+arg(*f.Difficulty))
	}
	if len(f.TopicIDs) > 0 {
		conds = append(conds, "q.topic_id = ANY("+arg(int64s(f.TopicIDs))+")")
	}
	if len(f.SubtopicIDs) > 0 {
		p := arg(int64s(f.SubtopicIDs))
		conds = append(conds, `(q.subtopic_id = ANY(`+p+`) OR NOT EXISTS (
			SELECT 1 FROM subtopics st WHERE st.topic_id = q.topic_id AND st.id = ANY(`+p+`)))`)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "q.question_text ILIKE "+arg(containsPattern(s))+` ESCAPE '\'`)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindQuestions returns every question matching f, in id order.
func (r *QuestionRepository) FindQuestions(ctx context.Context, f model.QuestionFilter) ([]model.Question, error) {
	where, args := questionWhere(f)
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions q`+where+` ORDER BY q.id`, args...)
	if err != nil {
		return nil, wrapErr(err, "questions", 0)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, wrapErr(err, "questions", 0)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// ListPaginated returns one page of questions matching f and the total count.
func (r *QuestionRepository) ListPaginated(ctx context.Context, f model.QuestionFilter, limit, page int) ([]model.Question, int, error) {
	where, args := questionWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions q`+where, args...).Scan(&total); err != nil {
		return nil, 0, wrapErr(err, "questions", 0)
	}

	query := fmt.Sprintf(`SELECT %s FROM questions q%s ORDER BY q.id DESC LIMIT $%d OFFSET $%d`,
		questionColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset(page, limit))...)
	if err != nil {
		return nil, 0, wrapErr(err, "questions", 0)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, wrapErr(err, "questions", 0)
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// GetByID retrieves a question by ID.
func (r *QuestionRepository) GetByID(ctx context.Context, id identity.ID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions q WHERE q.id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "question", id)
	}
	return q, nil
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (topic_id, subtopic_id, question_text, options, correct_answer, difficulty, active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		q.TopicID, q.SubtopicID, q.QuestionText, q.Options, q.CorrectAnswer, q.Difficulty, q.Active, nullableID(q.CreatedBy),
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return wrapErr(err, "question", 0)
}

// Update replaces the editable fields of a question. Executions already
// holding a snapshot of it are unaffected.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	var createdBy *int64
	err := r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET topic_id = $1, subtopic_id = $2, question_text = $3, options = $4,
		     correct_answer = $5, difficulty = $6, active = $7, updated_at = NOW()
		 WHERE id = $8
		 RETURNING created_by, created_at, updated_at`,
		q.TopicID, q.SubtopicID, q.QuestionText, q.Options, q.CorrectAnswer, q.Difficulty, q.Active, q.ID,
	).Scan(&createdBy, &q.CreatedAt, &q.UpdatedAt)
	if createdBy != nil {
		q.CreatedBy = identity.ID(*createdBy)
	}
	return wrapErr(err, "question", q.ID)
}

// Deactivate removes a question from future allocations.
func (r *QuestionRepository) Deactivate(ctx context.Context, id identity.ID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE questions SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "question", id)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr(pgx.ErrNoRows, "question", id)
	}
	return nil
}

func nullableID(id identity.ID) *int64 {
	if id == 0 {
		return nil
	}
	v := int64(id)
	return &v
}
