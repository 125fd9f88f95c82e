package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheVish04/CAprep/internal/core/domain"
)

// QuestionRepository persists exam questions. Sub-questions with their
// options are stored as a jsonb column.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

var questionColumns = []string{
	"id", "subject", "exam_stage", "year", "month", "paper_group", "paper_no",
	"question_number", "question_text", "answer_text", "page_number",
	"sub_questions", "created_at", "updated_at",
}

func (r *QuestionRepository) Create(ctx context.Context, question *domain.Question) error {
	subQuestions, err := json.Marshal(question.SubQuestions)
	if err != nil {
		return fmt.Errorf("encode sub questions: %w", err)
	}

	query, args, err := psql.Insert("questions").
		Columns(questionColumns...).
		Values(
			question.ID, question.Subject, question.ExamStage, question.Year,
			question.Month, question.Group, question.PaperNo,
			question.QuestionNumber, question.QuestionText, question.AnswerText,
			question.PageNumber, subQuestions, question.CreatedAt, question.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert question query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert question: %w", mapError(err))
	}
	return nil
}

func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	query, args, err := psql.Select(questionColumns...).
		From("questions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select question query: %w", err)
	}

	question, err := scanQuestion(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("select question: %w", mapError(err))
	}
	return question, nil
}

func (r *QuestionRepository) Update(ctx context.Context, question *domain.Question) error {
	subQuestions, err := json.Marshal(question.SubQuestions)
	if err != nil {
		return fmt.Errorf("encode sub questions: %w", err)
	}

	query, args, err := psql.Update("questions").
		Set("subject", question.Subject).
		Set("exam_stage", question.ExamStage).
		Set("year", question.Year).
		Set("month", question.Month).
		Set("paper_group", question.Group).
		Set("paper_no", question.PaperNo).
		Set("question_number", question.QuestionNumber).
		Set("question_text", question.QuestionText).
		Set("answer_text", question.AnswerText).
		Set("page_number", question.PageNumber).
		Set("sub_questions", subQuestions).
		Set("updated_at", question.UpdatedAt).
		Where(sq.Eq{"id": question.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update question query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update question: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("question")
	}
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("questions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete question query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete question: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return repositoryNotFound("question")
	}
	return nil
}

func (r *QuestionRepository) List(ctx context.Context, filter domain.QuestionFilter) ([]domain.Question, int, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	where := questionPredicates(filter)

	countQuery, countArgs, err := psql.Select("COUNT(*)").
		From("questions").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count questions query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", mapError(err))
	}

	query, args, err := psql.Select(questionColumns...).
		From("questions").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list questions query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", mapError(err))
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *question)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate questions: %w", err)
	}

	return questions, total, nil
}

// RandomSample returns up to limit questions matching the filter in random
// order. Used for practice quizzes drawn from the question bank.
func (r *QuestionRepository) RandomSample(ctx context.Context, filter domain.QuestionFilter, limit int) ([]domain.Question, error) {
	query, args, err := psql.Select(questionColumns...).
		From("questions").
		Where(questionPredicates(filter)).
		OrderBy("RANDOM()").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sample questions query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", mapError(err))
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		question, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, *question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	query, args, err := psql.Select("COUNT(*)").From("questions").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count questions query: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", mapError(err))
	}
	return count, nil
}

func (r *QuestionRepository) CountBySubject(ctx context.Context) (map[string]int, error) {
	query, args, err := psql.Select("subject", "COUNT(*)").
		From("questions").
		GroupBy("subject").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count by subject query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count questions by subject: %w", mapError(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var subject string
		var count int
		if err := rows.Scan(&subject, &count); err != nil {
			return nil, fmt.Errorf("scan subject count: %w", err)
		}
		counts[subject] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subject counts: %w", err)
	}
	return counts, nil
}

func questionPredicates(filter domain.QuestionFilter) sq.And {
	where := sq.And{}
	if filter.Subject != "" {
		where = append(where, sq.Eq{"subject": filter.Subject})
	}
	if filter.ExamStage != "" {
		where = append(where, sq.Eq{"exam_stage": filter.ExamStage})
	}
	if filter.Year != "" {
		where = append(where, sq.Eq{"year": filter.Year})
	}
	if filter.Month != "" {
		where = append(where, sq.Eq{"month": filter.Month})
	}
	if filter.Group != "" {
		where = append(where, sq.Eq{"paper_group": filter.Group})
	}
	if filter.PaperNo != "" {
		where = append(where, sq.Eq{"paper_no": filter.PaperNo})
	}
	if filter.QuestionNumber != "" {
		where = append(where, sq.Eq{"question_number": filter.QuestionNumber})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, sq.Or{
			sq.ILike{"question_text": like},
			sq.ILike{"answer_text": like},
		})
	}
	if filter.Bookmarked != nil {
		where = append(where, sq.Eq{"id": filter.Bookmarked})
	}
	return where
}

func scanQuestion(row rowScanner) (*domain.Question, error) {
	var (
		question     domain.Question
		subQuestions []byte
	)

	if err := row.Scan(
		&question.ID, &question.Subject, &question.ExamStage, &question.Year,
		&question.Month, &question.Group, &question.PaperNo,
		&question.QuestionNumber, &question.QuestionText, &question.AnswerText,
		&question.PageNumber, &subQuestions, &question.CreatedAt, &question.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(subQuestions, &question.SubQuestions); err != nil {
		return nil, fmt.Errorf("decode sub questions: %w", err)
	}
	return &question, nil
}
