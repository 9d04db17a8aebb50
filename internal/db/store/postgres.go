package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jatinkaushik/devprep/internal/discovery"
)

// Postgres is the typed store over the questions, user_questions, companies
// and association tables. All SQL lives here; predicate input arrives as
// typed conditions and is rendered with positional parameters only.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Ping checks database connectivity.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// queryArgs collects positional parameters while condition SQL is built.
type queryArgs struct {
	args []any
}

func (q *queryArgs) add(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// rowConditionSQL renders the per-row discovery conditions. Empty dimensions
// contribute nothing.
func rowConditionSQL(q *queryArgs, row discovery.RowConditions) []string {
	var conds []string

	if len(row.Difficulties) > 0 {
		vals := make([]string, 0, len(row.Difficulties))
		for _, d := range row.Difficulties {
			vals = append(vals, string(d))
		}
		conds = append(conds, "difficulty = ANY("+q.add(vals)+")")
	}

	if row.Search != "" {
		conds = append(conds, "title ILIKE '%' || "+q.add(row.Search)+" || '%'")
	}

	if len(row.Topics) > 0 {
		topicConds := make([]string, 0, len(row.Topics))
		for _, topic := range row.Topics {
			topicConds = append(topicConds,
				"EXISTS (SELECT 1 FROM unnest(topics) AS topic WHERE topic ILIKE '%' || "+q.add(topic)+" || '%')")
		}
		conds = append(conds, "("+strings.Join(topicConds, " OR ")+")")
	}

	return conds
}

// CatalogQuestions returns curated rows visible to the viewer that pass the
// per-row conditions. Visibility: approved and public, or owned by the
// viewer.
func (s *Postgres) CatalogQuestions(ctx context.Context, row discovery.RowConditions, viewer *uuid.UUID) ([]discovery.CatalogQuestion, error) {
	q := &queryArgs{}
	visibility := "(is_approved AND is_public)"
	if viewer != nil {
		visibility = "((is_approved AND is_public) OR added_by = " + q.add(*viewer) + ")"
	}
	conds := append([]string{visibility}, rowConditionSQL(q, row)...)

	query := `
		SELECT id, title, difficulty, acceptance_rate, link, topics, description, added_by, is_approved, is_public
		FROM questions
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog questions: %w", err)
	}
	defer rows.Close()

	var out []discovery.CatalogQuestion
	for rows.Next() {
		var (
			cq         discovery.CatalogQuestion
			difficulty string
		)
		if err := rows.Scan(&cq.ID, &cq.Title, &difficulty, &cq.AcceptanceRate, &cq.Link,
			&cq.Topics, &cq.Description, &cq.OwnerID, &cq.Approved, &cq.Public); err != nil {
			return nil, fmt.Errorf("scan catalog question: %w", err)
		}
		cq.Difficulty = canonicalDifficulty(difficulty)
		out = append(out, cq)
	}
	return out, rows.Err()
}

// UserQuestions returns user-submitted rows visible to the viewer.
// Visibility: public and approved, or owned by the viewer; other users'
// unapproved rows never appear.
func (s *Postgres) UserQuestions(ctx context.Context, row discovery.RowConditions, viewer *uuid.UUID) ([]discovery.UserQuestion, error) {
	q := &queryArgs{}
	visibility := "(is_public AND is_approved)"
	if viewer != nil {
		visibility = "((is_public AND is_approved) OR created_by = " + q.add(*viewer) + ")"
	}
	conds := append([]string{visibility}, rowConditionSQL(q, row)...)

	query := `
		SELECT id, title, difficulty, topics, description, solution, link, created_by, is_approved, is_public, created_at
		FROM user_questions
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("query user questions: %w", err)
	}
	defer rows.Close()

	var out []discovery.UserQuestion
	for rows.Next() {
		uq, err := scanUserQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, uq)
	}
	return out, rows.Err()
}

// CatalogAssociations returns the company grid rows for the given catalog
// question identities, grouped by question.
func (s *Postgres) CatalogAssociations(ctx context.Context, ids []int64) (map[int64][]discovery.Association, error) {
	return s.associations(ctx, `
		SELECT cq.question_id, c.name, cq.time_period, cq.frequency
		FROM company_questions cq
		JOIN companies c ON c.id = cq.company_id
		WHERE cq.question_id = ANY($1)
		ORDER BY cq.frequency DESC`, ids)
}

// UserAssociations is the user-question counterpart of CatalogAssociations,
// reading the parallel association table.
func (s *Postgres) UserAssociations(ctx context.Context, ids []int64) (map[int64][]discovery.Association, error) {
	return s.associations(ctx, `
		SELECT uqc.user_question_id, c.name, uqc.time_period, uqc.frequency
		FROM user_question_companies uqc
		JOIN companies c ON c.id = uqc.company_id
		WHERE uqc.user_question_id = ANY($1)
		ORDER BY uqc.frequency DESC`, ids)
}

func (s *Postgres) associations(ctx context.Context, query string, ids []int64) (map[int64][]discovery.Association, error) {
	grouped := make(map[int64][]discovery.Association)
	if len(ids) == 0 {
		return grouped, nil
	}

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query associations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a discovery.Association
		if err := rows.Scan(&a.QuestionID, &a.Company, &a.TimePeriod, &a.Frequency); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		grouped[a.QuestionID] = append(grouped[a.QuestionID], a)
	}
	return grouped, rows.Err()
}

// ListAllTopics returns the distinct topics across both question pools.
func (s *Postgres) ListAllTopics(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT topic FROM (
			SELECT unnest(topics) AS topic FROM questions
			UNION ALL
			SELECT unnest(topics) FROM user_questions
		) AS t
		WHERE topic <> ''
		ORDER BY topic`
	return s.stringList(ctx, query)
}

// ListAllTimePeriods returns the distinct time periods across both
// association tables.
func (s *Postgres) ListAllTimePeriods(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT time_period FROM (
			SELECT time_period FROM company_questions
			UNION ALL
			SELECT time_period FROM user_question_companies
		) AS t
		ORDER BY time_period`
	return s.stringList(ctx, query)
}

func (s *Postgres) stringList(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateUser inserts a new account row.
func (s *Postgres) CreateUser(ctx context.Context, p CreateUserParams) (User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, display_name, created_at, last_login_at`
	return s.scanUser(s.pool.QueryRow(ctx, query, uuid.New(), p.Email, p.PasswordHash, p.DisplayName))
}

// GetUserByEmail fetches an account by email.
func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, display_name, created_at, last_login_at
		FROM users WHERE email = $1`
	return s.scanUser(s.pool.QueryRow(ctx, query, email))
}

// GetUserByID fetches an account by identity.
func (s *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	query := `
		SELECT id, email, password_hash, display_name, created_at, last_login_at
		FROM users WHERE id = $1`
	return s.scanUser(s.pool.QueryRow(ctx, query, id))
}

// UpdateUserLogin records the last login timestamp.
func (s *Postgres) UpdateUserLogin(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, id)
	return err
}

func (s *Postgres) scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt, &u.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// InsertUserQuestion creates a user-submitted question; it starts
// unapproved regardless of the requested public flag.
func (s *Postgres) InsertUserQuestion(ctx context.Context, p InsertUserQuestionParams) (int64, error) {
	query := `
		INSERT INTO user_questions (title, difficulty, topics, description, solution, link, created_by, is_approved, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8)
		RETURNING id`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		p.Title, string(p.Difficulty), p.Topics, p.Description, p.Solution, p.Link, p.OwnerID, p.Public,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user question: %w", err)
	}
	return id, nil
}

// GetUserQuestion fetches a single user question by identity.
func (s *Postgres) GetUserQuestion(ctx context.Context, id int64) (discovery.UserQuestion, error) {
	query := `
		SELECT id, title, difficulty, topics, description, solution, link, created_by, is_approved, is_public, created_at
		FROM user_questions WHERE id = $1`
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return discovery.UserQuestion{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return discovery.UserQuestion{}, err
		}
		return discovery.UserQuestion{}, ErrNotFound
	}
	return scanUserQuestion(rows)
}

// ListUserQuestionsByOwner pages a user's own submissions, newest first.
func (s *Postgres) ListUserQuestionsByOwner(ctx context.Context, owner uuid.UUID, limit, offset int) ([]discovery.UserQuestion, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM user_questions WHERE created_by = $1`, owner).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user questions: %w", err)
	}

	query := `
		SELECT id, title, difficulty, topics, description, solution, link, created_by, is_approved, is_public, created_at
		FROM user_questions
		WHERE created_by = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.pool.Query(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user questions: %w", err)
	}
	defer rows.Close()

	var out []discovery.UserQuestion
	for rows.Next() {
		uq, err := scanUserQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, uq)
	}
	return out, total, rows.Err()
}

// UpdateUserQuestion replaces the editable fields of a user question.
func (s *Postgres) UpdateUserQuestion(ctx context.Context, id int64, p UpdateUserQuestionParams) error {
	query := `
		UPDATE user_questions
		SET title = $2, difficulty = $3, topics = $4, description = $5, solution = $6, link = $7, is_public = $8, updated_at = now()
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id,
		p.Title, string(p.Difficulty), p.Topics, p.Description, p.Solution, p.Link, p.Public)
	if err != nil {
		return fmt.Errorf("update user question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUserQuestion removes a user question; associations and favorites
// cascade in the schema.
func (s *Postgres) DeleteUserQuestion(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureCompany returns the identity of the named company, creating it if
// absent.
func (s *Postgres) EnsureCompany(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO companies (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`
	var id int64
	if err := s.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure company: %w", err)
	}
	return id, nil
}

// InsertUserAssociation attaches a company fact to a user question.
func (s *Postgres) InsertUserAssociation(ctx context.Context, p InsertUserAssociationParams) error {
	query := `
		INSERT INTO user_question_companies (user_question_id, company_id, time_period, frequency, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_question_id, company_id, time_period) DO UPDATE SET frequency = EXCLUDED.frequency`
	_, err := s.pool.Exec(ctx, query, p.QuestionID, p.CompanyID, p.TimePeriod, p.Frequency, p.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert user association: %w", err)
	}
	return nil
}

// InsertApprovalRequest files a pending public-approval request unless one
// is already open; it reports whether a new request was created.
func (s *Postgres) InsertApprovalRequest(ctx context.Context, questionID int64, requestedBy uuid.UUID) (bool, error) {
	query := `
		INSERT INTO approval_requests (user_question_id, requested_by)
		SELECT $1, $2
		WHERE NOT EXISTS (
			SELECT 1 FROM approval_requests
			WHERE user_question_id = $1 AND status = 'pending'
		)`
	tag, err := s.pool.Exec(ctx, query, questionID, requestedBy)
	if err != nil {
		return false, fmt.Errorf("insert approval request: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AddFavorite bookmarks a catalog or user question; it reports whether a
// new bookmark was created.
func (s *Postgres) AddFavorite(ctx context.Context, userID uuid.UUID, catalogID, userQuestionID *int64) (bool, error) {
	query := `
		INSERT INTO user_favorites (user_id, question_id, user_question_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`
	tag, err := s.pool.Exec(ctx, query, userID, catalogID, userQuestionID)
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveFavorite deletes a bookmark.
func (s *Postgres) RemoveFavorite(ctx context.Context, userID uuid.UUID, catalogID, userQuestionID *int64) error {
	query := `
		DELETE FROM user_favorites
		WHERE user_id = $1
		  AND question_id IS NOT DISTINCT FROM $2
		  AND user_question_id IS NOT DISTINCT FROM $3`
	_, err := s.pool.Exec(ctx, query, userID, catalogID, userQuestionID)
	return err
}

// ListFavorites returns a user's bookmarks, newest first.
func (s *Postgres) ListFavorites(ctx context.Context, userID uuid.UUID) ([]Favorite, error) {
	query := `
		SELECT id, user_id, question_id, user_question_id, created_at
		FROM user_favorites
		WHERE user_id = $1
		ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.CatalogQuestionID, &f.UserQuestionID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func scanUserQuestion(rows pgx.Rows) (discovery.UserQuestion, error) {
	var (
		uq         discovery.UserQuestion
		difficulty string
	)
	if err := rows.Scan(&uq.ID, &uq.Title, &difficulty, &uq.Topics, &uq.Description,
		&uq.Solution, &uq.Link, &uq.OwnerID, &uq.Approved, &uq.Public, &uq.CreatedAt); err != nil {
		return discovery.UserQuestion{}, fmt.Errorf("scan user question: %w", err)
	}
	uq.Difficulty = canonicalDifficulty(difficulty)
	return uq, nil
}

// canonicalDifficulty normalizes legacy spellings (EASY, easy) left by older
// imports.
func canonicalDifficulty(raw string) discovery.Difficulty {
	if d, ok := discovery.ParseDifficulty(raw); ok {
		return d
	}
	return discovery.Difficulty(raw)
}
