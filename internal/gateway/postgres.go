package gateway

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/aidekit/aide/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore owns the database handle and hands out the typed gateways
// that share it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Alerts() Alerts               { return &pgAlerts{db: s.db} }
func (s *PostgresStore) Tasks() Tasks                 { return &pgTasks{db: s.db} }
func (s *PostgresStore) Notes() Notes                 { return &pgNotes{db: s.db} }
func (s *PostgresStore) Images() Images               { return &pgImages{db: s.db} }
func (s *PostgresStore) Subscriptions() Subscriptions { return &pgSubscriptions{db: s.db} }

type pgAlerts struct {
	db *sql.DB
}

func (g *pgAlerts) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (user_id, channel_id, message, date, sent)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at`

	err := g.db.QueryRowContext(ctx, query,
		alert.UserID,
		alert.ChannelID,
		alert.Message,
		alert.Date,
	).Scan(&alert.ID, &alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating alert: %w", err)
	}
	return nil
}

func (g *pgAlerts) ListPending(ctx context.Context, userID int64, filter ListFilter) ([]*models.Alert, error) {
	query := `
		SELECT id, user_id, channel_id, message, date, sent, created_at
		FROM alerts
		WHERE user_id = $1 AND sent = FALSE AND ($2 = '' OR channel_id = $2)
		ORDER BY date ASC`

	rows, err := g.db.QueryContext(ctx, query, userID, filter.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("error querying alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (g *pgAlerts) ListDue(ctx context.Context, now time.Time) ([]*models.Alert, error) {
	query := `
		SELECT id, user_id, channel_id, message, date, sent, created_at
		FROM alerts
		WHERE sent = FALSE AND date <= $1
		ORDER BY date ASC`

	rows, err := g.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("error querying due alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (g *pgAlerts) MostRecentPending(ctx context.Context, userID int64) (*models.Alert, error) {
	query := `
		SELECT id, user_id, channel_id, message, date, sent, created_at
		FROM alerts
		WHERE user_id = $1 AND sent = FALSE
		ORDER BY created_at DESC
		LIMIT 1`

	alert := &models.Alert{}
	err := g.db.QueryRowContext(ctx, query, userID).Scan(
		&alert.ID, &alert.UserID, &alert.ChannelID,
		&alert.Message, &alert.Date, &alert.Sent, &alert.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying most recent alert: %w", err)
	}
	return alert, nil
}

func (g *pgAlerts) Reschedule(ctx context.Context, id, userID int64, to time.Time) error {
	query := `
		UPDATE alerts SET date = $1, sent = FALSE
		WHERE id = $2 AND user_id = $3`

	result, err := g.db.ExecContext(ctx, query, to, id, userID)
	if err != nil {
		return fmt.Errorf("error rescheduling alert: %w", err)
	}
	return requireRow(result, "alert")
}

func (g *pgAlerts) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE alerts SET sent = TRUE WHERE id = ANY($1)`
	if _, err := g.db.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("error marking alerts sent: %w", err)
	}
	return nil
}

func (g *pgAlerts) Delete(ctx context.Context, id, userID int64) error {
	result, err := g.db.ExecContext(ctx,
		`DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting alert: %w", err)
	}
	return requireRow(result, "alert")
}

func scanAlerts(rows *sql.Rows) ([]*models.Alert, error) {
	var alerts []*models.Alert
	for rows.Next() {
		alert := &models.Alert{}
		err := rows.Scan(
			&alert.ID, &alert.UserID, &alert.ChannelID,
			&alert.Message, &alert.Date, &alert.Sent, &alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

type pgTasks struct {
	db *sql.DB
}

func (g *pgTasks) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (user_id, channel_id, title, description, due)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := g.db.QueryRowContext(ctx, query,
		task.UserID,
		task.ChannelID,
		task.Title,
		task.Description,
		task.Due,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating task: %w", err)
	}
	return nil
}

func (g *pgTasks) List(ctx context.Context, userID int64, filter ListFilter) ([]*models.Task, error) {
	query := `
		SELECT id, user_id, channel_id, title, description, resolved, due, created_at
		FROM tasks
		WHERE user_id = $1 AND resolved = FALSE AND ($2 = '' OR channel_id = $2)
		ORDER BY created_at DESC`

	rows, err := g.db.QueryContext(ctx, query, userID, filter.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("error querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task := &models.Task{}
		err := rows.Scan(
			&task.ID, &task.UserID, &task.ChannelID,
			&task.Title, &task.Description, &task.Resolved,
			&task.Due, &task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (g *pgTasks) MarkResolved(ctx context.Context, id, userID int64) error {
	result, err := g.db.ExecContext(ctx,
		`UPDATE tasks SET resolved = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error resolving task: %w", err)
	}
	return requireRow(result, "task")
}

func (g *pgTasks) Delete(ctx context.Context, id, userID int64) error {
	result, err := g.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting task: %w", err)
	}
	return requireRow(result, "task")
}

type pgNotes struct {
	db *sql.DB
}

func (g *pgNotes) Create(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (user_id, channel_id, content, tags)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := g.db.QueryRowContext(ctx, query,
		note.UserID,
		note.ChannelID,
		note.Content,
		pq.Array(note.Tags),
	).Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating note: %w", err)
	}
	return nil
}

func (g *pgNotes) List(ctx context.Context, userID int64, filter ListFilter) ([]*models.Note, error) {
	query := `
		SELECT id, user_id, channel_id, content, tags, created_at
		FROM notes
		WHERE user_id = $1
		  AND ($2 = '' OR channel_id = $2)
		  AND ($3 = '' OR $3 = ANY(tags))
		ORDER BY created_at DESC`

	rows, err := g.db.QueryContext(ctx, query, userID, filter.ChannelID, filter.Tag)
	if err != nil {
		return nil, fmt.Errorf("error querying notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

func (g *pgNotes) Search(ctx context.Context, userID int64, search string) ([]*models.Note, error) {
	query := `
		SELECT id, user_id, channel_id, content, tags, created_at
		FROM notes
		WHERE user_id = $1 AND content ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC`

	rows, err := g.db.QueryContext(ctx, query, userID, search)
	if err != nil {
		return nil, fmt.Errorf("error searching notes: %w", err)
	}
	defer rows.Close()

	return scanNotes(rows)
}

func (g *pgNotes) Delete(ctx context.Context, id, userID int64) error {
	result, err := g.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("error deleting note: %w", err)
	}
	return requireRow(result, "note")
}

func scanNotes(rows *sql.Rows) ([]*models.Note, error) {
	var notes []*models.Note
	for rows.Next() {
		note := &models.Note{}
		err := rows.Scan(
			&note.ID, &note.UserID, &note.ChannelID,
			&note.Content, pq.Array(&note.Tags), &note.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

type pgImages struct {
	db *sql.DB
}

func (g *pgImages) Create(ctx context.Context, image *models.ImageRecord) error {
	query := `
		INSERT INTO images (user_id, prompt, url)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := g.db.QueryRowContext(ctx, query,
		image.UserID,
		image.Prompt,
		image.URL,
	).Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating image record: %w", err)
	}
	return nil
}

func (g *pgImages) List(ctx context.Context, userID int64) ([]*models.ImageRecord, error) {
	query := `
		SELECT id, user_id, prompt, url, created_at
		FROM images
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := g.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying images: %w", err)
	}
	defer rows.Close()

	var images []*models.ImageRecord
	for rows.Next() {
		img := &models.ImageRecord{}
		if err := rows.Scan(&img.ID, &img.UserID, &img.Prompt, &img.URL, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning image record: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

type pgSubscriptions struct {
	db *sql.DB
}

func (g *pgSubscriptions) Get(ctx context.Context, userID int64) (*models.PushSubscription, error) {
	query := `SELECT user_id, endpoint, keys FROM push_subscriptions WHERE user_id = $1`

	sub := &models.PushSubscription{}
	var rawKeys []byte
	err := g.db.QueryRowContext(ctx, query, userID).Scan(&sub.UserID, &sub.Endpoint, &rawKeys)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying subscription: %w", err)
	}
	if len(rawKeys) > 0 {
		if err := json.Unmarshal(rawKeys, &sub.Keys); err != nil {
			return nil, fmt.Errorf("error decoding subscription keys: %w", err)
		}
	}
	return sub, nil
}

func requireRow(result sql.Result, entity string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s not found", entity)
	}
	return nil
}
