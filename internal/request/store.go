package request

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"prodflow/internal/config"
)

// ErrStageConflict indicates a concurrent transition won the stage write.
// The caller should reload and re-evaluate before retrying.
var ErrStageConflict = errors.New("stage changed concurrently")

// Store manages request and history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the request database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new request in the intake stage and records the creation
// history entry in the same transaction.
func (s *Store) Create(ctx context.Context, req *Request, actorID string) (*Request, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	now := time.Now().UTC()
	if req.Stage == "" {
		req.Stage = StageRequest
	}
	if !req.Stage.Known() {
		return nil, fmt.Errorf("unknown stage %q", req.Stage)
	}
	if req.Reference == "" {
		req.Reference = uuid.NewString()
	}
	if req.RequestDate.IsZero() {
		req.RequestDate = now
	}
	if req.ProductionInfo.PreparationState == "" {
		req.ProductionInfo.PreparationState = PreparationDraft
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	customerJSON, audienceJSON, campaignJSON, productionJSON, err := marshalSubRecords(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO requests (
            reference, stage, name, department, contact_person, assigned_actor_id,
            request_date, delivery_date, observations,
            customer_json, audience_json, campaign_json, production_json,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Reference,
		req.Stage,
		nullableString(req.Name),
		nullableString(req.Department),
		nullableString(req.ContactPerson),
		nullableString(req.AssignedActorID),
		req.RequestDate.Format(time.RFC3339Nano),
		nullableTime(req.DeliveryDate),
		nullableString(req.Observations),
		customerJSON,
		audienceJSON,
		campaignJSON,
		productionJSON,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	entry := HistoryEntry{
		RequestID:    id,
		ChangedField: "stage",
		NewValue:     string(req.Stage),
		ActorID:      actorID,
		ChangeType:   ChangeCreate,
		CreatedAt:    now,
	}
	if err := insertHistoryTx(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a request by identifier. A missing row returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// GetByReference fetches a request by its public reference code.
func (s *Store) GetByReference(ctx context.Context, reference string) (*Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE reference = ?`, reference)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request by reference: %w", err)
	}
	return req, nil
}

// List returns requests filtered by stage set (or all requests when no stage
// is provided), oldest first.
func (s *Store) List(ctx context.Context, stages ...Stage) ([]*Request, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + requestColumns + ` FROM requests`
	orderClause := ` ORDER BY created_at`

	if len(stages) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(stages))
		args := make([]any, len(stages))
		for i, stage := range stages {
			args[i] = stage
		}
		query := baseQuery + ` WHERE stage IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// OpenWithDeadlines returns non-completed requests carrying a delivery date,
// ordered by the nearest deadline first.
func (s *Store) OpenWithDeadlines(ctx context.Context) ([]*Request, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+requestColumns+` FROM requests
         WHERE stage != ? AND delivery_date IS NOT NULL
         ORDER BY delivery_date`,
		StageCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list open requests with deadlines: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateFields persists mutable field changes together with their history
// entries as one transaction. Stage is deliberately excluded; use Transition.
func (s *Store) UpdateFields(ctx context.Context, req *Request, entries []HistoryEntry) error {
	if req == nil {
		return errors.New("request is nil")
	}
	req.UpdatedAt = time.Now().UTC()

	customerJSON, audienceJSON, campaignJSON, productionJSON, err := marshalSubRecords(req)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`UPDATE requests
         SET name = ?, department = ?, contact_person = ?, assigned_actor_id = ?,
             delivery_date = ?, observations = ?,
             customer_json = ?, audience_json = ?, campaign_json = ?, production_json = ?,
             updated_at = ?
         WHERE id = ?`,
		nullableString(req.Name),
		nullableString(req.Department),
		nullableString(req.ContactPerson),
		nullableString(req.AssignedActorID),
		nullableTime(req.DeliveryDate),
		nullableString(req.Observations),
		customerJSON,
		audienceJSON,
		campaignJSON,
		productionJSON,
		req.UpdatedAt.Format(time.RFC3339Nano),
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}

	for _, entry := range entries {
		entry.RequestID = req.ID
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = req.UpdatedAt
		}
		if err := insertHistoryTx(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// Transition moves a request from one stage to another with a compare-on-stage
// guard, appending the status-change history entry in the same transaction.
// A concurrent advance that already changed the stage yields ErrStageConflict
// and writes nothing.
func (s *Store) Transition(ctx context.Context, id int64, from, to Stage, entry HistoryEntry) error {
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(
		ctx,
		`UPDATE requests SET stage = ?, updated_at = ? WHERE id = ? AND stage = ?`,
		to,
		now.Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStageConflict
	}

	entry.RequestID = id
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if err := insertHistoryTx(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// Stats returns a count of requests grouped by stage.
func (s *Store) Stats(ctx context.Context) (map[Stage]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT stage, COUNT(1) FROM requests GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]int)
	for rows.Next() {
		var stage Stage
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		stats[stage] = count
	}
	return stats, rows.Err()
}

// Remove deletes a request by identifier. History rows cascade.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const requestColumns = "id, reference, stage, name, department, contact_person, assigned_actor_id, request_date, delivery_date, observations, customer_json, audience_json, campaign_json, production_json, created_at, updated_at"

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id             int64
		reference      string
		stageStr       string
		name           sql.NullString
		department     sql.NullString
		contactPerson  sql.NullString
		assignedActor  sql.NullString
		requestRaw     sql.NullString
		deliveryRaw    sql.NullString
		observations   sql.NullString
		customerJSON   sql.NullString
		audienceJSON   sql.NullString
		campaignJSON   sql.NullString
		productionJSON sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&reference,
		&stageStr,
		&name,
		&department,
		&contactPerson,
		&assignedActor,
		&requestRaw,
		&deliveryRaw,
		&observations,
		&customerJSON,
		&audienceJSON,
		&campaignJSON,
		&productionJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	req := &Request{
		ID:              id,
		Reference:       reference,
		Stage:           Stage(stageStr),
		Name:            name.String,
		Department:      department.String,
		ContactPerson:   contactPerson.String,
		AssignedActorID: assignedActor.String,
		Observations:    observations.String,
	}

	if parsed, err := parseTimeString(requestRaw.String); err == nil {
		req.RequestDate = parsed
	}
	if deliveryRaw.Valid {
		if parsed, err := parseTimeString(deliveryRaw.String); err == nil {
			req.DeliveryDate = &parsed
		}
	}
	if parsed, err := parseTimeString(createdRaw.String); err == nil {
		req.CreatedAt = parsed
	}
	if parsed, err := parseTimeString(updatedRaw.String); err == nil {
		req.UpdatedAt = parsed
	}

	if err := unmarshalSubRecord(customerJSON.String, &req.Customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	if err := unmarshalSubRecord(audienceJSON.String, &req.Audience); err != nil {
		return nil, fmt.Errorf("decode audience: %w", err)
	}
	if err := unmarshalSubRecord(campaignJSON.String, &req.CampaignDetail); err != nil {
		return nil, fmt.Errorf("decode campaign detail: %w", err)
	}
	if err := unmarshalSubRecord(productionJSON.String, &req.ProductionInfo); err != nil {
		return nil, fmt.Errorf("decode production info: %w", err)
	}

	return req, nil
}

func marshalSubRecords(req *Request) (customer, audience, campaign, production string, err error) {
	customerBytes, err := json.Marshal(req.Customer)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal customer: %w", err)
	}
	audienceBytes, err := json.Marshal(req.Audience)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal audience: %w", err)
	}
	campaignBytes, err := json.Marshal(req.CampaignDetail)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal campaign detail: %w", err)
	}
	productionBytes, err := json.Marshal(req.ProductionInfo)
	if err != nil {
		return "", "", "", "", fmt.Errorf("marshal production info: %w", err)
	}
	return string(customerBytes), string(audienceBytes), string(campaignBytes), string(productionBytes), nil
}

func unmarshalSubRecord(raw string, target any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
