package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &DB{connection: db}, nil
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// InitSchema creates the candidate and ledger tables when they are absent.
func (db *DB) InitSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS candidates (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL UNIQUE,
    phone TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'new',
    cv_filename TEXT NOT NULL DEFAULT '',
    cv_text TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    skills JSONB NOT NULL DEFAULT '[]',
    experience_years INT NOT NULL DEFAULT 0,
    education JSONB NOT NULL DEFAULT '[]',
    work_experience JSONB NOT NULL DEFAULT '[]',
    source TEXT NOT NULL DEFAULT '',
    source_reference TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS processing_log (
    id BIGSERIAL PRIMARY KEY,
    channel TEXT NOT NULL,
    sender_identity TEXT NOT NULL,
    message_ref TEXT NOT NULL,
    status TEXT NOT NULL,
    candidate_id BIGINT,
    error_message TEXT NOT NULL DEFAULT '',
    processed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (channel, sender_identity, message_ref)
);`
	_, err := db.connection.ExecContext(ctx, schema)
	return err
}

// CandidateByEmail loads a candidate by its identity key. A missing
// candidate is (nil, nil), not an error.
func (db *DB) CandidateByEmail(ctx context.Context, email string) (*Candidate, error) {
	row := db.connection.QueryRowContext(ctx, selectCandidateQuery+` WHERE email = $1`, email)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// AlreadyProcessed is the idempotency check: has a ledger entry for this
// message key been written before?
func (db *DB) AlreadyProcessed(ctx context.Context, channel, senderIdentity, messageRef string) (bool, error) {
	var exists bool
	err := db.connection.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM processing_log WHERE channel = $1 AND sender_identity = $2 AND message_ref = $3)`,
		channel, senderIdentity, messageRef).Scan(&exists)
	return exists, err
}

// LogEntry appends a ledger entry outside any candidate mutation. Entries
// are write-once: a duplicate key is silently dropped.
func (db *DB) LogEntry(ctx context.Context, e LedgerEntry) error {
	_, err := db.connection.ExecContext(ctx,
		`INSERT INTO processing_log (channel, sender_identity, message_ref, status, candidate_id, error_message)
         VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6)
         ON CONFLICT (channel, sender_identity, message_ref) DO NOTHING`,
		e.Channel, e.SenderIdentity, e.MessageRef, e.Status, e.CandidateID, e.ErrorMessage)
	return err
}

const selectCandidateQuery = `SELECT id, name, email, phone, location, status, cv_filename, cv_text, summary,
       skills, experience_years, education, work_experience, source, source_reference, created_at, last_updated
  FROM candidates`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	c := &Candidate{}
	var skills, education, workExperience []byte
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Location, &c.Status,
		&c.CVFilename, &c.CVText, &c.Summary, &skills, &c.ExperienceYears,
		&education, &workExperience, &c.Source, &c.SourceReference,
		&c.CreatedAt, &c.LastUpdated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(skills, &c.Skills); err != nil {
		c.Skills = []string{}
	}
	if err := json.Unmarshal(education, &c.Education); err != nil {
		c.Education = nil
	}
	if err := json.Unmarshal(workExperience, &c.WorkExperience); err != nil {
		c.WorkExperience = nil
	}
	return c, nil
}

func marshalJSON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("[]")
	}
	return raw
}
