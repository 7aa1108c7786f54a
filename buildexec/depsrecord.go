package buildexec

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/maxtruxa/bpt"
	"github.com/maxtruxa/bpt/buildexec/migrations"
	"github.com/maxtruxa/bpt/internal/store"
)

// DepsRecord is the persisted per-output-artifact fingerprint of a
// compile's last successful command and inputs (glossary: "deps
// record").
type DepsRecord struct {
	Output  string
	Command string
	Inputs  []string
}

// DepsStore persists DepsRecords in a small embedded sqlite database, one
// row per output path.
type DepsStore struct {
	db *store.DB
}

// OpenDepsStore opens (creating and migrating if absent) the deps
// database at path.
func OpenDepsStore(ctx context.Context, path string) (*DepsStore, error) {
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.MetaTable, migrations.Migrations); err != nil {
		db.Close()
		return nil, err
	}
	return &DepsStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *DepsStore) Close() error { return s.db.Close() }

// Load returns the previously persisted record for output, and false if
// none exists.
func (s *DepsStore) Load(ctx context.Context, output string) (DepsRecord, bool, error) {
	st, err := s.db.Prepare(ctx, `SELECT command, inputs_json FROM bpt_build_deps WHERE output = ?`)
	if err != nil {
		return DepsRecord{}, false, err
	}
	var command, inputsJSON string
	err = st.QueryRowContext(ctx, output).Scan(&command, &inputsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DepsRecord{}, false, nil
		}
		return DepsRecord{}, false, store.Classify(err, "load-deps-record")
	}
	var inputs []string
	if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
		return DepsRecord{}, false, bpt.Wrap(bpt.ErrGenericSQL, err, "decoding inputs_json")
	}
	return DepsRecord{Output: output, Command: command, Inputs: inputs}, true, nil
}

// Save persists rec, creating or overwriting the row for its Output, in
// its own short transaction (spec §4.I: "each under its own short
// transaction").
func (s *DepsStore) Save(ctx context.Context, rec DepsRecord) error {
	inputsJSON, err := json.Marshal(rec.Inputs)
	if err != nil {
		return bpt.Wrap(bpt.ErrGenericSQL, err, "encoding inputs_json")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO bpt_build_deps (output, command, inputs_json) VALUES (?, ?, ?)
		ON CONFLICT(output) DO UPDATE SET command = excluded.command, inputs_json = excluded.inputs_json
	`, rec.Output, rec.Command, string(inputsJSON))
	if err != nil {
		tx.Rollback()
		return store.Classify(err, "save-deps-record")
	}
	if err := tx.Commit(); err != nil {
		return store.Classify(err, "save-deps-record")
	}
	return nil
}
