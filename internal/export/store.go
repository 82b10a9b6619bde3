package export

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/database"
	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/logging"
	"github.com/CreativeSoln/refactored-potato/internal/loader"
	"github.com/CreativeSoln/refactored-potato/internal/odx"
)

// schema is applied idempotently on first use. Each processing batch gets
// one row in batches; everything else hangs off batch_id.
const schema = `
CREATE TABLE IF NOT EXISTS batches (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at  TEXT    NOT NULL,
    input_count INTEGER NOT NULL,
    skip_count  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS inputs (
    batch_id INTEGER NOT NULL REFERENCES batches(id),
    name     TEXT    NOT NULL,
    archive  TEXT,
    size     INTEGER
);

CREATE TABLE IF NOT EXISTS skipped (
    batch_id INTEGER NOT NULL REFERENCES batches(id),
    name     TEXT    NOT NULL,
    archive  TEXT,
    reason   TEXT
);

CREATE TABLE IF NOT EXISTS layers (
    batch_id   INTEGER NOT NULL REFERENCES batches(id),
    odx_id     TEXT,
    kind       TEXT    NOT NULL,
    short_name TEXT    NOT NULL,
    long_name  TEXT,
    parent_ref TEXT
);

CREATE TABLE IF NOT EXISTS services (
    batch_id   INTEGER NOT NULL REFERENCES batches(id),
    odx_id     TEXT,
    layer      TEXT    NOT NULL,
    short_name TEXT    NOT NULL,
    semantic   TEXT,
    did        TEXT,
    sid        INTEGER
);

CREATE TABLE IF NOT EXISTS params (
    batch_id    INTEGER NOT NULL REFERENCES batches(id),
    param_id    TEXT    NOT NULL,
    layer       TEXT,
    service     TEXT,
    kind        TEXT,
    parent      TEXT,
    idx         INTEGER,
    short_name  TEXT,
    semantic    TEXT,
    byte_pos    INTEGER,
    bit_pos     INTEGER,
    bit_length  INTEGER,
    coded_type  TEXT,
    byte_order  TEXT,
    coded_value TEXT,
    truncated   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS units (
    batch_id     INTEGER NOT NULL REFERENCES batches(id),
    odx_id       TEXT,
    layer        TEXT,
    short_name   TEXT,
    display_name TEXT,
    factor       REAL,
    offset       REAL
);

CREATE TABLE IF NOT EXISTS compu_methods (
    batch_id    INTEGER NOT NULL REFERENCES batches(id),
    odx_id      TEXT,
    layer       TEXT,
    short_name  TEXT,
    category    TEXT,
    scale_count INTEGER
);

CREATE TABLE IF NOT EXISTS data_object_props (
    batch_id       INTEGER NOT NULL REFERENCES batches(id),
    odx_id         TEXT,
    layer          TEXT,
    short_name     TEXT,
    coded_type    TEXT,
    bit_length     INTEGER,
    unit_ref       TEXT,
    compu_category TEXT
);

CREATE TABLE IF NOT EXISTS trouble_codes (
    batch_id     INTEGER NOT NULL REFERENCES batches(id),
    odx_id       TEXT,
    layer        TEXT,
    short_name   TEXT,
    code         TEXT,
    display_code TEXT,
    level        TEXT,
    description  TEXT
);

CREATE INDEX IF NOT EXISTS idx_params_batch_layer ON params(batch_id, layer);
CREATE INDEX IF NOT EXISTS idx_services_batch_did ON services(batch_id, did);
`

// Store persists batch results to SQLite.
type Store struct {
	db  *database.DB
	log *logging.Logger

	schemaOnce sync.Once
	schemaErr  error
}

// NewStore wraps an open database connection.
func NewStore(db *database.DB, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Default()
	}
	return &Store{db: db, log: log}
}

// Save writes one batch result as a new batch row and returns its
// identifier. The write is transactional; a failed save leaves no partial
// batch behind.
func (s *Store) Save(ctx context.Context, res *loader.Result) (int64, error) {
	if res == nil || res.Database == nil {
		return 0, ErrEmptyResult
	}
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	r, err := tx.ExecContext(ctx,
		`INSERT INTO batches (created_at, input_count, skip_count) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), len(res.Inputs), len(res.Skipped))
	if err != nil {
		return 0, fmt.Errorf("insert batch: %w", err)
	}
	batchID, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("batch id: %w", err)
	}

	for _, in := range res.Inputs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inputs (batch_id, name, archive, size) VALUES (?, ?, ?, ?)`,
			batchID, in.Name, in.Archive, in.Size); err != nil {
			return 0, fmt.Errorf("insert input %q: %w", in.Name, err)
		}
	}
	for _, sk := range res.Skipped {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skipped (batch_id, name, archive, reason) VALUES (?, ?, ?, ?)`,
			batchID, sk.Name, sk.Archive, sk.Reason); err != nil {
			return 0, fmt.Errorf("insert skipped %q: %w", sk.Name, err)
		}
	}

	if err := s.saveDatabase(ctx, tx, batchID, res.Database); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}

	s.log.Info("batch persisted",
		"batch_id", batchID,
		"inputs", len(res.Inputs),
		"skipped", len(res.Skipped),
		"params", len(res.Database.Params))
	return batchID, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		if _, err := s.db.ExecContext(ctx, schema); err != nil {
			s.schemaErr = fmt.Errorf("apply store schema: %w", err)
		}
	})
	return s.schemaErr
}

// txExec is satisfied by *sql.Tx and *sql.DB; the store writes through a
// transaction.
type txExec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) saveDatabase(ctx context.Context, tx txExec, batchID int64, db *odx.Database) error {
	for _, l := range db.Layers() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO layers (batch_id, odx_id, kind, short_name, long_name, parent_ref)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			batchID, l.ID, l.Kind, l.ShortName, l.LongName, l.ParentRef); err != nil {
			return fmt.Errorf("insert layer %q: %w", l.ShortName, err)
		}
		for _, svc := range l.Services {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO services (batch_id, odx_id, layer, short_name, semantic, did, sid)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				batchID, svc.ID, l.ShortName, svc.ShortName, svc.Semantic, svc.DID, svc.SID); err != nil {
				return fmt.Errorf("insert service %q: %w", svc.ShortName, err)
			}
		}
	}

	for _, p := range db.Params {
		if err := insertParam(ctx, tx, batchID, p); err != nil {
			return err
		}
	}
	for _, u := range db.Units {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO units (batch_id, odx_id, layer, short_name, display_name, factor, offset)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			batchID, u.ID, u.LayerName, u.ShortName, u.DisplayName,
			u.FactorSIToUnit, u.OffsetSIToUnit); err != nil {
			return fmt.Errorf("insert unit %q: %w", u.ShortName, err)
		}
	}
	for _, cm := range db.CompuMethods {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO compu_methods (batch_id, odx_id, layer, short_name, category, scale_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			batchID, cm.ID, cm.LayerName, cm.ShortName, cm.Category, len(cm.Scales)); err != nil {
			return fmt.Errorf("insert compu method %q: %w", cm.ShortName, err)
		}
	}
	for _, dop := range db.DataObjectProps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO data_object_props (batch_id, odx_id, layer, short_name, coded_type, bit_length, unit_ref, compu_category)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID, dop.ID, dop.LayerName, dop.ShortName, dop.CodedBaseType,
			dop.BitLength, dop.UnitRef, dop.CompuCategory); err != nil {
			return fmt.Errorf("insert data object prop %q: %w", dop.ShortName, err)
		}
	}
	for _, dtc := range db.TroubleCodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trouble_codes (batch_id, odx_id, layer, short_name, code, display_code, level, description)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			batchID, dtc.ID, dtc.LayerName, dtc.ShortName, dtc.Code,
			dtc.DisplayCode, dtc.Level, dtc.Description); err != nil {
			return fmt.Errorf("insert trouble code %q: %w", dtc.ShortName, err)
		}
	}
	return nil
}

// insertParam writes one flattened parameter row. The database's global
// parameter list already contains expansion children, so no recursion
// happens here.
func insertParam(ctx context.Context, tx txExec, batchID int64, p *odx.Param) error {
	truncated := 0
	if p.CycleDetected {
		truncated = 1
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO params (batch_id, param_id, layer, service, kind, parent, idx,
		                     short_name, semantic, byte_pos, bit_pos, bit_length,
		                     coded_type, byte_order, coded_value, truncated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batchID, p.ID, p.LayerName, p.ServiceName, p.MessageKind, p.ParentName,
		p.Index, p.ShortName, p.Semantic, p.BytePosition, p.BitPosition,
		p.BitLength, p.CodedBaseType, p.ByteOrder, p.CodedValue, truncated); err != nil {
		return fmt.Errorf("insert param %q: %w", p.ID, err)
	}
	return nil
}
