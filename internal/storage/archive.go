package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/san-kum/longsim/internal/beam"
)

// Archive is a SQLite database of runs and their recorded turns, for
// keeping many runs queryable in one file.
type Archive struct {
	conn *sqlx.DB
}

// ArchivedRun is one row of the runs table.
type ArchivedRun struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
	Turns     int    `db:"turns"`
	Particles int    `db:"particles"`
	Snapshots int    `db:"snapshots"`
	MetaJSON  string `db:"meta_json"`
}

type snapshotRow struct {
	Turn     int     `db:"turn"`
	Particle int     `db:"particle"`
	Phase    float64 `db:"phi_s"`
	Phi      float64 `db:"phi"`
	DeltaE   float64 `db:"delta_e"`
}

// OpenArchive opens or creates the archive at path.
func OpenArchive(path string) (*Archive, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	a := &Archive{conn: conn}
	if err := a.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return a, nil
}

func (a *Archive) Close() error {
	return a.conn.Close()
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		turns INTEGER NOT NULL,
		particles INTEGER NOT NULL,
		snapshots INTEGER NOT NULL,
		meta_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		turn INTEGER NOT NULL,
		particle INTEGER NOT NULL,
		phi_s REAL NOT NULL,
		phi REAL NOT NULL,
		delta_e REAL NOT NULL,
		PRIMARY KEY (run_id, turn, particle)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := a.conn.Exec(schema)
	return err
}

// SaveRun stores meta and history in one transaction, replacing any run
// with the same ID. It returns the run ID.
func (a *Archive) SaveRun(meta RunMetadata, history []beam.Snapshot) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Name)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}

	tx, err := a.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshots WHERE run_id = ?", meta.ID); err != nil {
		return "", err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO runs
		(id, name, created_at, turns, particles, snapshots, meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.Timestamp.UTC().Format(time.RFC3339Nano),
		meta.Turns, meta.Particles, len(history), string(metaJSON),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO snapshots
		(run_id, turn, particle, phi_s, phi, delta_e) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, snap := range history {
		for i := range snap.Phi {
			if _, err := stmt.Exec(meta.ID, snap.Turn, i, snap.Phase, snap.Phi[i], snap.DeltaE[i]); err != nil {
				return "", fmt.Errorf("insert turn %d: %w", snap.Turn, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	logrus.Debugf("archive: saved run %s with %d snapshots", meta.ID, len(history))
	return meta.ID, nil
}

// Runs lists archived runs, oldest first.
func (a *Archive) Runs() ([]ArchivedRun, error) {
	var runs []ArchivedRun
	err := a.conn.Select(&runs, "SELECT * FROM runs ORDER BY created_at, id")
	return runs, err
}

// Run returns the metadata of one archived run.
func (a *Archive) Run(id string) (*RunMetadata, error) {
	var metaJSON string
	if err := a.conn.Get(&metaJSON, "SELECT meta_json FROM runs WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	var meta RunMetadata
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &meta, nil
}

// Snapshots returns the recorded turns of a run in turn order.
func (a *Archive) Snapshots(id string) ([]beam.Snapshot, error) {
	var rows []snapshotRow
	err := a.conn.Select(&rows,
		"SELECT turn, particle, phi_s, phi, delta_e FROM snapshots WHERE run_id = ? ORDER BY turn, particle",
		id,
	)
	if err != nil {
		return nil, err
	}

	var out []beam.Snapshot
	for _, r := range rows {
		if len(out) == 0 || out[len(out)-1].Turn != r.Turn {
			out = append(out, beam.Snapshot{Turn: r.Turn, Phase: r.Phase})
		}
		last := &out[len(out)-1]
		last.Phi = append(last.Phi, r.Phi)
		last.DeltaE = append(last.DeltaE, r.DeltaE)
	}
	return out, nil
}

// ParticleOrbit returns the recorded (turn, phi, delta_e) of one particle.
func (a *Archive) ParticleOrbit(id string, particle int) (turns []int, phi, dE []float64, err error) {
	var rows []snapshotRow
	err = a.conn.Select(&rows,
		"SELECT turn, particle, phi_s, phi, delta_e FROM snapshots WHERE run_id = ? AND particle = ? ORDER BY turn",
		id, particle,
	)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, r := range rows {
		turns = append(turns, r.Turn)
		phi = append(phi, r.Phi)
		dE = append(dE, r.DeltaE)
	}
	return turns, phi, dE, nil
}

// Delete removes a run and its turns.
func (a *Archive) Delete(id string) error {
	tx, err := a.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM snapshots WHERE run_id = ?", id); err != nil {
		return err
	}
	res, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return tx.Commit()
}
