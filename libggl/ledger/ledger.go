// Package ledger records rule applications (rule, source graph, result graph) in a sqlite db.
package ledger

import (
	"database/sql"
	"sync"
	"time"

	"github.com/fine-structures/graph-grammar/libggl"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS applications (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	rule       TEXT NOT NULL,
	source     TEXT NOT NULL,
	source_sig TEXT NOT NULL,
	result     TEXT NOT NULL,
	result_sig TEXT NOT NULL,
	ts         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_applications_rule ON applications(rule);
`

// Entry is one recorded rule application.
type Entry struct {
	Seq       int64
	RunID     uuid.UUID
	Rule      string
	Source    string // graph expr
	SourceSig string
	Result    string // graph expr
	ResultSig string
	Time      time.Time
}

// Ledger wraps a sqlite connection.  Each Ledger instance is one run, identified by RunID.
type Ledger struct {
	mu    sync.Mutex
	conn  *sql.DB
	runID uuid.UUID
}

// Open opens (or creates) the ledger at the given path (":memory:" for an in-memory ledger) and starts a new run.
func Open(dbPath string) (*Ledger, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening ledger %q", dbPath)
	}

	// an in-memory db exists per connection
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "applying ledger schema")
	}

	lg := &Ledger{
		conn:  conn,
		runID: uuid.New(),
	}
	_, err = conn.Exec(`INSERT INTO runs (id, started_at) VALUES (?, ?)`, lg.runID.String(), time.Now().UnixMilli())
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "starting ledger run")
	}

	klog.V(2).Infof("ledger %q: run %v", dbPath, lg.runID)
	return lg, nil
}

// RunID identifies the run this Ledger records into.
func (lg *Ledger) RunID() uuid.UUID {
	return lg.runID
}

func (lg *Ledger) Close() error {
	return lg.conn.Close()
}

// Record appends an entry stating that rule rewrote X into Y.
func (lg *Ledger) Record(rule string, X, Y *libggl.Graph) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	_, err := lg.conn.Exec(
		`INSERT INTO applications (run_id, rule, source, source_sig, result, result_sig, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		lg.runID.String(), rule,
		X.String(), libggl.Signature(X).String(),
		Y.String(), libggl.Signature(Y).String(),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return errors.Wrapf(err, "recording application of %q", rule)
	}
	return nil
}

// Hook returns a callback suitable for RuleSet.OnApplied.  Record errors are logged, not returned.
func (lg *Ledger) Hook() func(rule *libggl.Rule, X, Y *libggl.Graph) {
	return func(rule *libggl.Rule, X, Y *libggl.Graph) {
		if err := lg.Record(rule.Name, X, Y); err != nil {
			klog.Warningf("ledger: %v", err)
		}
	}
}

// Entries returns every recorded application of the named rule (or of all rules if rule is empty), oldest first.
func (lg *Ledger) Entries(rule string) ([]Entry, error) {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	query := `SELECT seq, run_id, rule, source, source_sig, result, result_sig, ts FROM applications`
	var args []any
	if rule != "" {
		query += ` WHERE rule = ?`
		args = append(args, rule)
	}
	query += ` ORDER BY seq`

	rows, err := lg.conn.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying ledger")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var runID string
		var ts int64
		if err := rows.Scan(&e.Seq, &runID, &e.Rule, &e.Source, &e.SourceSig, &e.Result, &e.ResultSig, &ts); err != nil {
			return nil, errors.Wrap(err, "scanning ledger entry")
		}
		if e.RunID, err = uuid.Parse(runID); err != nil {
			return nil, errors.Wrap(err, "ledger run id")
		}
		e.Time = time.UnixMilli(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
