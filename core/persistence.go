package core

// Persistence writes the two write-only artifacts of §4.8: an
// append-only chain.jsonl journal (one Block per line) and a pair of
// snapshot files (state.json, params.json) rewritten after every
// commit. Loading on restart is out of scope for this core (§4.8).
//
// Grounded on the Rust original's storage.rs (append_block,
// write_state_snapshot, write_params_snapshot) and the teacher's
// system_health_logging.go pattern of best-effort os.OpenFile/os.Rename
// writes guarded by *logrus.Logger warnings rather than fatal errors.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Persistence owns the data directory and the open journal file handle.
type Persistence struct {
	dataDir string
	journal *os.File
	logger  *logrus.Logger
}

// Params is the content of params.json (§4.8).
type Params struct {
	HashAlg        string   `json:"hash_alg"`
	SigAlgsAllowed []string `json:"sig_algs_allowed"`
	ChainID        string   `json:"chain_id"`
	Height         uint64   `json:"height"`
}

// NewPersistence ensures dataDir exists and opens chain.jsonl for
// append, creating it if absent.
func NewPersistence(dataDir string, logger *logrus.Logger) (*Persistence, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: mkdir %s: %w", dataDir, err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "chain.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("persistence: open chain.jsonl: %w", err)
	}
	return &Persistence{dataDir: dataDir, journal: f, logger: logger}, nil
}

// AppendBlock writes one JSON-serialized Block as a single journal
// line (§4.8). Failures are logged, not returned: the journal is
// best-effort for this core.
func (p *Persistence) AppendBlock(b Block) {
	line, err := json.Marshal(b)
	if err != nil {
		p.warn("marshal block for journal", err)
		return
	}
	line = append(line, '\n')
	if _, err := p.journal.Write(line); err != nil {
		p.warn("append chain.jsonl", err)
	}
}

// WriteStateSnapshot overwrites state.json with a pretty-printed dump
// of the full state store (§4.8).
func (p *Persistence) WriteStateSnapshot(snapshot map[string]map[string]json.RawMessage) {
	b, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		p.warn("marshal state snapshot", err)
		return
	}
	p.writeFile("state.json", b)
}

// WriteParamsSnapshot overwrites params.json (§4.8).
func (p *Persistence) WriteParamsSnapshot(params Params) {
	b, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		p.warn("marshal params snapshot", err)
		return
	}
	p.writeFile("params.json", b)
}

func (p *Persistence) writeFile(name string, data []byte) {
	path := filepath.Join(p.dataDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		p.warn("write "+name, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		p.warn("rename "+name, err)
	}
}

func (p *Persistence) warn(action string, err error) {
	if p.logger != nil {
		p.logger.WithError(err).Warnf("persistence: %s", action)
	}
}

// Close releases the journal file handle.
func (p *Persistence) Close() error {
	return p.journal.Close()
}
