package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cryptodevs/nftmint/internal/apperr"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// Deployment is one row of the deployments table.
type Deployment struct {
	Address     string    `json:"address"`
	TxHash      string    `json:"txHash"`
	ChainID     uint64    `json:"chainId"`
	Checksum    string    `json:"checksum"`
	MetadataURL string    `json:"metadataUrl"`
	Whitelist   string    `json:"whitelist"`
	DeployedAt  time.Time `json:"deployedAt"`
}

// Tx is one row of the transactions table.
type Tx struct {
	Hash      string    `json:"hash"`
	Method    string    `json:"method"`
	Sender    string    `json:"sender"`
	ValueWei  string    `json:"valueWei"`
	Status    string    `json:"status"`
	Block     uint64    `json:"block"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Recorder is what the action handlers need from the ledger.
type Recorder interface {
	RecordTx(t Tx) error
	ConfirmTx(hash string, block uint64) error
	FailTx(hash string, reason string) error
}

var _ Recorder = (*DB)(nil)

// RecordDeployment inserts a deployment. Redeploying to the same address
// replaces the earlier row.
func (db *DB) RecordDeployment(d Deployment) error {
	if d.DeployedAt.IsZero() {
		d.DeployedAt = time.Now()
	}
	d.DeployedAt = d.DeployedAt.UTC()
	_, err := db.conn.Exec(`
		INSERT INTO deployments (address, tx_hash, chain_id, checksum, metadata_url, whitelist, deployed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			tx_hash      = excluded.tx_hash,
			chain_id     = excluded.chain_id,
			checksum     = excluded.checksum,
			metadata_url = excluded.metadata_url,
			whitelist    = excluded.whitelist,
			deployed_at  = excluded.deployed_at
	`, d.Address, d.TxHash, d.ChainID, d.Checksum, d.MetadataURL, d.Whitelist, d.DeployedAt)
	if err != nil {
		return fmt.Errorf("ledger: record deployment: %w", err)
	}
	return nil
}

// LatestDeployment returns the most recent deployment on chainID.
func (db *DB) LatestDeployment(chainID uint64) (*Deployment, error) {
	var d Deployment
	err := db.conn.QueryRow(`
		SELECT address, tx_hash, chain_id, checksum, metadata_url, whitelist, deployed_at
		FROM deployments
		WHERE chain_id = ?
		ORDER BY deployed_at DESC
		LIMIT 1
	`, chainID).Scan(&d.Address, &d.TxHash, &d.ChainID, &d.Checksum, &d.MetadataURL, &d.Whitelist, &d.DeployedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: latest deployment: %w", err)
	}
	return &d, nil
}

// RecordTx stores a freshly submitted transaction as pending.
func (db *DB) RecordTx(t Tx) error {
	now := time.Now().UTC()
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.ValueWei == "" {
		t.ValueWei = "0"
	}
	_, err := db.conn.Exec(`
		INSERT INTO transactions (hash, method, sender, value_wei, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.Hash, t.Method, t.Sender, t.ValueWei, t.Status, now, now)
	if err != nil {
		return fmt.Errorf("ledger: record tx: %w", err)
	}
	return nil
}

// ConfirmTx marks a transaction as mined in block.
func (db *DB) ConfirmTx(hash string, block uint64) error {
	return db.finish(hash, StatusConfirmed, block, "")
}

// FailTx marks a transaction as failed with reason.
func (db *DB) FailTx(hash string, reason string) error {
	return db.finish(hash, StatusFailed, 0, reason)
}

func (db *DB) finish(hash, status string, block uint64, reason string) error {
	res, err := db.conn.Exec(`
		UPDATE transactions SET status = ?, block = ?, error = ?, updated_at = ?
		WHERE hash = ?
	`, status, block, reason, time.Now().UTC(), hash)
	if err != nil {
		return fmt.Errorf("ledger: update tx: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// GetTx returns one transaction by hash.
func (db *DB) GetTx(hash string) (*Tx, error) {
	var t Tx
	err := db.conn.QueryRow(`
		SELECT hash, method, sender, value_wei, status, block, error, created_at, updated_at
		FROM transactions WHERE hash = ?
	`, hash).Scan(&t.Hash, &t.Method, &t.Sender, &t.ValueWei, &t.Status, &t.Block, &t.Error, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get tx: %w", err)
	}
	return &t, nil
}

// ListTxs returns transactions newest first.
func (db *DB) ListTxs(limit, offset int) ([]Tx, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT hash, method, sender, value_wei, status, block, error, created_at, updated_at
		FROM transactions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger: list txs: %w", err)
	}
	defer rows.Close()

	out := []Tx{}
	for rows.Next() {
		var t Tx
		if err := rows.Scan(&t.Hash, &t.Method, &t.Sender, &t.ValueWei, &t.Status, &t.Block, &t.Error, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
