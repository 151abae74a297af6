package ledger

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cryptodevs/nftmint/internal/apperr"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "cryptodevs-ledger-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM deployments`).Scan(&count); err != nil {
		t.Fatalf("deployments table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("transactions table missing: %v", err)
	}
}

func TestDeploymentRoundTrip(t *testing.T) {
	db := testDB(t)
	old := Deployment{Address: "0x01", TxHash: "0xaa", ChainID: 4, DeployedAt: time.Now().Add(-time.Hour)}
	latest := Deployment{
		Address:     "0x02",
		TxHash:      "0xbb",
		ChainID:     4,
		Checksum:    "abc",
		MetadataURL: "https://nft.example/api/",
		Whitelist:   "0x03",
		DeployedAt:  time.Now(),
	}
	for _, d := range []Deployment{old, latest} {
		if err := db.RecordDeployment(d); err != nil {
			t.Fatalf("RecordDeployment: %v", err)
		}
	}

	got, err := db.LatestDeployment(4)
	if err != nil {
		t.Fatalf("LatestDeployment: %v", err)
	}
	if got.Address != "0x02" || got.Checksum != "abc" || got.MetadataURL != latest.MetadataURL {
		t.Errorf("latest = %+v", got)
	}

	if _, err := db.LatestDeployment(1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("other chain err = %v, want ErrNotFound", err)
	}
}

func TestTxLifecycle(t *testing.T) {
	db := testDB(t)
	if err := db.RecordTx(Tx{Hash: "0x1", Method: "mint", Sender: "0xme", ValueWei: "10000000000000000"}); err != nil {
		t.Fatalf("RecordTx: %v", err)
	}
	got, err := db.GetTx("0x1")
	if err != nil {
		t.Fatalf("GetTx: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}

	if err := db.ConfirmTx("0x1", 42); err != nil {
		t.Fatalf("ConfirmTx: %v", err)
	}
	got, _ = db.GetTx("0x1")
	if got.Status != StatusConfirmed || got.Block != 42 {
		t.Errorf("after confirm = %+v", got)
	}

	if err := db.RecordTx(Tx{Hash: "0x2", Method: "presaleMint", Sender: "0xme"}); err != nil {
		t.Fatalf("RecordTx: %v", err)
	}
	if err := db.FailTx("0x2", "reverted"); err != nil {
		t.Fatalf("FailTx: %v", err)
	}
	got, _ = db.GetTx("0x2")
	if got.Status != StatusFailed || got.Error != "reverted" || got.ValueWei != "0" {
		t.Errorf("after fail = %+v", got)
	}
}

func TestFinishUnknownTx(t *testing.T) {
	db := testDB(t)
	if err := db.ConfirmTx("0xdead", 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.GetTx("0xdead"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetTx err = %v, want ErrNotFound", err)
	}
}

func TestListTxsNewestFirst(t *testing.T) {
	db := testDB(t)
	for _, h := range []string{"0xa", "0xb", "0xc"} {
		if err := db.RecordTx(Tx{Hash: h, Method: "mint", Sender: "0xme"}); err != nil {
			t.Fatal(err)
		}
	}
	txs, err := db.ListTxs(2, 0)
	if err != nil {
		t.Fatalf("ListTxs: %v", err)
	}
	if len(txs) != 2 || txs[0].Hash != "0xc" || txs[1].Hash != "0xb" {
		t.Errorf("page = %+v", txs)
	}

	empty := testDB(t)
	txs, err = empty.ListTxs(0, 0)
	if err != nil || txs == nil || len(txs) != 0 {
		t.Errorf("empty list = %v, %v", txs, err)
	}
}
