package session

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/cryptodevs/nftmint/internal/apperr"
	"github.com/cryptodevs/nftmint/internal/mintstate"
	"github.com/cryptodevs/nftmint/internal/testutil"
)

func countingDialer(node Node, calls *atomic.Int32) Dialer {
	return func(context.Context) (Node, error) {
		calls.Add(1)
		return node, nil
	}
}

func testKeyring(t *testing.T) Keyring {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return NewKeyKeyring(key)
}

func TestAcquireDialsOnce(t *testing.T) {
	var calls atomic.Int32
	node := &testutil.FakeNode{Chain: big.NewInt(4), GW: &testutil.FakeGateway{}}
	store := mintstate.NewStore()
	p := NewProvider(countingDialer(node, &calls), 4, store)

	for i := 0; i < 3; i++ {
		conn, err := p.Acquire(context.Background(), false)
		if err != nil {
			t.Fatalf("Acquire #%d: %v", i, err)
		}
		if !conn.ReadOnly() {
			t.Error("expected read-only connection")
		}
		if conn.ChainID.Uint64() != 4 {
			t.Errorf("chain id = %s", conn.ChainID)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("dial calls = %d, want 1", calls.Load())
	}
	if !store.State().Connected {
		t.Error("store not marked connected")
	}

	p.Close()
	if !node.Closed.Load() {
		t.Error("Close did not close node")
	}
}

func TestAcquireWrongNetwork(t *testing.T) {
	node := &testutil.FakeNode{Chain: big.NewInt(1), GW: &testutil.FakeGateway{}}
	store := mintstate.NewStore()

	var alerted [2]uint64
	p := NewProvider(countingDialer(node, new(atomic.Int32)), 4, store,
		WithAlert(func(want, got uint64) { alerted = [2]uint64{want, got} }))

	_, err := p.Acquire(context.Background(), false)
	if !errors.Is(err, apperr.ErrWrongNetwork) {
		t.Fatalf("err = %v, want ErrWrongNetwork", err)
	}
	if alerted != [2]uint64{4, 1} {
		t.Errorf("alert = %v", alerted)
	}
	if store.State().Connected {
		t.Error("wrong network must not connect the session")
	}
}

func TestAcquireDialError(t *testing.T) {
	boom := errors.New("refused")
	p := NewProvider(func(context.Context) (Node, error) { return nil, boom }, 4, mintstate.NewStore())
	if _, err := p.Acquire(context.Background(), false); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped dial error", err)
	}
}

func TestAcquireChainIDErrorClosesNode(t *testing.T) {
	node := &testutil.FakeNode{ChainErr: errors.New("timeout")}
	p := NewProvider(countingDialer(node, new(atomic.Int32)), 4, mintstate.NewStore())
	if _, err := p.Acquire(context.Background(), false); err == nil {
		t.Fatal("expected error")
	}
	if !node.Closed.Load() {
		t.Error("node should be closed after chain id failure")
	}
}

func TestAcquireSignerWithoutKeyring(t *testing.T) {
	node := &testutil.FakeNode{Chain: big.NewInt(4), GW: &testutil.FakeGateway{}}
	p := NewProvider(countingDialer(node, new(atomic.Int32)), 4, mintstate.NewStore())
	if _, err := p.Acquire(context.Background(), true); !errors.Is(err, apperr.ErrNoSigner) {
		t.Errorf("err = %v, want ErrNoSigner", err)
	}
}

func TestAcquireSigner(t *testing.T) {
	node := &testutil.FakeNode{Chain: big.NewInt(4), GW: &testutil.FakeGateway{}}
	store := mintstate.NewStore()
	kr := testKeyring(t)
	p := NewProvider(countingDialer(node, new(atomic.Int32)), 4, store, WithKeyring(kr))

	conn, err := p.Acquire(context.Background(), true)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if conn.ReadOnly() {
		t.Fatal("expected signer")
	}
	if conn.Signer.From != kr.Address() || conn.Address != kr.Address() {
		t.Errorf("signer from = %s, address = %s, want %s", conn.Signer.From, conn.Address, kr.Address())
	}
	if conn.Signer.Context == nil {
		t.Error("signer context not set")
	}
	if got := store.State().Address; got != kr.Address().Hex() {
		t.Errorf("state address = %q", got)
	}

	// Each acquire hands out independent options.
	again, _ := p.Acquire(context.Background(), true)
	conn.Signer.Value = big.NewInt(1)
	if again.Signer.Value != nil {
		t.Error("transact opts shared between acquisitions")
	}
}

func TestHexKeyring(t *testing.T) {
	key, _ := crypto.GenerateKey()
	hexKey := "0x" + common.Bytes2Hex(crypto.FromECDSA(key))

	kr, err := NewHexKeyring(hexKey)
	if err != nil {
		t.Fatalf("NewHexKeyring: %v", err)
	}
	if kr.Address() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Errorf("address mismatch")
	}
	if _, err := NewHexKeyring("not-hex"); err == nil {
		t.Error("expected parse error")
	}
}

func TestKeystoreKeyring(t *testing.T) {
	key, _ := crypto.GenerateKey()
	addr := crypto.PubkeyToAddress(key.PublicKey)
	blob, err := keystore.EncryptKey(&keystore.Key{
		Address:    addr,
		PrivateKey: key,
	}, "secret", keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		t.Fatalf("EncryptKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "wallet.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	pass := []byte("secret")
	kr, err := NewKeystoreKeyring(path, pass)
	if err != nil {
		t.Fatalf("NewKeystoreKeyring: %v", err)
	}
	if kr.Address() != addr {
		t.Errorf("address = %s, want %s", kr.Address(), addr)
	}
	for _, b := range pass {
		if b != 0 {
			t.Fatal("passphrase not cleared")
		}
	}

	if _, err := NewKeystoreKeyring(path, []byte("wrong")); err == nil {
		t.Error("expected decrypt error")
	}
}
