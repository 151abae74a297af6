package session

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/term"
)

// Keyring produces fresh signing options for one wallet.
type Keyring interface {
	Address() common.Address
	TransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
}

type keyKeyring struct {
	key *ecdsa.PrivateKey
}

// NewKeyKeyring wraps an already decoded private key.
func NewKeyKeyring(key *ecdsa.PrivateKey) Keyring {
	return &keyKeyring{key: key}
}

// NewHexKeyring parses a hex private key, with or without 0x prefix.
func NewHexKeyring(hexKey string) (Keyring, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("keyring: parse private key: %w", err)
	}
	return &keyKeyring{key: key}, nil
}

// NewKeystoreKeyring decrypts a go-ethereum keystore file. The passphrase
// slice is zeroed before returning.
func NewKeystoreKeyring(path string, passphrase []byte) (Keyring, error) {
	defer clear(passphrase)

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyring: read keystore %s: %w", path, err)
	}
	key, err := keystore.DecryptKey(blob, string(passphrase))
	if err != nil {
		return nil, fmt.Errorf("keyring: decrypt keystore: %w", err)
	}
	return &keyKeyring{key: key.PrivateKey}, nil
}

func (k *keyKeyring) Address() common.Address {
	return crypto.PubkeyToAddress(k.key.PublicKey)
}

// TransactOpts returns new options on every call so per-call values such
// as the attached payment never leak between transactions.
func (k *keyKeyring) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(k.key, chainID)
}

// PromptPassphrase reads the keystore passphrase from the terminal without
// echo.
func PromptPassphrase() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("keyring: stdin is not a terminal: set WALLET_PASSPHRASE or run interactively")
	}
	fmt.Fprint(os.Stderr, "Enter keystore passphrase: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(fd)
	if err != nil {
		return nil, fmt.Errorf("keyring: read passphrase: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("keyring: passphrase cannot be empty")
	}
	return raw, nil
}
