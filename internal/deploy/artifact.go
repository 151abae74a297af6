package deploy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cryptodevs/nftmint/internal/contract"
)

// Artifact is the subset of a Hardhat compilation artifact needed to deploy.
type Artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// LoadArtifact reads a Hardhat artifact JSON file.
func LoadArtifact(path string) (*Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deploy: read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("deploy: decode artifact %s: %w", path, err)
	}
	return &a, nil
}

// Parse returns the contract ABI and creation bytecode. An artifact without
// an ABI falls back to the built-in CryptoDevs ABI.
func (a *Artifact) Parse() (abi.ABI, []byte, error) {
	src := []byte(contract.CryptoDevsABI)
	if len(a.ABI) > 0 && string(a.ABI) != "null" {
		src = a.ABI
	}
	parsed, err := abi.JSON(bytes.NewReader(src))
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("deploy: parse abi: %w", err)
	}

	hexCode := strings.TrimSpace(a.Bytecode)
	if hexCode == "" || hexCode == "0x" {
		return abi.ABI{}, nil, errors.New("deploy: artifact has no bytecode")
	}
	if !strings.HasPrefix(hexCode, "0x") {
		hexCode = "0x" + hexCode
	}
	code, err := hexutil.Decode(hexCode)
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("deploy: decode bytecode: %w", err)
	}
	return parsed, code, nil
}
