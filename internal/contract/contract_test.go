package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestMintPriceIsOneHundredthEther(t *testing.T) {
	want, _ := new(big.Int).SetString("10000000000000000", 10)
	if MintPrice.Cmp(want) != 0 {
		t.Fatalf("MintPrice = %s, want %s", MintPrice, want)
	}
}

func TestPriceReturnsCopy(t *testing.T) {
	p := Price()
	p.SetInt64(1)
	if MintPrice.Cmp(big.NewInt(1)) == 0 {
		t.Fatal("Price must not alias MintPrice")
	}
}

func TestABIHasSaleMethods(t *testing.T) {
	c, err := New(common.HexToAddress("0x1"), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, name := range []string{"owner", "presaleStarted", "presaleEnded", "tokenIds", "startPresale", "presaleMint", "mint"} {
		if _, ok := c.abi.Methods[name]; !ok {
			t.Errorf("abi missing method %q", name)
		}
	}
	for _, name := range []string{"presaleMint", "mint"} {
		if !c.abi.Methods[name].IsPayable() {
			t.Errorf("%s should be payable", name)
		}
	}
	if c.abi.Methods["startPresale"].IsPayable() {
		t.Error("startPresale should not be payable")
	}
	if got := len(c.abi.Constructor.Inputs); got != 2 {
		t.Errorf("constructor inputs = %d, want 2", got)
	}
}

func TestSelectorsMatchABI(t *testing.T) {
	c, err := New(common.HexToAddress("0x1"), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cases := map[string][]byte{
		"owner":          funcOwner.Selector[:],
		"presaleStarted": funcPresaleStarted.Selector[:],
		"presaleEnded":   funcPresaleEnded.Selector[:],
		"tokenIds":       funcTokenIds.Selector[:],
	}
	for name, sel := range cases {
		if got := c.abi.Methods[name].ID; string(got) != string(sel) {
			t.Errorf("%s selector = %x, want %x", name, sel, got)
		}
	}
}
