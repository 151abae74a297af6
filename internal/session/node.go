package session

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lmittmann/w3"

	"github.com/cryptodevs/nftmint/internal/contract"
)

type ethNode struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	gateway *contract.CryptoDevs
}

// EthDialer dials rpcURL once and shares the connection between the
// go-ethereum client (writes, receipts) and the w3 client (batched reads).
func EthDialer(rpcURL string, contractAddr common.Address) Dialer {
	return func(ctx context.Context) (Node, error) {
		rc, err := rpc.DialContext(ctx, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
		}
		ec := ethclient.NewClient(rc)
		gw, err := contract.New(contractAddr, ec, w3.NewClient(rc))
		if err != nil {
			rc.Close()
			return nil, err
		}
		return &ethNode{rpc: rc, eth: ec, gateway: gw}, nil
	}
}

func (n *ethNode) ChainID(ctx context.Context) (*big.Int, error) {
	return n.eth.ChainID(ctx)
}

func (n *ethNode) Gateway() contract.Gateway { return n.gateway }

func (n *ethNode) Close() { n.rpc.Close() }
