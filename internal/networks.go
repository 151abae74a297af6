package internal

import (
	"sort"
	"time"
)

// NetworkPreset contains network-specific default values. An empty
// DefaultRPC means the network has no public endpoint and rpc_url must be
// configured.
type NetworkPreset struct {
	ChainID      uint64
	DefaultRPC   string
	PollInterval time.Duration
}

// Networks contains all supported network presets.
var Networks = map[string]NetworkPreset{
	"rinkeby": {
		ChainID:      4,
		PollInterval: 5 * time.Second,
	},
	"goerli": {
		ChainID:      5,
		DefaultRPC:   "https://rpc.ankr.com/eth_goerli",
		PollInterval: 5 * time.Second,
	},
	"sepolia": {
		ChainID:      11155111,
		DefaultRPC:   "https://rpc.sepolia.org",
		PollInterval: 5 * time.Second,
	},
	"mainnet": {
		ChainID:      1,
		DefaultRPC:   "https://cloudflare-eth.com",
		PollInterval: 12 * time.Second,
	},
	"localhost": {
		ChainID:      31337,
		DefaultRPC:   "http://127.0.0.1:8545",
		PollInterval: time.Second,
	},
}

// GetNetworkPreset returns the preset for a network name.
func GetNetworkPreset(network string) (NetworkPreset, bool) {
	preset, ok := Networks[network]
	return preset, ok
}

// SupportedNetworks returns the sorted preset names.
func SupportedNetworks() []string {
	names := make([]string, 0, len(Networks))
	for name := range Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
