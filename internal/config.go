package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/ethereum/go-ethereum/common"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var rpcURLPattern = regexp.MustCompile(`^(https?|wss?)://\S+$`)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app" envconfig:"app"`
	Chain    ChainConfig       `yaml:"chain" envconfig:"chain"`
	Wallet   WalletConfig      `yaml:"wallet" envconfig:"wallet"`
	Poller   PollerConfig      `yaml:"poller" envconfig:"poller"`
	Metadata MetadataConfig    `yaml:"metadata" envconfig:"metadata"`
	Deploy   DeployConfig      `yaml:"deploy" envconfig:"deploy"`
	SQLite   SQLiteConfig      `yaml:"sqlite" envconfig:"sqlite"`
	Auth     AuthConfig        `yaml:"auth" envconfig:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Chain.Validate(); err != nil {
		return err
	}
	if err := c.Wallet.Validate(); err != nil {
		return err
	}
	if err := c.Poller.Validate(c.Chain.preset); err != nil {
		return err
	}
	if err := c.Deploy.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" envconfig:"log_level"`
	HTTP     HTTPConfig `yaml:"http" envconfig:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" envconfig:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ChainConfig selects the network and the deployed contract.
//
// Network names a preset (see Networks) that fills ChainID and RPCURL when
// they are left empty.
type ChainConfig struct {
	Network         string        `yaml:"network" envconfig:"network"`
	ChainID         uint64        `yaml:"chain_id" envconfig:"id"`
	RPCURL          string        `yaml:"rpc_url" envconfig:"rpc_url"`
	ContractAddress string        `yaml:"contract_address" envconfig:"contract_address"`
	TxTimeout       time.Duration `yaml:"tx_timeout" envconfig:"tx_timeout"`

	preset *NetworkPreset
}

// Validate applies the network preset and validates the chain configuration.
func (c *ChainConfig) Validate() error {
	c.preset = nil
	if c.Network != "" {
		p, ok := GetNetworkPreset(c.Network)
		if !ok {
			return fmt.Errorf("chain: unknown network %q (supported: %v)", c.Network, SupportedNetworks())
		}
		c.preset = &p
		if c.ChainID == 0 {
			c.ChainID = p.ChainID
		}
		if c.RPCURL == "" {
			c.RPCURL = p.DefaultRPC
		}
	}
	if c.TxTimeout == 0 {
		c.TxTimeout = 5 * time.Minute
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.ChainID, validation.Required),
		validation.Field(&c.RPCURL, validation.Required, validation.Match(rpcURLPattern)),
		validation.Field(&c.ContractAddress, validation.By(hexAddress)),
		validation.Field(&c.TxTimeout, validation.Min(time.Second)),
	)
}

// Contract returns the configured contract address.
func (c *ChainConfig) Contract() (common.Address, error) {
	if c.ContractAddress == "" {
		return common.Address{}, errors.New("chain: contract_address is not set")
	}
	return common.HexToAddress(c.ContractAddress), nil
}

func hexAddress(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !common.IsHexAddress(s) {
		return errors.New("must be a 0x-prefixed 20 byte hex address")
	}
	return nil
}

// WalletConfig selects the signing key. PrivateKey and KeystorePath are
// mutually exclusive; with neither set the service runs read-only.
type WalletConfig struct {
	PrivateKey   string `yaml:"private_key" envconfig:"private_key"`
	KeystorePath string `yaml:"keystore_path" envconfig:"keystore_path"`
	// Passphrase unlocks the keystore. When empty it is prompted for.
	Passphrase string `yaml:"passphrase" envconfig:"passphrase"`
}

// Validate validates the wallet configuration.
func (c *WalletConfig) Validate() error {
	if c.PrivateKey != "" && c.KeystorePath != "" {
		return errors.New("wallet: set either private_key or keystore_path, not both")
	}
	return nil
}

// ReadOnly reports whether no signing key is configured.
func (c *WalletConfig) ReadOnly() bool {
	return c.PrivateKey == "" && c.KeystorePath == ""
}

// PollerConfig tunes the state poller.
type PollerConfig struct {
	Interval    time.Duration `yaml:"interval" envconfig:"interval"`
	ReadTimeout time.Duration `yaml:"read_timeout" envconfig:"read_timeout"`
}

// Validate fills the interval from the network preset and validates the
// poller configuration.
func (c *PollerConfig) Validate(preset *NetworkPreset) error {
	if c.Interval == 0 {
		c.Interval = 5 * time.Second
		if preset != nil && preset.PollInterval > 0 {
			c.Interval = preset.PollInterval
		}
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.Min(100*time.Millisecond)),
		validation.Field(&c.ReadTimeout, validation.Min(100*time.Millisecond)),
	)
}

// MetadataConfig describes the token metadata collection served under
// /api/{tokenId}. Empty fields fall back to the Crypto Devs defaults.
type MetadataConfig struct {
	NamePrefix   string `yaml:"name_prefix" envconfig:"name_prefix"`
	Description  string `yaml:"description" envconfig:"description"`
	ImageBaseURL string `yaml:"image_base_url" envconfig:"image_base_url"`
	ImageExt     string `yaml:"image_ext" envconfig:"image_ext"`
	// Watch reloads this section when the config file changes.
	Watch bool `yaml:"watch" envconfig:"watch"`
}

// DeployConfig holds the constructor arguments and artifact for the deploy
// command.
type DeployConfig struct {
	ArtifactPath     string        `yaml:"artifact_path" envconfig:"artifact_path"`
	WhitelistAddress string        `yaml:"whitelist_address" envconfig:"whitelist_address"`
	MetadataURL      string        `yaml:"metadata_url" envconfig:"metadata_url"`
	Timeout          time.Duration `yaml:"timeout" envconfig:"timeout"`
}

// Validate checks the fields that are set. Completeness is checked by
// Ready, only when a deployment is requested.
func (c *DeployConfig) Validate() error {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.WhitelistAddress, validation.By(hexAddress)),
		validation.Field(&c.Timeout, validation.Min(time.Second)),
	)
}

// Ready validates that everything a deployment needs is present.
func (c *DeployConfig) Ready() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ArtifactPath, validation.Required),
		validation.Field(&c.WhitelistAddress, validation.Required, validation.By(hexAddress)),
		validation.Field(&c.MetadataURL, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" envconfig:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the action endpoints.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): anyone who can reach the port can trigger
//     transactions, suitable for a local wallet.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" envconfig:"mode"`
	Token string `yaml:"token" envconfig:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Chain: ChainConfig{
			Network:   "rinkeby",
			TxTimeout: 5 * time.Minute,
		},
		Poller: PollerConfig{
			ReadTimeout: 10 * time.Second,
		},
		Deploy: DeployConfig{
			ArtifactPath: "artifacts/contracts/CryptoDevs.sol/CryptoDevs.json",
			Timeout:      5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "./cryptodevs.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
