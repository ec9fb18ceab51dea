package fabricclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
	"gopkg.in/yaml.v3"
)

// Contract is the part of a gateway contract handle the client uses
type Contract interface {
	SubmitTransaction(name string, args ...string) ([]byte, error)
	EvaluateTransaction(name string, args ...string) ([]byte, error)
	RegisterEvent(eventFilter string) (fab.Registration, <-chan *fab.CCEvent, error)
	Unregister(registration fab.Registration)
}

// Session is one open connection to the network
type Session interface {
	Contract() Contract
	Close()
}

// Dialer opens a session. The client dials at most once at a time.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

type gatewaySession struct {
	gw       *gateway.Gateway
	network  *gateway.Network
	contract *gateway.Contract
}

func (s *gatewaySession) Contract() Contract {
	return s.contract
}

func (s *gatewaySession) Close() {
	s.gw.Close()
	s.network = nil
	s.contract = nil
}

// gatewayDialer connects through the Fabric SDK gateway
type gatewayDialer struct {
	config Config
}

func (d *gatewayDialer) Dial(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wallet, err := d.wallet()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare wallet: %w", err)
	}
	configProvider, err := d.configProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to load connection profile: %w", err)
	}

	gw, err := gateway.Connect(
		gateway.WithConfig(configProvider),
		gateway.WithIdentity(wallet, d.config.IdentityLabel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	network, err := gw.GetNetwork(d.config.Channel)
	if err != nil {
		gw.Close()
		return nil, fmt.Errorf("failed to get network %s: %w", d.config.Channel, err)
	}

	return &gatewaySession{
		gw:       gw,
		network:  network,
		contract: network.GetContract(d.config.Chaincode),
	}, nil
}

// wallet returns a file system wallet when WalletPath is set, populated only
// if the identity label is missing, and otherwise a wallet held in memory
func (d *gatewayDialer) wallet() (*gateway.Wallet, error) {
	if d.config.WalletPath == "" {
		wallet := gateway.NewInMemoryWallet()
		if err := populateWallet(wallet, d.config); err != nil {
			return nil, err
		}
		return wallet, nil
	}

	wallet, err := gateway.NewFileSystemWallet(filepath.Clean(d.config.WalletPath))
	if err != nil {
		return nil, err
	}
	if !wallet.Exists(d.config.IdentityLabel) {
		if err := populateWallet(wallet, d.config); err != nil {
			return nil, err
		}
	}
	return wallet, nil
}

func (d *gatewayDialer) configProvider() (core.ConfigProvider, error) {
	if d.config.ConnectionProfile != "" {
		return config.FromFile(filepath.Clean(d.config.ConnectionProfile)), nil
	}
	profile, err := renderProfile(d.config)
	if err != nil {
		return nil, err
	}
	return config.FromRaw(profile, "yaml"), nil
}

func populateWallet(wallet *gateway.Wallet, cfg Config) error {
	cert, err := readPEM(cfg.CertPath)
	if err != nil {
		return fmt.Errorf("failed to read certificate: %w", err)
	}
	key, err := readPEM(cfg.KeyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	identity := gateway.NewX509Identity(cfg.MSPID, string(cert), string(key))
	return wallet.Put(cfg.IdentityLabel, identity)
}

// readPEM reads path, or the first regular file in it when path is a
// directory such as an MSP keystore
func readPEM(path string) ([]byte, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.Type().IsRegular() {
				names = append(names, entry.Name())
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no files in %s", path)
		}
		sort.Strings(names)
		path = filepath.Join(path, names[0])
	}
	return os.ReadFile(path)
}

// Connection profile rendered when no profile file is configured. It names a
// single peer that endorses, answers queries and delivers events for the
// channel; orderers are discovered from the channel configuration.
type connectionProfile struct {
	Version       string                         `yaml:"version"`
	Client        profileClient                  `yaml:"client"`
	Channels      map[string]profileChannel      `yaml:"channels"`
	Organizations map[string]profileOrganization `yaml:"organizations"`
	Peers         map[string]profilePeer         `yaml:"peers"`
}

type profileClient struct {
	Organization string         `yaml:"organization"`
	Logging      map[string]any `yaml:"logging"`
}

type profileChannel struct {
	Peers map[string]profilePeerRoles `yaml:"peers"`
}

type profilePeerRoles struct {
	EndorsingPeer  bool `yaml:"endorsingPeer"`
	ChaincodeQuery bool `yaml:"chaincodeQuery"`
	LedgerQuery    bool `yaml:"ledgerQuery"`
	EventSource    bool `yaml:"eventSource"`
}

type profileOrganization struct {
	MSPID string   `yaml:"mspid"`
	Peers []string `yaml:"peers"`
}

type profilePeer struct {
	URL         string            `yaml:"url"`
	TLSCACerts  map[string]string `yaml:"tlsCACerts"`
	GRPCOptions map[string]any    `yaml:"grpcOptions"`
}

func renderProfile(cfg Config) ([]byte, error) {
	if cfg.PeerEndpoint == "" {
		return nil, errors.New("peer endpoint is required without a connection profile")
	}
	tlsCert, err := filepath.Abs(cfg.TLSCertPath)
	if err != nil {
		return nil, err
	}

	peerName := cfg.HostnameOverride
	if peerName == "" {
		peerName = hostOf(cfg.PeerEndpoint)
	}
	endpoint := cfg.PeerEndpoint
	if !strings.Contains(endpoint, "://") {
		endpoint = "grpcs://" + endpoint
	}
	grpcOptions := map[string]any{
		"keep-alive-time":    "0s",
		"keep-alive-timeout": "20s",
		"fail-fast":          false,
		"allow-insecure":     false,
	}
	if cfg.HostnameOverride != "" {
		grpcOptions["ssl-target-name-override"] = cfg.HostnameOverride
		grpcOptions["hostnameOverride"] = cfg.HostnameOverride
	}

	profile := connectionProfile{
		Version: "1.0.0",
		Client: profileClient{
			Organization: cfg.MSPID,
			Logging:      map[string]any{"level": "info"},
		},
		Channels: map[string]profileChannel{
			cfg.Channel: {
				Peers: map[string]profilePeerRoles{
					peerName: {EndorsingPeer: true, ChaincodeQuery: true, LedgerQuery: true, EventSource: true},
				},
			},
		},
		Organizations: map[string]profileOrganization{
			cfg.MSPID: {MSPID: cfg.MSPID, Peers: []string{peerName}},
		},
		Peers: map[string]profilePeer{
			peerName: {
				URL:         endpoint,
				TLSCACerts:  map[string]string{"path": tlsCert},
				GRPCOptions: grpcOptions,
			},
		},
	}
	return yaml.Marshal(&profile)
}

func hostOf(endpoint string) string {
	if i := strings.Index(endpoint, "://"); i >= 0 {
		endpoint = endpoint[i+3:]
	}
	host, _, err := net.SplitHostPort(endpoint)
	if err != nil {
		return endpoint
	}
	return host
}
