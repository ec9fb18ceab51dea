package main

import (
	"context"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/db"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/issuance"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/offchain"
)

// ledgerAPI is the gateway client surface the commands use
type ledgerAPI interface {
	CreateAsset(ctx context.Context, asset fabricclient.Asset) error
	ReadAsset(ctx context.Context, id string) (*fabricclient.Asset, error)
	UpdateAsset(ctx context.Context, asset fabricclient.Asset) error
	DeleteAsset(ctx context.Context, id string) error
	TransferAsset(ctx context.Context, id, newOwner string) (string, error)
	UpdateAssetStatus(ctx context.Context, id, status string) error
	AssetExists(ctx context.Context, id string) (bool, error)
	GetAllAssets(ctx context.Context) (*fabricclient.ScanResult[fabricclient.Asset], error)
	GetAssetsByOwner(ctx context.Context, owner string) ([]fabricclient.Asset, error)
	GetAssetsByStatus(ctx context.Context, status string) ([]fabricclient.Asset, error)
	GetAssetHistory(ctx context.Context, id string) []fabricclient.HistoryEntry

	StoreCredentialHash(ctx context.Context, record fabricclient.CredentialHash) error
	GetCredentialHash(ctx context.Context, id string) (*fabricclient.CredentialHash, error)
	CredentialHashExists(ctx context.Context, id string) (bool, error)
	VerifyCredentialHash(ctx context.Context, id, hash string) (*fabricclient.Verification, error)
	GetAllCredentialHashes(ctx context.Context) (*fabricclient.ScanResult[fabricclient.CredentialHash], error)

	WatchEvents(ctx context.Context, filter string) (<-chan fabricclient.Event, error)
	Close()
}

type issuerAPI interface {
	Issue(ctx context.Context, req issuance.Request) (*issuance.Issued, error)
	Check(ctx context.Context, id string) (*issuance.Result, error)
}

func dialLedger(a *app) (ledgerAPI, error) {
	f := a.cfg.Fabric
	client, err := fabricclient.NewClient(fabricclient.Config{
		ConnectionProfile:  f.ConnectionProfile,
		PeerEndpoint:       f.PeerEndpoint,
		TLSCertPath:        f.TLSCertPath,
		HostnameOverride:   f.HostnameOverride,
		Channel:            f.Channel,
		Chaincode:          f.Chaincode,
		MSPID:              f.MSPID,
		CertPath:           f.CertPath,
		KeyPath:            f.KeyPath,
		WalletPath:         f.WalletPath,
		IdentityLabel:      f.IdentityLabel,
		EnforceTransitions: f.EnforceTransitions,
		Logger:             a.logger,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func openIssuer(a *app, ledger ledgerAPI) (issuerAPI, error) {
	ctx := context.Background()
	gormDB, err := db.Open(ctx, a.cfg.DB, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close(gormDB) })

	store, err := offchain.New(ctx, gormDB, a.logger)
	if err != nil {
		return nil, err
	}
	service, err := issuance.New(issuance.Config{
		Ledger:   ledger,
		Payloads: store,
		Logger:   a.logger,
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}
