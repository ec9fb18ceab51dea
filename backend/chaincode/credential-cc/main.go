package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/chaincode/credential-cc/chaincode"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/kelseyhightower/envconfig"
)

// serverConfig is only needed when the peer runs the chaincode as an external service
type serverConfig struct {
	Address string `envconfig:"CHAINCODE_SERVER_ADDRESS"`
	ID      string `envconfig:"CHAINCODE_ID"`
	// TLS is enabled when both the key and certificate files are set;
	// ClientCACert additionally requires peers to present a client certificate
	TLSKey       string `envconfig:"CHAINCODE_TLS_KEY"`
	TLSCert      string `envconfig:"CHAINCODE_TLS_CERT"`
	ClientCACert string `envconfig:"CHAINCODE_CLIENT_CA_CERT"`
}

func (c serverConfig) tlsProperties() (shim.TLSProperties, error) {
	if c.TLSKey == "" && c.TLSCert == "" {
		if c.ClientCACert != "" {
			return shim.TLSProperties{}, errors.New("client CA certificate set without a TLS key and certificate")
		}
		return shim.TLSProperties{Disabled: true}, nil
	}
	if c.TLSKey == "" || c.TLSCert == "" {
		return shim.TLSProperties{}, errors.New("TLS needs both CHAINCODE_TLS_KEY and CHAINCODE_TLS_CERT")
	}

	props := shim.TLSProperties{}
	var err error
	if props.Key, err = os.ReadFile(c.TLSKey); err != nil {
		return shim.TLSProperties{}, fmt.Errorf("failed to read TLS key: %w", err)
	}
	if props.Cert, err = os.ReadFile(c.TLSCert); err != nil {
		return shim.TLSProperties{}, fmt.Errorf("failed to read TLS certificate: %w", err)
	}
	if c.ClientCACert != "" {
		if props.ClientCACerts, err = os.ReadFile(c.ClientCACert); err != nil {
			return shim.TLSProperties{}, fmt.Errorf("failed to read client CA certificate: %w", err)
		}
	}
	return props, nil
}

func main() {
	credentialChaincode, err := contractapi.NewChaincode(chaincode.NewSmartContract())
	if err != nil {
		log.Panicf("Error creating credential chaincode: %v", err)
	}

	var cfg serverConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Panicf("Error reading chaincode server config: %v", err)
	}

	if cfg.Address == "" {
		if err := credentialChaincode.Start(); err != nil {
			log.Panicf("Error starting credential chaincode: %v", err)
		}
		return
	}

	tlsProps, err := cfg.tlsProperties()
	if err != nil {
		log.Panicf("Error reading chaincode server TLS config: %v", err)
	}
	server := &shim.ChaincodeServer{
		CCID:     cfg.ID,
		Address:  cfg.Address,
		CC:       credentialChaincode,
		TLSProps: tlsProps,
	}
	log.Printf("Credential chaincode serving as external service on %s (tls: %t)", cfg.Address, !tlsProps.Disabled)
	if err := server.Start(); err != nil {
		log.Panicf("Error starting credential chaincode server: %v", err)
	}
}
