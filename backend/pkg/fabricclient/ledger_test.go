package fabricclient

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/chaincode/credential-cc/chaincode"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/internal/ledgertest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// ledgerContract runs contract calls against the real chaincode on an
// in-memory ledger and answers the way a peer does: strings as-is, other
// values as JSON, failures as flat error text.
type ledgerContract struct {
	ledger *ledgertest.Ledger
	cc     *chaincode.SmartContract

	mu sync.Mutex
	// byteCSV answers with the decimal byte list of each payload
	byteCSV bool
	// missing functions answer like a chaincode that does not define them
	missing map[string]bool
	// failures are returned once, in order, by the next calls of a function
	failures map[string][]error
	// override replaces the payload of a function
	override  map[string][]byte
	calls     map[string]int
	listeners map[*listener]struct{}
	delivered int
}

type listener struct {
	filter *regexp.Regexp
	ch     chan *fab.CCEvent
}

func newLedgerContract() *ledgerContract {
	return &ledgerContract{
		ledger:    ledgertest.New(),
		cc:        chaincode.NewSmartContract(),
		missing:   make(map[string]bool),
		failures:  make(map[string][]error),
		override:  make(map[string][]byte),
		calls:     make(map[string]int),
		listeners: make(map[*listener]struct{}),
	}
}

func (f *ledgerContract) SubmitTransaction(name string, args ...string) ([]byte, error) {
	return f.call(name, args)
}

func (f *ledgerContract) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	return f.call(name, args)
}

func (f *ledgerContract) RegisterEvent(eventFilter string) (fab.Registration, <-chan *fab.CCEvent, error) {
	filter, err := regexp.Compile(eventFilter)
	if err != nil {
		return nil, nil, err
	}
	l := &listener{filter: filter, ch: make(chan *fab.CCEvent, 16)}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[l] = struct{}{}
	return l, l.ch, nil
}

func (f *ledgerContract) Unregister(registration fab.Registration) {
	l, ok := registration.(*listener)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.listeners[l]; ok {
		delete(f.listeners, l)
		close(l.ch)
	}
}

func (f *ledgerContract) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *ledgerContract) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *ledgerContract) failNext(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = append(f.failures[name], err)
}

func (f *ledgerContract) call(name string, args []string) ([]byte, error) {
	f.mu.Lock()
	f.calls[name]++
	if f.missing[name] {
		f.mu.Unlock()
		return nil, fmt.Errorf("Transaction processing for endorser [peer0.university.example.com:7051]: Chaincode status Code: (500) UNKNOWN. Description: Function %s not found in contract CredentialLedger", name)
	}
	if queued := f.failures[name]; len(queued) > 0 {
		f.failures[name] = queued[1:]
		f.mu.Unlock()
		return nil, queued[0]
	}
	override, overridden := f.override[name]
	byteCSV := f.byteCSV
	f.mu.Unlock()

	var result any
	_, err := f.ledger.Transact(func(ctx contractapi.TransactionContextInterface) error {
		var err error
		result, err = dispatch(ctx, f.cc, name, args)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Transaction processing for endorser [peer0.university.example.com:7051]: Chaincode status Code: (500) UNKNOWN. Description: %s", err.Error())
	}
	f.publish()

	payload, err := encodeResult(result)
	if err != nil {
		return nil, err
	}
	if overridden {
		payload = override
	}
	if byteCSV {
		payload = toByteCSV(payload)
	}
	return payload, nil
}

func (f *ledgerContract) publish() {
	events := f.ledger.Events()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, event := range events[f.delivered:] {
		for l := range f.listeners {
			if !l.filter.MatchString(event.Name) {
				continue
			}
			select {
			case l.ch <- &fab.CCEvent{
				TxID:        event.TxID,
				ChaincodeID: "credential-cc",
				EventName:   event.Name,
				Payload:     event.Payload,
				BlockNumber: uint64(f.delivered + 1),
			}:
			default:
			}
		}
		f.delivered++
	}
}

func dispatch(ctx contractapi.TransactionContextInterface, cc *chaincode.SmartContract, name string, args []string) (any, error) {
	arity := map[string]int{
		"CreateAsset":            10,
		"UpdateAsset":            10,
		"ReadAsset":              1,
		"DeleteAsset":            1,
		"TransferAsset":          2,
		"UpdateAssetStatus":      2,
		"AssetExists":            1,
		"GetAllAssets":           0,
		"GetAssetHistory":        1,
		"StoreCredentialHash":    6,
		"GetCredentialHash":      1,
		"CredentialHashExists":   1,
		"VerifyCredentialHash":   2,
		"GetAllCredentialHashes": 0,
	}
	want, ok := arity[name]
	if !ok {
		return nil, fmt.Errorf("Function %s not found in contract CredentialLedger", name)
	}
	if len(args) != want {
		return nil, fmt.Errorf("Incorrect number of params. Expected %d, received %d", want, len(args))
	}
	a := args
	switch name {
	case "CreateAsset":
		return nil, cc.CreateAsset(ctx, a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8], a[9])
	case "UpdateAsset":
		return nil, cc.UpdateAsset(ctx, a[0], a[1], a[2], a[3], a[4], a[5], a[6], a[7], a[8], a[9])
	case "ReadAsset":
		return cc.ReadAsset(ctx, a[0])
	case "DeleteAsset":
		return nil, cc.DeleteAsset(ctx, a[0])
	case "TransferAsset":
		return cc.TransferAsset(ctx, a[0], a[1])
	case "UpdateAssetStatus":
		return nil, cc.UpdateAssetStatus(ctx, a[0], a[1])
	case "AssetExists":
		return cc.AssetExists(ctx, a[0])
	case "GetAllAssets":
		return cc.GetAllAssets(ctx)
	case "GetAssetHistory":
		return cc.GetAssetHistory(ctx, a[0])
	case "StoreCredentialHash":
		return nil, cc.StoreCredentialHash(ctx, a[0], a[1], a[2], a[3], a[4], a[5])
	case "GetCredentialHash":
		return cc.GetCredentialHash(ctx, a[0])
	case "CredentialHashExists":
		return cc.CredentialHashExists(ctx, a[0])
	case "VerifyCredentialHash":
		return cc.VerifyCredentialHash(ctx, a[0], a[1])
	default:
		return cc.GetAllCredentialHashes(ctx)
	}
}

func encodeResult(result any) ([]byte, error) {
	switch v := result.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case bool:
		return []byte(strconv.FormatBool(v)), nil
	default:
		return json.Marshal(v)
	}
}

func toByteCSV(payload []byte) []byte {
	values := make([]string, len(payload))
	for i, b := range payload {
		values[i] = strconv.Itoa(int(b))
	}
	return []byte(strings.Join(values, ","))
}

type stubSession struct {
	contract Contract
	closes   *atomic.Int32
}

func (s *stubSession) Contract() Contract { return s.contract }

func (s *stubSession) Close() { s.closes.Add(1) }

// stubDialer hands out sessions over one contract and counts dials
type stubDialer struct {
	contract Contract
	err      error
	delay    time.Duration
	dials    atomic.Int32
	closes   atomic.Int32
}

func (d *stubDialer) Dial(ctx context.Context) (Session, error) {
	d.dials.Add(1)
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.err != nil {
		return nil, d.err
	}
	return &stubSession{contract: d.contract, closes: &d.closes}, nil
}

type testClient struct {
	*Client
	ledger   *ledgerContract
	dialer   *stubDialer
	registry *prometheus.Registry
}

func newTestClient(t *testing.T, configure ...func(*Config)) *testClient {
	t.Helper()
	ledger := newLedgerContract()
	dialer := &stubDialer{contract: ledger}
	registry := prometheus.NewRegistry()
	cfg := Config{
		Channel:      "credentials",
		Chaincode:    "credential-cc",
		MSPID:        "UniversityMSP",
		Dialer:       dialer,
		PromRegistry: registry,
		Now: func() time.Time {
			return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
		},
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return &testClient{Client: client, ledger: ledger, dialer: dialer, registry: registry}
}

func certificate(id string) Asset {
	return Asset{
		ID:              id,
		Owner:           "John Smith",
		Department:      "Computer Science",
		AcademicYear:    "2022-2023",
		StartDate:       "2019-09-01",
		EndDate:         "2023-05-30",
		CertificateType: "Degree Certificate",
		IssueDate:       "2023-06-15",
		Status:          StatusIssued,
		TxHash:          "0x1a2b3c4d",
	}
}
