// Package ledgertest provides an in-memory world state for exercising the
// credential chaincode without a peer.
//
// It wraps shimtest.MockStub and adds what the mock lacks: key history,
// non-blocking events and Fabric's write-set semantics, where the writes of a
// transaction become visible only once it completes without error.
package ledgertest

import (
	"crypto/x509"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-chaincode-go/shimtest"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/hyperledger/fabric-protos-go/ledger/queryresult"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Event is a chaincode event emitted by a committed transaction
type Event struct {
	Name    string
	TxID    string
	Payload []byte
}

type write struct {
	key    string
	value  []byte
	delete bool
}

// Stub is the ChaincodeStubInterface handed to contract code
type Stub struct {
	*shimtest.MockStub
	pending []write
	event   *Event
	history map[string][]*queryresult.KeyModification
}

// PutState buffers a write until the transaction completes
func (s *Stub) PutState(key string, value []byte) error {
	if s.TxID == "" {
		return errors.New("PutState called outside a transaction")
	}
	if key == "" {
		return errors.New("key must not be an empty string")
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	s.pending = append(s.pending, write{key: key, value: buf})
	return nil
}

// DelState buffers a delete until the transaction completes
func (s *Stub) DelState(key string) error {
	if s.TxID == "" {
		return errors.New("DelState called outside a transaction")
	}
	s.pending = append(s.pending, write{key: key, delete: true})
	return nil
}

// SetEvent keeps the last event of the transaction, as a peer does
func (s *Stub) SetEvent(name string, payload []byte) error {
	if name == "" {
		return errors.New("event name can not be empty string")
	}
	s.event = &Event{Name: name, TxID: s.TxID, Payload: payload}
	return nil
}

// GetHistoryForKey returns every committed modification of key
func (s *Stub) GetHistoryForKey(key string) (shim.HistoryQueryIteratorInterface, error) {
	mods := s.history[key]
	return &historyIterator{mods: append([]*queryresult.KeyModification(nil), mods...)}, nil
}

func (s *Stub) commit() error {
	for _, w := range s.pending {
		var err error
		if w.delete {
			err = s.MockStub.DelState(w.key)
		} else {
			err = s.MockStub.PutState(w.key, w.value)
		}
		if err != nil {
			return fmt.Errorf("commit %s: %w", w.key, err)
		}
		s.history[w.key] = append(s.history[w.key], &queryresult.KeyModification{
			TxId:      s.TxID,
			Value:     w.value,
			Timestamp: s.TxTimestamp,
			IsDelete:  w.delete,
		})
	}
	return nil
}

type historyIterator struct {
	mods []*queryresult.KeyModification
	pos  int
}

func (it *historyIterator) HasNext() bool { return it.pos < len(it.mods) }

func (it *historyIterator) Next() (*queryresult.KeyModification, error) {
	if !it.HasNext() {
		return nil, errors.New("history iterator exhausted")
	}
	mod := it.mods[it.pos]
	it.pos++
	return mod, nil
}

func (it *historyIterator) Close() error { return nil }

// ClientIdentity is a fixed submitting identity
type ClientIdentity struct {
	ID    string
	MSPID string
}

func (c *ClientIdentity) GetID() (string, error) { return c.ID, nil }
func (c *ClientIdentity) GetMSPID() (string, error) { return c.MSPID, nil }
func (c *ClientIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}

func (c *ClientIdentity) AssertAttributeValue(name, _ string) error {
	return fmt.Errorf("attribute %s not found", name)
}

func (c *ClientIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

type transactionContext struct {
	stub     *Stub
	identity cid.ClientIdentity
}

func (t *transactionContext) GetStub() shim.ChaincodeStubInterface { return t.stub }
func (t *transactionContext) GetClientIdentity() cid.ClientIdentity { return t.identity }

// Ledger serializes transactions against one shared world state
type Ledger struct {
	Identity *ClientIdentity
	// Clock supplies transaction timestamps
	Clock func() time.Time

	mu     sync.Mutex
	stub   *Stub
	seq    int
	events []Event
}

// New returns an empty ledger with a fixed submitter and clock
func New() *Ledger {
	start := time.Date(2023, time.June, 15, 9, 0, 0, 0, time.UTC)
	return &Ledger{
		Identity: &ClientIdentity{ID: "x509::CN=registrar::CN=ca.university", MSPID: "UniversityMSP"},
		Clock: func() time.Time {
			return start
		},
		stub: &Stub{
			MockStub: shimtest.NewMockStub("credential-cc", nil),
			history:  make(map[string][]*queryresult.KeyModification),
		},
	}
}

// Transact runs fn as one transaction and returns its id. Writes and the
// event are kept only when fn succeeds.
func (l *Ledger) Transact(fn func(ctx contractapi.TransactionContextInterface) error) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	txID := fmt.Sprintf("tx-%04d", l.seq)
	l.stub.MockTransactionStart(txID)
	l.stub.TxTimestamp = timestamppb.New(l.Clock().Add(time.Duration(l.seq) * time.Second))
	l.stub.pending = nil
	l.stub.event = nil
	defer l.stub.MockTransactionEnd(txID)

	if err := fn(&transactionContext{stub: l.stub, identity: l.Identity}); err != nil {
		return txID, err
	}
	if err := l.stub.commit(); err != nil {
		return txID, err
	}
	if l.stub.event != nil {
		l.events = append(l.events, *l.stub.event)
	}
	return txID, nil
}

// Seed writes raw bytes under key outside of any contract call
func (l *Ledger) Seed(key string, value []byte) error {
	_, err := l.Transact(func(ctx contractapi.TransactionContextInterface) error {
		return ctx.GetStub().PutState(key, value)
	})
	return err
}

// State returns the committed value of key
func (l *Ledger) State(key string) []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stub.State[key]
}

// Events returns the events of every committed transaction in order
func (l *Ledger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}
