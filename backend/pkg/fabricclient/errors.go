package fabricclient

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrMalformedResponse = errors.New("malformed response")
	ErrConnection        = errors.New("connection failure")
	// ErrConflict means the peers rejected a submit at commit because a key it
	// read was changed by another transaction first. Retrying re-reads.
	ErrConflict          = errors.New("transaction conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// OperationError is returned by every client operation. Kind is one of the
// sentinel errors above when the failure could be classified; Err is the
// underlying cause as reported by the gateway or decoder.
type OperationError struct {
	Op   string
	ID   string
	Kind error
	Err  error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	switch {
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	case e.Kind != nil:
		fmt.Fprintf(&b, ": %v", e.Kind)
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *OperationError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Op == op {
		return err
	}
	return &OperationError{Op: op, ID: id, Kind: classify(err), Err: err}
}

// Messages the chaincode and the peer use for the failures callers act on.
// Existence failures are matched on the chaincode's "the <kind> <id> ..."
// wording so peer errors such as a missing channel stay unclassified.
var kindPatterns = []struct {
	kind    error
	pattern *regexp.Regexp
}{
	{ErrConflict, regexp.MustCompile(`MVCC_READ_CONFLICT|PHANTOM_READ_CONFLICT`)},
	{ErrAlreadyExists, regexp.MustCompile(`the (asset|credential hash) .+ already exists`)},
	{ErrNotFound, regexp.MustCompile(`the (asset|credential hash) .+ does not exist`)},
	{ErrInvalidArgument, regexp.MustCompile(`invalid status|must not be empty`)},
}

// classify maps an error onto one of the sentinel kinds, or nil
func classify(err error) error {
	for _, kind := range []error{ErrConnection, ErrMalformedResponse, ErrInvalidTransition, ErrInvalidArgument, ErrConflict, ErrAlreadyExists, ErrNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	msg := err.Error()
	for _, k := range kindPatterns {
		if k.pattern.MatchString(msg) {
			return k.kind
		}
	}
	return nil
}

// missingFunction reports whether err says the chaincode has no such function
func missingFunction(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found in contract")
}
