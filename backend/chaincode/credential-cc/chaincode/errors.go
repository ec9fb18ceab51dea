package chaincode

import (
	"errors"
	"fmt"
)

// The wrapped phrases are what the gateway client matches on, keep them stable.
var (
	ErrNotFound      = errors.New("does not exist")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidStatus = errors.New("invalid status")
	ErrEmptyID       = errors.New("id must not be empty")
)

func notFound(kind, id string) error {
	return fmt.Errorf("the %s %s %w", kind, id, ErrNotFound)
}

func alreadyExists(kind, id string) error {
	return fmt.Errorf("the %s %s %w", kind, id, ErrAlreadyExists)
}

func checkStatus(status string) error {
	if !ValidStatus(status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	return nil
}
