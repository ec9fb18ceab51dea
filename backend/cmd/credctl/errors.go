package main

import (
	"context"
	"errors"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/api"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fingerprint"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/issuance"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/offchain"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{fabricclient.ErrAlreadyExists, api.CodeAlreadyExists},
	{offchain.ErrAlreadyExists, api.CodeAlreadyExists},
	{fabricclient.ErrNotFound, api.CodeNotFound},
	{offchain.ErrNotFound, api.CodeNotFound},
	{fabricclient.ErrConflict, api.CodeConflict},
	{fabricclient.ErrInvalidTransition, api.CodeInvalidTransition},
	{fabricclient.ErrInvalidArgument, api.CodeInvalidArgument},
	{common.ErrInvalidConfig, api.CodeInvalidArgument},
	{issuance.ErrInvalidRequest, api.CodeInvalidArgument},
	{fingerprint.ErrInvalidHash, api.CodeInvalidArgument},
	{fabricclient.ErrMalformedResponse, api.CodeMalformedResponse},
	{fabricclient.ErrConnection, api.CodeUnavailable},
	{context.Canceled, api.CodeCanceled},
	{context.DeadlineExceeded, api.CodeCanceled},
}

// errorCode maps an error onto the response code reported for it
func errorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return api.CodeInternal
}
