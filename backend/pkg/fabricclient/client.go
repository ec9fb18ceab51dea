package fabricclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultIdentityLabel = "appUser"
	tracerName           = "github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
)

type invokeMode string

const (
	modeSubmit   invokeMode = "submit"
	modeEvaluate invokeMode = "evaluate"
)

// Config holds the connection target, the identity paths and the ambient
// collaborators of a Client
type Config struct {
	// ConnectionProfile is a profile file. When empty a profile is rendered
	// from PeerEndpoint, TLSCertPath and HostnameOverride.
	ConnectionProfile string
	PeerEndpoint      string
	TLSCertPath       string
	HostnameOverride  string
	Channel           string
	Chaincode         string
	MSPID             string
	// CertPath and KeyPath may each name a file or a directory whose first
	// file is used
	CertPath string
	KeyPath  string
	// WalletPath selects a file system wallet instead of one held in memory
	WalletPath    string
	IdentityLabel string
	// EnforceTransitions rejects status changes out of revoked and expired
	EnforceTransitions bool

	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// Dialer replaces the gateway connection, mainly for tests
	Dialer Dialer
	// Now is the clock used for dates the client fills in
	Now func() time.Time
}

// Client brokers every call into the credential chaincode. It connects on
// first use and holds one session at a time.
type Client struct {
	config  Config
	logger  *slog.Logger
	metrics *clientMetrics
	tracer  trace.Tracer
	dialer  Dialer
	now     func() time.Time

	connectGroup singleflight.Group
	mu           sync.RWMutex
	connected    bool
	session      Session
	contract     Contract
}

// NewClient validates cfg. It does not dial; see Connect.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Channel == "" || cfg.Chaincode == "" {
		return nil, fmt.Errorf("%w: channel and chaincode are required", ErrInvalidArgument)
	}
	if cfg.IdentityLabel == "" {
		cfg.IdentityLabel = DefaultIdentityLabel
	}
	if cfg.Dialer == nil {
		if cfg.MSPID == "" {
			return nil, fmt.Errorf("%w: MSP id is required", ErrInvalidArgument)
		}
		if cfg.WalletPath == "" && (cfg.CertPath == "" || cfg.KeyPath == "") {
			return nil, fmt.Errorf("%w: certificate and key paths are required without a wallet", ErrInvalidArgument)
		}
		if cfg.ConnectionProfile == "" && (cfg.PeerEndpoint == "" || cfg.TLSCertPath == "") {
			return nil, fmt.Errorf("%w: a connection profile or a peer endpoint with TLS certificate is required", ErrInvalidArgument)
		}
	}

	c := &Client{
		config: cfg,
		logger: cfg.Logger,
		dialer: cfg.Dialer,
		now:    cfg.Now,
		tracer: otel.Tracer(tracerName),
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if c.dialer == nil {
		c.dialer = &gatewayDialer{config: cfg}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if err := c.initMetrics(); err != nil {
		return nil, err
	}
	return c, nil
}

// Connect dials unless the client is already connected
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.ensureConnection(ctx)
	return err
}

// Connected reports whether the client holds a session
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close releases the session. It is safe to call more than once and the
// next call reconnects.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return
	}
	c.session.Close()
	c.session = nil
	c.contract = nil
	c.connected = false
	c.metrics.connected.Set(0)
	c.logger.Info("closed gateway connection", "channel", c.config.Channel, "chaincode", c.config.Chaincode)
}

func (c *Client) currentContract() Contract {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return nil
	}
	return c.contract
}

// ensureConnection returns the live contract handle, dialing if needed.
// Concurrent callers share a single dial. The dial is detached from the
// caller's cancellation, so a caller that gives up does not fail the others
// waiting on the same dial.
func (c *Client) ensureConnection(ctx context.Context) (Contract, error) {
	if contract := c.currentContract(); contract != nil {
		return contract, nil
	}

	dialCtx := context.WithoutCancel(ctx)
	ch := c.connectGroup.DoChan("connect", func() (any, error) {
		if contract := c.currentContract(); contract != nil {
			return contract, nil
		}
		session, err := c.dialer.Dial(dialCtx)
		c.metrics.observeConnect(err)
		if err != nil {
			c.logger.Error(
				"failed to connect to gateway",
				"channel", c.config.Channel,
				"error", err,
			)
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.session = session
		c.contract = session.Contract()
		c.connected = true
		c.logger.Info(
			"connected to gateway",
			"channel", c.config.Channel,
			"chaincode", c.config.Chaincode,
			"msp_id", c.config.MSPID,
		)
		return c.contract, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Contract), nil
	}
}

func (c *Client) submit(ctx context.Context, function string, args ...string) ([]byte, error) {
	return c.invoke(ctx, modeSubmit, function, args...)
}

func (c *Client) evaluate(ctx context.Context, function string, args ...string) ([]byte, error) {
	return c.invoke(ctx, modeEvaluate, function, args...)
}

// invoke issues one submit or evaluate. Submits return once the transaction
// is committed or rejected.
func (c *Client) invoke(ctx context.Context, mode invokeMode, function string, args ...string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, function, trace.WithAttributes(
		attribute.String("fabric.mode", string(mode)),
		attribute.String("fabric.channel", c.config.Channel),
		attribute.String("fabric.chaincode", c.config.Chaincode),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	contract, err := c.ensureConnection(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "connection failed")
		return nil, err
	}

	start := time.Now()
	var payload []byte
	if mode == modeSubmit {
		payload, err = contract.SubmitTransaction(function, args...)
	} else {
		payload, err = contract.EvaluateTransaction(function, args...)
	}
	c.metrics.observeCall(mode, function, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, resultLabel(err))
		c.logger.Debug(
			"contract call failed",
			"mode", string(mode),
			"function", function,
			"error", err,
		)
		return nil, err
	}
	return payload, nil
}

// evaluateInto evaluates function and decodes its response into T
func evaluateInto[T any](ctx context.Context, c *Client, function, id string, args ...string) (T, error) {
	var zero T
	payload, err := c.evaluate(ctx, function, args...)
	if err != nil {
		return zero, opError(function, id, err)
	}
	decoded := DecodeResponse[T](payload)
	c.noteDecode(function, decoded.Path)
	v, err := decoded.Result()
	if err != nil {
		return zero, opError(function, id, err)
	}
	return v, nil
}

func (c *Client) noteDecode(function string, path Path) {
	if path == PathByteCSV {
		c.metrics.decodeRepairs.Inc()
		c.logger.Debug("repaired byte list response", "function", function)
	}
}
