package oracle

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// SubjectRequest carries randomness requests to the oracle service.
	SubjectRequest = "plinko.vrf.request"
	// SubjectFulfilled carries fulfilled seeds back.
	SubjectFulfilled = "plinko.vrf.fulfilled"
)

// RequestMessage is published for each randomness request.
type RequestMessage struct {
	Commitment  string `json:"commitment"` // hex-encoded 32 bytes
	RequestedAt int64  `json:"requested_at"`
}

// FulfillMessage is consumed from the oracle service.
type FulfillMessage struct {
	Commitment string `json:"commitment"`
	Seed       uint64 `json:"seed"`
}

// NATS is the production oracle transport: requests are published to the
// oracle service and fulfillments are consumed into an in-memory table the
// settlement engine polls. There is no push path into the engine; resolution
// stays a caller-driven poll.
type NATS struct {
	nc     *nats.Conn
	logger zerolog.Logger

	mu     sync.Mutex
	values map[[32]byte]uint64

	sub *nats.Subscription
}

func NewNATS(nc *nats.Conn, logger zerolog.Logger) *NATS {
	return &NATS{
		nc:     nc,
		logger: logger,
		values: make(map[[32]byte]uint64),
	}
}

// Subscribe starts consuming fulfillments. Call once before serving traffic.
func (o *NATS) Subscribe() error {
	sub, err := o.nc.Subscribe(SubjectFulfilled, func(msg *nats.Msg) {
		var fm FulfillMessage
		if err := json.Unmarshal(msg.Data, &fm); err != nil {
			o.logger.Warn().Err(err).Msg("malformed fulfillment message")
			return
		}

		raw, err := hex.DecodeString(fm.Commitment)
		if err != nil || len(raw) != 32 {
			o.logger.Warn().Str("commitment", fm.Commitment).Msg("invalid fulfillment commitment")
			return
		}
		if fm.Seed == 0 {
			o.logger.Warn().Str("commitment", fm.Commitment).Msg("oracle posted zero seed, ignoring")
			return
		}

		var commitment [32]byte
		copy(commitment[:], raw)

		o.mu.Lock()
		o.values[commitment] = fm.Seed
		o.mu.Unlock()

		o.logger.Debug().Str("commitment", fm.Commitment).Msg("randomness fulfilled")
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectFulfilled, err)
	}

	o.sub = sub
	return nil
}

func (o *NATS) Request(ctx context.Context, commitment [32]byte) error {
	payload, err := json.Marshal(RequestMessage{
		Commitment:  hex.EncodeToString(commitment[:]),
		RequestedAt: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	if err := o.nc.Publish(SubjectRequest, payload); err != nil {
		return fmt.Errorf("publish randomness request: %w", err)
	}

	o.mu.Lock()
	if _, ok := o.values[commitment]; !ok {
		o.values[commitment] = 0
	}
	o.mu.Unlock()

	return nil
}

func (o *NATS) CurrentValue(commitment [32]byte) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.values[commitment]
}

// Stop drains the fulfillment subscription.
func (o *NATS) Stop() {
	if o.sub != nil {
		_ = o.sub.Drain()
	}
}

// Connect establishes the NATS connection with indefinite reconnects.
func Connect(url string, logger zerolog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
