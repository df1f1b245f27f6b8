package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/messages"
	"github.com/nats-io/nats.go"
)

// DefaultRequestTimeout bounds a request whose context has no deadline.
const DefaultRequestTimeout = 2 * time.Minute

// ErrRemoteSynthesis wraps a failure reported by the remote worker.
var ErrRemoteSynthesis = errors.New("remote synthesis failed")

// NATSSynthesizer delegates synthesis to a worker over NATS request/reply.
type NATSSynthesizer struct {
	natsConnection *nats.Conn
	subject        string
	now            func() time.Time
}

// NewNATSSynthesizer creates a synthesizer that publishes on subject.
func NewNATSSynthesizer(natsConnection *nats.Conn, subject string) *NATSSynthesizer {
	return &NATSSynthesizer{
		natsConnection: natsConnection,
		subject:        subject,
		now:            time.Now,
	}
}

// Synthesize sends the request and waits for the worker reply or ctx expiry.
func (s *NATSSynthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) (core.SynthesisResult, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, DefaultRequestTimeout)
		defer cancel()
	}

	requestEvent := messages.NewGenerateRequest(req, s.now())

	payload, err := json.Marshal(requestEvent)
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	replyMsg, err := s.natsConnection.RequestWithContext(ctx, s.subject, payload)
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("failed to request synthesis on subject %s: %w", s.subject, err)
	}

	var reply messages.GenerateReplyEvent

	err = json.Unmarshal(replyMsg.Data, &reply)
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("failed to unmarshal generate reply: %w", err)
	}

	if reply.Error != "" {
		return core.SynthesisResult{}, fmt.Errorf("%w: %s", ErrRemoteSynthesis, reply.Error)
	}

	if reply.AudioURL == "" {
		return core.SynthesisResult{}, fmt.Errorf("%w: reply carried no audio reference", ErrRemoteSynthesis)
	}

	return core.SynthesisResult{AudioURL: reply.AudioURL}, nil
}
