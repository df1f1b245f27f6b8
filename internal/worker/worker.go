// Package worker provides a NATS worker that renders generation requests
// with a local synthesis backend and replies with the audio reference.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/messages"
	"github.com/nats-io/nats.go"
)

const defaultHandleTimeout = 30 * time.Second

var (
	// ErrTextEmpty indicates that the request carries no text.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrVoiceEmpty indicates that the request names no voice.
	ErrVoiceEmpty = errors.New("voice cannot be empty")
	// ErrUnsupportedEmotion indicates that the emotion is not one of the known values.
	ErrUnsupportedEmotion = errors.New("unsupported emotion")
	// ErrPitchRange indicates that pitch is outside [0.5, 2.0].
	ErrPitchRange = errors.New("pitch must be between 0.5 and 2.0")
	// ErrSpeedRange indicates that speed is outside [0.5, 2.0].
	ErrSpeedRange = errors.New("speed must be between 0.5 and 2.0")
)

// NatsWorker listens for generation requests on a NATS subject.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	queue          string
	synthesizer    core.Synthesizer
	handleTimeout  time.Duration
	log            *logger.Logger
}

// NewNatsWorker creates a worker. Workers sharing queue split the load.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	queue string,
	synthesizer core.Synthesizer,
	log *logger.Logger,
) *NatsWorker {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		queue:          queue,
		synthesizer:    synthesizer,
		handleTimeout:  defaultHandleTimeout,
		log:            log,
	}
}

// Run subscribes and serves requests until ctx is cancelled, then drains.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.QueueSubscribe(w.subject, w.queue, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Synthesis worker listening on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), w.handleTimeout)
	defer cancel()

	var event messages.GenerateRequestEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		w.log.Error("Failed to unmarshal generate request: %v", err)
		w.reply(msg, messages.GenerateReplyEvent{
			Header:   messages.NewHeader(time.Now()),
			AudioURL: "",
			Error:    fmt.Sprintf("failed to unmarshal event: %v", err),
		})

		return
	}

	reply := messages.GenerateReplyEvent{Header: event.Header, AudioURL: "", Error: ""}

	result, err := w.process(ctx, event)
	if err != nil {
		w.log.Error("Failed to process generation for workflow %s: %v", event.Header.WorkflowID, err)
		reply.Error = err.Error()
	} else {
		reply.AudioURL = result.AudioURL
	}

	w.reply(msg, reply)
}

func (w *NatsWorker) process(ctx context.Context, event messages.GenerateRequestEvent) (core.SynthesisResult, error) {
	validationErr := validateRequest(event)
	if validationErr != nil {
		return core.SynthesisResult{}, validationErr
	}

	result, err := w.synthesizer.Synthesize(ctx, event.SynthesisRequest())
	if err != nil {
		return core.SynthesisResult{}, fmt.Errorf("failed to synthesize: %w", err)
	}

	return result, nil
}

func (w *NatsWorker) reply(msg *nats.Msg, replyEvent messages.GenerateReplyEvent) {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		w.log.Error("Failed to marshal reply event: %v", err)

		return
	}

	err = msg.Respond(replyData)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", replyEvent.Header.WorkflowID, err)
	}
}

// validateRequest rejects requests the settings controls could never produce.
func validateRequest(event messages.GenerateRequestEvent) error {
	if event.Text == "" {
		return ErrTextEmpty
	}

	if event.VoiceID == "" {
		return ErrVoiceEmpty
	}

	if !core.Emotion(event.Emotion).Valid() {
		return fmt.Errorf("%w: '%s'", ErrUnsupportedEmotion, event.Emotion)
	}

	if event.Pitch < core.MinPitch || event.Pitch > core.MaxPitch {
		return fmt.Errorf("%w: got %f", ErrPitchRange, event.Pitch)
	}

	if event.Speed < core.MinSpeed || event.Speed > core.MaxSpeed {
		return fmt.Errorf("%w: got %f", ErrSpeedRange, event.Speed)
	}

	return nil
}
