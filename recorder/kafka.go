// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/danielhkuo/rankvote/models"
)

// Event header values of published messages.
const (
	EventRunStart = "run_start"
	EventStep     = "step"
	EventRunEnd   = "run_end"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRecorder publishes step records to a topic. Messages are keyed by run
// id so the steps of a run stay ordered within one partition. The "event"
// header tells run_start, step and run_end messages apart.
type KafkaRecorder struct {
	w     messageWriter
	topic string
}

func NewKafkaRecorder(brokers []string, topic string) *KafkaRecorder {
	return &KafkaRecorder{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		topic: topic,
	}
}

type runEvent struct {
	RunID      int      `json:"run_id"`
	Candidates []string `json:"candidates,omitempty"`
}

func (r *KafkaRecorder) publish(ctx context.Context, runID int, event string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(runID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
		Time: time.Now(),
	}
	if err := r.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s of run %d to %s: %w", event, runID, r.topic, err)
	}
	return nil
}

func (r *KafkaRecorder) StartRun(ctx context.Context, runID int, candidates models.CandidateSet) error {
	data, err := json.Marshal(runEvent{RunID: runID, Candidates: candidates.Labels()})
	if err != nil {
		return err
	}
	return r.publish(ctx, runID, EventRunStart, data)
}

func (r *KafkaRecorder) AppendStep(ctx context.Context, rec models.StepRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode step %d: %w", rec.Step, err)
	}
	return r.publish(ctx, rec.RunID, EventStep, data)
}

func (r *KafkaRecorder) EndRun(ctx context.Context, runID int) error {
	data, err := json.Marshal(runEvent{RunID: runID})
	if err != nil {
		return err
	}
	return r.publish(ctx, runID, EventRunEnd, data)
}

func (r *KafkaRecorder) Close() error {
	return r.w.Close()
}
