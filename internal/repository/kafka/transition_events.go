package kafka

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// TransitionEvent is the message published on the transitions topic each
// time a target changes status.
type TransitionEvent struct {
	Address  string
	From     string
	To       string
	At       time.Time
	Downtime *time.Duration
}

type TransitionEvents struct {
	p *Producer
}

func NewTransitionEvents(p *Producer) *TransitionEvents { return &TransitionEvents{p: p} }

func (e *TransitionEvents) PublishTransition(ctx context.Context, ev TransitionEvent) error {
	msg, err := EncodeTransition(ev)
	if err != nil {
		return err
	}
	return e.p.PublishProto(ctx, []byte(ev.Address), msg)
}

func EncodeTransition(ev TransitionEvent) (*structpb.Struct, error) {
	fields := map[string]any{
		"address": ev.Address,
		"from":    ev.From,
		"to":      ev.To,
		"at":      ev.At.UTC().Format(time.RFC3339Nano),
	}
	if ev.Downtime != nil {
		fields["downtime_ms"] = float64(ev.Downtime.Milliseconds())
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode transition: %w", err)
	}
	return s, nil
}

func DecodeTransition(s *structpb.Struct) (TransitionEvent, error) {
	f := s.GetFields()
	ev := TransitionEvent{
		Address: f["address"].GetStringValue(),
		From:    f["from"].GetStringValue(),
		To:      f["to"].GetStringValue(),
	}
	if ev.Address == "" {
		return TransitionEvent{}, fmt.Errorf("decode transition: missing address")
	}
	at, err := time.Parse(time.RFC3339Nano, f["at"].GetStringValue())
	if err != nil {
		return TransitionEvent{}, fmt.Errorf("decode transition: %w", err)
	}
	ev.At = at
	if v, ok := f["downtime_ms"]; ok {
		d := time.Duration(v.GetNumberValue()) * time.Millisecond
		ev.Downtime = &d
	}
	return ev, nil
}

// TriggerRequest asks the pinger for an immediate cycle.
type TriggerRequest struct {
	Reason string
}

type TriggerRequests struct {
	p *Producer
}

func NewTriggerRequests(p *Producer) *TriggerRequests { return &TriggerRequests{p: p} }

func (t *TriggerRequests) RequestCycle(ctx context.Context, reason string) error {
	s, err := structpb.NewStruct(map[string]any{"reason": reason})
	if err != nil {
		return fmt.Errorf("encode trigger: %w", err)
	}
	return t.p.PublishProto(ctx, []byte("cycle"), s)
}

func DecodeTrigger(s *structpb.Struct) TriggerRequest {
	return TriggerRequest{Reason: s.GetFields()["reason"].GetStringValue()}
}
