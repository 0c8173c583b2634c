package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ricoauto/gatepass/pkg/logger"
)

// Subjects published by the gate-pass service. Consumers (display boards,
// announcement systems) subscribe out of process; nothing in this service
// depends on delivery.
const (
	PassIssued  = "gatepass.pass.issued"
	PassExited  = "gatepass.pass.exited"
	PassDeleted = "gatepass.pass.deleted"
	VipIssued   = "gatepass.vip.issued"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type PassIssuedEvent struct {
	PassID      string    `json:"pass_id"`
	Name        string    `json:"name"`
	VisitorType string    `json:"visitor_type"`
	Department  string    `json:"department"`
	IsVip       bool      `json:"is_vip"`
	IssuedAt    time.Time `json:"issued_at"`
}

type PassExitedEvent struct {
	PassID   string    `json:"pass_id"`
	Name     string    `json:"name"`
	ExitedAt time.Time `json:"exited_at"`
}

type PassDeletedEvent struct {
	PassID    string    `json:"pass_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type VipIssuedEvent struct {
	PassID      string    `json:"pass_id"`
	VipAccessID string    `json:"vip_access_id"`
	Label       string    `json:"label"`
	IssuedAt    time.Time `json:"issued_at"`
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

func (n *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSPublisher) Close() error {
	n.conn.Close()
	return nil
}

// NopPublisher discards events. Used when NATS is not configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
