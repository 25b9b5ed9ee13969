package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/estatemap/internal/core/domain"
)

// Subjects carried by the evaluation streams.
const (
	SubjectSelectionPrefix = "evaluation.selection."
	SubjectReportRequested = "evaluation.report.requested"
	SubjectReportReady     = "evaluation.report.ready."
	SubjectAllEvaluation   = "evaluation.>"
)

// SelectionChanged is the payload of evaluation.selection.<session>.
type SelectionChanged struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	IDs       []string       `json:"ids"`
	Summary   domain.Summary `json:"summary"`
	At        time.Time      `json:"at"`
}

// ReportReady is the payload of evaluation.report.ready.<session>.
type ReportReady struct {
	Type   string         `json:"type"`
	Report *domain.Report `json:"report"`
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "EVALUATION_SELECTIONS",
			Subjects:  []string{SubjectSelectionPrefix + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    1 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "REPORT_REQUESTS",
			Subjects:  []string{SubjectReportRequested},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "REPORTS_READY",
			Subjects:  []string{SubjectReportReady + ">"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishSelectionChanged(ctx context.Context, sel *domain.Selection, summary domain.Summary) error {
	data, err := json.Marshal(SelectionChanged{
		Type:      "selection_changed",
		SessionID: sel.SessionID,
		IDs:       sel.IDs,
		Summary:   summary,
		At:        sel.UpdatedAt,
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSelectionPrefix+sel.SessionID, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishReportRequested(ctx context.Context, req domain.ReportRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	// Dedupe retries of the same request within the stream window.
	msgID := fmt.Sprintf("%s-%d", req.SessionID, req.RequestedAt.UnixNano())
	_, err = p.js.Publish(SubjectReportRequested, data, nats.MsgId(msgID), nats.Context(ctx))
	return err
}

func (p *Publisher) PublishReportReady(ctx context.Context, report *domain.Report) error {
	data, err := json.Marshal(ReportReady{Type: "report_ready", Report: report})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectReportReady+report.SessionID, data, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
