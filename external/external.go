package external

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Result is the response shape of the external document-management API.
type Result struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
}

// Client talks to the external document-management system. Calls are
// best-effort from the ingestion pipeline's perspective: a failure is passed
// through to the caller but never aborts ingestion.
type Client interface {
	CreateDocument(ctx context.Context, name, owner string) (*Result, error)
	DeleteDocument(ctx context.Context, externalID string) (*Result, error)
}

// StubClient simulates the external API and always succeeds.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient() *StubClient {
	return &StubClient{
		logger: slog.Default(),
	}
}

func (c *StubClient) CreateDocument(ctx context.Context, name, owner string) (*Result, error) {
	c.logger.Info("simulating external document creation",
		"request_id", uuid.New().String(), "name", name, "owner", owner)
	return &Result{
		ExternalID: fmt.Sprintf("ext_%s", name),
		Status:     "created",
	}, nil
}

func (c *StubClient) DeleteDocument(ctx context.Context, externalID string) (*Result, error) {
	c.logger.Info("simulating external document deletion",
		"request_id", uuid.New().String(), "external_id", externalID)
	return &Result{
		ExternalID: externalID,
		Status:     "deleted",
	}, nil
}
