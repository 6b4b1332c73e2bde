package machine

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gwillem/laserpanel/pkg/sequence"
)

type sequenceResponse struct {
	Envelope
	Sequence sequence.Sequence `json:"sequence"`
}

type sequenceStatusResponse struct {
	Envelope
	Status sequence.Status `json:"sequence_status"`
}

func sequencePath(prefix, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty sequence id")
	}
	return prefix + url.PathEscape(id), nil
}

// Sequence fetches a stored sequence. A missing id yields an APIError with status 404.
func (c *Client) Sequence(ctx context.Context, id string) (*sequence.Sequence, error) {
	path, err := sequencePath("/sequences/", id)
	if err != nil {
		return nil, err
	}
	var resp sequenceResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Sequence, nil
}

// SaveSequence validates seq and stores it under id.
func (c *Client) SaveSequence(ctx context.Context, id string, seq *sequence.Sequence) error {
	if id == "" {
		return fmt.Errorf("empty sequence id")
	}
	if err := seq.Validate(); err != nil {
		return err
	}
	var resp Envelope
	return c.post(ctx, "/sequences/save", map[string]any{
		"sequence_id":   id,
		"sequence_data": seq,
	}, &resp)
}

// DeleteSequence removes a stored sequence.
func (c *Client) DeleteSequence(ctx context.Context, id string) error {
	path, err := sequencePath("/sequences/delete/", id)
	if err != nil {
		return err
	}
	var resp Envelope
	return c.post(ctx, path, nil, &resp)
}

// RunSequence starts a stored sequence on the backend runner.
func (c *Client) RunSequence(ctx context.Context, id string) error {
	path, err := sequencePath("/sequences/run/", id)
	if err != nil {
		return err
	}
	var resp Envelope
	return c.post(ctx, path, nil, &resp)
}

// PauseSequence pauses the running sequence.
func (c *Client) PauseSequence(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/sequences/pause", nil, &resp)
}

// ResumeSequence resumes a paused sequence.
func (c *Client) ResumeSequence(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/sequences/resume", nil, &resp)
}

// StopSequence aborts the running sequence.
func (c *Client) StopSequence(ctx context.Context) error {
	var resp Envelope
	return c.post(ctx, "/sequences/stop", nil, &resp)
}

// SequenceStatus polls the runner.
func (c *Client) SequenceStatus(ctx context.Context) (sequence.Status, error) {
	var resp sequenceStatusResponse
	err := c.get(ctx, "/sequences/status", &resp)
	if resp.Simulated {
		resp.Status.Simulated = true
	}
	return resp.Status, err
}
