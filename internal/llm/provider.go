// Package llm talks to the hosted language models that write hints and
// practice questions. Every request is single-turn and, when a Schema is
// given, must come back as JSON matching it.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider generates one reply for a request.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model requests are sent to.
	ModelID() string
}

// Request is a single system + user prompt.
type Request struct {
	Purpose Purpose

	System string
	Prompt string

	// Schema, when set, asks the provider for JSON output and is checked
	// against the reply.
	Schema *Schema

	MaxTokens   int
	Temperature float64 // zero leaves the provider default
}

// StopReason is why the model stopped writing.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a validated reply.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string
	Stop    StopReason
}

// Decode unmarshals the reply into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Content, v); err != nil {
		return fmt.Errorf("decode %s reply: %w", r.Model, err)
	}
	return nil
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// finish rejects truncated replies and checks the rest against the
// request schema.
func finish(provider string, req Request, resp *Response) (*Response, error) {
	if resp.Stop == StopMaxTokens && req.Schema != nil {
		return nil, &Error{Kind: KindTruncated, Provider: provider, Content: resp.Content}
	}
	if req.Schema != nil {
		if err := req.Schema.Validate(resp.Content); err != nil {
			return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Content: resp.Content, Err: err}
		}
	}
	return resp, nil
}
