// Package oracletest provides scripted oracles for tests.
package oracletest

import (
	"context"
	"errors"
	"sync"

	"maternityCare/business/oracle"
)

var ErrUnavailable = errors.New("oracle unavailable")

// Stub answers every call with the same response or error.
type Stub struct {
	ProviderName string
	Response     string
	Err          error
	// Block makes Generate wait for context cancellation.
	Block bool

	mu       sync.Mutex
	calls    int
	requests []oracle.Request
}

func (s *Stub) Name() string {
	return s.ProviderName
}

func (s *Stub) Generate(ctx context.Context, req oracle.Request) (string, error) {
	s.mu.Lock()
	s.calls++
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}

func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Stub) LastRequest() oracle.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return oracle.Request{}
	}
	return s.requests[len(s.requests)-1]
}

func Failing(name string) *Stub {
	return &Stub{ProviderName: name, Err: ErrUnavailable}
}

func Answering(name, response string) *Stub {
	return &Stub{ProviderName: name, Response: response}
}
