// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// fakeServer stands in for *http.Server. With block set, ListenAndServe
// runs until Shutdown is called.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	block       bool

	listens   atomic.Int32
	shutdowns atomic.Int32
	started   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		started: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

func (f *fakeServer) ListenAndServe() error {
	f.listens.Add(1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	if f.block {
		<-f.stop
		return http.ErrServerClosed
	}
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.stopOnce.Do(func() { close(f.stop) })
	return f.shutdownErr
}

func (f *fakeServer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("server did not start")
	}
}

var _ suture.Service = (*HTTPServerService)(nil)

func TestNewHTTPServerService(t *testing.T) {
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, 3*time.Second)
	if svc.server != srv {
		t.Error("server not assigned")
	}
	if svc.shutdownTimeout != 3*time.Second {
		t.Errorf("shutdownTimeout = %v, want 3s", svc.shutdownTimeout)
	}
	if svc.String() != "http-server" {
		t.Errorf("String() = %q, want http-server", svc.String())
	}

	for _, d := range []time.Duration{0, -time.Second} {
		if got := NewHTTPServerService(srv, d).shutdownTimeout; got != 10*time.Second {
			t.Errorf("timeout %v: got %v, want default 10s", d, got)
		}
	}
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeServer()
	srv.block = true
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	srv.waitStarted(t)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if n := srv.listens.Load(); n != 1 {
		t.Errorf("ListenAndServe calls = %d, want 1", n)
	}
	if n := srv.shutdowns.Load(); n != 1 {
		t.Errorf("Shutdown calls = %d, want 1", n)
	}
}

func TestHTTPServerServiceListenFailure(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	srv := newFakeServer()
	srv.listenErr = bindErr

	err := NewHTTPServerService(srv, time.Second).Serve(context.Background())
	if !errors.Is(err, bindErr) {
		t.Fatalf("Serve() = %v, want wrapped bind error", err)
	}
}

func TestHTTPServerServiceShutdownFailure(t *testing.T) {
	shutdownErr := errors.New("shutdown deadline exceeded")
	srv := newFakeServer()
	srv.block = true
	srv.shutdownErr = shutdownErr
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	srv.waitStarted(t)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, shutdownErr) {
			t.Errorf("Serve() = %v, want shutdown error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestHTTPServerServiceUnderSupervisor(t *testing.T) {
	srv := newFakeServer()
	srv.block = true

	sup := suture.New("test", suture.Spec{
		FailureThreshold: 3,
		FailureBackoff:   10 * time.Millisecond,
		Timeout:          2 * time.Second,
	})
	sup.Add(NewHTTPServerService(srv, time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	done := sup.ServeBackground(ctx)

	srv.waitStarted(t)
	cancel()
	<-done

	if srv.shutdowns.Load() < 1 {
		t.Error("Shutdown was not called when the supervisor stopped")
	}
}
