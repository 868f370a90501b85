package grpc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kazna/user-service/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ---- test logger ----

type recordingLogger struct {
	logging.Nop
	mu      sync.Mutex
	entries [][]any
}

func (l *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, append([]any{msg}, args...))
}

func (l *recordingLogger) With(...any) logging.Logger { return l }

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	log := &recordingLogger{}
	s := NewGRPCServer("", log, nil)

	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if len(log.entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(log.entries))
	}
	entry := log.entries[0]
	if entry[0] != "grpc call" || entry[2] != info.FullMethod || entry[4] != codes.OK.String() {
		t.Fatalf("unexpected log entry: %v", entry)
	}
}

func TestLoggingInterceptor_LogsErrorCode(t *testing.T) {
	log := &recordingLogger{}
	s := NewGRPCServer("", log, nil)

	info := &grpc.UnaryServerInfo{FullMethod: "/pkg.Service/Method"}
	wantErr := status.Error(codes.Unavailable, "down")
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, wantErr
	}

	_, err := s.loggingInterceptor(context.Background(), nil, info, h)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if got := log.entries[0][4]; got != codes.Unavailable.String() {
		t.Fatalf("expected code %s, got %v", codes.Unavailable, got)
	}
}
