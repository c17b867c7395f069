package health

import (
	"context"
	"errors"
	"testing"
)

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("status = %q, want %q", r.Status, Healthy)
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("database check = %q, want %q", r.Checks["database"], CheckOK)
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("embedding check = %q, want %q", r.Checks["embedding"], CheckOK)
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("connection refused")}, &mockEmbeddingChecker{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("database check = %q, want %q", r.Checks["database"], CheckError)
	}
	if r.Checks["embedding"] != CheckOK {
		t.Errorf("embedding check = %q, want %q", r.Checks["embedding"], CheckOK)
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockEmbeddingChecker{err: errors.New("401")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("status = %q, want %q", r.Status, Degraded)
	}
	if r.Checks["embedding"] != CheckError {
		t.Errorf("embedding check = %q, want %q", r.Checks["embedding"], CheckError)
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockDBPinger{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("status = %q, want %q", r.Status, Healthy)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when no checker is configured")
	}
}
