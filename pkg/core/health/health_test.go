package health

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewChecker(t *testing.T) {
	checker := NewChecker("test-checker", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy, Message: "test passed"}
	})

	if checker.Name() != "test-checker" {
		t.Errorf("Name() = %v, want test-checker", checker.Name())
	}
	result := checker.Check(context.Background())
	if result.Status != StatusHealthy || result.Message != "test passed" {
		t.Errorf("Check() = %+v", result)
	}
}

func TestRegistry_Check(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unknown counts as degraded", []Status{StatusUnknown}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry("pipe", "1.0.0")
			for k, s := range tt.statuses {
				s := s
				r.RegisterFunc(string(rune('a'+k)), func(ctx context.Context) CheckResult {
					return CheckResult{Status: s}
				})
			}
			report := r.Check(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.statuses) {
				t.Errorf("Checks = %d, want %d", len(report.Checks), len(tt.statuses))
			}
		})
	}
}

func TestRegistry_SortedAndNamed(t *testing.T) {
	r := NewRegistry("pipe", "1.0.0")
	for _, name := range []string{"server:b", "server:a", "client:c"} {
		r.RegisterFunc(name, func(ctx context.Context) CheckResult {
			return CheckResult{Status: StatusHealthy}
		})
	}

	report := r.Check(context.Background())
	var names []string
	for _, c := range report.Checks {
		names = append(names, c.Name)
		if c.Timestamp.IsZero() {
			t.Errorf("%s has no timestamp", c.Name)
		}
	}
	if strings.Join(names, ",") != "client:c,server:a,server:b" {
		t.Errorf("names = %v", names)
	}
	if !strings.Contains(report.String(), "  server:a: healthy") {
		t.Errorf("String() = %q", report.String())
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry("pipe", "1.0.0")
	var calls atomic.Int32
	r.RegisterFunc("x", func(ctx context.Context) CheckResult {
		calls.Add(1)
		return CheckResult{Status: StatusUnhealthy}
	})
	r.Unregister("x")

	if r.Len() != 0 {
		t.Errorf("Len() = %d", r.Len())
	}
	if report := r.Check(context.Background()); report.Status != StatusHealthy || calls.Load() != 0 {
		t.Errorf("unregistered checker ran: %v, %d", report.Status, calls.Load())
	}
}

func TestRegistry_CheckWithTimeout(t *testing.T) {
	r := NewRegistry("pipe", "1.0.0")
	r.RegisterFunc("slow", func(ctx context.Context) CheckResult {
		<-ctx.Done()
		return CheckResult{Status: StatusUnhealthy, Message: ctx.Err().Error()}
	})

	start := time.Now()
	report := r.CheckWithTimeout(20 * time.Millisecond)
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v", report.Status)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not honoured")
	}
}

func TestSocketCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zuse-health.sock")

	check := SocketCheck("server:p", path, time.Second)
	if got := check.Check(context.Background()); got.Status != StatusUnhealthy {
		t.Errorf("missing socket status = %v", got.Status)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	got := check.Check(context.Background())
	if got.Status != StatusHealthy {
		t.Errorf("listening socket status = %v (%s)", got.Status, got.Message)
	}
	if got.Details["socket"] != path {
		t.Errorf("Details = %v", got.Details)
	}
}

func TestProbeCheck(t *testing.T) {
	ok := ProbeCheck("ok", func(context.Context) error { return nil })
	bad := ProbeCheck("bad", func(context.Context) error { return errors.New("closed") })

	if got := ok.Check(context.Background()); got.Status != StatusHealthy {
		t.Errorf("ok = %v", got.Status)
	}
	if got := bad.Check(context.Background()); got.Status != StatusUnhealthy || got.Message != "closed" {
		t.Errorf("bad = %+v", got)
	}
}
