package validator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alechenninger/membergate/internal/governance"
	"github.com/alechenninger/membergate/internal/request"
	"github.com/alechenninger/membergate/internal/result"
)

// seededStore returns the four members used throughout these tests:
// m1 is active, m2 accepted, m3 has a status but no certificate,
// and m4 has a certificate but no status.
func seededStore() *governance.MemoryStore {
	return governance.NewMemoryStore().
		AddMember("m1", []byte("cert-m1"), governance.StatusActive).
		AddMember("m2", []byte("cert-m2"), governance.StatusAccepted).
		SetStatus("m3", governance.StatusActive).
		AddCertificate("m4", []byte("cert-m4"))
}

func callerRequest(id string) *request.Request {
	return &request.Request{Caller: &request.Caller{ID: id}}
}

func TestMemberCertValidator_IsActiveMember(t *testing.T) {
	ctx := context.Background()
	v := NewMemberCertValidator(seededStore())

	tests := []struct {
		name     string
		memberID string
		want     bool
	}{
		{"active member with certificate", "m1", true},
		{"accepted member", "m2", false},
		{"status without certificate", "m3", false},
		{"certificate without status", "m4", false},
		{"unknown member", "m5", false},
		{"empty id", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := v.IsActiveMember(ctx, tt.memberID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			active, ok := r.Get()
			if !ok {
				t.Fatalf("expected a successful result, got %v", r)
			}
			if active != tt.want {
				t.Errorf("IsActiveMember(%q) = %v, want %v", tt.memberID, active, tt.want)
			}
		})
	}
}

func TestMemberCertValidator_Validate(t *testing.T) {
	ctx := context.Background()
	v := NewMemberCertValidator(seededStore())

	t.Run("active member is accepted", func(t *testing.T) {
		r, err := v.Validate(ctx, callerRequest("m1"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		id, ok := r.Get()
		if !ok {
			t.Fatalf("expected success, got %v", r)
		}
		if id != "m1" {
			t.Errorf("expected identity m1, got %q", id)
		}
	})

	for _, id := range []string{"m2", "m3", "m4", "m5", ""} {
		t.Run("rejects "+id, func(t *testing.T) {
			r, err := v.Validate(ctx, callerRequest(id))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertInvalidCaller(t, r)
		})
	}

	t.Run("nil caller is rejected", func(t *testing.T) {
		r, err := v.Validate(ctx, &request.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInvalidCaller(t, r)
	})

	t.Run("nil request is rejected", func(t *testing.T) {
		r, err := v.Validate(ctx, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInvalidCaller(t, r)
	})

	t.Run("repeated calls agree", func(t *testing.T) {
		first, _ := v.Validate(ctx, callerRequest("m1"))
		second, _ := v.Validate(ctx, callerRequest("m1"))
		if first != second {
			t.Errorf("expected identical results, got %v and %v", first, second)
		}
	})
}

func TestMemberCertValidator_ReadsCurrentState(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	v := NewMemberCertValidator(store)

	r, _ := v.Validate(ctx, callerRequest("m2"))
	assertInvalidCaller(t, r)

	store.SetStatus("m2", governance.StatusActive)

	r, _ = v.Validate(ctx, callerRequest("m2"))
	if id, ok := r.Get(); !ok || id != "m2" {
		t.Errorf("expected m2 to be accepted after activation, got %v", r)
	}

	store.SetStatus("m2", governance.StatusAccepted)

	r, _ = v.Validate(ctx, callerRequest("m2"))
	assertInvalidCaller(t, r)
}

func TestMemberCertValidator_StoreFaults(t *testing.T) {
	ctx := context.Background()
	fault := errors.New("store unavailable")

	tests := []struct {
		name  string
		store governance.Store
	}{
		{"certificate lookup fails", &faultyStore{certErr: fault, info: governance.NewMemoryMap[governance.MemberInfo]()}},
		{"info lookup fails", &faultyStore{certs: governance.NewMemoryMap[[]byte](), infoErr: fault}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewMemberCertValidator(tt.store)

			r, err := v.IsActiveMember(ctx, "m1")
			if !errors.Is(err, fault) {
				t.Errorf("expected store fault from IsActiveMember, got %v", err)
			}
			if r.OK() {
				t.Errorf("expected no successful result alongside an error, got %v", r)
			}

			vr, err := v.Validate(ctx, callerRequest("m1"))
			if !errors.Is(err, fault) {
				t.Errorf("expected store fault from Validate, got %v", err)
			}
			if vr.OK() {
				t.Errorf("expected no successful result alongside an error, got %v", vr)
			}
		})
	}
}

func TestMemberCertValidator_MalformedRecord(t *testing.T) {
	ctx := context.Background()
	store := &faultyStore{
		certs:   governance.NewMemoryMap[[]byte](),
		infoErr: governance.ErrMalformedRecord,
	}
	v := NewMemberCertValidator(store)

	_, err := v.Validate(ctx, callerRequest("m1"))
	if !errors.Is(err, governance.ErrMalformedRecord) {
		t.Errorf("expected ErrMalformedRecord, got %v", err)
	}
}

func TestMemberCertValidator_Concurrent(t *testing.T) {
	ctx := context.Background()
	v := NewMemberCertValidator(seededStore())

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r, err := v.Validate(ctx, callerRequest("m1"))
			if err != nil {
				errs <- err
				return
			}
			if !r.OK() {
				errs <- errors.New("m1 rejected")
			}
		}()
		go func() {
			defer wg.Done()
			r, err := v.Validate(ctx, callerRequest("m2"))
			if err != nil {
				errs <- err
				return
			}
			if r.OK() {
				errs <- errors.New("m2 accepted")
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestMemberCertValidator_Observer(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	v := NewMemberCertValidator(seededStore(), WithObserver(obs))

	if _, err := v.Validate(ctx, callerRequest("m1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := v.Validate(ctx, callerRequest("m2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"validation started",
		"membership check m1",
		"certificate found=true",
		"info found=true status=Active",
		"resolved active=true",
		"membership end",
		"accepted m1",
		"validation end",
		"validation started",
		"membership check m2",
		"certificate found=true",
		"info found=true status=Accepted",
		"resolved active=false",
		"membership end",
		"rejected m2",
		"validation end",
	}

	if len(obs.events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(obs.events), obs.events)
	}
	for i := range want {
		if obs.events[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q", i, want[i], obs.events[i])
		}
	}
}

func TestStubValidator(t *testing.T) {
	ctx := context.Background()

	t.Run("echoes caller id", func(t *testing.T) {
		v := NewStubValidator()
		r, err := v.Validate(ctx, callerRequest("anyone"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id, ok := r.Get(); !ok || id != "anyone" {
			t.Errorf("expected anyone, got %v", r)
		}
		if len(v.Calls()) != 1 {
			t.Errorf("expected 1 recorded call, got %d", len(v.Calls()))
		}
	})

	t.Run("rejecting", func(t *testing.T) {
		r, _ := NewStubValidator().Rejecting().Validate(ctx, callerRequest("m1"))
		assertInvalidCaller(t, r)
	})

	t.Run("error", func(t *testing.T) {
		fault := errors.New("boom")
		_, err := NewStubValidator().WithError(fault).Validate(ctx, callerRequest("m1"))
		if !errors.Is(err, fault) {
			t.Errorf("expected fault, got %v", err)
		}
	})

	t.Run("records concurrent calls", func(t *testing.T) {
		v := NewStubValidator()

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = v.Validate(ctx, callerRequest("m1"))
				_ = v.Calls()
			}()
		}
		wg.Wait()

		if got := len(v.Calls()); got != 50 {
			t.Errorf("expected 50 recorded calls, got %d", got)
		}
	})
}

func assertInvalidCaller(t *testing.T, r result.Result[string]) {
	t.Helper()

	if _, ok := r.Get(); ok {
		t.Fatalf("expected failure, got %v", r)
	}
	e, ok := r.Error()
	if !ok {
		t.Fatalf("expected error details, got %v", r)
	}
	if e.Type != ErrorTypeAuthentication {
		t.Errorf("expected error type %q, got %q", ErrorTypeAuthentication, e.Type)
	}
	if e.Message != ErrorMessageInvalidCaller {
		t.Errorf("expected error message %q, got %q", ErrorMessageInvalidCaller, e.Message)
	}
}
