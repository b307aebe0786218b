package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func TestNewSession_StartsCreating(t *testing.T) {
	s := newTestSession(t)

	if s.Status() != StatusCreating {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusCreating)
	}
	if s.EndedAt() != nil {
		t.Error("EndedAt() should be nil for a new session")
	}
	if s.LastActivityAt() != nil {
		t.Error("LastActivityAt() should be nil before activation")
	}
}

func TestNewSession_RequiresParticipants(t *testing.T) {
	if _, err := NewSession(uuid.Nil, uuid.New()); err == nil {
		t.Error("NewSession() with nil doctor ID should fail")
	}
	if _, err := NewSession(uuid.New(), uuid.Nil); err == nil {
		t.Error("NewSession() with nil patient ID should fail")
	}
}

func TestLoginName_Deterministic(t *testing.T) {
	s := newTestSession(t)

	first := s.LoginName()
	second := s.LoginName()
	if first != second {
		t.Errorf("LoginName() not deterministic: %q vs %q", first, second)
	}
	want := "dtx_user_" + s.ID().String()[:8]
	if first != want {
		t.Errorf("LoginName() = %q, want %q", first, want)
	}
}

func TestActivate(t *testing.T) {
	s := newTestSession(t)

	if err := s.Activate("RDS-00001", "conn-42"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if s.Status() != StatusActive {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusActive)
	}
	if s.RDSSessionID() != "RDS-00001" {
		t.Errorf("RDSSessionID() = %q, want RDS-00001", s.RDSSessionID())
	}
	if s.GuacamoleConnectionID() != "conn-42" {
		t.Errorf("GuacamoleConnectionID() = %q, want conn-42", s.GuacamoleConnectionID())
	}
	if s.WindowsUser() != s.LoginName() {
		t.Errorf("WindowsUser() = %q, want %q", s.WindowsUser(), s.LoginName())
	}
	if s.LastActivityAt() == nil {
		t.Error("LastActivityAt() should be set on activation")
	}

	// Activation is a one-way transition out of creating
	if err := s.Activate("RDS-00002", "conn-43"); err == nil {
		t.Error("Activate() on an active session should fail")
	}
}

func TestExtend_ResetsIdleWarning(t *testing.T) {
	s := newTestSession(t)
	if err := s.Activate("RDS-00001", "conn-1"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := s.MarkIdle(); err != nil {
		t.Fatalf("MarkIdle() error = %v", err)
	}

	if err := s.Extend(); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if s.Status() != StatusActive {
		t.Errorf("Status() after extend = %v, want %v", s.Status(), StatusActive)
	}
}

func TestExtend_RejectsTerminalAndCreating(t *testing.T) {
	s := newTestSession(t)
	if err := s.Extend(); err == nil {
		t.Error("Extend() in creating status should fail")
	}

	if err := s.Activate("RDS-00001", "conn-1"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := s.Terminate(); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	if err := s.Extend(); err == nil {
		t.Error("Extend() on a terminated session should fail")
	}
}

func TestMarkIdle_ExactlyOnce(t *testing.T) {
	s := newTestSession(t)
	if err := s.Activate("RDS-00001", "conn-1"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if err := s.MarkIdle(); err != nil {
		t.Fatalf("MarkIdle() error = %v", err)
	}
	if s.Status() != StatusIdleWarning {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusIdleWarning)
	}
	if err := s.MarkIdle(); err == nil {
		t.Error("MarkIdle() on an idle_warning session should fail")
	}
}

func TestTerminate_SetsEndedAtOnce(t *testing.T) {
	s := newTestSession(t)

	if err := s.Terminate(); err != nil {
		t.Fatalf("Terminate() from creating error = %v", err)
	}
	if s.Status() != StatusTerminated {
		t.Errorf("Status() = %v, want %v", s.Status(), StatusTerminated)
	}
	if s.EndedAt() == nil {
		t.Fatal("EndedAt() should be set on termination")
	}

	if err := s.Terminate(); err == nil {
		t.Error("Terminate() on a terminated session should fail")
	}
}

func TestAges(t *testing.T) {
	s := newTestSession(t)
	now := s.StartedAt().Add(30 * time.Minute)

	if got := s.TotalAge(now); got != 30*time.Minute {
		t.Errorf("TotalAge() = %v, want 30m", got)
	}
	// No activity recorded: idle age falls back to started_at
	if got := s.IdleAge(now); got != 30*time.Minute {
		t.Errorf("IdleAge() without activity = %v, want 30m", got)
	}

	if err := s.Activate("RDS-1", "c-1"); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	later := s.LastActivityAt().Add(5 * time.Minute)
	if got := s.IdleAge(later); got != 5*time.Minute {
		t.Errorf("IdleAge() after activity = %v, want 5m", got)
	}
}

func TestStatusValidity(t *testing.T) {
	for _, st := range []Status{StatusCreating, StatusActive, StatusIdleWarning, StatusTerminated} {
		if !st.IsValid() {
			t.Errorf("IsValid(%q) = false, want true", st)
		}
	}
	if Status("paused").IsValid() {
		t.Error(`IsValid("paused") = true, want false`)
	}
	if !StatusTerminated.IsTerminal() {
		t.Error("StatusTerminated.IsTerminal() = false, want true")
	}
	if StatusIdleWarning.IsTerminal() {
		t.Error("StatusIdleWarning.IsTerminal() = true, want false")
	}
}
