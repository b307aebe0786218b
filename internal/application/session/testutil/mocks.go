// Package testutil provides mock implementations for testing the session
// application layer.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/audit"
	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
)

// MockSessionRepository is a mock implementation of session.Repository.
type MockSessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session.Session

	// Error injection for testing
	createError error
	getError    error
	updateError error
	listError   error
	countError  error
}

// NewMockSessionRepository creates a new mock session repository.
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions: make(map[uuid.UUID]*session.Session),
	}
}

// Create stores a session.
func (m *MockSessionRepository) Create(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	m.sessions[s.ID()] = s
	return nil
}

// GetByID retrieves a session by ID.
func (m *MockSessionRepository) GetByID(_ context.Context, id uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.sessions[id], nil
}

// Update replaces a stored session.
func (m *MockSessionRepository) Update(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	if _, exists := m.sessions[s.ID()]; !exists {
		return fmt.Errorf("session %s not found", s.ID())
	}
	m.sessions[s.ID()] = s
	return nil
}

// FindNonTerminalByDoctor returns the doctor's live session, if any.
func (m *MockSessionRepository) FindNonTerminalByDoctor(_ context.Context, doctorID uuid.UUID) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, s := range m.sessions {
		if s.DoctorID() == doctorID && !s.Status().IsTerminal() {
			return s, nil
		}
	}
	return nil, nil
}

// CountNonTerminal counts live sessions.
func (m *MockSessionRepository) CountNonTerminal(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.countError != nil {
		return 0, m.countError
	}
	var count int64
	for _, s := range m.sessions {
		if !s.Status().IsTerminal() {
			count++
		}
	}
	return count, nil
}

// ListReclaimable returns active and idle-warned sessions.
func (m *MockSessionRepository) ListReclaimable(_ context.Context) ([]*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.listError != nil {
		return nil, m.listError
	}
	var out []*session.Session
	for _, s := range m.sessions {
		if s.Status() == session.StatusActive || s.Status() == session.StatusIdleWarning {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListAll returns every stored session.
func (m *MockSessionRepository) ListAll(_ context.Context) ([]*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.listError != nil {
		return nil, m.listError
	}
	out := make([]*session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out, nil
}

// ListByDoctor returns the doctor's sessions.
func (m *MockSessionRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.listError != nil {
		return nil, m.listError
	}
	var out []*session.Session
	for _, s := range m.sessions {
		if s.DoctorID() == doctorID {
			out = append(out, s)
		}
	}
	return out, nil
}

// SetCreateError injects an error for Create calls.
func (m *MockSessionRepository) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createError = err
}

// SetUpdateError injects an error for Update calls.
func (m *MockSessionRepository) SetUpdateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateError = err
}

// SetListError injects an error for list calls.
func (m *MockSessionRepository) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listError = err
}

// MockDoctorRepository is a mock implementation of doctor.Repository.
type MockDoctorRepository struct {
	mu      sync.RWMutex
	doctors map[uuid.UUID]*doctor.Doctor

	getError error
}

// NewMockDoctorRepository creates a new mock doctor repository.
func NewMockDoctorRepository() *MockDoctorRepository {
	return &MockDoctorRepository{
		doctors: make(map[uuid.UUID]*doctor.Doctor),
	}
}

// Create stores a doctor.
func (m *MockDoctorRepository) Create(_ context.Context, d *doctor.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.ID()] = d
	return nil
}

// GetByID retrieves a doctor by ID.
func (m *MockDoctorRepository) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.doctors[id], nil
}

// GetByKeycloakUserID retrieves a doctor by external identity.
func (m *MockDoctorRepository) GetByKeycloakUserID(_ context.Context, keycloakUserID string) (*doctor.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	for _, d := range m.doctors {
		if d.KeycloakUserID() == keycloakUserID {
			return d, nil
		}
	}
	return nil, nil
}

// List returns every stored doctor.
func (m *MockDoctorRepository) List(_ context.Context) ([]*doctor.Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*doctor.Doctor, 0, len(m.doctors))
	for _, d := range m.doctors {
		out = append(out, d)
	}
	return out, nil
}

// MockPatientRepository is a mock implementation of catalog.PatientRepository.
type MockPatientRepository struct {
	mu       sync.RWMutex
	patients map[uuid.UUID]*catalog.Patient

	getError error
}

// NewMockPatientRepository creates a new mock patient repository.
func NewMockPatientRepository() *MockPatientRepository {
	return &MockPatientRepository{
		patients: make(map[uuid.UUID]*catalog.Patient),
	}
}

// Create stores a patient.
func (m *MockPatientRepository) Create(_ context.Context, p *catalog.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID()] = p
	return nil
}

// GetByID retrieves a patient by internal ID.
func (m *MockPatientRepository) GetByID(_ context.Context, id uuid.UUID) (*catalog.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.patients[id], nil
}

// GetByPatientID retrieves a patient by external identifier.
func (m *MockPatientRepository) GetByPatientID(_ context.Context, patientID string) (*catalog.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.patients {
		if p.PatientID() == patientID {
			return p, nil
		}
	}
	return nil, nil
}

// List returns every stored patient.
func (m *MockPatientRepository) List(_ context.Context) ([]*catalog.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*catalog.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, nil
}

// ListAssignedToDoctor is not exercised by the session tests.
func (m *MockPatientRepository) ListAssignedToDoctor(_ context.Context, _ uuid.UUID) ([]*catalog.Patient, error) {
	return nil, nil
}

// RunnerCall records one remote operation invocation.
type RunnerCall struct {
	Name string
	Args map[string]string
}

// MockRemoteRunner is a mock implementation of session.RemoteRunner that
// records calls and supports per-operation error injection.
type MockRemoteRunner struct {
	mu      sync.Mutex
	counter int
	calls   []RunnerCall

	failOn map[string]error
}

// NewMockRemoteRunner creates a new mock remote runner.
func NewMockRemoteRunner() *MockRemoteRunner {
	return &MockRemoteRunner{
		failOn: make(map[string]error),
	}
}

// RunOperation simulates one remote operation.
func (m *MockRemoteRunner) RunOperation(_ context.Context, name string, args map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, RunnerCall{Name: name, Args: args})
	if err := m.failOn[name]; err != nil {
		return "", err
	}

	switch name {
	case session.OpCreateRDSSession:
		m.counter++
		return fmt.Sprintf("RDS-SESSION-%05d", m.counter), nil
	case session.OpLaunchViewer:
		return "PID-12345", nil
	case session.OpCleanupSession:
		return "OK", nil
	}
	return "", nil
}

// FailOn injects an error for one operation name.
func (m *MockRemoteRunner) FailOn(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn[name] = err
}

// Calls returns the recorded invocations.
func (m *MockRemoteRunner) Calls() []RunnerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunnerCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns how many times an operation was invoked.
func (m *MockRemoteRunner) CallsTo(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// MockDisplayGateway is a mock implementation of session.DisplayGateway.
type MockDisplayGateway struct {
	mu      sync.Mutex
	counter int
	deleted []string

	createError error
	deleteError error
	tokenError  error
}

// NewMockDisplayGateway creates a new mock display gateway.
func NewMockDisplayGateway() *MockDisplayGateway {
	return &MockDisplayGateway{}
}

// CreateConnection registers a fake connection.
func (m *MockDisplayGateway) CreateConnection(_ context.Context, _, _ string, _ int, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return "", m.createError
	}
	m.counter++
	return fmt.Sprintf("conn-%d", m.counter), nil
}

// DeleteConnection records a deletion.
func (m *MockDisplayGateway) DeleteConnection(_ context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, connectionID)
	return m.deleteError
}

// IssueAccessToken returns a fixed token.
func (m *MockDisplayGateway) IssueAccessToken(_ context.Context, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokenError != nil {
		return "", m.tokenError
	}
	return "test-token", nil
}

// BuildClientURL assembles a predictable URL.
func (m *MockDisplayGateway) BuildClientURL(connectionID, token string) string {
	return fmt.Sprintf("https://guac.test/#/client/%s?token=%s", connectionID, token)
}

// SetCreateError injects an error for CreateConnection.
func (m *MockDisplayGateway) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createError = err
}

// SetDeleteError injects an error for DeleteConnection.
func (m *MockDisplayGateway) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
}

// Deleted returns the connection IDs deleted so far.
func (m *MockDisplayGateway) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}

// MockAuditRecorder is a mock implementation of audit.Recorder that captures
// recorded entries.
type MockAuditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

// NewMockAuditRecorder creates a new mock audit recorder.
func NewMockAuditRecorder() *MockAuditRecorder {
	return &MockAuditRecorder{}
}

// Record captures the entry.
func (m *MockAuditRecorder) Record(_ context.Context, entry audit.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

// Entries returns the captured entries.
func (m *MockAuditRecorder) Entries() []audit.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// CountAction returns how many captured entries carry an action type.
func (m *MockAuditRecorder) CountAction(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.ActionType == action {
			n++
		}
	}
	return n
}
