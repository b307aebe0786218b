package usecases

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"dicomdesk/internal/application/session/testutil"
	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/domain/doctor"
	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

type createFixture struct {
	sessions *testutil.MockSessionRepository
	doctors  *testutil.MockDoctorRepository
	patients *testutil.MockPatientRepository
	runner   *testutil.MockRemoteRunner
	gateway  *testutil.MockDisplayGateway
	uc       *CreateSessionUseCase

	doctor  *doctor.Doctor
	patient *catalog.Patient
}

func newCreateFixture(t *testing.T) *createFixture {
	t.Helper()

	f := &createFixture{
		sessions: testutil.NewMockSessionRepository(),
		doctors:  testutil.NewMockDoctorRepository(),
		patients: testutil.NewMockPatientRepository(),
		runner:   testutil.NewMockRemoteRunner(),
		gateway:  testutil.NewMockDisplayGateway(),
	}

	var err error
	f.doctor, err = doctor.NewDoctor("kc-doc-1", "Dr. Smith", "smith@example.com")
	if err != nil {
		t.Fatalf("failed to create doctor: %v", err)
	}
	if err := f.doctors.Create(context.Background(), f.doctor); err != nil {
		t.Fatalf("failed to store doctor: %v", err)
	}

	f.patient, err = catalog.NewPatient("PAT-001", "Doe, John")
	if err != nil {
		t.Fatalf("failed to create patient: %v", err)
	}
	if err := f.patients.Create(context.Background(), f.patient); err != nil {
		t.Fatalf("failed to store patient: %v", err)
	}

	f.uc = NewCreateSessionUseCase(
		f.sessions, f.doctors, f.patients, f.runner, f.gateway,
		ProvisioningConfig{RDPHost: "rds.internal", RDPPort: 3389, MaxConcurrent: 5},
		logger.NewLogger(),
	)
	return f
}

func (f *createFixture) command() CreateSessionCommand {
	return CreateSessionCommand{
		Requester: Requester{KeycloakUserID: "kc-doc-1", Username: "smith"},
		PatientID: f.patient.ID(),
	}
}

func TestCreateSession_Success(t *testing.T) {
	f := newCreateFixture(t)

	result, err := f.uc.Execute(context.Background(), f.command())
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}

	if result.Status != string(session.StatusActive) {
		t.Errorf("expected active status, got %s", result.Status)
	}
	if result.RDSSessionID != "RDS-SESSION-00001" {
		t.Errorf("unexpected RDS session ID %s", result.RDSSessionID)
	}
	if result.GuacamoleConnectionID != "conn-1" {
		t.Errorf("unexpected connection ID %s", result.GuacamoleConnectionID)
	}
	if !strings.HasPrefix(result.WindowsUser, "dtx_user_") {
		t.Errorf("unexpected windows user %s", result.WindowsUser)
	}
	if result.LastActivityAt == nil {
		t.Error("expected last activity timestamp to be set")
	}

	stored, err := f.sessions.GetByID(context.Background(), result.ID)
	if err != nil || stored == nil {
		t.Fatalf("expected session to be persisted, got %v, %v", stored, err)
	}
	if stored.Status() != session.StatusActive {
		t.Errorf("expected persisted status active, got %s", stored.Status())
	}
}

func TestCreateSession_PassesLoginAndDataPathToProvisioning(t *testing.T) {
	f := newCreateFixture(t)

	result, err := f.uc.Execute(context.Background(), f.command())
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}

	calls := f.runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 remote operations, got %d", len(calls))
	}
	if calls[0].Name != session.OpCreateRDSSession {
		t.Errorf("expected first operation %s, got %s", session.OpCreateRDSSession, calls[0].Name)
	}
	wantUser := "dtx_user_" + result.ID.String()[:8]
	if calls[0].Args["UserName"] != wantUser {
		t.Errorf("expected login %s, got %s", wantUser, calls[0].Args["UserName"])
	}
	if calls[1].Name != session.OpLaunchViewer {
		t.Errorf("expected second operation %s, got %s", session.OpLaunchViewer, calls[1].Name)
	}
	if !strings.Contains(calls[1].Args["DicomPath"], f.patient.ID().String()) {
		t.Errorf("expected data path to reference patient, got %s", calls[1].Args["DicomPath"])
	}
}

func TestCreateSession_RejectsSecondSessionForDoctor(t *testing.T) {
	f := newCreateFixture(t)

	if _, err := f.uc.Execute(context.Background(), f.command()); err != nil {
		t.Fatalf("first Execute() unexpected error = %v", err)
	}

	_, err := f.uc.Execute(context.Background(), f.command())
	if !errors.IsConflictError(err) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreateSession_EnforcesGlobalCap(t *testing.T) {
	f := newCreateFixture(t)
	f.uc.cfg.MaxConcurrent = 2

	// Fill the cap with live sessions owned by other doctors.
	for i := 0; i < 2; i++ {
		s, err := session.NewSession(uuid.New(), uuid.New())
		if err != nil {
			t.Fatalf("failed to build session: %v", err)
		}
		if err := f.sessions.Create(context.Background(), s); err != nil {
			t.Fatalf("failed to store session: %v", err)
		}
	}

	_, err := f.uc.Execute(context.Background(), f.command())
	if !errors.IsResourceExhaustedError(err) {
		t.Errorf("expected resource exhausted error, got %v", err)
	}
}

func TestCreateSession_UnknownDoctorIsNotFound(t *testing.T) {
	f := newCreateFixture(t)

	cmd := f.command()
	cmd.Requester.KeycloakUserID = "kc-unknown"

	_, err := f.uc.Execute(context.Background(), cmd)
	if !errors.IsNotFoundError(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCreateSession_UnknownPatientIsNotFound(t *testing.T) {
	f := newCreateFixture(t)

	cmd := f.command()
	cmd.PatientID = uuid.New()

	_, err := f.uc.Execute(context.Background(), cmd)
	if !errors.IsNotFoundError(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCreateSession_RDSFailureLeavesTerminatedRow(t *testing.T) {
	f := newCreateFixture(t)
	f.runner.FailOn(session.OpCreateRDSSession, stderrors.New("winrm unreachable"))

	_, err := f.uc.Execute(context.Background(), f.command())
	if !errors.IsProvisioningFailedError(err) {
		t.Fatalf("expected provisioning failed error, got %v", err)
	}

	// No remote resource existed, so no cleanup calls.
	if n := f.runner.CallsTo(session.OpCleanupSession); n != 0 {
		t.Errorf("expected no cleanup calls, got %d", n)
	}
	if len(f.gateway.Deleted()) != 0 {
		t.Errorf("expected no connection deletions, got %v", f.gateway.Deleted())
	}

	assertSingleTerminatedSession(t, f.sessions)
}

func TestCreateSession_GatewayFailureRollsBackRDSSession(t *testing.T) {
	f := newCreateFixture(t)
	f.gateway.SetCreateError(stderrors.New("gateway down"))

	_, err := f.uc.Execute(context.Background(), f.command())
	if !errors.IsProvisioningFailedError(err) {
		t.Fatalf("expected provisioning failed error, got %v", err)
	}

	if n := f.runner.CallsTo(session.OpCleanupSession); n != 1 {
		t.Errorf("expected 1 cleanup call, got %d", n)
	}
	assertSingleTerminatedSession(t, f.sessions)
}

func TestCreateSession_LaunchFailureRollsBackBothResources(t *testing.T) {
	f := newCreateFixture(t)
	f.runner.FailOn(session.OpLaunchViewer, stderrors.New("application crashed"))

	_, err := f.uc.Execute(context.Background(), f.command())
	if !errors.IsProvisioningFailedError(err) {
		t.Fatalf("expected provisioning failed error, got %v", err)
	}

	if deleted := f.gateway.Deleted(); len(deleted) != 1 || deleted[0] != "conn-1" {
		t.Errorf("expected connection conn-1 deleted, got %v", deleted)
	}
	if n := f.runner.CallsTo(session.OpCleanupSession); n != 1 {
		t.Errorf("expected 1 cleanup call, got %d", n)
	}
	assertSingleTerminatedSession(t, f.sessions)
}

func TestCreateSession_RollbackCleanupFailureStillTerminates(t *testing.T) {
	f := newCreateFixture(t)
	f.runner.FailOn(session.OpLaunchViewer, stderrors.New("application crashed"))
	f.runner.FailOn(session.OpCleanupSession, stderrors.New("cleanup also failed"))
	f.gateway.SetDeleteError(stderrors.New("delete failed"))

	_, err := f.uc.Execute(context.Background(), f.command())
	if !errors.IsProvisioningFailedError(err) {
		t.Fatalf("expected provisioning failed error, got %v", err)
	}

	assertSingleTerminatedSession(t, f.sessions)
}

func assertSingleTerminatedSession(t *testing.T, repo *testutil.MockSessionRepository) {
	t.Helper()

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly 1 session row, got %d", len(all))
	}
	s := all[0]
	if s.Status() != session.StatusTerminated {
		t.Errorf("expected terminated status, got %s", s.Status())
	}
	if s.EndedAt() == nil {
		t.Error("expected ended timestamp to be set")
	}
}
