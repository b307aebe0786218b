// Package winrm executes session provisioning operations on the Windows RDS
// host. Operations are PowerShell scripts invoked over WinRM; an empty host
// in the configuration selects the deterministic in-memory runner instead.
package winrm

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/masterzen/winrm"

	"dicomdesk/internal/domain/session"
	"dicomdesk/internal/shared/config"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

const scriptsRoot = `C:\ImagingPortal\scripts`

// Runner implements session.RemoteRunner over a WinRM connection.
type Runner struct {
	client  *winrm.Client
	timeout time.Duration
	logger  logger.Interface
}

// NewRunner connects to the RDS host described by the configuration.
func NewRunner(cfg *config.WinRMConfig, log logger.Interface) (*Runner, error) {
	endpoint := winrm.NewEndpoint(cfg.Host, cfg.Port, true, true, nil, nil, nil, 30*time.Second)

	client, err := winrm.NewClient(endpoint, cfg.Username, cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create winrm client: %w", err)
	}

	return &Runner{
		client:  client,
		timeout: 60 * time.Second,
		logger:  log.Named("winrm"),
	}, nil
}

// RunOperation executes one provisioning script and returns its trimmed
// stdout. A nonzero exit code or any stderr output is an error.
func (r *Runner) RunOperation(ctx context.Context, name string, args map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	command := buildCommand(name, args)
	r.logger.Debugw("running remote operation", "operation", name)

	var stdout, stderr bytes.Buffer
	exitCode, err := r.client.RunWithContext(ctx, command, &stdout, &stderr)
	if err != nil {
		r.logger.Errorw("remote operation failed", "operation", name, "error", err)
		return "", errors.NewProvisioningFailedError(fmt.Sprintf("remote operation %s failed", name), err)
	}
	if exitCode != 0 {
		r.logger.Errorw("remote operation exited nonzero",
			"operation", name,
			"exit_code", exitCode,
			"stderr", stderr.String(),
		)
		return "", errors.NewProvisioningFailedError(
			fmt.Sprintf("remote operation %s exited with code %d", name, exitCode),
			fmt.Errorf("%s", strings.TrimSpace(stderr.String())),
		)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// buildCommand renders the PowerShell invocation for one operation. Argument
// order is sorted so the command is stable for logging and testing.
func buildCommand(name string, args map[string]string) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, `powershell.exe -ExecutionPolicy Bypass -File %s\%s.ps1`, scriptsRoot, name)
	for _, k := range keys {
		fmt.Fprintf(&b, " -%s '%s'", k, strings.ReplaceAll(args[k], "'", "''"))
	}
	return b.String()
}

var _ session.RemoteRunner = (*Runner)(nil)
