package session

import "context"

// RemoteRunner executes named provisioning and teardown operations on the
// remote execution host. Implementations translate the operation name and
// named arguments into whatever the host understands; output is the
// operation's trimmed stdout.
type RemoteRunner interface {
	RunOperation(ctx context.Context, name string, args map[string]string) (string, error)
}

// Operation names understood by the remote execution host.
const (
	OpCreateRDSSession = "create-rds-session"
	OpLaunchViewer     = "launch-dtx-studio"
	OpCleanupSession   = "cleanup-session"
)

// DisplayGateway manages dynamic remote-display connections and issues
// short-lived access for them.
type DisplayGateway interface {
	// CreateConnection registers a display connection bound to the given
	// remote host and login, returning the gateway's connection identifier.
	CreateConnection(ctx context.Context, name, host string, port int, loginUser, loginPassword string) (string, error)

	// DeleteConnection removes a connection. Used on teardown paths where
	// failures are logged but never escalated.
	DeleteConnection(ctx context.Context, connectionID string) error

	// IssueAccessToken returns a token granting access to the connection for
	// the named requester.
	IssueAccessToken(ctx context.Context, connectionID, requesterName string) (string, error)

	// BuildClientURL assembles the browser URL for a connection and token.
	BuildClientURL(connectionID, token string) string
}
