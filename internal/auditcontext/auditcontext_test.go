package auditcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestIDRoundTrips(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	require.Equal(t, "req-123", RequestIDFromContext(ctx))
}

func TestIPAddressRoundTrips(t *testing.T) {
	ctx := WithIPAddress(context.Background(), "10.0.0.1")
	require.Equal(t, "10.0.0.1", IPAddressFromContext(ctx))
}

func TestUserAgentRoundTrips(t *testing.T) {
	ctx := WithUserAgent(context.Background(), "curl/8.0")
	require.Equal(t, "curl/8.0", UserAgentFromContext(ctx))
}

func TestUnsetValuesReturnEmptyString(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, RequestIDFromContext(ctx))
	require.Empty(t, IPAddressFromContext(ctx))
	require.Empty(t, UserAgentFromContext(ctx))
}
