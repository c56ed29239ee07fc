package correlation

import (
	"context"
	"net/http"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDGeneratesULID(t *testing.T) {
	ctx, cid := EnsureCorrelationID(context.Background())
	_, err := ulid.ParseStrict(cid)
	require.NoError(t, err)
	assert.Equal(t, cid, ExtractCorrelationID(ctx))

	_, again := EnsureCorrelationID(ctx)
	assert.Equal(t, cid, again)
}

func TestInjectHeader(t *testing.T) {
	h := http.Header{}
	InjectHeader(context.Background(), h)
	assert.Empty(t, h.Get(Header))

	InjectHeader(ContextWithCorrelationID(context.Background(), "abc"), h)
	assert.Equal(t, "abc", h.Get(Header))
}
