package redisstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	rs := &redisStore{prefix: "regtree:trees"}
	require.Equal(t, "regtree:trees:1234", rs.keyFor("1234"))
}
