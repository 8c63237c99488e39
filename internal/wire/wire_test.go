package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestContractDescriptors(t *testing.T) {
	svc := Service()
	require.NotNil(t, svc)
	require.Equal(t, ServiceName, string(svc.FullName()))

	m := ExecuteMethod()
	require.NotNil(t, m)
	require.False(t, m.IsStreamingClient())
	require.False(t, m.IsStreamingServer())
	require.Equal(t, Request().FullName(), m.Input().FullName())
	require.Equal(t, Response().FullName(), m.Output().FullName())
}

func TestSubQueryFields(t *testing.T) {
	sq := SubQuery()
	for name, number := range map[protoreflect.Name]protoreflect.FieldNumber{
		"id":         1,
		"definition": 2,
		"cursor":     3,
	} {
		fd := sq.Fields().ByName(name)
		require.NotNil(t, fd, "field %s", name)
		require.Equal(t, number, fd.Number(), "field %s", name)
		require.Equal(t, protoreflect.StringKind, fd.Kind(), "field %s", name)
	}

	// The cursor must support presence: "no cursor" and "empty cursor" are
	// distinct on the wire.
	require.True(t, sq.Fields().ByName("cursor").HasPresence())
	require.False(t, sq.Fields().ByName("id").HasPresence())
}

func TestSubQueryResultFields(t *testing.T) {
	r := SubQueryResult()
	require.True(t, r.Fields().ByName("items").IsList())
	require.True(t, r.Fields().ByName("next_cursor").HasPresence())
	require.True(t, Request().Fields().ByName("sub_queries").IsList())
	require.True(t, Response().Fields().ByName("results").IsList())
}

func TestRenderEmitsFullContract(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Render(&b))
	out := b.String()
	for _, want := range []string{
		`syntax = "proto3";`,
		"package graphpage;",
		"service Executor",
		"rpc Execute",
		"ExecuteRequest",
		"ExecuteResponse",
		"optional string next_cursor",
		"repeated SubQuery sub_queries",
	} {
		require.Contains(t, out, want)
	}
}
