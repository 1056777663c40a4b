package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "123", CreatedAt: "2025-06-01T00:00:00Z"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.Equal(t, "123", decoded.ID)
	require.Equal(t, "2025-06-01T00:00:00Z", decoded.CreatedAt)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64 at all!")
	require.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ ID string }
	extract := func(r *row) string { return r.ID }

	info := BuildCursorPageInfo([]*row{}, 2, extract)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextPageToken)

	rows := []*row{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	info = BuildCursorPageInfo(rows, 2, extract)
	require.True(t, info.HasMore)
	require.Equal(t, "b", info.NextPageToken)

	info = BuildCursorPageInfo(rows[:2], 2, extract)
	require.False(t, info.HasMore)
	require.Equal(t, "b", info.NextPageToken)
}
