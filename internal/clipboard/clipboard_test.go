package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richSnapshot() Snapshot {
	return Snapshot{Items: []Item{
		{
			{Type: "public.rtf", Data: []byte(`{\rtf1 bold}`)},
			{Type: TypeString, Data: []byte("bold")},
		},
		{
			{Type: "public.png", Data: []byte{0x89, 'P', 'N', 'G', 0x00}},
		},
	}}
}

func TestPreserveRestoresOnSuccess(t *testing.T) {
	pb := NewMemory()
	require.NoError(t, pb.Restore(richSnapshot()))

	err := Preserve(pb, func() error {
		return pb.WriteString("scratch")
	})
	require.NoError(t, err)

	got, err := pb.Snapshot()
	require.NoError(t, err)
	assert.True(t, got.Equal(richSnapshot()))
}

func TestPreserveRestoresOnFailure(t *testing.T) {
	pb := NewMemory()
	require.NoError(t, pb.Restore(richSnapshot()))

	boom := errors.New("boom")
	err := Preserve(pb, func() error {
		_ = pb.WriteString("scratch")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := pb.Snapshot()
	assert.True(t, got.Equal(richSnapshot()))
}

func TestPreserveEmptyPasteboard(t *testing.T) {
	pb := NewMemory()
	err := Preserve(pb, func() error {
		return pb.WriteString("scratch")
	})
	require.NoError(t, err)

	_, ok := pb.ReadString()
	assert.False(t, ok, "pasteboard should be empty again")
	got, _ := pb.Snapshot()
	assert.True(t, got.IsEmpty())
}

func TestStashRestoresOnce(t *testing.T) {
	pb := NewMemory()
	require.NoError(t, pb.WriteString("original"))

	stash, err := Save(pb)
	require.NoError(t, err)
	require.NoError(t, pb.WriteString("replacement"))

	require.NoError(t, stash.Restore())
	s, _ := pb.ReadString()
	assert.Equal(t, "original", s)

	require.NoError(t, pb.WriteString("later"))
	require.NoError(t, stash.Restore())
	s, _ = pb.ReadString()
	assert.Equal(t, "later", s, "second restore must be a no-op")
}

func TestSnapshotEqual(t *testing.T) {
	a := richSnapshot()
	b := richSnapshot()
	assert.True(t, a.Equal(b))

	b.Items[1][0].Data[4] = 0x01
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(Snapshot{}))
	assert.True(t, Snapshot{}.Equal(Snapshot{}))
}

func TestMemorySnapshotIsolated(t *testing.T) {
	pb := NewMemory()
	require.NoError(t, pb.Restore(richSnapshot()))

	snap, _ := pb.Snapshot()
	snap.Items[0][0].Data[0] = 'X'

	again, _ := pb.Snapshot()
	assert.True(t, again.Equal(richSnapshot()))
	assert.Equal(t, 1, pb.ChangeCount())
}
