package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("")
	require.NoError(t, err)
	require.True(t, ref.IsZero())
	require.False(t, ref.Valid)

	id := uuid.New()
	ref, err = ParseRef(id.String())
	require.NoError(t, err)
	require.True(t, ref.Valid)
	require.Equal(t, id, ref.UUID)

	_, err = ParseRef("not-a-uuid")
	require.ErrorIs(t, err, ErrInvalidRef)
}

func TestRefEqualAndString(t *testing.T) {
	id := uuid.New()
	a := NewRef(id)
	b := NewRef(id)
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(NewRef(uuid.New())))
	require.False(t, a.Equal(Ref{}))
	require.Equal(t, id.String(), a.String())
	require.Equal(t, "", Ref{}.String())
}

func TestRefPtr(t *testing.T) {
	require.Nil(t, Ref{}.Ptr())
	id := uuid.New()
	ptr := NewRef(id).Ptr()
	require.NotNil(t, ptr)
	require.Equal(t, id, *ptr)
}

func TestRefTextRoundTrip(t *testing.T) {
	id := uuid.New()
	data, err := NewRef(id).MarshalText()
	require.NoError(t, err)

	var out Ref
	require.NoError(t, out.UnmarshalText(data))
	require.True(t, out.Valid)
	require.Equal(t, id, out.UUID)

	var zero Ref
	require.NoError(t, zero.UnmarshalText(nil))
	require.True(t, zero.IsZero())
}
