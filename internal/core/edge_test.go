package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEdge(t *testing.T) {
	record := []byte{
		0x00, 0x00, 0x00, 0x05, // label 5
		0x00, 0x00, 0x00, 0x01, // from vertex 1
		0x00, 0x00, 0x00, 0x02, // to vertex 2
		0x00, 0x00, 0x00, 0x09, // next out 9
		0x00, 0x00, 0x00, 0x00, // end of in list
		0x00, 0x00, 0x00, 0x0C, // first property 12
	}

	e, err := DecodeEdge(6, record)
	require.NoError(t, err)
	require.Equal(t, EdgeID(6), e.ID)
	require.Equal(t, LabelID(5), e.LabelID)
	require.Equal(t, VertexID(1), e.FromID)
	require.Equal(t, VertexID(2), e.ToID)
	require.Equal(t, EdgeID(9), e.NextOutID)
	require.Equal(t, EdgeID(0), e.NextInID)
	require.Equal(t, PropertyID(12), e.FirstPropertyID)

	require.True(t, e.InUse())
	require.True(t, e.HasNextOut())
	require.False(t, e.HasNextIn())
	require.True(t, e.HasProperties())
}

func TestDecodeEdge_InvalidID(t *testing.T) {
	_, err := DecodeEdge(0, make([]byte, EdgeSize))
	require.ErrorIs(t, err, ErrInvalidEdgeID)
}

func TestEdge_EncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		edge Edge
	}{
		{
			name: "chained edge",
			edge: Edge{ID: 6, LabelID: 5, FromID: 1, ToID: 2, NextOutID: 9, NextInID: 3, FirstPropertyID: 12},
		},
		{
			name: "lone edge",
			edge: Edge{ID: 1, LabelID: 2, FromID: 4, ToID: 4},
		},
		{
			name: "free slot",
			edge: Edge{ID: 9, FromID: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := tt.edge.Encode()
			require.Len(t, encoded, EdgeSize)

			decoded, err := DecodeEdge(tt.edge.ID, encoded)
			require.NoError(t, err)
			require.Equal(t, &tt.edge, decoded)
		})
	}
}
