package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

func TestAllocator_Allocate(t *testing.T) {
	a := NewAllocator()

	tests := []struct {
		name             string
		requested        string
		reserved         string
		unrestricted     string
		prevReserved     string
		wantFromReserved string
		wantFromUnrestr  string
		wantRelease      string
		wantErr          error
	}{
		{
			name:      "reservation covers the full request",
			requested: "5", reserved: "10", unrestricted: "20", prevReserved: "10",
			wantFromReserved: "5", wantFromUnrestr: "0", wantRelease: "5",
		},
		{
			name:      "spills into unrestricted when reservation is short",
			requested: "10", reserved: "6", unrestricted: "20", prevReserved: "6",
			wantFromReserved: "6", wantFromUnrestr: "4", wantRelease: "0",
		},
		{
			name:      "no prior claim deducts reserved then unrestricted",
			requested: "10", reserved: "3", unrestricted: "20", prevReserved: "0",
			wantFromReserved: "3", wantFromUnrestr: "7", wantRelease: "0",
		},
		{
			name:      "prior claim bounds how much reserved this document may take",
			requested: "8", reserved: "10", unrestricted: "20", prevReserved: "4",
			wantFromReserved: "4", wantFromUnrestr: "4", wantRelease: "0",
		},
		{
			name:      "shrunk claim releases the unused remainder",
			requested: "6", reserved: "10", unrestricted: "0", prevReserved: "10",
			wantFromReserved: "6", wantFromUnrestr: "0", wantRelease: "4",
		},
		{
			name:      "release clamped at physically reserved remainder",
			requested: "2", reserved: "5", unrestricted: "0", prevReserved: "10",
			wantFromReserved: "2", wantFromUnrestr: "0", wantRelease: "3",
		},
		{
			name:      "insufficient combined availability",
			requested: "30", reserved: "5", unrestricted: "20", prevReserved: "5",
			wantErr: shared.ErrInsufficientStock,
		},
		{
			name:      "non-positive request is refused",
			requested: "0", reserved: "5", unrestricted: "5", prevReserved: "0",
			wantErr: &shared.DomainError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := a.Allocate(dec(tt.requested), dec(tt.reserved), dec(tt.unrestricted), dec(tt.prevReserved))
			if tt.wantErr != nil {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, split.FromReserved.Equal(dec(tt.wantFromReserved)),
				"FromReserved: got %s, want %s", split.FromReserved, tt.wantFromReserved)
			assert.True(t, split.FromUnrestricted.Equal(dec(tt.wantFromUnrestr)),
				"FromUnrestricted: got %s, want %s", split.FromUnrestricted, tt.wantFromUnrestr)
			assert.True(t, split.ReleaseToUnrestricted.Equal(dec(tt.wantRelease)),
				"ReleaseToUnrestricted: got %s, want %s", split.ReleaseToUnrestricted, tt.wantRelease)
			assert.True(t, split.Total().Equal(dec(tt.requested)))
		})
	}
}

func TestAllocator_AllocateUnreserved(t *testing.T) {
	a := NewAllocator()

	t.Run("deducts entirely from unrestricted", func(t *testing.T) {
		split, err := a.AllocateUnreserved(dec("5"), dec("8"))
		require.NoError(t, err)
		assert.True(t, split.FromUnrestricted.Equal(dec("5")))
		assert.True(t, split.FromReserved.IsZero())
		assert.True(t, split.ReleaseToUnrestricted.IsZero())
	})

	t.Run("refuses when unrestricted is short", func(t *testing.T) {
		_, err := a.AllocateUnreserved(dec("9"), dec("8"))
		require.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("refuses non-positive quantity", func(t *testing.T) {
		_, err := a.AllocateUnreserved(decimal.Zero, dec("8"))
		require.Error(t, err)
	})
}

func TestCategorySplit_Deltas(t *testing.T) {
	t.Run("plain deduction", func(t *testing.T) {
		d := CategorySplit{FromReserved: dec("6"), FromUnrestricted: dec("4")}.Deltas()
		assert.True(t, d[CategoryReserved].Equal(dec("-6")))
		assert.True(t, d[CategoryUnrestricted].Equal(dec("-4")))
	})

	t.Run("release nets against the unrestricted deduction", func(t *testing.T) {
		d := CategorySplit{
			FromReserved:          dec("6"),
			FromUnrestricted:      dec("1"),
			ReleaseToUnrestricted: dec("4"),
		}.Deltas()
		// Reserved loses both the deduction and the release.
		assert.True(t, d[CategoryReserved].Equal(dec("-10")))
		// Unrestricted nets the release against its own deduction.
		assert.True(t, d[CategoryUnrestricted].Equal(dec("3")))
		// Net movement out of the record equals the deducted total.
		assert.True(t, d.Net().Equal(dec("-7")))
	})

	t.Run("pure release without deduction from unrestricted", func(t *testing.T) {
		d := CategorySplit{FromReserved: dec("2"), ReleaseToUnrestricted: dec("3")}.Deltas()
		assert.True(t, d[CategoryReserved].Equal(dec("-5")))
		assert.True(t, d[CategoryUnrestricted].Equal(dec("3")))
	})
}
