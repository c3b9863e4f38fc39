package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservation(t *testing.T) {
	r := NewReservation(7, 51, 1001)

	assert.Equal(t, int64(7), r.EventID)
	assert.Equal(t, 51, r.SheetID)
	assert.Equal(t, int64(1001), r.UserID)
	assert.True(t, r.IsActive())
	assert.Nil(t, r.CanceledAt)
	assert.False(t, r.ReservedAt.IsZero())
	assert.Equal(t, "UTC", r.ReservedAt.Location().String())
}

func TestReservation_Cancel(t *testing.T) {
	t.Run("ACTIVE な予約はキャンセルできる", func(t *testing.T) {
		r := NewReservation(7, 51, 1001)
		reservedAt := r.ReservedAt

		err := r.Cancel()
		require.NoError(t, err)

		assert.False(t, r.IsActive())
		require.NotNil(t, r.CanceledAt)
		assert.False(t, r.CanceledAt.Before(reservedAt))
		assert.Equal(t, reservedAt, r.ReservedAt, "reserved_at は作成後変更されない")
		assert.Equal(t, int64(1001), r.UserID, "user_id は作成後変更されない")
	})

	t.Run("二重キャンセルはエラー", func(t *testing.T) {
		r := NewReservation(7, 51, 1001)
		require.NoError(t, r.Cancel())
		firstCanceledAt := *r.CanceledAt

		err := r.Cancel()
		assert.ErrorIs(t, err, ErrNotReserved)
		assert.Equal(t, firstCanceledAt, *r.CanceledAt, "遷移は一度きり")
	})
}

func TestReservation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		res     *Reservation
		wantErr error
	}{
		{name: "正常な予約", res: NewReservation(1, 1, 1)},
		{name: "イベントID必須", res: NewReservation(0, 1, 1), wantErr: ErrEventIDRequired},
		{name: "シートID必須", res: NewReservation(1, 0, 1), wantErr: ErrSheetIDRequired},
		{name: "ユーザーID必須", res: NewReservation(1, 1, 0), wantErr: ErrUserIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.res.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
