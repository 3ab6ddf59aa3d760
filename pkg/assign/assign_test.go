package assign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/praxisflow/praxisflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct {
	count int
	err   error
}

func (c fixedCounter) TaskCountSince(_ context.Context, _ time.Time) (int, error) {
	return c.count, c.err
}

func TestPick(t *testing.T) {
	users := []models.User{
		{ID: "u-1", Name: "Ada"},
		{ID: "u-2", Name: "Grace"},
		{ID: "u-3", Name: "Edsger"},
	}

	tests := []struct {
		name       string
		candidates []models.User
		count      int
		wantID     string
	}{
		{name: "no candidates", candidates: nil, wantID: ""},
		{name: "single candidate skips counting", candidates: users[:1], count: 99, wantID: "u-1"},
		{name: "rotation start", candidates: users, count: 0, wantID: "u-1"},
		{name: "rotation wraps", candidates: users, count: 4, wantID: "u-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			picker := NewPicker(fixedCounter{count: tt.count})

			user, err := picker.Pick(context.Background(), tt.candidates)
			require.NoError(t, err)

			if tt.wantID == "" {
				assert.Nil(t, user)
				return
			}

			require.NotNil(t, user)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestPickCounterError(t *testing.T) {
	picker := NewPicker(fixedCounter{err: errors.New("db down")})

	_, err := picker.Pick(context.Background(), []models.User{{ID: "a"}, {ID: "b"}})
	require.Error(t, err)
}
