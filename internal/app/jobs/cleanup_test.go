package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

type fakeSchools struct{ mock.Mock }

func (f *fakeSchools) ListSchemas(ctx context.Context) ([]string, error) {
	args := f.Called()
	return args.Get(0).([]string), args.Error(1)
}

func (f *fakeSchools) Exists(ctx context.Context, schema string) (bool, error) {
	args := f.Called(schema)
	return args.Bool(0), args.Error(1)
}

// purger records the schema each call ran in.
type purger struct {
	seen  []string
	fail  string
	count int64
}

func (p *purger) run(ctx context.Context) (int64, error) {
	schema := tenancy.Schema(ctx)
	p.seen = append(p.seen, schema)
	if schema == p.fail {
		return 0, errors.New("boom")
	}
	return p.count, nil
}

func (p *purger) CleanupExpiredTokens(ctx context.Context) (int64, error) { return p.run(ctx) }
func (p *purger) DeleteExpiredTokens(ctx context.Context) (int64, error)  { return p.run(ctx) }

func TestTokenCleanerRunOnce(t *testing.T) {
	schools := new(fakeSchools)
	schools.On("ListSchemas").Return([]string{"school_green", "school_pending", "school_blue"}, nil)
	schools.On("Exists", "school_green").Return(true, nil)
	schools.On("Exists", "school_pending").Return(false, nil)
	schools.On("Exists", "school_blue").Return(true, nil)

	refresh := &purger{count: 2, fail: "school_blue"}
	resets := &purger{count: 1}

	res, err := NewTokenCleaner(schools, schools, refresh, resets, zerolog.Nop()).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"public", "school_green", "school_blue"}, refresh.seen)
	assert.Equal(t, []string{"public", "school_green"}, resets.seen)
	assert.Equal(t, Result{Schemas: 2, RefreshTokens: 4, ResetTokens: 2}, res)
	schools.AssertExpectations(t)
}

func TestTokenCleanerListFailure(t *testing.T) {
	schools := new(fakeSchools)
	schools.On("ListSchemas").Return([]string(nil), errors.New("db down"))

	_, err := NewTokenCleaner(schools, schools, &purger{}, &purger{}, zerolog.Nop()).RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}
