package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAPI struct {
	listIDs []string
	listErr error
	addErr  error
	delErr  error

	added   []string
	removed []string
}

func (f *fakeAPI) List(context.Context, string) ([]string, error) {
	return f.listIDs, f.listErr
}

func (f *fakeAPI) Add(_ context.Context, _ string, productID string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, productID)
	return nil
}

func (f *fakeAPI) Remove(_ context.Context, _ string, productID string) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.removed = append(f.removed, productID)
	return nil
}

func TestListDeduplicates(t *testing.T) {
	api := &fakeAPI{listIDs: []string{"P1", "P2", "P1", "P3", "P2"}}
	s := NewService(api, zap.NewNop())

	require.Equal(t, []string{"P1", "P2", "P3"}, s.List(context.Background(), 1, "tok"))
}

func TestListDegradesToEmptyOnFetchFailure(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("upstream down")}
	s := NewService(api, zap.NewNop())

	require.Empty(t, s.List(context.Background(), 1, "tok"))
}

func TestAddOptimistic(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	s := NewService(api, zap.NewNop())

	require.NoError(t, s.Add(ctx, 1, "tok", "P1"))
	require.Equal(t, []string{"P1"}, s.List(ctx, 1, "tok"))
	require.Equal(t, []string{"P1"}, api.added)

	// adding a favorite twice does not duplicate
	require.NoError(t, s.Add(ctx, 1, "tok", "P1"))
	require.Equal(t, []string{"P1"}, s.List(ctx, 1, "tok"))
}

func TestAddRollsBackOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{addErr: errors.New("500")}
	s := NewService(api, zap.NewNop())

	require.Error(t, s.Add(ctx, 1, "tok", "P1"))
	require.Empty(t, s.List(ctx, 1, "tok"))
}

func TestRemoveOptimistic(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{listIDs: []string{"P1", "P2"}}
	s := NewService(api, zap.NewNop())

	require.NoError(t, s.Remove(ctx, 1, "tok", "P1"))
	require.Equal(t, []string{"P2"}, s.List(ctx, 1, "tok"))

	// removing something absent is a local no-op but still syncs nothing bad
	require.NoError(t, s.Remove(ctx, 1, "tok", "P9"))
}

func TestRemoveRollsBackInPlace(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{listIDs: []string{"P1", "P2", "P3"}, delErr: errors.New("timeout")}
	s := NewService(api, zap.NewNop())

	require.Error(t, s.Remove(ctx, 1, "tok", "P2"))
	// restored at its original position
	require.Equal(t, []string{"P1", "P2", "P3"}, s.List(ctx, 1, "tok"))
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	s := NewService(api, zap.NewNop())

	require.NoError(t, s.Add(ctx, 1, "tok1", "P1"))
	require.Empty(t, s.List(ctx, 2, "tok2"))
}

func TestOptimisticHelper(t *testing.T) {
	state := []string{"a"}

	err := Optimistic(
		func() func() {
			state = append(state, "b")
			return func() { state = state[:1] }
		},
		func() error { return errors.New("remote failed") },
	)
	require.Error(t, err)
	require.Equal(t, []string{"a"}, state)

	err = Optimistic(
		func() func() {
			state = append(state, "b")
			return func() { state = state[:1] }
		},
		func() error { return nil },
	)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, state)
}
