package subscriber

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "redoku.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(t *testing.T) (*Service, *SQLStore) {
	t.Helper()
	store := openTestStore(t)
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, store
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"user@example.com":     true,
		"a.b@c.d":              true,
		"odd@name@example.org": true,
		"user@localhost":       false,
		"user.example.com":     false,
		"user@":                false,
		"":                     false,
		"first.last@host":      false,
	}
	for email, want := range cases {
		require.Equal(t, want, ValidEmail(email), "email %q", email)
	}
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "user@example.com", Normalize("  User@Example.COM \n"))
}

func TestDSN(t *testing.T) {
	require.Equal(t, "/var/lib/redoku.sqlite", DSN("sqlite:////var/lib/redoku.sqlite"))
	require.Equal(t, "instance/redoku.sqlite", DSN("sqlite:///instance/redoku.sqlite"))
	require.Equal(t, "instance/redoku.sqlite", DSN("sqlite://instance/redoku.sqlite"))
	require.Equal(t, "data.db", DSN("data.db"))
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	sub, err := store.Create(ctx, "reader@example.com", created)
	require.NoError(t, err)
	require.Equal(t, 1, sub.PDFCount)
	require.NotZero(t, sub.ID)

	_, err = store.Create(ctx, "reader@example.com", created)
	require.Error(t, err, "email must be unique")

	require.NoError(t, store.IncrementCount(ctx, sub.ID))
	got, err := store.FindByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	require.Equal(t, 2, got.PDFCount)
	require.True(t, got.CreatedAt.Equal(created))

	require.ErrorIs(t, store.IncrementCount(ctx, sub.ID+100), ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := store.Create(ctx, email, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}
	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	require.Equal(t, "c@example.com", subs[0].Email)
	require.Equal(t, "a@example.com", subs[2].Email)
}

func TestRecordOutcomes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	out, err := svc.Record(ctx, "")
	require.NoError(t, err)
	require.Equal(t, Skipped, out)

	out, err = svc.Record(ctx, "not-an-email")
	require.NoError(t, err)
	require.Equal(t, Invalid, out)

	out, err = svc.Record(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, Saved, out)

	// 同一邮箱再次提交：计数加一，不产生重复记录
	out, err = svc.Record(ctx, " USER@example.com ")
	require.NoError(t, err)
	require.Equal(t, Existing, out)

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, 2, subs[0].PDFCount)
}

func TestRecordConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Record(ctx, "same@example.com")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	subs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, n, subs[0].PDFCount)
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "saved", Saved.String())
	require.Equal(t, "existing", Existing.String())
	require.Equal(t, "invalid", Invalid.String())
	require.Equal(t, "skipped", Skipped.String())
}
