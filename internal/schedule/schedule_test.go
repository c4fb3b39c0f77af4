package schedule

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repowiki/internal/analysis"
	"git.home.luguber.info/inful/repowiki/internal/config"
	"git.home.luguber.info/inful/repowiki/internal/github"
	"git.home.luguber.info/inful/repowiki/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedRepo(t *testing.T, s *store.Store, fullName string, generatedAt time.Time) {
	t.Helper()
	err := s.SaveGeneration(t.Context(), store.Record{
		Repository: &analysis.Repository{
			Repository: github.Repository{
				Owner:    "octocat",
				Name:     fullName[len("octocat/"):],
				FullName: fullName,
			},
		},
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)
}

func TestJanitorPrunesOldDocumentation(t *testing.T) {
	st, err := store.Open(":memory:", discardLogger())
	require.NoError(t, err)
	defer st.Close()

	now := time.Now()
	seedRepo(t, st, "octocat/stale", now.Add(-2*time.Hour))
	seedRepo(t, st, "octocat/fresh", now)

	s, err := New(st, config.ScheduleConfig{JanitorInterval: "20ms"}, time.Hour, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start(t.Context()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		list, err := st.Repositories(context.Background(), "")
		return err == nil && len(list) == 1 && list[0].FullName == "octocat/fresh"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefreshCallsBackForOldest(t *testing.T) {
	st, err := store.Open(":memory:", discardLogger())
	require.NoError(t, err)
	defer st.Close()

	seedRepo(t, st, "octocat/stale", time.Now().Add(-time.Hour))

	var mu sync.Mutex
	var refreshed []string
	refresh := func(ctx context.Context, repo string) error {
		mu.Lock()
		defer mu.Unlock()
		refreshed = append(refreshed, repo)
		return nil
	}

	cfg := config.ScheduleConfig{
		JanitorInterval: "1h",
		RefreshInterval: "20ms",
		RefreshLimit:    5,
	}
	s, err := New(st, cfg, 0, discardLogger())
	require.NoError(t, err)
	s = s.WithRefresh(refresh)
	require.NoError(t, s.Start(t.Context()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(refreshed) > 0 && refreshed[0] == "octocat/stale"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefreshNotScheduledWithoutCallback(t *testing.T) {
	st, err := store.Open(":memory:", discardLogger())
	require.NoError(t, err)
	defer st.Close()

	seedRepo(t, st, "octocat/stale", time.Now().Add(-time.Hour))

	cfg := config.ScheduleConfig{
		JanitorInterval: "1h",
		RefreshInterval: "10ms",
		RefreshLimit:    5,
	}
	s, err := New(st, cfg, 0, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start(t.Context()))
	defer s.Stop()

	// No callback registered: the refresh job must not exist, so the
	// stored repository stays untouched.
	time.Sleep(60 * time.Millisecond)
	list, err := st.Repositories(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestStartWithNothingToDo(t *testing.T) {
	s, err := New(nil, config.ScheduleConfig{}, 0, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Start(t.Context()))
	require.NoError(t, s.Stop())
}
