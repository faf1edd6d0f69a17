package stats_test

import (
	"testing"

	"PlinkoCore/internal/stats"

	"github.com/google/uuid"
)

func TestStats_LazyInitAndTotals(t *testing.T) {
	st := stats.NewStore()
	player := uuid.New()

	if st.Get(player) != nil {
		t.Fatal("expected nil for unseen player")
	}

	st.Record(player, 1, 2000)
	st.Record(player, 2, 3000)
	st.RecordWin(player, 1500)

	s := st.Get(player)
	if s == nil {
		t.Fatal("expected aggregate")
	}
	if s.TotalGamesPlayed != 2 || s.TotalWagered != 5000 || s.TotalWon != 1500 {
		t.Errorf("unexpected totals: %+v", s)
	}
	if len(s.GameIDs) != 2 || s.GameIDs[0] != 1 || s.GameIDs[1] != 2 {
		t.Errorf("unexpected game ids: %v", s.GameIDs)
	}
}

func TestStats_GameIDsCapped(t *testing.T) {
	st := stats.NewStore()
	player := uuid.New()

	for i := uint64(1); i <= 150; i++ {
		st.Record(player, i, 100)
	}

	s := st.Get(player)
	if s.TotalGamesPlayed != 150 {
		t.Errorf("games played: got %d, want 150", s.TotalGamesPlayed)
	}
	if len(s.GameIDs) != 100 {
		t.Fatalf("game ids: got %d entries, want 100", len(s.GameIDs))
	}
	// Append-only: the first 100 ids stay, later ones are not tracked.
	if s.GameIDs[0] != 1 || s.GameIDs[99] != 100 {
		t.Errorf("expected first 100 ids, got [%d..%d]", s.GameIDs[0], s.GameIDs[99])
	}
}

func TestStats_CountMatchesListBelowCap(t *testing.T) {
	st := stats.NewStore()
	player := uuid.New()

	for i := uint64(1); i <= 42; i++ {
		st.Record(player, i, 10)
	}

	s := st.Get(player)
	if uint64(len(s.GameIDs)) != s.TotalGamesPlayed {
		t.Errorf("game count %d desynced from id list %d", s.TotalGamesPlayed, len(s.GameIDs))
	}
}

func TestStats_CloneIsolated(t *testing.T) {
	st := stats.NewStore()
	player := uuid.New()
	st.Record(player, 7, 100)

	s := st.Get(player)
	s.GameIDs[0] = 999
	s.TotalWagered = 0

	again := st.Get(player)
	if again.GameIDs[0] != 7 || again.TotalWagered != 100 {
		t.Error("store aggregate mutated through returned copy")
	}
}
