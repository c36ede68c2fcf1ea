package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/featureboard/feature-voting/backend/internal/apperrors"
	"github.com/featureboard/feature-voting/backend/internal/models"
	"github.com/featureboard/feature-voting/backend/internal/testutil"
)

func TestCastOrMoveFirstVote(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice@example.com", "Alice Johnson")
	feature := testutil.CreateFeature(t, db, user, "Dark Mode Support")

	result, err := ledger.CastOrMove(ctx, user.ID, feature.ID)
	if err != nil {
		t.Fatalf("CastOrMove failed: %v", err)
	}

	if result.Vote.UserID != user.ID || result.Vote.FeatureID != feature.ID {
		t.Errorf("Vote row = (%s, %s), want (%s, %s)",
			result.Vote.UserID, result.Vote.FeatureID, user.ID, feature.ID)
	}
	if result.Feature.VoteCount != 1 {
		t.Errorf("Projection voteCount = %d, want 1", result.Feature.VoteCount)
	}
	if result.Feature.Title != "Dark Mode Support" {
		t.Errorf("Projection title = %q", result.Feature.Title)
	}

	testutil.AssertCountersConsistent(t, db)
}

func TestCastOrMoveIdempotentRevote(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "bob@example.com", "Bob Smith")
	feature := testutil.CreateFeature(t, db, user, "Calendar Integration")

	first, err := ledger.CastOrMove(ctx, user.ID, feature.ID)
	if err != nil {
		t.Fatalf("First CastOrMove failed: %v", err)
	}

	second, err := ledger.CastOrMove(ctx, user.ID, feature.ID)
	if err != nil {
		t.Fatalf("Second CastOrMove failed: %v", err)
	}

	if second.Vote.ID != first.Vote.ID {
		t.Errorf("Revote created a new row: %s != %s", second.Vote.ID, first.Vote.ID)
	}
	if second.Feature.VoteCount != 1 {
		t.Errorf("Counter after revote = %d, want 1", second.Feature.VoteCount)
	}
	if rows := testutil.LedgerRows(t, db, feature.ID); rows != 1 {
		t.Errorf("Ledger rows after revote = %d, want 1", rows)
	}

	testutil.AssertCountersConsistent(t, db)
}

func TestCastOrMoveTransfersVote(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "charlie@example.com", "Charlie Brown")
	f1 := testutil.CreateFeature(t, db, user, "Pomodoro Timer Integration")
	f2 := testutil.CreateFeature(t, db, user, "Mobile App Offline Mode")

	if _, err := ledger.CastOrMove(ctx, user.ID, f1.ID); err != nil {
		t.Fatalf("Initial vote failed: %v", err)
	}

	result, err := ledger.CastOrMove(ctx, user.ID, f2.ID)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	if result.Vote.FeatureID != f2.ID {
		t.Errorf("Vote points at %s, want %s", result.Vote.FeatureID, f2.ID)
	}
	if got := testutil.VoteCount(t, db, f1.ID); got != 0 {
		t.Errorf("Old feature count = %d, want 0", got)
	}
	if got := testutil.VoteCount(t, db, f2.ID); got != 1 {
		t.Errorf("New feature count = %d, want 1", got)
	}

	// Total votes conserved across the move
	var total int64
	db.Model(&models.Vote{}).Count(&total)
	if total != 1 {
		t.Errorf("Total ledger rows = %d, want 1", total)
	}

	testutil.AssertCountersConsistent(t, db)
}

func TestRemoveDeletesAndDecrements(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "diana@example.com", "Diana Prince")
	feature := testutil.CreateFeature(t, db, user, "Spaced Repetition Flashcards")

	if _, err := ledger.CastOrMove(ctx, user.ID, feature.ID); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	projection, err := ledger.DeleteVoteAndDecrement(ctx, user.ID, feature.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if projection.VoteCount != 0 {
		t.Errorf("Projection after remove = %d, want 0", projection.VoteCount)
	}
	if rows := testutil.LedgerRows(t, db, feature.ID); rows != 0 {
		t.Errorf("Ledger rows after remove = %d, want 0", rows)
	}

	// Removing again targets a vote that no longer exists
	_, err = ledger.DeleteVoteAndDecrement(ctx, user.ID, feature.ID)
	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) || notFound.Resource != "vote" {
		t.Fatalf("Second remove error = %v, want vote not found", err)
	}

	// Failed remove left the counter untouched
	if got := testutil.VoteCount(t, db, feature.ID); got != 0 {
		t.Errorf("Counter after failed remove = %d, want 0", got)
	}

	testutil.AssertCountersConsistent(t, db)
}

func TestRemoveWrongFeatureIsNotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "eve@example.com", "Eve Adams")
	f1 := testutil.CreateFeature(t, db, user, "Dark Mode Support")
	f2 := testutil.CreateFeature(t, db, user, "Calendar Integration")

	if _, err := ledger.CastOrMove(ctx, user.ID, f1.ID); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	// The user has a vote, just not on f2; removal targets (user, feature)
	_, err := ledger.DeleteVoteAndDecrement(ctx, user.ID, f2.ID)
	var notFound *apperrors.NotFoundError
	if !errors.As(err, &notFound) || notFound.Resource != "vote" {
		t.Fatalf("Remove error = %v, want vote not found", err)
	}

	if got := testutil.VoteCount(t, db, f1.ID); got != 1 {
		t.Errorf("Existing vote disturbed: count = %d, want 1", got)
	}
}

func TestFindVoteByUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice@example.com", "Alice Johnson")
	feature := testutil.CreateFeature(t, db, user, "Dark Mode Support")

	vote, err := ledger.FindVoteByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindVoteByUser failed: %v", err)
	}
	if vote != nil {
		t.Errorf("Expected nil vote before voting, got %+v", vote)
	}

	if _, err := ledger.CastOrMove(ctx, user.ID, feature.ID); err != nil {
		t.Fatalf("Vote failed: %v", err)
	}

	vote, err = ledger.FindVoteByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindVoteByUser failed: %v", err)
	}
	if vote == nil || vote.FeatureID != feature.ID {
		t.Errorf("FindVoteByUser = %+v, want vote on %s", vote, feature.ID)
	}

	byPair, err := ledger.FindVoteByUserAndFeature(ctx, user.ID, feature.ID)
	if err != nil {
		t.Fatalf("FindVoteByUserAndFeature failed: %v", err)
	}
	if byPair == nil || byPair.ID != vote.ID {
		t.Errorf("FindVoteByUserAndFeature = %+v, want %+v", byPair, vote)
	}
}

func TestPairedPrimitives(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "primitive@example.com", "Primitive User")
	f1 := testutil.CreateFeature(t, db, user, "First Feature")
	f2 := testutil.CreateFeature(t, db, user, "Second Feature")

	created, err := ledger.CreateVoteAndIncrement(ctx, user.ID, f1.ID)
	if err != nil {
		t.Fatalf("CreateVoteAndIncrement failed: %v", err)
	}
	if created.Feature.VoteCount != 1 {
		t.Errorf("Count after create = %d, want 1", created.Feature.VoteCount)
	}

	// A second create for the same user hits the user_id unique index
	_, err = ledger.CreateVoteAndIncrement(ctx, user.ID, f2.ID)
	if !apperrors.IsUniqueViolation(err) {
		t.Fatalf("Duplicate create error = %v, want unique violation", err)
	}
	// The aborted pair left both the ledger and the counters untouched
	testutil.AssertCountersConsistent(t, db)

	moved, err := ledger.MoveVote(ctx, &created.Vote, f2.ID)
	if err != nil {
		t.Fatalf("MoveVote failed: %v", err)
	}
	if moved.Feature.ID != f2.ID || moved.Feature.VoteCount != 1 {
		t.Errorf("Move projection = %+v", moved.Feature)
	}
	if got := testutil.VoteCount(t, db, f1.ID); got != 0 {
		t.Errorf("Old counter = %d, want 0", got)
	}
	testutil.AssertCountersConsistent(t, db)
}

func TestListFeaturesRankedDeterministic(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "creator@example.com", "Creator")

	// Counts [10, 5, 5, 0]; the two 5s must keep a fixed relative order
	f10 := testutil.CreateFeature(t, db, creator, "Ten Votes")
	f5a := testutil.CreateFeature(t, db, creator, "Five Votes A")
	f5b := testutil.CreateFeature(t, db, creator, "Five Votes B")
	f0 := testutil.CreateFeature(t, db, creator, "Zero Votes")

	voteFor := func(feature models.Feature, n int) {
		for i := 0; i < n; i++ {
			u := testutil.CreateUser(t, db,
				fmt.Sprintf("%s-voter-%d@example.com", feature.ID[:8], i), "Voter")
			if _, err := ledger.CastOrMove(ctx, u.ID, feature.ID); err != nil {
				t.Fatalf("Vote for %s failed: %v", feature.Title, err)
			}
		}
	}
	voteFor(f10, 10)
	voteFor(f5a, 5)
	voteFor(f5b, 5)

	var firstOrder []string
	for call := 0; call < 3; call++ {
		features, err := ledger.ListFeaturesRanked(ctx)
		if err != nil {
			t.Fatalf("ListFeaturesRanked failed: %v", err)
		}
		if len(features) != 4 {
			t.Fatalf("Got %d features, want 4", len(features))
		}

		counts := make([]int, len(features))
		order := make([]string, len(features))
		for i, f := range features {
			counts[i] = f.VoteCount
			order[i] = f.ID
		}

		want := []int{10, 5, 5, 0}
		for i := range want {
			if counts[i] != want[i] {
				t.Fatalf("Call %d: counts = %v, want %v", call, counts, want)
			}
		}

		if call == 0 {
			firstOrder = order
			if order[0] != f10.ID || order[3] != f0.ID {
				t.Errorf("Extremes misplaced: %v", order)
			}
		} else {
			for i := range order {
				if order[i] != firstOrder[i] {
					t.Fatalf("Call %d: order changed from %v to %v", call, firstOrder, order)
				}
			}
		}
	}
}

func TestConcurrentDistinctUserVotes(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	creator := testutil.CreateUser(t, db, "creator@example.com", "Creator")
	feature := testutil.CreateFeature(t, db, creator, "Popular Feature")

	const numVoters = 20
	users := make([]models.User, numVoters)
	for i := 0; i < numVoters; i++ {
		users[i] = testutil.CreateUser(t, db,
			fmt.Sprintf("voter%d@example.com", i), fmt.Sprintf("Voter %d", i))
	}

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if _, err := ledger.CastOrMove(ctx, users[idx].ID, feature.ID); err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Successful votes = %d, want %d", successCount.Load(), numVoters)
	}
	if got := testutil.VoteCount(t, db, feature.ID); got != numVoters {
		t.Errorf("Counter = %d, want %d", got, numVoters)
	}
	if rows := testutil.LedgerRows(t, db, feature.ID); rows != numVoters {
		t.Errorf("Ledger rows = %d, want %d", rows, numVoters)
	}
	testutil.AssertCountersConsistent(t, db)
}

func TestConcurrentSameUserMoves(t *testing.T) {
	db := testutil.NewTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "flipflop@example.com", "Flip Flop")
	f1 := testutil.CreateFeature(t, db, user, "Feature One")
	f2 := testutil.CreateFeature(t, db, user, "Feature Two")

	if _, err := ledger.CastOrMove(ctx, user.ID, f1.ID); err != nil {
		t.Fatalf("Initial vote failed: %v", err)
	}

	// Hammer moves between the two features from several goroutines.
	// Whatever interleaving happens, the user must end with exactly one
	// vote and both counters must match the ledger.
	var wg sync.WaitGroup
	targets := []string{f1.ID, f2.ID}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			// Conflicts and unique violations are expected here; the
			// invariant check below is the real assertion.
			_, _ = ledger.CastOrMove(ctx, user.ID, targets[idx%2])
		}(i)
	}
	wg.Wait()

	var rows int64
	db.Model(&models.Vote{}).Where("user_id = ?", user.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("User has %d vote rows, want exactly 1", rows)
	}

	total := testutil.VoteCount(t, db, f1.ID) + testutil.VoteCount(t, db, f2.ID)
	if total != 1 {
		t.Errorf("Summed counters = %d, want 1", total)
	}
	testutil.AssertCountersConsistent(t, db)
}
