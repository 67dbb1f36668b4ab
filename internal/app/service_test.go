package app_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/reelrank/reelrank/internal/adapters/catalog"
	"github.com/reelrank/reelrank/internal/adapters/repository"
	"github.com/reelrank/reelrank/internal/app"
	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/internal/domain/rank"
	"github.com/reelrank/reelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// newEngine builds a started engine over in-memory collaborators with a
// catalog preloaded with numbered items.
func newEngine(t *testing.T, itemCount int) (*app.Service, *repository.MemoryStore, *catalog.MemoryClient) {
	t.Helper()

	store := repository.NewMemoryStore()
	items := catalog.NewMemoryClient()
	for i := 1; i <= itemCount; i++ {
		items.AddItem(catalog.Item{ExternalID: int64(i)})
	}

	svc := app.New(
		app.WithStore(store),
		app.WithCatalog(items),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start engine: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, store, items
}

// rankToCompletion drives a session to resolution answering every
// comparison with the same preference, then commits.
func rankToCompletion(t *testing.T, svc *app.Service, userID string, externalID int64, category model.Category, pref model.Preference) model.RankedEntry {
	t.Helper()
	ctx := context.Background()

	sess, err := svc.StartSession(ctx, userID, externalID, category)
	if err != nil {
		t.Fatalf("start session for item %d: %v", externalID, err)
	}
	for !sess.Completed {
		sess, err = svc.SubmitComparison(ctx, sess.ID, pref)
		if err != nil {
			t.Fatalf("submit comparison: %v", err)
		}
	}
	entry, err := svc.CompleteRanking(ctx, sess.ID)
	if err != nil {
		t.Fatalf("complete ranking: %v", err)
	}
	return entry
}

func TestStartSession(t *testing.T) {
	Convey("Given a started engine with an empty category", t, func() {
		ctx := context.Background()
		svc, _, _ := newEngine(t, 5)

		Convey("When ranking the first item of a category", func() {
			sess, err := svc.StartSession(ctx, "u1", 1, model.CategoryLiked)
			So(err, ShouldBeNil)

			Convey("Then the session resolves immediately at position 1", func() {
				So(sess.Completed, ShouldBeTrue)
				So(sess.FinalPosition, ShouldEqual, 1)
				So(sess.Pending, ShouldBeNil)
				So(sess.Search.Comparisons, ShouldBeEmpty)
			})

			Convey("And committing yields the band-top rating", func() {
				entry, err := svc.CompleteRanking(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(entry.Position, ShouldEqual, 1)
				So(entry.Rating, ShouldEqual, 10.0)
			})
		})

		Convey("When the user id is empty", func() {
			_, err := svc.StartSession(ctx, "", 1, model.CategoryLiked)
			So(err, ShouldWrap, app.ErrInvalidUser)
		})

		Convey("When the category is unknown", func() {
			_, err := svc.StartSession(ctx, "u1", 1, model.Category("adored"))
			So(err, ShouldWrap, rank.ErrInvalidCategory)
		})

		Convey("When the item is not in the catalog", func() {
			_, err := svc.StartSession(ctx, "u1", 404, model.CategoryLiked)
			So(err, ShouldWrap, catalog.ErrItemNotFound)
		})

		Convey("When the item is already ranked", func() {
			rankToCompletion(t, svc, "u1", 1, model.CategoryLiked, model.PreferenceExistingItem)

			_, err := svc.StartSession(ctx, "u1", 1, model.CategoryFine)
			So(err, ShouldWrap, app.ErrItemAlreadyRanked)
		})
	})
}

func TestSubmitComparison(t *testing.T) {
	Convey("Given a category holding one committed entry", t, func() {
		ctx := context.Background()
		svc, _, _ := newEngine(t, 5)
		first := rankToCompletion(t, svc, "u1", 1, model.CategoryLiked, model.PreferenceExistingItem)

		Convey("When a second item starts a session", func() {
			sess, err := svc.StartSession(ctx, "u1", 2, model.CategoryLiked)
			So(err, ShouldBeNil)

			Convey("Then the incumbent is offered for comparison", func() {
				So(sess.Completed, ShouldBeFalse)
				So(sess.Pending, ShouldNotBeNil)
				So(sess.Pending.Position, ShouldEqual, 1)
				So(sess.Pending.ItemID, ShouldEqual, first.ItemID)
			})

			Convey("And preferring the existing item settles position 2", func() {
				sess, err := svc.SubmitComparison(ctx, sess.ID, model.PreferenceExistingItem)
				So(err, ShouldBeNil)
				So(sess.Completed, ShouldBeTrue)
				So(sess.FinalPosition, ShouldEqual, 2)

				Convey("And committing splits the band across both entries", func() {
					entry, err := svc.CompleteRanking(ctx, sess.ID)
					So(err, ShouldBeNil)
					So(entry.Position, ShouldEqual, 2)
					So(entry.Rating, ShouldEqual, 6.5)
					So(entry.LostTo, ShouldResemble, []string{first.ItemID})

					incumbent, err := svc.Ranking(ctx, "u1", first.ItemID)
					So(err, ShouldBeNil)
					So(incumbent.Rating, ShouldEqual, 10.0)
				})
			})

			Convey("And preferring the new item takes position 1", func() {
				sess, err := svc.SubmitComparison(ctx, sess.ID, model.PreferenceNewItem)
				So(err, ShouldBeNil)
				So(sess.Completed, ShouldBeTrue)
				So(sess.FinalPosition, ShouldEqual, 1)

				entry, err := svc.CompleteRanking(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(entry.Position, ShouldEqual, 1)
				So(entry.WonAgainst, ShouldResemble, []string{first.ItemID})

				Convey("And the incumbent is shifted to position 2", func() {
					shifted, err := svc.Ranking(ctx, "u1", first.ItemID)
					So(err, ShouldBeNil)
					So(shifted.Position, ShouldEqual, 2)
					So(shifted.Rating, ShouldEqual, 6.5)
				})
			})

			Convey("And an invalid preference is rejected", func() {
				_, err := svc.SubmitComparison(ctx, sess.ID, model.Preference("maybe"))
				So(err, ShouldWrap, app.ErrInvalidPreference)
			})
		})

		Convey("When submitting against a missing session", func() {
			_, err := svc.SubmitComparison(ctx, "ghost", model.PreferenceTie)
			So(err, ShouldWrap, app.ErrSessionNotFound)
		})

		Convey("When submitting against a completed session", func() {
			sess, err := svc.StartSession(ctx, "u2", 2, model.CategoryLiked)
			So(err, ShouldBeNil)
			So(sess.Completed, ShouldBeTrue)

			_, err = svc.SubmitComparison(ctx, sess.ID, model.PreferenceTie)
			So(err, ShouldWrap, app.ErrSessionCompleted)
		})
	})
}

func TestTiePlacement(t *testing.T) {
	Convey("Given a fine category holding four committed entries", t, func() {
		ctx := context.Background()
		svc, _, _ := newEngine(t, 6)
		for i := int64(1); i <= 4; i++ {
			rankToCompletion(t, svc, "u1", i, model.CategoryFine, model.PreferenceExistingItem)
		}

		Convey("When a fifth item ties with the incumbent at the first probe", func() {
			sess, err := svc.StartSession(ctx, "u1", 5, model.CategoryFine)
			So(err, ShouldBeNil)
			So(sess.Pending.Position, ShouldEqual, 2)

			sess, err = svc.SubmitComparison(ctx, sess.ID, model.PreferenceTie)
			So(err, ShouldBeNil)

			Convey("Then it places directly after the tied incumbent", func() {
				So(sess.Completed, ShouldBeTrue)
				So(sess.FinalPosition, ShouldEqual, 3)
			})

			Convey("And committing recomputes all five ratings", func() {
				entry, err := svc.CompleteRanking(ctx, sess.ID)
				So(err, ShouldBeNil)
				So(entry.Position, ShouldEqual, 3)
				So(entry.TiedWith, ShouldHaveLength, 1)

				rankings, err := svc.Rankings(ctx, "u1", model.CategoryFine, 10)
				So(err, ShouldBeNil)
				So(rankings, ShouldHaveLength, 5)

				want := []float64{6.4, 5.7, 5.0, 4.2, 3.5}
				for i, r := range rankings {
					So(r.Position, ShouldEqual, i+1)
					So(r.Rating, ShouldEqual, want[i])
				}
			})
		})
	})
}

func TestCompleteRanking(t *testing.T) {
	Convey("Given a started engine", t, func() {
		ctx := context.Background()
		svc, _, items := newEngine(t, 5)

		Convey("When completing an unresolved session", func() {
			rankToCompletion(t, svc, "u1", 1, model.CategoryLiked, model.PreferenceExistingItem)
			sess, err := svc.StartSession(ctx, "u1", 2, model.CategoryLiked)
			So(err, ShouldBeNil)
			So(sess.Completed, ShouldBeFalse)

			_, err = svc.CompleteRanking(ctx, sess.ID)
			So(err, ShouldWrap, app.ErrSessionNotResolved)
		})

		Convey("When completing a resolved session", func() {
			sess, err := svc.StartSession(ctx, "u1", 1, model.CategoryLiked)
			So(err, ShouldBeNil)
			entry, err := svc.CompleteRanking(ctx, sess.ID)
			So(err, ShouldBeNil)
			So(entry.ID, ShouldNotBeBlank)

			Convey("Then the session is purged", func() {
				_, err := svc.GetSession(ctx, sess.ID)
				So(err, ShouldWrap, app.ErrSessionNotFound)
			})

			Convey("And an aggregate-stat refresh is queued", func() {
				deadline := time.Now().Add(2 * time.Second)
				for items.RefreshCalls() == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(items.RefreshCalls(), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When completing a missing session", func() {
			_, err := svc.CompleteRanking(ctx, "ghost")
			So(err, ShouldWrap, app.ErrSessionNotFound)
		})
	})
}

func TestCancelSession(t *testing.T) {
	Convey("Given an in-flight session", t, func() {
		ctx := context.Background()
		svc, store, _ := newEngine(t, 5)
		rankToCompletion(t, svc, "u1", 1, model.CategoryLiked, model.PreferenceExistingItem)

		sess, err := svc.StartSession(ctx, "u1", 2, model.CategoryLiked)
		So(err, ShouldBeNil)

		Convey("When the session is cancelled", func() {
			So(svc.CancelSession(ctx, sess.ID), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := svc.GetSession(ctx, sess.ID)
				So(err, ShouldWrap, app.ErrSessionNotFound)
			})

			Convey("And no entry was written", func() {
				count, err := store.CountByCategory(ctx, "u1", model.CategoryLiked)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 1)
			})

			Convey("And the item can start a fresh session", func() {
				_, err := svc.StartSession(ctx, "u1", 2, model.CategoryLiked)
				So(err, ShouldBeNil)
			})
		})

		Convey("When cancelling a missing session", func() {
			So(svc.CancelSession(ctx, "ghost"), ShouldWrap, app.ErrSessionNotFound)
		})
	})
}

func TestBinarySearchOrdering(t *testing.T) {
	Convey("Given ten items ranked by a fixed underlying order", t, func() {
		ctx := context.Background()
		svc, _, _ := newEngine(t, 10)

		// Rank items 1..10 in shuffled arrival order; preference always
		// follows the external id (lower id is better).
		arrival := []int64{4, 9, 1, 7, 2, 10, 5, 3, 8, 6}
		ranked := make(map[string]int64)

		for _, extID := range arrival {
			sess, err := svc.StartSession(ctx, "u1", extID, model.CategoryLiked)
			So(err, ShouldBeNil)
			for !sess.Completed {
				incumbentID := ranked[sess.Pending.ItemID]
				pref := model.PreferenceExistingItem
				if extID < incumbentID {
					pref = model.PreferenceNewItem
				}
				sess, err = svc.SubmitComparison(ctx, sess.ID, pref)
				So(err, ShouldBeNil)
			}
			entry, err := svc.CompleteRanking(ctx, sess.ID)
			So(err, ShouldBeNil)
			ranked[entry.ItemID] = extID
		}

		Convey("Then the final list is fully sorted", func() {
			rankings, err := svc.Rankings(ctx, "u1", model.CategoryLiked, 10)
			So(err, ShouldBeNil)
			So(rankings, ShouldHaveLength, 10)
			for i, r := range rankings {
				So(r.Position, ShouldEqual, i+1)
				So(ranked[r.ItemID], ShouldEqual, int64(i+1))
			}

			Convey("And positions interpolate the liked band edge to edge", func() {
				So(rankings[0].Rating, ShouldEqual, 10.0)
				So(rankings[9].Rating, ShouldEqual, 6.5)
			})
		})
	})
}

func TestRemoveRanking(t *testing.T) {
	Convey("Given three committed entries", t, func() {
		ctx := context.Background()
		svc, _, _ := newEngine(t, 5)
		for i := int64(1); i <= 3; i++ {
			rankToCompletion(t, svc, "u1", i, model.CategoryLiked, model.PreferenceExistingItem)
		}

		Convey("When removing the middle entry", func() {
			So(svc.RemoveRanking(ctx, "u1", "item-2"), ShouldBeNil)

			Convey("Then positions close up and ratings recompute", func() {
				rankings, err := svc.Rankings(ctx, "u1", model.CategoryLiked, 10)
				So(err, ShouldBeNil)
				So(rankings, ShouldHaveLength, 2)
				So(rankings[0].ItemID, ShouldEqual, "item-1")
				So(rankings[0].Rating, ShouldEqual, 10.0)
				So(rankings[1].ItemID, ShouldEqual, "item-3")
				So(rankings[1].Position, ShouldEqual, 2)
				So(rankings[1].Rating, ShouldEqual, 6.5)
			})

			Convey("And the item can be ranked again", func() {
				_, err := svc.StartSession(ctx, "u1", 2, model.CategoryFine)
				So(err, ShouldBeNil)
			})
		})

		Convey("When removing an unranked item", func() {
			err := svc.RemoveRanking(ctx, "u1", "item-99")
			So(err, ShouldWrap, repository.ErrNotFound)
		})
	})
}

func TestMoveRanking(t *testing.T) {
	Convey("Given entries in liked and fine", t, func() {
		ctx := context.Background()
		svc, _, _ := newEngine(t, 6)
		for i := int64(1); i <= 3; i++ {
			rankToCompletion(t, svc, "u1", i, model.CategoryLiked, model.PreferenceExistingItem)
		}
		rankToCompletion(t, svc, "u1", 4, model.CategoryFine, model.PreferenceExistingItem)

		Convey("When moving a liked entry to fine", func() {
			moved, err := svc.MoveRanking(ctx, "u1", "item-2", model.CategoryFine)
			So(err, ShouldBeNil)

			Convey("Then it lands at the bottom of fine with a fine rating", func() {
				So(moved.Category, ShouldEqual, model.CategoryFine)
				So(moved.Position, ShouldEqual, 2)
				So(moved.Rating, ShouldEqual, 3.5)
			})

			Convey("And both categories are dense and rerated", func() {
				liked, err := svc.Rankings(ctx, "u1", model.CategoryLiked, 10)
				So(err, ShouldBeNil)
				So(liked, ShouldHaveLength, 2)
				So(liked[0].Rating, ShouldEqual, 10.0)
				So(liked[1].Rating, ShouldEqual, 6.5)

				fine, err := svc.Rankings(ctx, "u1", model.CategoryFine, 10)
				So(err, ShouldBeNil)
				So(fine, ShouldHaveLength, 2)
				So(fine[0].Rating, ShouldEqual, 6.4)
			})
		})

		Convey("When moving to the same category", func() {
			moved, err := svc.MoveRanking(ctx, "u1", "item-2", model.CategoryLiked)
			So(err, ShouldBeNil)
			So(moved.Position, ShouldEqual, 2)
		})

		Convey("When moving an unranked item", func() {
			_, err := svc.MoveRanking(ctx, "u1", "item-99", model.CategoryFine)
			So(err, ShouldWrap, repository.ErrNotFound)
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given a started engine", t, func() {
		svc, _, _ := newEngine(t, 1)

		Convey("Then stats expose the runtime shape", func() {
			stats := svc.Stats()
			So(stats["started"], ShouldBeTrue)
			So(stats["session_ttl_seconds"], ShouldEqual, 1800)
			So(stats, ShouldContainKey, "refresh_queue_length")
		})
	})
}
