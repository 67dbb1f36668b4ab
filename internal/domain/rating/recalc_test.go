package rating_test

import (
	"context"
	"os"
	"testing"

	"github.com/reelrank/reelrank/internal/adapters/repository"
	"github.com/reelrank/reelrank/internal/domain/model"
	"github.com/reelrank/reelrank/internal/domain/rating"
	"github.com/reelrank/reelrank/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func seed(store *repository.MemoryStore, userID string, category model.Category, n int) {
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		_ = store.Insert(ctx, model.RankedEntry{
			ID:       "entry-" + string(rune('a'+i-1)),
			UserID:   userID,
			ItemID:   "item-" + string(rune('a'+i-1)),
			Category: category,
			Position: i,
		})
	}
}

func TestRecalculateCategory(t *testing.T) {
	Convey("Given a liked category with five entries", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		recalc := rating.NewRecalculator(store)
		seed(store, "u1", model.CategoryLiked, 5)

		Convey("When the category is recomputed", func() {
			updated, err := recalc.RecalculateCategory(ctx, "u1", model.CategoryLiked)
			So(err, ShouldBeNil)
			So(updated, ShouldEqual, 5)

			Convey("Then each entry carries its interpolated rating", func() {
				entries, _ := store.ListByCategory(ctx, "u1", model.CategoryLiked)
				So(entries[0].Rating, ShouldEqual, 10.0)
				So(entries[4].Rating, ShouldEqual, 6.5)
				for i := 1; i < len(entries); i++ {
					So(entries[i].Rating, ShouldBeLessThan, entries[i-1].Rating)
				}
			})
		})

		Convey("When an empty category is recomputed", func() {
			updated, err := recalc.RecalculateCategory(ctx, "u1", model.CategoryDisliked)
			So(err, ShouldBeNil)
			So(updated, ShouldEqual, 0)
		})
	})
}

func TestRecalculateFromPosition(t *testing.T) {
	Convey("Given a fine category with four rated entries", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		recalc := rating.NewRecalculator(store)
		seed(store, "u1", model.CategoryFine, 4)
		_, err := recalc.RecalculateCategory(ctx, "u1", model.CategoryFine)
		So(err, ShouldBeNil)

		Convey("When recomputing from position 3", func() {
			updated, err := recalc.RecalculateFromPosition(ctx, "u1", model.CategoryFine, 3)
			So(err, ShouldBeNil)

			Convey("Then only the tail subset is written", func() {
				So(updated, ShouldEqual, 2)
			})
		})

		Convey("When the from position is below 1 it clamps to a full pass", func() {
			updated, err := recalc.RecalculateFromPosition(ctx, "u1", model.CategoryFine, -3)
			So(err, ShouldBeNil)
			So(updated, ShouldEqual, 4)
		})
	})
}
