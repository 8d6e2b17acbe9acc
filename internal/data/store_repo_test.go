package data_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discfinder/discfinder/internal/data"
	"github.com/discfinder/discfinder/internal/domain/model"
	"github.com/discfinder/discfinder/internal/testutil"
)

func TestStoreRepo_CreateAndGet(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name:    "Disc Traders",
			City:    testutil.StringPtr("Grand Rapids"),
			State:   testutil.StringPtr("MI"),
			Website: testutil.StringPtr("https://disctraders.example"),
		})
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, "Disc Traders", created.Name)
		assert.Equal(t, model.SourceManual, created.Source)
		assert.False(t, created.Verified)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		require.NotNil(t, got.City)
		assert.Equal(t, "Grand Rapids", *got.City)
	})
}

func TestStoreRepo_Create_DuplicateNameCity(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name: "Disc Traders",
			City: testutil.StringPtr("Grand Rapids"),
		})
		require.NoError(t, err)

		// Case-insensitive collision on (name, city).
		_, err = repo.Create(ctx, &model.CreateStoreRequest{
			Name: "DISC TRADERS",
			City: testutil.StringPtr("grand rapids"),
		})
		assert.ErrorIs(t, err, data.ErrStoreExists)

		// Same name, different city is allowed.
		_, err = repo.Create(ctx, &model.CreateStoreRequest{
			Name: "Disc Traders",
			City: testutil.StringPtr("Lansing"),
		})
		assert.NoError(t, err)
	})
}

func TestStoreRepo_Create_DuplicateNullCity(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, &model.CreateStoreRequest{Name: "Vintage Stock"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &model.CreateStoreRequest{Name: "Vintage Stock"})
		assert.ErrorIs(t, err, data.ErrStoreExists)
	})
}

func TestStoreRepo_GetByID_NotFound(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		_, err := repo.GetByID(context.Background(), "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, data.ErrStoreNotFound)
	})
}

func TestStoreRepo_ListWithOptions(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		seed := []model.CreateStoreRequest{
			{Name: "Disc Traders", City: testutil.StringPtr("Grand Rapids"), State: testutil.StringPtr("MI")},
			{Name: "Movie Madness", City: testutil.StringPtr("Portland"), State: testutil.StringPtr("OR")},
			{Name: "Scarecrow Video", City: testutil.StringPtr("Seattle"), State: testutil.StringPtr("WA")},
		}
		for i := range seed {
			_, err := repo.Create(ctx, &seed[i])
			require.NoError(t, err)
		}

		t.Run("no filters returns all", func(t *testing.T) {
			stores, err := repo.ListWithOptions(ctx, model.StoresListOptions{})
			require.NoError(t, err)
			assert.Len(t, stores, 3)
		})

		t.Run("search matches name substring case-insensitively", func(t *testing.T) {
			stores, err := repo.ListWithOptions(ctx, model.StoresListOptions{
				Search: testutil.StringPtr("madness"),
			})
			require.NoError(t, err)
			require.Len(t, stores, 1)
			assert.Equal(t, "Movie Madness", stores[0].Name)
		})

		t.Run("search matches city", func(t *testing.T) {
			stores, err := repo.ListWithOptions(ctx, model.StoresListOptions{
				Search: testutil.StringPtr("seattle"),
			})
			require.NoError(t, err)
			require.Len(t, stores, 1)
			assert.Equal(t, "Scarecrow Video", stores[0].Name)
		})

		t.Run("state filter is exact", func(t *testing.T) {
			stores, err := repo.ListWithOptions(ctx, model.StoresListOptions{
				State: testutil.StringPtr("OR"),
			})
			require.NoError(t, err)
			require.Len(t, stores, 1)
			assert.Equal(t, "Movie Madness", stores[0].Name)
		})

		t.Run("verified filter", func(t *testing.T) {
			stores, err := repo.ListWithOptions(ctx, model.StoresListOptions{
				Verified: testutil.BoolPtr(true),
			})
			require.NoError(t, err)
			assert.Empty(t, stores)
		})

		t.Run("skip and limit paginate", func(t *testing.T) {
			first, err := repo.ListWithOptions(ctx, model.StoresListOptions{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, first, 2)

			rest, err := repo.ListWithOptions(ctx, model.StoresListOptions{Skip: 2, Limit: 2})
			require.NoError(t, err)
			assert.Len(t, rest, 1)
		})
	})
}

func TestStoreRepo_Update(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		tp := data.NewFixedTimeProvider(testutil.TestTime())
		repo := data.NewStoreRepoWithTimeProvider(db, tp)
		ctx := context.Background()

		created, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name:  "Disc Traders",
			Phone: testutil.StringPtr("555-0100"),
		})
		require.NoError(t, err)

		tp.AddTime(time.Hour)
		updated, err := repo.Update(ctx, created.ID, model.UpdateStoreRequest{
			Phone: testutil.StringPtr("555-0199"),
			Email: testutil.StringPtr("info@disctraders.example"),
		})
		require.NoError(t, err)

		require.NotNil(t, updated.Phone)
		assert.Equal(t, "555-0199", *updated.Phone)
		require.NotNil(t, updated.Email)
		assert.Equal(t, "info@disctraders.example", *updated.Email)
		// Untouched fields survive.
		assert.Equal(t, "Disc Traders", updated.Name)
		// updated_at is refreshed, created_at is not.
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
	})
}

func TestStoreRepo_Update_NotFound(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		_, err := repo.Update(context.Background(), "missing-id", model.UpdateStoreRequest{
			Phone: testutil.StringPtr("555-0100"),
		})
		assert.ErrorIs(t, err, data.ErrStoreNotFound)
	})
}

func TestStoreRepo_Update_DuplicateCollision(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name: "Disc Traders", City: testutil.StringPtr("Grand Rapids"),
		})
		require.NoError(t, err)
		other, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name: "Movie Madness", City: testutil.StringPtr("Grand Rapids"),
		})
		require.NoError(t, err)

		_, err = repo.Update(ctx, other.ID, model.UpdateStoreRequest{
			Name: testutil.StringPtr("Disc Traders"),
		})
		assert.ErrorIs(t, err, data.ErrStoreExists)
	})
}

func TestStoreRepo_Verify(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, &model.CreateStoreRequest{Name: "Disc Traders"})
		require.NoError(t, err)

		verified, err := repo.Verify(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, verified.Verified)

		_, err = repo.Verify(ctx, "missing-id")
		assert.ErrorIs(t, err, data.ErrStoreNotFound)
	})
}

func TestStoreRepo_Delete(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, &model.CreateStoreRequest{Name: "Disc Traders"})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, data.ErrStoreNotFound)
	})
}

func TestStoreRepo_SetEmail(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		created, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name:    "Disc Traders",
			Website: testutil.StringPtr("https://disctraders.example"),
		})
		require.NoError(t, err)

		require.NoError(t, repo.SetEmail(ctx, created.ID, "info@disctraders.example", 0.92))

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Email)
		assert.Equal(t, "info@disctraders.example", *got.Email)
		require.NotNil(t, got.EmailConfidence)
		assert.InDelta(t, 0.92, *got.EmailConfidence, 0.0001)

		assert.ErrorIs(t, repo.SetEmail(ctx, "missing-id", "x@y.z", 0.5), data.ErrStoreNotFound)
	})
}

func TestStoreRepo_EmailCandidateIDs(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		withSite, err := repo.Create(ctx, &model.CreateStoreRequest{
			Name:    "Disc Traders",
			Website: testutil.StringPtr("https://disctraders.example"),
		})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &model.CreateStoreRequest{Name: "No Website"})
		require.NoError(t, err)

		_, err = repo.Create(ctx, &model.CreateStoreRequest{
			Name:    "Already Has Email",
			Website: testutil.StringPtr("https://hasmail.example"),
			Email:   testutil.StringPtr("hello@hasmail.example"),
		})
		require.NoError(t, err)

		ids, err := repo.EmailCandidateIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{withSite.ID}, ids)
	})
}

func TestStoreRepo_Counts(t *testing.T) {
	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := data.NewStoreRepo(db)
		ctx := context.Background()

		a, err := repo.Create(ctx, &model.CreateStoreRequest{Name: "A"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &model.CreateStoreRequest{
			Name:  "B",
			Email: testutil.StringPtr("b@example.com"),
		})
		require.NoError(t, err)
		_, err = repo.Verify(ctx, a.ID)
		require.NoError(t, err)

		counts, err := repo.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts.Total)
		assert.Equal(t, 1, counts.Verified)
		assert.Equal(t, 1, counts.WithEmails)
	})
}
