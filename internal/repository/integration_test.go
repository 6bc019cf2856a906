//go:build integration

package repository

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"

	"agora/internal/database"
	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("agora"),
		postgres.WithUsername("agora"),
		postgres.WithPassword("agora"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatal(err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatal(err)
	}

	testDB, err = gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(testDB); err != nil {
		log.Fatal(err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestIntegration_UniqueUsernameIsConflict(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "dup", Email: "dup1@example.com", Password: "x"}))
	err := repo.Create(ctx, &models.User{Username: "dup", Email: "dup2@example.com", Password: "x"})
	assert.True(t, models.IsCode(err, models.CodeConflict))
}

func TestIntegration_ConcurrentBidsSerialise(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(testDB)
	listings := NewListingRepository(testDB)

	owner := &models.User{Username: "seller", Email: "seller@example.com", Password: "x"}
	require.NoError(t, users.Create(ctx, owner))
	listing := &models.Listing{OwnerID: owner.ID, Title: "Clock", Description: "d", StartingPrice: 1, IsActive: true}
	require.NoError(t, listings.Create(ctx, listing))

	// Every bidder offers the same amount; only one may beat the current price.
	const bidders = 8
	var wg sync.WaitGroup
	accepted := make(chan struct{}, bidders)
	for i := 0; i < bidders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := listings.Transaction(ctx, func(txListings ListingRepository, txBids BidRepository) error {
				l, err := txListings.GetForUpdate(ctx, listing.ID)
				if err != nil {
					return err
				}
				top, err := txBids.Highest(ctx, l.ID)
				if err != nil {
					return err
				}
				if top != nil && top.Amount >= 5 {
					return models.NewValidationError("too low")
				}
				return txBids.Create(ctx, &models.Bid{ListingID: l.ID, BidderID: owner.ID, Amount: 5})
			})
			if err == nil {
				accepted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(accepted)

	assert.Len(t, accepted, 1)
}
