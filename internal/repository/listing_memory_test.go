package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/realtime"
	"github.com/javajoker/campus-market/internal/utils"
)

type ListingRepositoryTestSuite struct {
	suite.Suite
	ctx    context.Context
	events *realtime.Broadcaster
	repo   *MemoryListingRepository
	alice  *policy.Caller
	bob    *policy.Caller
	clock  time.Time
}

func (suite *ListingRepositoryTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.events = realtime.NewBroadcaster()
	suite.repo = NewMemoryListingRepository(suite.events)
	suite.clock = time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	suite.repo.now = func() time.Time {
		suite.clock = suite.clock.Add(time.Minute)
		return suite.clock
	}
	suite.alice = &policy.Caller{UserID: uuid.New()}
	suite.bob = &policy.Caller{UserID: uuid.New()}
}

func (suite *ListingRepositoryTestSuite) TearDownTest() {
	suite.events.Close()
}

func (suite *ListingRepositoryTestSuite) newListing(owner *policy.Caller, title string, price float64) *models.Listing {
	id := owner.UserID
	return &models.Listing{
		Title:       title,
		Description: "Lightly used",
		Price:       price,
		Condition:   models.ConditionUsed,
		Category:    "Books",
		SellerName:  "Seller",
		SellerPhone: "+919876543210",
		OwnerID:     &id,
	}
}

func (suite *ListingRepositoryTestSuite) TestInsertAssignsIDAndCreatedAt() {
	l := suite.newListing(suite.alice, "Calculus textbook", 450)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))

	assert.NotEqual(suite.T(), uuid.Nil, l.ID)
	assert.False(suite.T(), l.CreatedAt.IsZero())

	stored, err := suite.repo.Get(suite.ctx, suite.bob, l.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Calculus textbook", stored.Title)
}

func (suite *ListingRepositoryTestSuite) TestInsertForSomeoneElseIsRejected() {
	l := suite.newListing(suite.bob, "Not mine", 10)
	err := suite.repo.Insert(suite.ctx, suite.alice, l)
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthorization))

	_, total, err := suite.repo.List(suite.ctx, suite.alice, ListingFilter{})
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), total)
}

func (suite *ListingRepositoryTestSuite) TestUnauthenticatedCallerIsRejected() {
	_, _, err := suite.repo.List(suite.ctx, nil, ListingFilter{})
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthentication))

	_, err = suite.repo.Get(suite.ctx, &policy.Caller{}, uuid.New())
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthentication))

	err = suite.repo.Insert(suite.ctx, nil, suite.newListing(suite.alice, "x", 1))
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthentication))

	err = suite.repo.Update(suite.ctx, nil, suite.newListing(suite.alice, "x", 1))
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthentication))
}

func (suite *ListingRepositoryTestSuite) TestOwnerCanUpdate() {
	l := suite.newListing(suite.alice, "Desk lamp", 300)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))
	created := l.CreatedAt

	edit := l.Clone()
	edit.Price = 250
	edit.CreatedAt = time.Time{}
	require.NoError(suite.T(), suite.repo.Update(suite.ctx, suite.alice, edit))
	assert.Equal(suite.T(), created, edit.CreatedAt)

	stored, err := suite.repo.Get(suite.ctx, suite.alice, l.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 250.0, stored.Price)
	assert.Equal(suite.T(), created, stored.CreatedAt)
}

func (suite *ListingRepositoryTestSuite) TestNonOwnerCannotUpdate() {
	l := suite.newListing(suite.alice, "Desk lamp", 300)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))

	hijack := l.Clone()
	hijack.Price = 1
	err := suite.repo.Update(suite.ctx, suite.bob, hijack)
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthorization))

	stored, err := suite.repo.Get(suite.ctx, suite.alice, l.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 300.0, stored.Price)
}

func (suite *ListingRepositoryTestSuite) TestOwnerCannotHandOverListing() {
	l := suite.newListing(suite.alice, "Desk lamp", 300)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))

	transfer := l.Clone()
	transfer.OwnerID = &suite.bob.UserID
	err := suite.repo.Update(suite.ctx, suite.alice, transfer)
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthorization))
}

func (suite *ListingRepositoryTestSuite) TestLegacyRowIsReadableButNotEditable() {
	legacy := &models.Listing{Title: "Old bicycle", Condition: models.ConditionUsed, Price: 900}
	suite.repo.Seed(legacy)

	stored, err := suite.repo.Get(suite.ctx, suite.alice, legacy.ID)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), stored.OwnerID)

	claim := stored.Clone()
	claim.OwnerID = &suite.alice.UserID
	err = suite.repo.Update(suite.ctx, suite.alice, claim)
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthorization))
}

func (suite *ListingRepositoryTestSuite) TestDeleteIsAlwaysDenied() {
	l := suite.newListing(suite.alice, "Desk lamp", 300)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))

	err := suite.repo.Delete(suite.ctx, suite.alice, l.ID)
	assert.True(suite.T(), apperr.Is(err, apperr.KindAuthorization))

	_, err = suite.repo.Get(suite.ctx, suite.alice, l.ID)
	assert.NoError(suite.T(), err)
}

func (suite *ListingRepositoryTestSuite) TestUpdateMissingListing() {
	err := suite.repo.Update(suite.ctx, suite.alice, suite.newListing(suite.alice, "ghost", 1))
	assert.True(suite.T(), apperr.Is(err, apperr.KindNotFound))
}

func (suite *ListingRepositoryTestSuite) TestRowConstraints() {
	l := suite.newListing(suite.alice, "Negative", -1)
	assert.True(suite.T(), apperr.Is(suite.repo.Insert(suite.ctx, suite.alice, l), apperr.KindValidation))

	l = suite.newListing(suite.alice, "Broken", 1)
	l.Condition = "Broken"
	assert.True(suite.T(), apperr.Is(suite.repo.Insert(suite.ctx, suite.alice, l), apperr.KindValidation))

	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), models.MaxPrice + 1} {
		l = suite.newListing(suite.alice, "Odd price", price)
		assert.True(suite.T(), apperr.Is(suite.repo.Insert(suite.ctx, suite.alice, l), apperr.KindValidation), "price %v", price)
	}
	_, total, err := suite.repo.List(suite.ctx, suite.alice, ListingFilter{})
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), total)

	l = suite.newListing(suite.alice, "Fine", models.MaxPrice)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))
	l.Price = math.NaN()
	assert.True(suite.T(), apperr.Is(suite.repo.Update(suite.ctx, suite.alice, l), apperr.KindValidation))
}

func (suite *ListingRepositoryTestSuite) TestListNewestFirstWithFilters() {
	for _, title := range []string{"Physics notes", "Chemistry notes", "Table fan"} {
		l := suite.newListing(suite.alice, title, 100)
		if title == "Table fan" {
			l.Category = "Electronics"
		}
		require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))
	}
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.bob, suite.newListing(suite.bob, "Bob's notes", 50)))

	all, total, err := suite.repo.List(suite.ctx, suite.alice, ListingFilter{})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 4, total)
	assert.Equal(suite.T(), "Bob's notes", all[0].Title)
	assert.Equal(suite.T(), "Physics notes", all[3].Title)

	books, _, err := suite.repo.List(suite.ctx, suite.alice, ListingFilter{
		PaginationParams: utils.PaginationParams{Category: "Books", Search: "NOTES"},
	})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), books, 3)

	mine, total, err := suite.repo.List(suite.ctx, suite.bob, ListingFilter{OwnerID: &suite.alice.UserID})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, total)
	assert.Len(suite.T(), mine, 3)
}

func (suite *ListingRepositoryTestSuite) TestListPaginatesAndSorts() {
	for i, price := range []float64{30, 10, 20} {
		l := suite.newListing(suite.alice, string(rune('A'+i)), price)
		require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))
	}

	page, total, err := suite.repo.List(suite.ctx, suite.alice, ListingFilter{
		PaginationParams: utils.PaginationParams{Page: 2, Limit: 2, Sort: "price", Order: "asc"},
	})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, total)
	require.Len(suite.T(), page, 1)
	assert.Equal(suite.T(), 30.0, page[0].Price)
}

func (suite *ListingRepositoryTestSuite) TestWritesPublishChangeEvents() {
	sub := suite.events.Subscribe()
	defer sub.Cancel()

	l := suite.newListing(suite.alice, "Desk lamp", 300)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))
	ev := <-sub.C
	assert.Equal(suite.T(), "INSERT", ev.Operation)

	require.NoError(suite.T(), suite.repo.Update(suite.ctx, suite.alice, l.Clone()))
	ev = <-sub.C
	assert.Equal(suite.T(), "UPDATE", ev.Operation)

	_ = suite.repo.Update(suite.ctx, suite.bob, l.Clone())
	select {
	case ev := <-sub.C:
		suite.T().Fatalf("rejected write published %v", ev)
	default:
	}
}

func (suite *ListingRepositoryTestSuite) TestReturnedListingsAreCopies() {
	l := suite.newListing(suite.alice, "Desk lamp", 300)
	require.NoError(suite.T(), suite.repo.Insert(suite.ctx, suite.alice, l))

	got, err := suite.repo.Get(suite.ctx, suite.alice, l.ID)
	require.NoError(suite.T(), err)
	got.Title = "changed"
	*got.OwnerID = suite.bob.UserID

	again, err := suite.repo.Get(suite.ctx, suite.alice, l.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Desk lamp", again.Title)
	assert.True(suite.T(), again.OwnedBy(suite.alice.UserID))
}

func TestListingRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ListingRepositoryTestSuite))
}
