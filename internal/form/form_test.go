package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/storage"
)

type recordingWriter struct {
	inserted []*models.Listing
	updated  []*models.Listing
	err      error
}

func (w *recordingWriter) Insert(ctx context.Context, caller *policy.Caller, l *models.Listing) error {
	if w.err != nil {
		return w.err
	}
	l.ID = uuid.New()
	w.inserted = append(w.inserted, l)
	return nil
}

func (w *recordingWriter) Update(ctx context.Context, caller *policy.Caller, l *models.Listing) error {
	if w.err != nil {
		return w.err
	}
	w.updated = append(w.updated, l)
	return nil
}

type fakeUploader struct {
	calls int
	err   error
}

func (u *fakeUploader) UploadPhoto(ctx context.Context, name string, data []byte) (*storage.UploadResult, error) {
	u.calls++
	if u.err != nil {
		return nil, u.err
	}
	return &storage.UploadResult{URL: "https://cdn.campus.example/listings/" + name}, nil
}

func str(s string) *string { return &s }

func filled() *Controller {
	c := New("+91")
	c.Apply(Patch{
		Title:       str("Engineering drawing kit"),
		Description: str("Complete set, used one semester"),
		Category:    str("Stationery"),
		Price:       str("350"),
		SellerName:  str("Ravi"),
		SellerPhone: str("098765 43210"),
	})
	return c
}

func advanceToContact(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Next())
	require.NoError(t, c.Next())
	require.Equal(t, StepContact, c.Step())
}

func TestNextBlockedUntilDetailsComplete(t *testing.T) {
	required := []string{"title", "description", "category"}

	for _, omit := range required {
		t.Run("without "+omit, func(t *testing.T) {
			c := New("+91")
			p := Patch{Title: str("Lamp"), Description: str("Desk lamp"), Category: str("Furniture")}
			switch omit {
			case "title":
				p.Title = str("   ")
			case "description":
				p.Description = nil
			case "category":
				p.Category = str("")
			}
			c.Apply(p)

			err := c.Next()
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Equal(t, StepDetails, c.Step())

			var appErr *apperr.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, MissingFields{Step: "details", Fields: []string{omit}}, appErr.Details)
		})
	}

	c := New("+91")
	c.Apply(Patch{Title: str("Lamp"), Description: str("Desk lamp"), Category: str("Furniture")})
	require.NoError(t, c.Next())
	assert.Equal(t, StepPriceImage, c.Step())
}

func TestPriceStep(t *testing.T) {
	c := filled()
	require.NoError(t, c.Next())

	c.Apply(Patch{Price: str("")})
	assert.True(t, apperr.Is(c.Next(), apperr.KindValidation))

	c.Apply(Patch{Price: str("-5")})
	assert.True(t, apperr.Is(c.Next(), apperr.KindValidation))

	c.Apply(Patch{Price: str("abc")})
	assert.True(t, apperr.Is(c.Next(), apperr.KindValidation))

	for _, bad := range []string{"NaN", "Inf", "+Inf", "-Inf", "100000000", "1e300"} {
		c.Apply(Patch{Price: str(bad)})
		assert.True(t, apperr.Is(c.Next(), apperr.KindValidation), "price %q", bad)
		assert.Equal(t, StepPriceImage, c.Step())
	}

	used := models.ConditionUsed
	c.Apply(Patch{Price: str("0"), Condition: &used})
	require.NoError(t, c.Next())
	assert.Equal(t, StepContact, c.Step())
}

func TestConditionDefaultsToNew(t *testing.T) {
	assert.Equal(t, models.ConditionNew, New("+91").State().Values.Condition)
}

func TestBackAlwaysAllowed(t *testing.T) {
	c := New("+91")
	c.Back()
	assert.Equal(t, StepDetails, c.Step())

	c = filled()
	advanceToContact(t, c)
	c.Apply(Patch{SellerName: str(""), Title: str("")})
	c.Back()
	c.Back()
	assert.Equal(t, StepDetails, c.Step())
}

func TestNextOnLastStepStays(t *testing.T) {
	c := filled()
	advanceToContact(t, c)
	require.NoError(t, c.Next())
	assert.Equal(t, StepContact, c.Step())
}

func TestImageVariantsClearEachOther(t *testing.T) {
	c := New("+91")
	c.SetImageURL("https://example.com/lamp.jpg")
	c.SetUpload("lamp.png", []byte("png"))

	s := c.State()
	assert.Empty(t, s.Values.ImageURL)
	require.NotNil(t, s.Upload)
	assert.Equal(t, "lamp.png", s.Upload.Name)

	c.Apply(Patch{ImageURL: str("https://example.com/other.jpg")})
	s = c.State()
	assert.Nil(t, s.Upload)
	assert.Equal(t, "https://example.com/other.jpg", s.Values.ImageURL)
}

func TestSubmitCreatesOwnedListingAndResets(t *testing.T) {
	caller := &policy.Caller{UserID: uuid.New()}
	writer := &recordingWriter{}

	c := filled()
	advanceToContact(t, c)
	listing, err := c.Submit(context.Background(), caller, writer, nil)
	require.NoError(t, err)

	require.Len(t, writer.inserted, 1)
	assert.Equal(t, "+919876543210", listing.SellerPhone)
	assert.Equal(t, 350.0, listing.Price)
	assert.Equal(t, models.ConditionNew, listing.Condition)
	require.NotNil(t, listing.OwnerID)
	assert.Equal(t, caller.UserID, *listing.OwnerID)

	want := State{
		Step:     StepDetails,
		StepName: "details",
		Values:   Values{Condition: models.ConditionNew, CountryCode: "+91"},
		Missing:  []string{"title", "description", "category"},
	}
	if diff := cmp.Diff(want, c.State()); diff != "" {
		t.Errorf("state after submit (-want +got):\n%s", diff)
	}
}

func TestSubmitUsesSelectedCountryCode(t *testing.T) {
	c := filled()
	c.Apply(Patch{SellerPhone: str("0207 946 0000"), CountryCode: str("+44")})
	advanceToContact(t, c)

	listing, err := c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, &recordingWriter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "+442079460000", listing.SellerPhone)
}

func TestSubmitBeforeLastStepIsRefused(t *testing.T) {
	writer := &recordingWriter{}
	c := filled()

	_, err := c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, writer, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, writer.inserted)
}

func TestSubmitFailureKeepsState(t *testing.T) {
	writer := &recordingWriter{err: apperr.Authorization("new listing must be owned by the signed-in account")}
	c := filled()
	advanceToContact(t, c)
	before := c.State()

	_, err := c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, writer, nil)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
	assert.Equal(t, before, c.State())

	writer.err = nil
	_, err = c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, writer, nil)
	assert.NoError(t, err)
}

func TestSubmitResolvesUploadOnce(t *testing.T) {
	writer := &recordingWriter{err: apperr.Network("the database is unreachable, try again", nil)}
	photos := &fakeUploader{}

	c := filled()
	c.SetUpload("lamp.jpg", []byte("jpeg"))
	advanceToContact(t, c)

	_, err := c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, writer, photos)
	require.Error(t, err)
	assert.Equal(t, "https://cdn.campus.example/listings/lamp.jpg", c.State().Values.ImageURL)

	writer.err = nil
	listing, err := c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, writer, photos)
	require.NoError(t, err)
	assert.Equal(t, 1, photos.calls)
	assert.Equal(t, "https://cdn.campus.example/listings/lamp.jpg", listing.ImageURL)
}

func TestSubmitUploadFailureKeepsUpload(t *testing.T) {
	photos := &fakeUploader{err: apperr.Upload("storage bucket missing: create the bucket", nil)}
	c := filled()
	c.SetUpload("lamp.jpg", []byte("jpeg"))
	advanceToContact(t, c)

	_, err := c.Submit(context.Background(), &policy.Caller{UserID: uuid.New()}, &recordingWriter{}, photos)
	assert.True(t, apperr.Is(err, apperr.KindUpload))
	assert.NotNil(t, c.State().Upload)
	assert.Equal(t, StepContact, c.Step())
}

func TestEditModeUpdatesById(t *testing.T) {
	owner := uuid.New()
	existing := &models.Listing{
		BaseModel:   models.BaseModel{ID: uuid.New(), CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		Title:       "Cycle",
		Description: "Hero Sprint, 21 gears",
		Price:       4200.5,
		Condition:   models.ConditionUsed,
		Category:    "Cycles",
		SellerName:  "Meera",
		SellerPhone: "+919812345678",
		OwnerID:     &owner,
	}

	c := ForEdit(existing, "+91")
	s := c.State()
	require.NotNil(t, s.ListingID)
	assert.Equal(t, existing.ID, *s.ListingID)
	assert.Equal(t, "4200.5", s.Values.Price)

	c.Apply(Patch{Price: str("3900")})
	advanceToContact(t, c)

	writer := &recordingWriter{}
	listing, err := c.Submit(context.Background(), &policy.Caller{UserID: owner}, writer, nil)
	require.NoError(t, err)
	require.Len(t, writer.updated, 1)
	assert.Empty(t, writer.inserted)
	assert.Equal(t, existing.ID, listing.ID)
	assert.Equal(t, owner, *listing.OwnerID)
	assert.Equal(t, 3900.0, listing.Price)
	assert.Equal(t, "+919812345678", listing.SellerPhone)
}
