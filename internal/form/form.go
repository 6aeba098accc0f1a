// internal/form/form.go

// Package form is the listing wizard: a three step state machine that
// collects a new or edited listing and submits it to the listing store.
package form

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/phone"
	"github.com/javajoker/campus-market/internal/policy"
	"github.com/javajoker/campus-market/internal/storage"
)

type Step int

const (
	StepDetails Step = iota + 1
	StepPriceImage
	StepContact
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepPriceImage:
		return "price_image"
	case StepContact:
		return "contact"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Values is everything the wizard collects. Price is kept as typed and
// parsed when the price step is left.
type Values struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Price       string           `json:"price"`
	Condition   models.Condition `json:"condition"`
	ImageURL    string           `json:"image_url"`
	SellerName  string           `json:"seller_name"`
	SellerPhone string           `json:"seller_phone"`
	CountryCode string           `json:"country_code"`
}

// Patch sets the non-nil fields. ImageURL goes through SetImageURL so it
// clears a pending upload.
type Patch struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Category    *string           `json:"category"`
	Price       *string           `json:"price"`
	Condition   *models.Condition `json:"condition" validate:"omitempty,condition"`
	ImageURL    *string           `json:"image_url"`
	SellerName  *string           `json:"seller_name"`
	SellerPhone *string           `json:"seller_phone"`
	CountryCode *string           `json:"country_code"`
}

// Upload is the file variant of the listing image.
type Upload struct {
	Name string
	Data []byte
}

type UploadInfo struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// MissingFields is attached to the validation error that blocks Next.
type MissingFields struct {
	Step   string   `json:"step"`
	Fields []string `json:"fields"`
}

// State is a read-only snapshot of a controller.
type State struct {
	Step       Step        `json:"step"`
	StepName   string      `json:"step_name"`
	Values     Values      `json:"values"`
	Upload     *UploadInfo `json:"upload,omitempty"`
	ListingID  *uuid.UUID  `json:"listing_id,omitempty"`
	CanAdvance bool        `json:"can_advance"`
	Missing    []string    `json:"missing,omitempty"`
}

// ListingWriter is the store a finished listing is handed to.
type ListingWriter interface {
	Insert(ctx context.Context, caller *policy.Caller, listing *models.Listing) error
	Update(ctx context.Context, caller *policy.Caller, listing *models.Listing) error
}

// PhotoUploader resolves an uploaded file to a public URL.
type PhotoUploader interface {
	UploadPhoto(ctx context.Context, originalName string, data []byte) (*storage.UploadResult, error)
}

type Controller struct {
	mu          sync.Mutex
	step        Step
	values      Values
	upload      *Upload
	editing     *models.Listing
	countryCode string
}

// New returns a controller for a new listing.
func New(defaultCountryCode string) *Controller {
	c := &Controller{countryCode: defaultCountryCode}
	c.reset()
	return c
}

// ForEdit returns a controller seeded from an existing listing. Submit
// updates that listing by id.
func ForEdit(listing *models.Listing, defaultCountryCode string) *Controller {
	c := New(defaultCountryCode)
	c.editing = listing.Clone()
	c.values = Values{
		Title:       listing.Title,
		Description: listing.Description,
		Category:    listing.Category,
		Price:       strconv.FormatFloat(listing.Price, 'f', -1, 64),
		Condition:   listing.Condition,
		ImageURL:    listing.ImageURL,
		SellerName:  listing.SellerName,
		SellerPhone: listing.SellerPhone,
		CountryCode: defaultCountryCode,
	}
	if c.values.Condition == "" {
		c.values.Condition = models.ConditionNew
	}
	return c
}

func (c *Controller) reset() {
	c.step = StepDetails
	c.values = Values{Condition: models.ConditionNew, CountryCode: c.countryCode}
	c.upload = nil
	c.editing = nil
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	missing := c.missing(c.step)
	s := State{
		Step:       c.step,
		StepName:   c.step.String(),
		Values:     c.values,
		CanAdvance: len(missing) == 0,
		Missing:    missing,
	}
	if c.upload != nil {
		s.Upload = &UploadInfo{Name: c.upload.Name, Size: len(c.upload.Data)}
	}
	if c.editing != nil {
		id := c.editing.ID
		s.ListingID = &id
	}
	return s
}

// Apply sets the fields present in p. It never changes the step.
func (c *Controller) Apply(p Patch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.values.Title, p.Title)
	set(&c.values.Description, p.Description)
	set(&c.values.Category, p.Category)
	set(&c.values.Price, p.Price)
	set(&c.values.SellerName, p.SellerName)
	set(&c.values.SellerPhone, p.SellerPhone)
	set(&c.values.CountryCode, p.CountryCode)
	if p.Condition != nil {
		c.values.Condition = *p.Condition
	}
	if p.ImageURL != nil {
		c.setImageURL(*p.ImageURL)
	}
}

// SetImageURL selects the URL image variant and drops any pending upload.
func (c *Controller) SetImageURL(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setImageURL(url)
}

func (c *Controller) setImageURL(url string) {
	c.values.ImageURL = strings.TrimSpace(url)
	if c.values.ImageURL != "" {
		c.upload = nil
	}
}

// SetUpload selects the file image variant and clears the URL.
func (c *Controller) SetUpload(name string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upload = &Upload{Name: name, Data: data}
	c.values.ImageURL = ""
}

// Next moves forward one step. It is refused while the current step has
// missing or invalid fields. On the last step it does nothing.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.check(c.step); err != nil {
		return err
	}
	if c.step < StepContact {
		c.step++
	}
	return nil
}

// Back moves back one step. It is always allowed.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step > StepDetails {
		c.step--
	}
}

func (c *Controller) missing(step Step) []string {
	v := c.values
	var fields []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			fields = append(fields, name)
		}
	}

	switch step {
	case StepDetails:
		require("title", v.Title)
		require("description", v.Description)
		require("category", v.Category)
	case StepPriceImage:
		require("price", v.Price)
		require("condition", string(v.Condition))
	case StepContact:
		require("seller_name", v.SellerName)
		require("seller_phone", v.SellerPhone)
	}
	return fields
}

// check reports missing fields first, then malformed ones.
func (c *Controller) check(step Step) error {
	if fields := c.missing(step); len(fields) > 0 {
		return apperr.Validation(
			"complete the required fields: "+strings.Join(fields, ", "),
			MissingFields{Step: step.String(), Fields: fields},
		)
	}

	switch step {
	case StepPriceImage:
		if _, err := parsePrice(c.values.Price); err != nil {
			return err
		}
		if !c.values.Condition.Valid() {
			return apperr.Validation("condition must be New or Used",
				MissingFields{Step: step.String(), Fields: []string{"condition"}})
		}
	case StepContact:
		if phone.Digits(c.values.SellerPhone) == "" {
			return apperr.Validation("seller phone must contain digits",
				MissingFields{Step: step.String(), Fields: []string{"seller_phone"}})
		}
	}
	return nil
}

func parsePrice(s string) (float64, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !models.ValidPrice(price) {
		return 0, apperr.Validation(fmt.Sprintf("price must be a number between 0 and %.2f", models.MaxPrice),
			MissingFields{Step: StepPriceImage.String(), Fields: []string{"price"}})
	}
	return price, nil
}

// Submit hands the finished listing to listings, as caller. A pending
// upload is stored first and replaced by its URL. On failure the
// controller keeps its step and values; on success it resets.
func (c *Controller) Submit(ctx context.Context, caller *policy.Caller, listings ListingWriter, photos PhotoUploader) (*models.Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepContact {
		return nil, apperr.Validation("finish every step before submitting",
			MissingFields{Step: c.step.String(), Fields: c.missing(c.step)})
	}
	for _, step := range []Step{StepDetails, StepPriceImage, StepContact} {
		if err := c.check(step); err != nil {
			return nil, err
		}
	}

	if c.upload != nil {
		if photos == nil {
			return nil, apperr.Upload("photo uploads are not configured", nil)
		}
		result, err := photos.UploadPhoto(ctx, c.upload.Name, c.upload.Data)
		if err != nil {
			return nil, err
		}
		c.values.ImageURL = result.URL
		c.upload = nil
	}

	listing, err := c.build(caller)
	if err != nil {
		return nil, err
	}

	if c.editing != nil {
		err = listings.Update(ctx, caller, listing)
	} else {
		err = listings.Insert(ctx, caller, listing)
	}
	if err != nil {
		return nil, err
	}

	c.reset()
	return listing, nil
}

func (c *Controller) build(caller *policy.Caller) (*models.Listing, error) {
	price, err := parsePrice(c.values.Price)
	if err != nil {
		return nil, err
	}

	countryCode := strings.TrimSpace(c.values.CountryCode)
	if countryCode == "" {
		countryCode = c.countryCode
	}

	listing := &models.Listing{
		Title:       strings.TrimSpace(c.values.Title),
		Description: strings.TrimSpace(c.values.Description),
		Price:       price,
		Condition:   c.values.Condition,
		Category:    strings.TrimSpace(c.values.Category),
		ImageURL:    c.values.ImageURL,
		SellerName:  strings.TrimSpace(c.values.SellerName),
		SellerPhone: phone.Normalize(c.values.SellerPhone, countryCode),
	}

	if c.editing != nil {
		listing.ID = c.editing.ID
		listing.CreatedAt = c.editing.CreatedAt
		if c.editing.OwnerID != nil {
			owner := *c.editing.OwnerID
			listing.OwnerID = &owner
		}
	} else if caller != nil && caller.UserID != uuid.Nil {
		owner := caller.UserID
		listing.OwnerID = &owner
	}
	return listing, nil
}
