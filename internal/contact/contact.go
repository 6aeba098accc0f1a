// internal/contact/contact.go

// Package contact builds the outbound chat links buyers use to reach a
// seller. Nothing about the interaction is recorded.
package contact

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
	"github.com/javajoker/campus-market/internal/phone"
)

const (
	DefaultBaseURL  = "https://wa.me/"
	DefaultTemplate = "Hi! I'm interested in your listing %q for %s on Campus Market. Is it still available?"
)

type LinkBuilder struct {
	BaseURL  string
	Template string
	Currency string
}

func NewLinkBuilder(currency string) *LinkBuilder {
	return &LinkBuilder{
		BaseURL:  DefaultBaseURL,
		Template: DefaultTemplate,
		Currency: currency,
	}
}

// ChatLink returns the deep link for messaging the seller of l.
func (b *LinkBuilder) ChatLink(l *models.Listing) (string, error) {
	digits := phone.Digits(l.SellerPhone)
	if digits == "" {
		return "", apperr.Validation("listing has no seller phone number", nil)
	}

	text := fmt.Sprintf(b.Template, l.Title, b.FormatPrice(l.Price))
	query := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")

	return b.BaseURL + digits + "?text=" + query, nil
}

func (b *LinkBuilder) FormatPrice(price float64) string {
	return b.Currency + strconv.FormatFloat(price, 'f', -1, 64)
}
