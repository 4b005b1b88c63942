// Package checkout opens hosted payment sessions that lead back to a final
// document.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/punchamoorthee/estatedocs/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

const (
	UnitAmount  int64 = 9900
	Currency          = string(stripe.CurrencyUSD)
	ProductName       = "Real Estate Document"
)

var sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "estatedocs_checkout_sessions_total",
	Help: "Checkout sessions requested, by outcome",
}, []string{"outcome"})

// SessionCreator is the part of the Stripe session client we use.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// Linker creates one-item checkout sessions whose success redirect points
// at the download route of the purchased document.
type Linker struct {
	sessions SessionCreator
	baseURL  string
}

// NewStripeLinker uses the live Stripe API with secretKey.
func NewStripeLinker(secretKey, publicBaseURL string) *Linker {
	client := &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
	return NewLinker(client, publicBaseURL)
}

func NewLinker(sessions SessionCreator, publicBaseURL string) *Linker {
	return &Linker{sessions: sessions, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// SuccessURL is where the buyer lands after paying for filename. The name is
// escaped as one path segment.
func (l *Linker) SuccessURL(filename string) string {
	return l.baseURL + "/download/" + url.PathEscape(filename)
}

func (l *Linker) CancelURL() string {
	return l.baseURL + "/cancel"
}

// Params builds the session request for filename.
func (l *Linker) Params(filename string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(ProductName),
				},
				UnitAmount: stripe.Int64(UnitAmount),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:        stripe.String(l.SuccessURL(filename)),
		CancelURL:         stripe.String(l.CancelURL()),
		ClientReferenceID: stripe.String(filename),
	}
	params.AddMetadata("final_filename", filename)
	return params
}

// CreateSession opens a session for filename. An empty filename is rejected
// before the payment backend is contacted.
func (l *Linker) CreateSession(ctx context.Context, filename string) (domain.CheckoutSession, error) {
	if strings.TrimSpace(filename) == "" {
		sessionsTotal.WithLabelValues("rejected").Inc()
		return domain.CheckoutSession{}, domain.ErrMissingArtifactReference
	}

	params := l.Params(filename)
	params.Context = ctx

	s, err := l.sessions.New(params)
	if err != nil {
		sessionsTotal.WithLabelValues("error").Inc()
		return domain.CheckoutSession{}, classify(err)
	}
	sessionsTotal.WithLabelValues("created").Inc()
	return domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func classify(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return fmt.Errorf("%w: %s (status %d)", domain.ErrCheckout, stripeErr.Msg, stripeErr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: %v", domain.ErrCheckout, err)
}
