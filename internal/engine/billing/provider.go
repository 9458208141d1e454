package billing

import (
	"fmt"
	"sync"

	stripe "github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/product"
)

// Provider abstracts the payment provider calls the session issuer needs.
type Provider interface {
	// CreateCustomer registers a billing customer for the organization.
	CreateCustomer(orgID, name, email string) (customerID string, err error)
	// CreateRecurringPrice creates a product with a monthly recurring price
	// and returns the price reference.
	CreateRecurringPrice(productName string, amountCents int64, metadata map[string]string) (priceID string, err error)
	// CreateCheckoutSession requests a hosted checkout page and returns its URL.
	CreateCheckoutSession(req *CheckoutSessionRequest) (url string, err error)
	// CreatePortalSession requests a hosted management-portal page and returns its URL.
	CreatePortalSession(customerID, returnURL string) (url string, err error)
}

// CheckoutSessionRequest describes a subscription checkout with a base line
// item and a per-seat line item. Metadata is echoed back verbatim on the
// completed-checkout webhook.
type CheckoutSessionRequest struct {
	CustomerID   string
	BasePriceID  string
	SeatPriceID  string
	SeatQuantity int64
	SuccessURL   string
	CancelURL    string
	Metadata     map[string]string
}

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct{}

// NewStripeProvider sets the global Stripe key and returns a provider.
func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{}
}

func (p *StripeProvider) CreateCustomer(orgID, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
		Metadata: map[string]string{
			"organization_id": orgID,
		},
	}
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CreateRecurringPrice(productName string, amountCents int64, metadata map[string]string) (string, error) {
	prod, err := product.New(&stripe.ProductParams{
		Name:     stripe.String(productName),
		Metadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("create stripe product: %w", err)
	}

	pr, err := price.New(&stripe.PriceParams{
		Product:    stripe.String(prod.ID),
		UnitAmount: stripe.Int64(amountCents),
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		},
		Metadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("create stripe price: %w", err)
	}
	return pr.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(req *CheckoutSessionRequest) (string, error) {
	lineItems := []*stripe.CheckoutSessionLineItemParams{
		{
			Price:    stripe.String(req.BasePriceID),
			Quantity: stripe.Int64(1),
		},
	}
	if req.SeatPriceID != "" && req.SeatQuantity > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(req.SeatPriceID),
			Quantity: stripe.Int64(req.SeatQuantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(req.CustomerID),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems:  lineItems,
		Metadata:   req.Metadata,
	}
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe checkout session: %w", err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("stripe returned empty checkout URL")
	}
	return sess.URL, nil
}

func (p *StripeProvider) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe portal session: %w", err)
	}
	return sess.URL, nil
}

// MockProvider is a test double that records calls and returns configurable
// results.
type MockProvider struct {
	mu sync.Mutex

	// Customers maps orgID -> customerID.
	Customers map[string]string
	// Prices collects created price product names.
	Prices []string
	// CheckoutRequests collects checkout session requests.
	CheckoutRequests []*CheckoutSessionRequest

	CreateCustomerErr error
	CreatePriceErr    error
	CreateCheckoutErr error
	CreatePortalErr   error

	nextCustomerSeq int
	nextPriceSeq    int
	nextSessionSeq  int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		Customers: make(map[string]string),
	}
}

func (m *MockProvider) CreateCustomer(orgID, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateCustomerErr != nil {
		return "", m.CreateCustomerErr
	}
	m.nextCustomerSeq++
	id := fmt.Sprintf("cus_mock_%d", m.nextCustomerSeq)
	m.Customers[orgID] = id
	return id, nil
}

func (m *MockProvider) CreateRecurringPrice(productName string, _ int64, _ map[string]string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreatePriceErr != nil {
		return "", m.CreatePriceErr
	}
	m.nextPriceSeq++
	m.Prices = append(m.Prices, productName)
	return fmt.Sprintf("price_mock_%d", m.nextPriceSeq), nil
}

func (m *MockProvider) CreateCheckoutSession(req *CheckoutSessionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateCheckoutErr != nil {
		return "", m.CreateCheckoutErr
	}
	m.nextSessionSeq++
	m.CheckoutRequests = append(m.CheckoutRequests, req)
	return fmt.Sprintf("https://checkout.mock/session_%d", m.nextSessionSeq), nil
}

func (m *MockProvider) CreatePortalSession(customerID, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreatePortalErr != nil {
		return "", m.CreatePortalErr
	}
	if customerID == "" {
		return "", fmt.Errorf("portal session requires a customer")
	}
	return "https://portal.mock/" + customerID, nil
}
