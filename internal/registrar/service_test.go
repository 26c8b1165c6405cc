package registrar_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/registrar"
	sftesting "github.com/imamik/siteforge/internal/testing"
)

func TestService_SearchMany(t *testing.T) {
	t.Parallel()

	p := sftesting.NewMockProvider("mock").
		WithAvailable("a.com", 10).
		WithUnavailable("b.com")
	p.On("CheckAvailability", mock.Anything, "c.com").
		Return(registrar.Availability{}, errdefs.New(errdefs.KindAuth, "check", "bad credentials"))

	results := registrar.NewService(p, logr.Discard()).
		SearchMany(context.Background(), []string{"a.com", "b.com", "c.com"})

	require.Len(t, results, 3)
	assert.Equal(t, "a.com", results[0].Domain)
	assert.True(t, results[0].Availability.Available())
	assert.Equal(t, "b.com", results[1].Domain)
	assert.False(t, results[1].Availability.Available())
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "c.com", results[2].Domain)
	assert.True(t, errdefs.IsAuth(results[2].Err))
}

func TestService_Purchase(t *testing.T) {
	t.Parallel()

	contact := sftesting.NewContactBuilder().Build()
	req := registrar.PurchaseRequest{Domain: "my-app.com", Years: 1, Contact: contact}

	t.Run("confirmed", func(t *testing.T) {
		t.Parallel()
		p := sftesting.NewMockProvider("mock").
			WithAvailable("my-app.com", 11.99).
			WithPurchase("my-app.com", "order-1")

		var asked registrar.Availability
		confirm := func(_ context.Context, a registrar.Availability, _ registrar.PurchaseRequest) (bool, error) {
			asked = a
			return true, nil
		}

		out, err := registrar.NewService(p, logr.Discard()).Purchase(context.Background(), req, confirm)
		require.NoError(t, err)
		assert.Equal(t, "order-1", out.Result.OrderID)
		assert.False(t, out.Declined)
		assert.InDelta(t, 11.99, asked.Price, 0.0001)
		p.AssertExpectations(t)
	})

	t.Run("declined", func(t *testing.T) {
		t.Parallel()
		p := sftesting.NewMockProvider("mock").WithAvailable("my-app.com", 11.99)
		p.On("ValidatePurchase", mock.Anything, mock.Anything).Return(nil)

		out, err := registrar.NewService(p, logr.Discard()).Purchase(context.Background(), req,
			func(context.Context, registrar.Availability, registrar.PurchaseRequest) (bool, error) {
				return false, nil
			})
		require.NoError(t, err)
		assert.True(t, out.Declined)
		p.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
	})

	t.Run("unavailable", func(t *testing.T) {
		t.Parallel()
		p := sftesting.NewMockProvider("mock").WithUnavailable("my-app.com")

		_, err := registrar.NewService(p, logr.Discard()).Purchase(context.Background(), req, nil)
		assert.True(t, errdefs.IsUnavailable(err))
		p.AssertNotCalled(t, "ValidatePurchase", mock.Anything, mock.Anything)
		p.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
	})

	t.Run("invalid contact", func(t *testing.T) {
		t.Parallel()
		p := sftesting.NewMockProvider("mock")
		bad := req
		bad.Contact.Email = "not-an-email"

		_, err := registrar.NewService(p, logr.Discard()).Purchase(context.Background(), bad, nil)
		assert.True(t, errdefs.IsValidation(err))
		p.AssertNotCalled(t, "CheckAvailability", mock.Anything, mock.Anything)
	})

	t.Run("dry run rejected", func(t *testing.T) {
		t.Parallel()
		p := sftesting.NewMockProvider("mock").WithAvailable("my-app.com", 11.99)
		p.On("ValidatePurchase", mock.Anything, mock.Anything).
			Return(errdefs.New(errdefs.KindInsufficientFunds, "validate", "no funds"))

		_, err := registrar.NewService(p, logr.Discard()).Purchase(context.Background(), req, nil)
		assert.Equal(t, errdefs.KindInsufficientFunds, errdefs.KindOf(err))
		p.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything)
	})

	t.Run("confirm error", func(t *testing.T) {
		t.Parallel()
		p := sftesting.NewMockProvider("mock").WithAvailable("my-app.com", 11.99)
		p.On("ValidatePurchase", mock.Anything, mock.Anything).Return(nil)
		boom := errors.New("prompt closed")

		_, err := registrar.NewService(p, logr.Discard()).Purchase(context.Background(), req,
			func(context.Context, registrar.Availability, registrar.PurchaseRequest) (bool, error) {
				return false, boom
			})
		assert.ErrorIs(t, err, boom)
	})
}
