package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shestoi/ebookshop/internal/repository/memory"
)

type fakePreferenceCreator struct {
	preference Preference
	err        error
	calls      int
	lastInput  CreatePreferenceInput
}

func (f *fakePreferenceCreator) CreatePreference(ctx context.Context, input CreatePreferenceInput) (Preference, error) {
	f.calls++
	f.lastInput = input
	if f.err != nil {
		return Preference{}, f.err
	}
	return f.preference, nil
}

func TestCheckoutService_CreateCheckout(t *testing.T) {
	ctx := context.Background()
	creator := &fakePreferenceCreator{
		preference: Preference{
			ID:               "pref-1",
			InitPoint:        "https://mp/init",
			SandboxInitPoint: "https://mp/sandbox",
		},
	}
	ledger := memory.NewMemoryLedger(time.Hour)
	svc := NewCheckoutService(zap.NewNop(), creator, ledger)

	out, err := svc.CreateCheckout(ctx, CreateCheckoutInput{
		BuyerEmail:        "a@x.com",
		ExternalReference: "ORD1",
	})

	require.NoError(t, err)
	require.Equal(t, "pref-1", out.PreferenceID)
	require.Equal(t, "https://mp/init", out.RedirectURL)
	require.Equal(t, "https://mp/sandbox", out.SandboxRedirectURL)
	require.Equal(t, "ORD1", creator.lastInput.ExternalReference)

	// Email записан в ledger для резолва при webhook
	email, err := ledger.Get(ctx, "ORD1")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", email)
}

func TestCheckoutService_Validation(t *testing.T) {
	ctx := context.Background()
	creator := &fakePreferenceCreator{}
	svc := NewCheckoutService(zap.NewNop(), creator, memory.NewMemoryLedger(time.Hour))

	_, err := svc.CreateCheckout(ctx, CreateCheckoutInput{ExternalReference: "ORD1"})
	require.ErrorIs(t, err, ErrBuyerEmailRequired)

	_, err = svc.CreateCheckout(ctx, CreateCheckoutInput{BuyerEmail: "a@x.com"})
	require.ErrorIs(t, err, ErrExternalReferenceRequired)

	require.Zero(t, creator.calls)
}

func TestCheckoutService_ProviderFailure(t *testing.T) {
	ctx := context.Background()
	creator := &fakePreferenceCreator{err: errors.New("mercadopago API status 500")}
	ledger := memory.NewMemoryLedger(time.Hour)
	svc := NewCheckoutService(zap.NewNop(), creator, ledger)

	_, err := svc.CreateCheckout(ctx, CreateCheckoutInput{
		BuyerEmail:        "a@x.com",
		ExternalReference: "ORD1",
	})

	require.Error(t, err)
	// При сбое провайдера ledger не пополняется
	_, err = ledger.Get(ctx, "ORD1")
	require.Error(t, err)
}
