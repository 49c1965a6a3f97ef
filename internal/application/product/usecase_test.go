package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/zaplogger"
)

func TestCreateProduct(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tel := infraobs.New(nil, zaplogger.New(zap.New(core)), nil, nil)
	uc := NewCreateProductUseCase(memory.NewStore().Products(), tel)

	p, err := uc.Execute(context.Background(), CreateProductInput{
		Name:     " Widget ",
		Price:    decimal.RequireFromString("10.00"),
		Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Name)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 5, p.Quantity)

	entries := logs.FilterMessage("use_case_done").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "product.create", fields["use_case"])
	assert.Equal(t, p.ID, fields["product_id"])
	assert.Equal(t, "OK", fields["status"])
}

func TestCreateProduct_Rejections(t *testing.T) {
	uc := NewCreateProductUseCase(memory.NewStore().Products(), nil)
	ctx := context.Background()

	_, err := uc.Execute(ctx, CreateProductInput{Name: "Widget", Price: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   CreateProductInput
		want error
	}{
		{"duplicate name", CreateProductInput{Name: "Widget", Price: decimal.NewFromInt(1)}, domain.ErrNameTaken},
		{"blank name", CreateProductInput{Name: "  ", Price: decimal.NewFromInt(1)}, domain.ErrInvalidName},
		{"negative price", CreateProductInput{Name: "Gadget", Price: decimal.NewFromInt(-1)}, domain.ErrInvalidPrice},
		{"negative quantity", CreateProductInput{Name: "Gadget", Price: decimal.NewFromInt(1), Quantity: -1}, domain.ErrInvalidQuantity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Execute(ctx, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
