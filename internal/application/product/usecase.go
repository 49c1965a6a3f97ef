package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	productService       = "product-service"
	useCaseProductCreate = "product.create"
)

var ErrRepository = errors.New("product: repository failure")

type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type CreateProductUseCase struct {
	repo domain.Repository
	inst application.Instruments
}

func NewCreateProductUseCase(repo domain.Repository, tel observability.Observability) *CreateProductUseCase {
	return &CreateProductUseCase{
		repo: repo,
		inst: application.NewInstruments(tel, productService),
	}
}

// Execute adds a product to the catalogue. Names are unique.
func (uc *CreateProductUseCase) Execute(ctx context.Context, cmd CreateProductInput) (_ *domain.Product, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseProductCreate, "CreateProduct",
		attribute.String("product.name", cmd.Name),
	)
	defer func() { run.End(err) }()

	params := domain.CreateParams{Name: cmd.Name, Price: cmd.Price, Quantity: cmd.Quantity}.Normalize()
	if err := params.Validate(); err != nil {
		run.Fail("INVALID_REQUEST")
		return nil, err
	}

	_, err = uc.repo.FindByName(ctx, params.Name)
	switch {
	case err == nil:
		run.Fail("NAME_TAKEN")
		return nil, domain.ErrNameTaken
	case !errors.Is(err, domain.ErrNotFound):
		run.Fail("REPO_LOOKUP_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	p, err := uc.repo.Create(ctx, params)
	switch {
	case errors.Is(err, domain.ErrNameTaken):
		run.Fail("NAME_TAKEN")
		return nil, err
	case err != nil:
		run.Fail("REPO_INSERT_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	run.Span().SetAttributes(attribute.String("product.id", p.ID))
	run.Add(observability.F("product_id", p.ID))
	return p, nil
}
