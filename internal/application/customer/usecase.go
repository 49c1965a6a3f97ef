package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	domain "github.com/Zhima-Mochi/minishop-orders/internal/domain/customer"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	customerService       = "customer-service"
	useCaseCustomerCreate = "customer.create"
)

var ErrRepository = errors.New("customer: repository failure")

type CreateCustomerInput struct {
	Name  string
	Email string
}

type CreateCustomerUseCase struct {
	repo domain.Repository
	inst application.Instruments
}

func NewCreateCustomerUseCase(repo domain.Repository, tel observability.Observability) *CreateCustomerUseCase {
	return &CreateCustomerUseCase{
		repo: repo,
		inst: application.NewInstruments(tel, customerService),
	}
}

// Execute registers a customer. The email must not belong to another customer.
func (uc *CreateCustomerUseCase) Execute(ctx context.Context, cmd CreateCustomerInput) (_ *domain.Customer, err error) {
	ctx, run := uc.inst.Start(ctx, useCaseCustomerCreate, "CreateCustomer")
	defer func() { run.End(err) }()

	params := domain.CreateParams{Name: cmd.Name, Email: cmd.Email}.Normalize()
	if err := params.Validate(); err != nil {
		run.Fail("INVALID_REQUEST")
		return nil, err
	}

	_, err = uc.repo.FindByEmail(ctx, params.Email)
	switch {
	case err == nil:
		run.Fail("EMAIL_TAKEN")
		return nil, domain.ErrEmailTaken
	case !errors.Is(err, domain.ErrNotFound):
		run.Fail("REPO_LOOKUP_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	c, err := uc.repo.Create(ctx, params)
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		// lost a race with a concurrent registration
		run.Fail("EMAIL_TAKEN")
		return nil, err
	case err != nil:
		run.Fail("REPO_INSERT_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	run.Span().SetAttributes(attribute.String("customer.id", c.ID))
	run.Add(observability.F("customer_id", c.ID))
	return c, nil
}
