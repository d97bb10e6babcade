package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/metrics"
	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// ProductExchange is the exchange product events are published to.
	ProductExchange = "products"

	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductRemoved = "product.removed"
)

// EventPublisher publishes a message body under a routing key.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// ProductEvent is the body of every product event.
type ProductEvent struct {
	Event      string          `json:"event"`
	Product    *models.Product `json:"product"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	logger    zerolog.Logger
	publisher EventPublisher
	metrics   *metrics.Metrics
}

// NewProductService creates a new ProductService. publisher and m may be nil.
func NewProductService(repo repositories.ProductRepository, logger zerolog.Logger, publisher EventPublisher, m *metrics.Metrics) *ProductService {
	return &ProductService{
		repo:      repo,
		logger:    logger.With().Str("service", "products").Logger(),
		publisher: publisher,
		metrics:   m,
	}
}

// CreateProduct persists a new product built from input and returns it with its new ID.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, s.fail("create", invalidError("title must not be blank"))
	}

	product := &models.Product{
		Title:       title,
		Price:       input.Price,
		Description: input.Description,
		Stock:       input.Stock,
		Sizes:       nonNil(input.Sizes),
		Gender:      input.Gender,
		Tags:        nonNil(input.Tags),
		Images:      nonNil(input.Images),
	}
	source := input.Slug
	if source == "" {
		source = product.Title
	}
	if product.Slug = models.MakeSlug(source); product.Slug == "" {
		return nil, s.fail("create", invalidError(fmt.Sprintf("no slug can be made from %q", source)))
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.fail("create", classifyStoreError(s.logger, "create", err))
	}

	s.succeed("create", EventProductCreated, product)
	return product, nil
}

// GetAllProducts returns one page of products.
func (s *ProductService) GetAllProducts(ctx context.Context, page PaginationQuery) ([]models.Product, error) {
	limit, offset := page.normalized()
	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, s.fail("list", classifyStoreError(s.logger, "list", err))
	}
	s.metrics.ProductOperation("list", metrics.ResultSuccess)
	return products, nil
}

// GetProduct resolves term as an ID when it is a UUID, and as a title or slug otherwise.
func (s *ProductService) GetProduct(ctx context.Context, term string) (*models.Product, error) {
	product, err := s.findOne(ctx, term)
	if err != nil {
		return nil, s.fail("get", err)
	}
	s.metrics.ProductOperation("get", metrics.ResultSuccess)
	return product, nil
}

// UpdateProduct merges the non-nil fields of patch onto the product with the given ID.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch UpdateProductInput) (*models.Product, error) {
	if canonical, ok := canonicalUUID(id); ok {
		id = canonical
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, s.fail("update", notFoundError(fmt.Sprintf("product with id %s not found", id), err))
		}
		return nil, s.fail("update", classifyStoreError(s.logger, "update", err))
	}

	if svcErr := applyPatch(product, patch); svcErr != nil {
		return nil, s.fail("update", svcErr)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, s.fail("update", notFoundError(fmt.Sprintf("product with id %s not found", id), err))
		}
		return nil, s.fail("update", classifyStoreError(s.logger, "update", err))
	}

	s.succeed("update", EventProductUpdated, product)
	return product, nil
}

// DeleteProduct resolves id like GetProduct does and removes the match.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.findOne(ctx, id)
	if err != nil {
		return s.fail("delete", err)
	}

	if err := s.repo.Delete(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return s.fail("delete", notFoundError(fmt.Sprintf("product with %s not found", id), err))
		}
		return s.fail("delete", classifyStoreError(s.logger, "delete", err))
	}

	s.succeed("delete", EventProductRemoved, product)
	return nil
}

func (s *ProductService) findOne(ctx context.Context, term string) (*models.Product, *Error) {
	var (
		product *models.Product
		err     error
	)
	if id, ok := canonicalUUID(term); ok {
		product, err = s.repo.GetByID(ctx, id)
	} else {
		product, err = s.repo.GetByTitleOrSlug(ctx, term)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return nil, notFoundError(fmt.Sprintf("product with %s not found", term), err)
		}
		return nil, classifyStoreError(s.logger, "get", err)
	}
	return product, nil
}

// canonicalUUID accepts only the 36 character hyphenated form, in either case,
// and returns it lower-cased as ids are stored.
func canonicalUUID(term string) (string, bool) {
	if len(term) != 36 {
		return "", false
	}
	id, err := uuid.Parse(term)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// applyPatch leaves product untouched when the patch is rejected.
func applyPatch(product *models.Product, patch UpdateProductInput) *Error {
	title := product.Title
	if patch.Title != nil {
		if title = strings.TrimSpace(*patch.Title); title == "" {
			return invalidError("title must not be blank")
		}
	}
	productSlug := product.Slug
	if patch.Slug != nil {
		if productSlug = models.MakeSlug(*patch.Slug); productSlug == "" {
			return invalidError(fmt.Sprintf("no slug can be made from %q", *patch.Slug))
		}
	}

	product.Title = title
	product.Slug = productSlug
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Sizes != nil {
		product.Sizes = patch.Sizes
	}
	if patch.Gender != nil {
		product.Gender = *patch.Gender
	}
	if patch.Tags != nil {
		product.Tags = patch.Tags
	}
	if patch.Images != nil {
		product.Images = patch.Images
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (s *ProductService) fail(operation string, err *Error) error {
	result := metrics.ResultInternal
	switch err.Kind {
	case ErrorKindNotFound:
		result = metrics.ResultNotFound
	case ErrorKindConflict:
		result = metrics.ResultConflict
	case ErrorKindInvalid:
		result = metrics.ResultInvalid
	}
	s.metrics.ProductOperation(operation, result)
	return err
}

func (s *ProductService) succeed(operation, event string, product *models.Product) {
	s.metrics.ProductOperation(operation, metrics.ResultSuccess)
	s.logger.Info().Str("operation", operation).Str("product_id", product.ID).Msg("product operation succeeded")
	s.publish(event, product)
}

// publish is best effort; a failed publish never fails the operation.
func (s *ProductService) publish(event string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(ProductEvent{Event: event, Product: product, OccurredAt: time.Now().UTC()})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("failed to marshal product event")
		return
	}
	if err := s.publisher.Publish(ProductExchange, event, body); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Str("product_id", product.ID).Msg("failed to publish product event")
	}
}
