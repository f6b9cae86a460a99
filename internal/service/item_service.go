package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"catlog/internal/domain"
	"catlog/internal/repository"
)

// ItemService coordinates marketplace listings, saves and offers.
type ItemService struct {
	logger *zap.Logger
	items  repository.ItemRepository
	offers repository.OfferRepository
	social repository.SocialRepository
	users  repository.UserRepository
}

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrInvalidPrice  = errors.New("price is required")
	ErrInvalidStatus = errors.New("unknown item status")
)

func NewItemService(
	logger *zap.Logger,
	items repository.ItemRepository,
	offers repository.OfferRepository,
	social repository.SocialRepository,
	users repository.UserRepository,
) *ItemService {
	return &ItemService{
		logger: logger,
		items:  items,
		offers: offers,
		social: social,
		users:  users,
	}
}

type ItemInput struct {
	Title       string
	Description string
	Price       string
	Media       string
	Location    string
	Latitude    string
	Longitude   string
	Status      string
	Condition   string
}

func (s *ItemService) Create(ctx context.Context, sellerID string, input ItemInput) (domain.ItemView, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.ItemView{}, ErrEmptyContent
	}
	if strings.TrimSpace(input.Price) == "" {
		return domain.ItemView{}, ErrInvalidPrice
	}
	status := input.Status
	if status == "" {
		status = domain.ItemAvailable
	}
	if !validItemStatus(status) {
		return domain.ItemView{}, ErrInvalidStatus
	}
	condition := input.Condition
	if condition == "" {
		condition = domain.ConditionLikeNew
	}

	now := time.Now().UTC()
	item := domain.Item{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Title:       title,
		Description: input.Description,
		Price:       input.Price,
		Media:       input.Media,
		Location:    input.Location,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Status:      status,
		Condition:   condition,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return domain.ItemView{}, err
	}
	return s.buildView(ctx, item)
}

type ItemUpdateInput struct {
	Title       *string
	Description *string
	Price       *string
	Media       *string
	Location    *string
	Latitude    *string
	Longitude   *string
	Status      *string
	Condition   *string
}

func (s *ItemService) Update(ctx context.Context, sellerID, itemID string, input ItemUpdateInput) (domain.ItemView, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItemView{}, ErrItemNotFound
		}
		return domain.ItemView{}, err
	}
	if item.SellerID != sellerID {
		return domain.ItemView{}, ErrItemNotFound
	}

	if input.Title != nil {
		item.Title = *input.Title
	}
	if input.Description != nil {
		item.Description = *input.Description
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.Media != nil {
		item.Media = *input.Media
	}
	if input.Location != nil {
		item.Location = *input.Location
	}
	if input.Latitude != nil {
		item.Latitude = *input.Latitude
	}
	if input.Longitude != nil {
		item.Longitude = *input.Longitude
	}
	if input.Status != nil {
		if !validItemStatus(*input.Status) {
			return domain.ItemView{}, ErrInvalidStatus
		}
		item.Status = *input.Status
	}
	if input.Condition != nil {
		item.Condition = *input.Condition
	}
	item.UpdatedAt = time.Now().UTC()

	if err := s.items.Update(ctx, item); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItemView{}, ErrItemNotFound
		}
		return domain.ItemView{}, err
	}
	return s.buildView(ctx, item)
}

func (s *ItemService) Delete(ctx context.Context, sellerID, itemID string) error {
	err := s.items.Delete(ctx, itemID, sellerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrItemNotFound
	}
	return err
}

func (s *ItemService) Get(ctx context.Context, itemID string) (domain.ItemView, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ItemView{}, ErrItemNotFound
		}
		return domain.ItemView{}, err
	}
	return s.buildView(ctx, item)
}

// ListOpen returns the marketplace feed of items still for sale.
func (s *ItemService) ListOpen(ctx context.Context) ([]domain.ItemView, error) {
	items, err := s.items.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, items)
}

func (s *ItemService) ListBySeller(ctx context.Context, sellerID string) ([]domain.ItemView, error) {
	items, err := s.items.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, items)
}

func (s *ItemService) ListSavedBy(ctx context.Context, userID string) ([]domain.ItemView, error) {
	items, err := s.items.ListSavedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, items)
}

func (s *ItemService) Search(ctx context.Context, query string) ([]domain.ItemView, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return nil, nil
	}
	items, err := s.items.Search(ctx, words)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, items)
}

// ToggleSave saves the item for the user, or unsaves when already saved.
func (s *ItemService) ToggleSave(ctx context.Context, userID, itemID string) (string, error) {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrItemNotFound
		}
		return "", err
	}
	created, err := s.social.ToggleSave(ctx, itemID, userID)
	if err != nil {
		return "", err
	}
	if created {
		return "saved", nil
	}
	return "unsaved", nil
}

type OfferInput struct {
	ItemID  string
	Amount  string
	Message string
}

// CreateOffer records a pending offer from the buyer on an item.
func (s *ItemService) CreateOffer(ctx context.Context, buyerID string, input OfferInput) (domain.Offer, error) {
	if strings.TrimSpace(input.Amount) == "" {
		return domain.Offer{}, ErrInvalidPrice
	}
	if _, err := s.items.GetByID(ctx, input.ItemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Offer{}, ErrItemNotFound
		}
		return domain.Offer{}, err
	}

	now := time.Now().UTC()
	offer := domain.Offer{
		ID:        uuid.NewString(),
		ItemID:    input.ItemID,
		BuyerID:   buyerID,
		Amount:    input.Amount,
		Message:   input.Message,
		Status:    domain.OfferPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return domain.Offer{}, err
	}
	return offer, nil
}

func (s *ItemService) buildViews(ctx context.Context, items []domain.Item) ([]domain.ItemView, error) {
	views := make([]domain.ItemView, 0, len(items))
	for _, item := range items {
		view, err := s.buildView(ctx, item)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ItemService) buildView(ctx context.Context, item domain.Item) (domain.ItemView, error) {
	seller, err := s.users.GetSummary(ctx, item.SellerID)
	if err != nil {
		return domain.ItemView{}, err
	}
	saves, err := s.social.ListSavers(ctx, item.ID)
	if err != nil {
		return domain.ItemView{}, err
	}
	return domain.ItemView{
		Item:      item,
		Seller:    seller,
		SaveCount: len(saves),
		Saves:     saves,
	}, nil
}

func validItemStatus(status string) bool {
	switch status {
	case domain.ItemAvailable, domain.ItemPending, domain.ItemSold:
		return true
	}
	return false
}
