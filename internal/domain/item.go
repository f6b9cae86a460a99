package domain

import "time"

// Marketplace item status and condition codes, stored as short strings.
const (
	ItemAvailable = "AV"
	ItemPending   = "PE"
	ItemSold      = "SO"

	ConditionNew      = "NEW"
	ConditionLikeNew  = "ULN"
	ConditionUsedGood = "UG"
)

type Item struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Media       string    `json:"media,omitempty"`
	Location    string    `json:"location,omitempty"`
	Latitude    string    `json:"latitude,omitempty"`
	Longitude   string    `json:"longitude,omitempty"`
	Status      string    `json:"status"`
	Condition   string    `json:"condition"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ItemView struct {
	Item
	Seller    UserSummary   `json:"seller"`
	SaveCount int           `json:"save_count"`
	Saves     []UserSummary `json:"saves_list"`
}

const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferRejected = "rejected"
)

type Offer struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item"`
	BuyerID   string    `json:"buyer"`
	Amount    string    `json:"offer_amount"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
