package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	EmployeeCode pgtype.Text
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type RestaurantTable struct {
	ID        uuid.UUID
	Number    string
	Capacity  int32
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID            uuid.UUID
	Name          string
	PrinterTarget string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Sku         string
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	ImageUrl    pgtype.Text
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MenuPricing struct {
	ID            uuid.UUID
	MenuItemID    uuid.UUID
	SellingPrice  pgtype.Numeric
	EffectiveDate time.Time
	CreatedAt     time.Time
}

type Ingredient struct {
	ID             uuid.UUID
	Name           string
	Unit           string
	CostPerUnit    pgtype.Numeric
	AlertThreshold pgtype.Numeric
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type InventoryLevel struct {
	ID             uuid.UUID
	IngredientID   uuid.UUID
	QuantityOnHand pgtype.Numeric
	UpdatedAt      time.Time
}

type InventoryLog struct {
	ID             uuid.UUID
	IngredientID   uuid.UUID
	ChangeType     string
	QuantityChange pgtype.Numeric
	QuantityAfter  pgtype.Numeric
	Reason         pgtype.Text
	ReferenceID    pgtype.UUID
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

type Recipe struct {
	ID         uuid.UUID
	MenuItemID uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type RecipeLine struct {
	ID           uuid.UUID
	RecipeID     uuid.UUID
	IngredientID uuid.UUID
	Quantity     pgtype.Numeric
}

type Order struct {
	ID          uuid.UUID
	OrderNumber string
	TableID     pgtype.UUID
	Status      string
	TotalAmount pgtype.Numeric
	Source      string
	ExternalID  pgtype.Text
	NeedsReview bool
	Notes       pgtype.Text
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type OrderLine struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	TotalPrice pgtype.Numeric
	Status     string
	Notes      pgtype.Text
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type StatusHistory struct {
	ID          uuid.UUID
	OrderLineID uuid.UUID
	OldStatus   string
	NewStatus   string
	Reason      pgtype.Text
	ChangedBy   uuid.UUID
	CreatedAt   time.Time
}

type Promotion struct {
	ID            uuid.UUID
	Code          string
	Name          string
	DiscountType  string
	DiscountValue pgtype.Numeric
	StartDate     time.Time
	EndDate       time.Time
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Transaction struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Amount          pgtype.Numeric
	TenderedAmount  pgtype.Numeric
	ChangeAmount    pgtype.Numeric
	PaymentMethod   string
	Status          string
	ReferenceNumber pgtype.Text
	PromotionID     pgtype.UUID
	DiscountAmount  pgtype.Numeric
	ProcessedBy     uuid.UUID
	CreatedAt       time.Time
}

type Invoice struct {
	ID             uuid.UUID
	InvoiceNumber  string
	OrderID        uuid.UUID
	OriginalTotal  pgtype.Numeric
	DiscountAmount pgtype.Numeric
	FinalTotal     pgtype.Numeric
	PromotionID    pgtype.UUID
	PaymentMethod  string
	CreatedBy      uuid.UUID
	CreatedAt      time.Time
}

type StockTake struct {
	ID            uuid.UUID
	Code          string
	Status        string
	VarianceTotal pgtype.Numeric
	Notes         pgtype.Text
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	CompletedAt   pgtype.Timestamptz
}

type StockTakeLine struct {
	ID           uuid.UUID
	StockTakeID  uuid.UUID
	IngredientID uuid.UUID
	SnapshotQty  pgtype.Numeric
	ActualQty    pgtype.Numeric
	Variance     pgtype.Numeric
}

type ReasonCode struct {
	ID          uuid.UUID
	Code        string
	Description string
	IsActive    bool
}

type WasteReport struct {
	ID           uuid.UUID
	TargetType   string
	IngredientID pgtype.UUID
	MenuItemID   pgtype.UUID
	Quantity     pgtype.Numeric
	ReasonCodeID uuid.UUID
	LossValue    pgtype.Numeric
	ReportedBy   uuid.UUID
	CreatedAt    time.Time
}

type SystemSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
