package enum

// ── Order header lifecycle ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusCooking   = "COOKING"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

// ── Order line lifecycle (kitchen / KDS) ──

const (
	LineStatusPending   = "PENDING"
	LineStatusCooking   = "COOKING"
	LineStatusReady     = "READY"
	LineStatusServed    = "SERVED"
	LineStatusCancelled = "CANCELLED"
)

// ── Stock take lifecycle ──

const (
	StockTakeStatusDraft     = "DRAFT"
	StockTakeStatusCompleted = "COMPLETED"
	StockTakeStatusCancelled = "CANCELLED"
)

// ── Menu item status (not a transition machine: INACTIVE is manual-only) ──

const (
	MenuItemStatusActive     = "ACTIVE"
	MenuItemStatusInactive   = "INACTIVE"
	MenuItemStatusOutOfStock = "OUT_OF_STOCK"
)

// ── Transaction / payment ──

const (
	TransactionStatusSuccess = "SUCCESS"
	TransactionStatusFailed  = "FAILED"
	TransactionStatusPending = "PENDING"
)

const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CARD"
	PaymentMethodQR   = "QR"
)

const (
	DiscountTypePercentage = "PERCENTAGE"
	DiscountTypeFixed      = "FIXED_AMOUNT"
)

// ── Tables ──

const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOccupied  = "OCCUPIED"
	TableStatusReserved  = "RESERVED"
	TableStatusDirty     = "DIRTY"
)

// ── Users ──

const (
	UserRoleManager   = "MANAGER"
	UserRoleCashier   = "CASHIER"
	UserRoleKitchen   = "KITCHEN"
	UserRoleInventory = "INVENTORY"
	UserRoleAdmin     = "ADMIN"
)

// ── Menu categories ──

const (
	PrinterTargetKitchen = "KITCHEN"
	PrinterTargetBar     = "BAR"
)

// ── Inventory log change types ──

const (
	ChangeTypeAdjustment = "ADJUSTMENT"
	ChangeTypeDeduction  = "DEDUCTION"
	ChangeTypeWaste      = "WASTE"
	ChangeTypeStockTake  = "STOCK_TAKE"
)

// orderTransitions defines the legal order header transitions.
// Key is current status, value is the set of statuses it can reach.
var orderTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusCooking, OrderStatusCancelled},
	OrderStatusCooking: {OrderStatusPaid, OrderStatusCancelled},
}

// lineTransitions defines the legal order line transitions: forward only,
// with CANCELLED reachable from any non-terminal state.
var lineTransitions = map[string][]string{
	LineStatusPending: {LineStatusCooking, LineStatusCancelled},
	LineStatusCooking: {LineStatusReady, LineStatusCancelled},
	LineStatusReady:   {LineStatusServed, LineStatusCancelled},
}

var stockTakeTransitions = map[string][]string{
	StockTakeStatusDraft: {StockTakeStatusCompleted, StockTakeStatusCancelled},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderTransitionAllowed reports whether an order header may move from one
// status to another. Terminal statuses (PAID, CANCELLED) allow nothing.
func OrderTransitionAllowed(from, to string) bool {
	return allowed(orderTransitions, from, to)
}

// LineTransitionAllowed reports whether an order line may move from one
// status to another. Terminal statuses (SERVED, CANCELLED) allow nothing.
func LineTransitionAllowed(from, to string) bool {
	return allowed(lineTransitions, from, to)
}

// StockTakeTransitionAllowed reports whether a stock take ticket may move
// from one status to another. COMPLETED and CANCELLED are terminal.
func StockTakeTransitionAllowed(from, to string) bool {
	return allowed(stockTakeTransitions, from, to)
}

// LineStatusTerminal reports whether a line status admits no further
// transitions.
func LineStatusTerminal(s string) bool {
	return s == LineStatusServed || s == LineStatusCancelled
}

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCooking, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

func IsValidLineStatus(s string) bool {
	switch s {
	case LineStatusPending, LineStatusCooking, LineStatusReady, LineStatusServed, LineStatusCancelled:
		return true
	}
	return false
}

func IsValidMenuItemStatus(s string) bool {
	switch s {
	case MenuItemStatusActive, MenuItemStatusInactive, MenuItemStatusOutOfStock:
		return true
	}
	return false
}

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodQR:
		return true
	}
	return false
}

func IsValidDiscountType(s string) bool {
	switch s {
	case DiscountTypePercentage, DiscountTypeFixed:
		return true
	}
	return false
}

func IsValidTableStatus(s string) bool {
	switch s {
	case TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusDirty:
		return true
	}
	return false
}

func IsValidUserRole(s string) bool {
	switch s {
	case UserRoleManager, UserRoleCashier, UserRoleKitchen, UserRoleInventory, UserRoleAdmin:
		return true
	}
	return false
}
