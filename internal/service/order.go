package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/enum"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/events"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/model"
	"github.com/roobiinpandey/Qahwat-Al-Emarat/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const maxOrderNumberRetries = 3

// OrderStore defines the store methods the order service needs.
type OrderStore interface {
	GetMenuItemsByIDs(ctx context.Context, ids []string) ([]model.MenuItem, error)
	CreateOrder(ctx context.Context, o model.Order) (model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int, error)
	UpdateOrderStatus(ctx context.Context, id, from, to string) (model.Order, error)
}

// StockLedger is the inventory access used while placing orders.
// Satisfied by *inventory.Ledger.
type StockLedger interface {
	ForItems(ctx context.Context, menuItemIDs []string) (map[string]model.InventoryRecord, error)
	DecrementForOrder(ctx context.Context, menuItemID string, qty int) error
}

// PlaceOrderRequest is a customer's checkout submission.
type PlaceOrderRequest struct {
	CustomerName        string           `json:"customerName" validate:"required,max=100"`
	CustomerPhone       string           `json:"customerPhone" validate:"required,phone"`
	OrderType           string           `json:"orderType" validate:"required,oneof=dine-in takeaway delivery"`
	TableNumber         string           `json:"tableNumber" validate:"required_if=OrderType dine-in,max=20"`
	DeliveryAddress     string           `json:"deliveryAddress" validate:"required_if=OrderType delivery,max=500"`
	SpecialInstructions string           `json:"specialInstructions" validate:"max=500"`
	PaymentMethod       string           `json:"paymentMethod" validate:"required,oneof=cash card wallet"`
	Items               []OrderItemInput `json:"items" validate:"min=1,dive"`
	// TotalAmount is the client's own total. It is only compared against the
	// computed total and logged.
	TotalAmount *decimal.Decimal `json:"totalAmount"`
}

// OrderItemInput is one cart line.
type OrderItemInput struct {
	MenuItemID   string        `json:"menuItem" validate:"required"`
	SelectedSize *SelectedSize `json:"selectedSize"`
	Quantity     int           `json:"quantity" validate:"min=1,max=50"`
}

// SelectedSize names the size a customer picked. Only the English name is
// used; the price is looked up in the catalog.
type SelectedSize struct {
	Name struct {
		EN string `json:"EN"`
		AR string `json:"AR"`
	} `json:"name"`
}

// PlacedOrder is the payload of order events.
type PlacedOrder struct {
	ID           string          `json:"id"`
	OrderNumber  int64           `json:"orderNumber"`
	CustomerName string          `json:"customerName"`
	OrderType    string          `json:"orderType"`
	Total        decimal.Decimal `json:"total"`
	Status       string          `json:"status"`
	ItemCount    int             `json:"itemCount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func summarize(o model.Order) PlacedOrder {
	count := 0
	for _, l := range o.Lines {
		count += l.Quantity
	}
	return PlacedOrder{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		CustomerName: o.CustomerName,
		OrderType:    o.OrderType,
		Total:        o.Total,
		Status:       o.Status,
		ItemCount:    count,
		CreatedAt:    o.CreatedAt,
	}
}

// OrderService places orders and manages their status.
type OrderService struct {
	store     OrderStore
	ledger    StockLedger
	publisher events.Publisher
	validate  *validation.Validator
	logger    logrus.FieldLogger
}

// NewOrderService creates a new OrderService.
func NewOrderService(store OrderStore, ledger StockLedger, pub events.Publisher, logger logrus.FieldLogger) *OrderService {
	return &OrderService{
		store:     store,
		ledger:    ledger,
		publisher: pub,
		validate:  validation.New(),
		logger:    logger,
	}
}

// PlaceOrder validates a checkout, prices it from the catalog, records the
// order and takes the ordered quantities out of stock.
//
// Nothing is written unless validation, the catalog lookup and the stock
// check all pass. Once the order is recorded, stock decrement failures are
// logged and published for reconciliation but do not fail the call.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*model.Order, error) {
	// --- Structural validation ---
	normalize(&req)
	verr := &validation.Error{}
	verr.Merge(s.validate.Struct(req))
	if req.TotalAmount != nil && req.TotalAmount.IsNegative() {
		verr.Add("totalAmount", "Total amount must be positive")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	// --- Load menu items and stock for the distinct ids ---
	ids, qtyByItem := distinctItems(req.Items)

	var items []model.MenuItem
	var stock map[string]model.InventoryRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.GetMenuItemsByIDs(gctx, ids)
		if err != nil {
			return storageErr("load menu items", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		stock, err = s.ledger.ForItems(gctx, ids)
		if err != nil {
			return storageErr("load inventory", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// --- Existence ---
	if len(items) < len(ids) {
		return nil, ErrItemsNotFound
	}
	byID := make(map[string]model.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	// --- Stock check, summed per item; untracked items are unlimited ---
	for _, id := range ids {
		rec, tracked := stock[id]
		if !tracked {
			continue
		}
		if rec.CurrentStock.LessThan(decimal.NewFromInt(int64(qtyByItem[id]))) {
			return nil, &InsufficientStockError{
				MenuItemID: id,
				ItemName:   byID[id].Name.EN,
				Available:  rec.CurrentStock,
				Required:   qtyByItem[id],
				Unit:       rec.Unit,
			}
		}
	}

	// --- Pricing ---
	lines := make([]model.OrderLine, 0, len(req.Items))
	total := decimal.Zero
	for _, in := range req.Items {
		item := byID[in.MenuItemID]
		line := model.OrderLine{
			MenuItemID:   item.ID,
			ItemName:     item.Name,
			Quantity:     in.Quantity,
			PriceAtOrder: item.Price.EN,
		}
		if in.SelectedSize != nil && in.SelectedSize.Name.EN != "" {
			size, ok := item.FindSize(in.SelectedSize.Name.EN)
			if !ok {
				return nil, fmt.Errorf("%w: %q for %s", ErrSizeNotFound, in.SelectedSize.Name.EN, item.Name.EN)
			}
			line.SelectedSize = &size
			line.PriceAtOrder = size.Price.EN
		}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}

	if req.TotalAmount != nil && !req.TotalAmount.Equal(total) {
		s.logger.WithFields(logrus.Fields{
			"client_total": req.TotalAmount.StringFixed(2),
			"total":        total.StringFixed(2),
		}).Info("client total differs from computed total")
	}

	draft := model.Order{
		CustomerName:        req.CustomerName,
		CustomerPhone:       req.CustomerPhone,
		OrderType:           req.OrderType,
		TableNumber:         req.TableNumber,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		Lines:               lines,
		Total:               total,
		Status:              enum.OrderStatusNew,
		PaymentMethod:       req.PaymentMethod,
	}

	// --- Persist; retry on order number collisions ---
	order, err := s.createOrder(ctx, draft)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
	})
	log.WithField("total", order.Total.StringFixed(2)).Info("order placed")

	// --- Best-effort stock decrement ---
	// The order is recorded; a client disconnect must not leave stock behind.
	dctx := context.WithoutCancel(ctx)
	s.decrementStock(dctx, order, ids, qtyByItem, stock, log)

	if err := s.publisher.Publish(dctx, events.New(events.TypeOrderPlaced, summarize(order))); err != nil {
		log.WithError(err).Error("publish order placed failed")
	}
	return &order, nil
}

func (s *OrderService) createOrder(ctx context.Context, draft model.Order) (model.Order, error) {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order, err := s.store.CreateOrder(ctx, draft)
		if err == nil {
			return order, nil
		}
		if errors.Is(err, model.ErrConflict) {
			lastErr = err
			continue
		}
		return model.Order{}, storageErr("create order", err)
	}
	return model.Order{}, storageErr("create order", lastErr)
}

// StockFailure is one item whose stock could not be decremented.
type StockFailure struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
	Error      string `json:"error"`
}

// ReconciliationNeeded is published when a recorded order could not be
// fully taken out of stock.
type ReconciliationNeeded struct {
	OrderID     string         `json:"orderId"`
	OrderNumber int64          `json:"orderNumber"`
	Failures    []StockFailure `json:"failures"`
}

func (s *OrderService) decrementStock(ctx context.Context, order model.Order, ids []string, qty map[string]int, stock map[string]model.InventoryRecord, log logrus.FieldLogger) {
	var result *multierror.Error
	var failures []StockFailure
	for _, id := range ids {
		if _, tracked := stock[id]; !tracked {
			continue
		}
		if err := s.ledger.DecrementForOrder(ctx, id, qty[id]); err != nil {
			result = multierror.Append(result, err)
			failures = append(failures, StockFailure{MenuItemID: id, Quantity: qty[id], Error: err.Error()})
		}
	}
	if result.ErrorOrNil() == nil {
		return
	}

	log.WithError(result).Error("stock decrement failed; inventory needs reconciliation")
	err := s.publisher.Publish(ctx, events.New(events.TypeInventoryReconcile, ReconciliationNeeded{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Failures:    failures,
	}))
	if err != nil {
		log.WithError(err).Error("publish reconciliation event failed")
	}
}

// distinctItems returns the menu item ids in first-seen order and the total
// quantity requested per id.
func distinctItems(items []OrderItemInput) ([]string, map[string]int) {
	qty := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, seen := qty[it.MenuItemID]; !seen {
			ids = append(ids, it.MenuItemID)
		}
		qty[it.MenuItemID] += it.Quantity
	}
	return ids, qty
}

func normalize(req *PlaceOrderRequest) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)
	req.OrderType = strings.TrimSpace(req.OrderType)
	req.TableNumber = strings.TrimSpace(req.TableNumber)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.SpecialInstructions = strings.TrimSpace(req.SpecialInstructions)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	for i := range req.Items {
		req.Items[i].MenuItemID = strings.TrimSpace(req.Items[i].MenuItemID)
		if sz := req.Items[i].SelectedSize; sz != nil {
			sz.Name.EN = strings.TrimSpace(sz.Name.EN)
		}
	}
}
