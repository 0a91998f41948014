package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"maps"
	"sync"

	"github.com/cubazon/storefront/internal/cache"
	apperrors "github.com/cubazon/storefront/internal/errors"
	"github.com/cubazon/storefront/internal/models"
	repository "github.com/cubazon/storefront/internal/repositories"
	"github.com/cubazon/storefront/internal/session"
	"github.com/google/uuid"
)

const cartSlotPrefix = "cart:"

// CartObserver receives the new cart state after every mutation, so the
// rendering side can react without polling.
type CartObserver func(sessionID string, state models.CartState)

type sessionCart struct {
	mu     sync.Mutex
	items  []models.CartItem
	loaded bool
}

// CartStore holds the ordered line items of every live session and keeps
// each cart durable as a whole-snapshot write to its persistent slot.
type CartStore struct {
	productRepo repository.ProductRepository
	slots       cache.Cache

	mu        sync.Mutex
	carts     map[string]*sessionCart
	observers []CartObserver
}

func NewCartStore(productRepo repository.ProductRepository, slots cache.Cache) *CartStore {
	return &CartStore{
		productRepo: productRepo,
		slots:       slots,
		carts:       make(map[string]*sessionCart),
	}
}

func (s *CartStore) Subscribe(observer CartObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observers = append(s.observers, observer)
}

func (s *CartStore) cartFor(sess *session.Session) *sessionCart {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[sess.ID]
	if !ok {
		cart = &sessionCart{}
		s.carts[sess.ID] = cart
	}

	return cart
}

// Load restores the cart from its slot. A missing or unparseable snapshot
// resets the cart to empty; a parse error never propagates.
func (s *CartStore) Load(ctx context.Context, sess *session.Session) ([]models.CartItem, error) {

	cart := s.cartFor(sess)

	cart.mu.Lock()
	defer cart.mu.Unlock()

	if cart.loaded {
		return copyItems(cart.items), nil
	}

	var snapshot models.CartSnapshot

	found, err := s.slots.Get(ctx, cartSlotPrefix+sess.ID, &snapshot)
	if err != nil {
		slog.Warn("Cart snapshot unreadable, starting empty",
			slog.String("sessionId", sess.ID), slog.Any("error", err))

		cart.items = nil
		cart.loaded = true

		return nil, nil
	}

	if found {
		cart.items = snapshot.Items
	}

	cart.loaded = true

	return copyItems(cart.items), nil
}

// AddItem fetches the authoritative product record, resolves the effective
// unit price and merges into an existing line with the same
// (productId, options) pair, otherwise appends a new line.
func (s *CartStore) AddItem(ctx context.Context, sess *session.Session, req *models.AddItemRequest) (*models.CartState, error) {

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundError("Product not found").WithError(err)
		}
		return nil, apperrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if product.Stock < quantity {
		return nil, apperrors.InsufficientStockError("Insufficient stock for product: " + product.Name)
	}

	unitPrice := product.EffectivePrice()

	cart := s.cartFor(sess)

	cart.mu.Lock()
	defer cart.mu.Unlock()

	merged := false

	for i := range cart.items {
		if cart.items[i].SameVariant(req.ProductID, req.Options) {
			cart.items[i].Quantity += quantity
			cart.items[i].UnitPrice = unitPrice
			merged = true

			break
		}
	}

	if !merged {
		cart.items = append(cart.items, models.CartItem{
			ID:        uuid.NewString(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
			ImageURL:  product.ImageURL,
			Options:   maps.Clone(req.Options),
		})
	}

	return s.persistLocked(ctx, sess, cart)
}

// RemoveItem deletes a line by id. A missing line reports not-found and
// changes nothing.
func (s *CartStore) RemoveItem(ctx context.Context, sess *session.Session, itemID string) (*models.CartState, error) {

	cart := s.cartFor(sess)

	cart.mu.Lock()
	defer cart.mu.Unlock()

	for i := range cart.items {
		if cart.items[i].ID == itemID {
			cart.items = append(cart.items[:i], cart.items[i+1:]...)

			return s.persistLocked(ctx, sess, cart)
		}
	}

	return nil, apperrors.NotFoundError("Item not found in the cart")
}

// SetQuantity updates a line in place after re-validating against current
// stock. A quantity of zero or less removes the line.
func (s *CartStore) SetQuantity(ctx context.Context, sess *session.Session, itemID string, quantity int) (*models.CartState, error) {

	if quantity <= 0 {
		return s.RemoveItem(ctx, sess, itemID)
	}

	cart := s.cartFor(sess)

	cart.mu.Lock()
	defer cart.mu.Unlock()

	for i := range cart.items {
		if cart.items[i].ID != itemID {
			continue
		}

		stock, err := s.productRepo.GetStock(ctx, cart.items[i].ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperrors.NotFoundError("Product not found").WithError(err)
			}
			return nil, apperrors.DatabaseError("Failed to fetch stock").WithError(err)
		}

		if stock < quantity {
			return nil, apperrors.InsufficientStockError("Insufficient stock for product: " + cart.items[i].Name)
		}

		cart.items[i].Quantity = quantity

		return s.persistLocked(ctx, sess, cart)
	}

	return nil, apperrors.NotFoundError("Item not found in the cart")
}

// Clear empties the cart. Clearing an already-empty cart is a no-op and
// reports emptied=false.
func (s *CartStore) Clear(ctx context.Context, sess *session.Session) (bool, error) {

	cart := s.cartFor(sess)

	cart.mu.Lock()
	defer cart.mu.Unlock()

	if len(cart.items) == 0 {
		return false, nil
	}

	cart.items = nil

	if _, err := s.persistLocked(ctx, sess, cart); err != nil {
		return false, err
	}

	return true, nil
}

// RefreshStock reconciles every line with current availability: missing
// products are dropped and quantities are clamped to what remains. Used
// after a failed stock verification.
func (s *CartStore) RefreshStock(ctx context.Context, sess *session.Session) (*models.CartState, error) {

	cart := s.cartFor(sess)

	cart.mu.Lock()
	defer cart.mu.Unlock()

	kept := cart.items[:0]

	for _, item := range cart.items {

		stock, err := s.productRepo.GetStock(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, apperrors.DatabaseError("Failed to refresh cart stock").WithError(err)
		}

		if stock <= 0 {
			continue
		}

		if item.Quantity > stock {
			item.Quantity = stock
		}

		kept = append(kept, item)
	}

	cart.items = kept

	return s.persistLocked(ctx, sess, cart)
}

func (s *CartStore) Items(ctx context.Context, sess *session.Session) ([]models.CartItem, error) {
	return s.Load(ctx, sess)
}

func (s *CartStore) Subtotal(ctx context.Context, sess *session.Session) (float64, error) {

	items, err := s.Load(ctx, sess)
	if err != nil {
		return 0, err
	}

	return subtotalOf(items), nil
}

func (s *CartStore) TotalQuantity(ctx context.Context, sess *session.Session) (int, error) {

	items, err := s.Load(ctx, sess)
	if err != nil {
		return 0, err
	}

	var total int

	for _, item := range items {
		total += item.Quantity
	}

	return total, nil
}

func (s *CartStore) State(ctx context.Context, sess *session.Session) (*models.CartState, error) {

	items, err := s.Load(ctx, sess)
	if err != nil {
		return nil, err
	}

	return stateOf(items), nil
}

// persistLocked writes the whole snapshot to the slot and notifies the
// observers. The caller must hold the cart mutex.
func (s *CartStore) persistLocked(ctx context.Context, sess *session.Session, cart *sessionCart) (*models.CartState, error) {

	cart.loaded = true

	snapshot := models.CartSnapshot{Items: cart.items}

	if err := s.slots.Set(ctx, cartSlotPrefix+sess.ID, snapshot, 0); err != nil {
		return nil, apperrors.InternalError("Failed to persist cart").WithError(err)
	}

	state := stateOf(copyItems(cart.items))

	s.mu.Lock()
	observers := make([]CartObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, observer := range observers {
		observer(sess.ID, *state)
	}

	return state, nil
}

func stateOf(items []models.CartItem) *models.CartState {

	var quantity int

	for _, item := range items {
		quantity += item.Quantity
	}

	return &models.CartState{
		Items:         items,
		Subtotal:      subtotalOf(items),
		TotalQuantity: quantity,
	}
}

func subtotalOf(items []models.CartItem) float64 {

	var subtotal float64

	for _, item := range items {
		subtotal += item.LineSubtotal()
	}

	return subtotal
}

func copyItems(items []models.CartItem) []models.CartItem {
	if items == nil {
		return nil
	}

	out := make([]models.CartItem, len(items))
	copy(out, items)

	return out
}
