package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/resinriver/storefront/internal/pricing"
	"github.com/resinriver/storefront/pkg/db/models"
	pkgerrors "github.com/resinriver/storefront/pkg/errors"
	"github.com/resinriver/storefront/pkg/logger"
)

// DefaultMaxLineQuantity caps a single cart line when no limit is configured.
const DefaultMaxLineQuantity = 99

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Owner identifies whose cart an operation targets: a signed-in user or a
// guest holding a cart token.
type Owner struct {
	UserID *uuid.UUID
	Token  string
}

// UserOwner targets the persisted cart of a user.
func UserOwner(userID uuid.UUID) Owner {
	return Owner{UserID: &userID}
}

// GuestOwner targets the session cart stored under token.
func GuestOwner(token string) Owner {
	return Owner{Token: strings.TrimSpace(token)}
}

// IsUser reports whether the owner is authenticated.
func (o Owner) IsUser() bool {
	return o.UserID != nil && *o.UserID != uuid.Nil
}

// Service exposes cart operations for users and guests.
type Service interface {
	View(ctx context.Context, owner Owner) (*View, error)
	AddItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*View, error)
	UpdateQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*View, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*View, error)
	Lines(ctx context.Context, owner Owner) ([]pricing.Line, error)
	LinesTx(ctx context.Context, tx *gorm.DB, owner Owner) ([]pricing.Line, error)
	Count(ctx context.Context, owner Owner) (int, error)
	Clear(ctx context.Context, owner Owner) error
	ClearTx(ctx context.Context, tx *gorm.DB, owner Owner) error
	MergeSessionCart(ctx context.Context, userID uuid.UUID, token string) (int, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Repo            CartRepository
	Tx              txRunner
	Sessions        SessionStore
	Logger          *logger.Logger
	MaxLineQuantity int
}

type service struct {
	repo     CartRepository
	tx       txRunner
	sessions SessionStore
	logg     *logger.Logger
	maxQty   int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	maxQty := params.MaxLineQuantity
	if maxQty <= 0 {
		maxQty = DefaultMaxLineQuantity
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		sessions: params.Sessions,
		logg:     logg,
		maxQty:   maxQty,
	}, nil
}

// View is the cart as shown to the shopper.
type View struct {
	Token     string          `json:"cart_token,omitempty"`
	Lines     []LineView      `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// LineView is one cart line. Lines whose item has been withdrawn stay visible
// but are excluded from counts, totals and checkout.
type LineView struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImagePath string          `json:"image_path,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available bool            `json:"available"`
}

type entry struct {
	item     *models.Item
	quantity int
}

func (s *service) View(ctx context.Context, owner Owner) (*View, error) {
	entries, err := s.resolve(ctx, s.repo, owner)
	if err != nil {
		return nil, err
	}
	view := &View{Lines: make([]LineView, 0, len(entries)), Subtotal: decimal.Zero}
	if !owner.IsUser() {
		view.Token = owner.Token
	}
	for _, e := range entries {
		line := pricing.LineFromItem(*e.item, e.quantity)
		view.Lines = append(view.Lines, LineView{
			ItemID:    e.item.ID,
			Name:      e.item.Name,
			Slug:      e.item.Slug,
			ImagePath: e.item.ImagePath,
			UnitPrice: line.UnitPrice,
			Quantity:  e.quantity,
			LineTotal: line.Subtotal(),
			Available: e.item.Available,
		})
		if e.item.Available {
			view.ItemCount += e.quantity
			view.Subtotal = view.Subtotal.Add(line.Subtotal())
		}
	}
	return view, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, pkgerrors.Field("quantity", "Quantity must be at least 1.")
	}
	if err := s.requireOwner(owner); err != nil {
		return nil, err
	}
	if _, err := s.loadSellable(ctx, s.repo, itemID); err != nil {
		return nil, err
	}

	if owner.IsUser() {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			cart, err := repo.GetOrCreate(ctx, *owner.UserID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
			}
			return s.addLine(ctx, repo, cart.ID, itemID, quantity)
		})
		if err != nil {
			return nil, err
		}
		return s.View(ctx, owner)
	}

	session, err := s.loadSession(ctx, owner.Token)
	if err != nil {
		return nil, err
	}
	key := itemID.String()
	session[key] = s.addQuantity(session[key], quantity)
	if err := s.saveSession(ctx, owner.Token, session); err != nil {
		return nil, err
	}
	return s.View(ctx, owner)
}

func (s *service) UpdateQuantity(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (*View, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, itemID)
	}
	if err := s.requireOwner(owner); err != nil {
		return nil, err
	}
	quantity = s.capQuantity(quantity)

	if owner.IsUser() {
		cart, err := s.repo.FindByUser(ctx, *owner.UserID)
		if err != nil {
			return nil, notInCart(err)
		}
		row, err := s.repo.FindItem(ctx, cart.ID, itemID)
		if err != nil {
			return nil, notInCart(err)
		}
		if err := s.repo.SetQuantity(ctx, row.ID, quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
		}
		return s.View(ctx, owner)
	}

	session, err := s.loadSession(ctx, owner.Token)
	if err != nil {
		return nil, err
	}
	key := itemID.String()
	if _, ok := session[key]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	session[key] = quantity
	if err := s.saveSession(ctx, owner.Token, session); err != nil {
		return nil, err
	}
	return s.View(ctx, owner)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*View, error) {
	if err := s.requireOwner(owner); err != nil {
		return nil, err
	}

	if owner.IsUser() {
		cart, err := s.repo.FindByUser(ctx, *owner.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.View(ctx, owner)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart line")
		}
		return s.View(ctx, owner)
	}

	session, err := s.loadSession(ctx, owner.Token)
	if err != nil {
		return nil, err
	}
	delete(session, itemID.String())
	if err := s.saveSession(ctx, owner.Token, session); err != nil {
		return nil, err
	}
	return s.View(ctx, owner)
}

func (s *service) Lines(ctx context.Context, owner Owner) ([]pricing.Line, error) {
	return s.lines(ctx, s.repo, owner)
}

func (s *service) LinesTx(ctx context.Context, tx *gorm.DB, owner Owner) ([]pricing.Line, error) {
	return s.lines(ctx, s.repo.WithTx(tx), owner)
}

func (s *service) lines(ctx context.Context, repo CartRepository, owner Owner) ([]pricing.Line, error) {
	entries, err := s.resolve(ctx, repo, owner)
	if err != nil {
		return nil, err
	}
	lines := make([]pricing.Line, 0, len(entries))
	for _, e := range entries {
		if !e.item.Available {
			continue
		}
		lines = append(lines, pricing.LineFromItem(*e.item, e.quantity))
	}
	return lines, nil
}

func (s *service) Count(ctx context.Context, owner Owner) (int, error) {
	lines, err := s.Lines(ctx, owner)
	if err != nil {
		return 0, err
	}
	return pricing.ItemCount(lines), nil
}

func (s *service) Clear(ctx context.Context, owner Owner) error {
	if owner.IsUser() {
		return s.clearPersisted(ctx, s.repo, *owner.UserID)
	}
	if owner.Token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, owner.Token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session cart")
	}
	return nil
}

// ClearTx empties a persisted cart inside tx. Session carts live outside the
// database and are cleared with Clear once the transaction commits.
func (s *service) ClearTx(ctx context.Context, tx *gorm.DB, owner Owner) error {
	if !owner.IsUser() {
		return nil
	}
	return s.clearPersisted(ctx, s.repo.WithTx(tx), *owner.UserID)
}

func (s *service) clearPersisted(ctx context.Context, repo CartRepository, userID uuid.UUID) error {
	cart, err := repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := repo.Clear(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

// MergeSessionCart moves a guest cart into the user's persisted cart and
// returns how many lines were migrated. Unknown or unavailable items are
// skipped. The session cart is dropped only when something migrated, so a
// second call before that happens adds the quantities again.
func (s *service) MergeSessionCart(ctx context.Context, userID uuid.UUID, token string) (int, error) {
	token = strings.TrimSpace(token)
	if userID == uuid.Nil || token == "" {
		return 0, nil
	}
	session, err := s.loadSession(ctx, token)
	if err != nil {
		return 0, err
	}
	if session.IsEmpty() {
		return 0, nil
	}

	migrated := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items, err := s.sessionItems(ctx, repo, session)
		if err != nil {
			return err
		}
		cart, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		for _, key := range session.Keys() {
			quantity := session[key]
			item, ok := items[key]
			if !ok || !item.Available || quantity <= 0 {
				continue
			}
			if err := s.addLine(ctx, repo, cart.ID, item.ID, quantity); err != nil {
				return err
			}
			migrated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if migrated > 0 {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.logg.Error(s.logg.WithCartToken(ctx, token), "cart.merge.clear_session_failed", err)
		}
	}
	return migrated, nil
}

func (s *service) addLine(ctx context.Context, repo CartRepository, cartID, itemID uuid.UUID, quantity int) error {
	row, err := repo.FindItem(ctx, cartID, itemID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		line := &models.CartItem{CartID: cartID, ItemID: itemID, Quantity: s.capQuantity(quantity)}
		if err := repo.CreateItem(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart line")
		}
		return nil
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart line")
	}
	if err := repo.SetQuantity(ctx, row.ID, s.addQuantity(row.Quantity, quantity)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart line")
	}
	return nil
}

func (s *service) resolve(ctx context.Context, repo CartRepository, owner Owner) ([]entry, error) {
	if owner.IsUser() {
		cart, err := repo.FindByUser(ctx, *owner.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		rows, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart lines")
		}
		entries := make([]entry, 0, len(rows))
		for _, row := range rows {
			if row.Item == nil || row.Quantity < 1 {
				continue
			}
			entries = append(entries, entry{item: row.Item, quantity: row.Quantity})
		}
		return entries, nil
	}

	if owner.Token == "" {
		return nil, nil
	}
	session, err := s.loadSession(ctx, owner.Token)
	if err != nil {
		return nil, err
	}
	items, err := s.sessionItems(ctx, repo, session)
	if err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(items))
	for _, key := range session.Keys() {
		item, ok := items[key]
		if !ok || session[key] <= 0 {
			continue
		}
		entries = append(entries, entry{item: item, quantity: session[key]})
	}
	return entries, nil
}

// sessionItems loads the catalog rows referenced by a session cart keyed by
// their string id. Keys that are not uuids are ignored.
func (s *service) sessionItems(ctx context.Context, repo CartRepository, session SessionCart) (map[string]*models.Item, error) {
	ids := make([]uuid.UUID, 0, len(session))
	for _, key := range session.Keys() {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	items, err := repo.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	byKey := make(map[string]*models.Item, len(items))
	for i := range items {
		byKey[items[i].ID.String()] = &items[i]
	}
	return byKey, nil
}

func (s *service) loadSellable(ctx context.Context, repo CartRepository, itemID uuid.UUID) (*models.Item, error) {
	if itemID == uuid.Nil {
		return nil, pkgerrors.Field("item_id", "item_id is required")
	}
	items, err := repo.ItemsByIDs(ctx, []uuid.UUID{itemID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load item")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	if !items[0].Available {
		return nil, pkgerrors.Field("item_id", "This item is currently unavailable.")
	}
	return &items[0], nil
}

func (s *service) loadSession(ctx context.Context, token string) (SessionCart, error) {
	session, err := s.sessions.Load(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
	}
	if session == nil {
		session = SessionCart{}
	}
	return session, nil
}

func (s *service) saveSession(ctx context.Context, token string, session SessionCart) error {
	if err := s.sessions.Save(ctx, token, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session cart")
	}
	return nil
}

func (s *service) requireOwner(owner Owner) error {
	if owner.IsUser() || owner.Token != "" {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "cart token required")
}

// capQuantity clamps a line quantity into [1, maxQty].
func (s *service) capQuantity(quantity int) int {
	switch {
	case quantity > s.maxQty:
		return s.maxQty
	case quantity < 1:
		return 1
	}
	return quantity
}

// addQuantity grows an existing line without overflowing int.
func (s *service) addQuantity(current, delta int) int {
	if current < 0 {
		current = 0
	}
	if delta > s.maxQty-current {
		return s.maxQty
	}
	return s.capQuantity(current + delta)
}

func notInCart(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
}
