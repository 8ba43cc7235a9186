package cart

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/hifideliveryeats/cartsync/internal/menu"
	"github.com/hifideliveryeats/cartsync/pkg/db"
	"github.com/hifideliveryeats/cartsync/pkg/db/models"
	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

// Service stores one cart per customer and returns it in canonical form.
type Service interface {
	GetCart(ctx context.Context, customerID string) ([]types.CartLine, error)
	ReplaceCart(ctx context.Context, customerID string, lines []types.CartLine) ([]types.CartLine, error)
}

type menuLookup interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.MenuItem, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	menu menuLookup
	tx   txRunner
}

func NewService(repo *Repository, menuRepo menuLookup, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if menuRepo == nil {
		return nil, fmt.Errorf("menu repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, menu: menuRepo, tx: dbClient}, nil
}

func (s *service) GetCart(ctx context.Context, customerID string) ([]types.CartLine, error) {
	customerID, err := requireCustomer(customerID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart items")
	}
	lines := make([]types.CartLine, 0, len(items))
	for _, item := range items {
		if item.MenuItem == nil {
			continue
		}
		lines = append(lines, toLine(item.Quantity, *item.MenuItem))
	}
	return lines, nil
}

// ReplaceCart overwrites the customer's cart. Lines with quantity zero or less
// are dropped and repeated ids are merged before stock is checked.
func (s *service) ReplaceCart(ctx context.Context, customerID string, lines []types.CartLine) ([]types.CartLine, error) {
	customerID, err := requireCustomer(customerID)
	if err != nil {
		return nil, err
	}

	wanted := normalize(lines)
	ids := make([]string, 0, len(wanted))
	for _, line := range wanted {
		ids = append(ids, line.ItemID)
	}

	menuItems, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load menu items")
	}
	if err := checkLines(wanted, menuItems); err != nil {
		return nil, err
	}

	rows := make([]models.CartItem, 0, len(wanted))
	for _, line := range wanted {
		rows = append(rows, models.CartItem{ItemRef: line.ItemID, Quantity: line.Quantity})
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).ReplaceForCustomer(ctx, customerID, rows)
	}); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart was changed by another request, retry")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace cart items")
	}

	out := make([]types.CartLine, 0, len(wanted))
	for _, line := range wanted {
		out = append(out, toLine(line.Quantity, menuItems[line.ItemID]))
	}
	return out, nil
}

func requireCustomer(customerID string) (string, error) {
	trimmed := strings.TrimSpace(customerID)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "customer context missing")
	}
	return trimmed, nil
}

func normalize(lines []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, 0, len(lines))
	seen := map[string]int{}
	for _, line := range lines {
		id := strings.TrimSpace(line.ItemID)
		if id == "" || line.Quantity <= 0 {
			continue
		}
		if idx, ok := seen[id]; ok {
			out[idx].Quantity += line.Quantity
			continue
		}
		seen[id] = len(out)
		out = append(out, types.CartLine{ItemID: id, Quantity: line.Quantity})
	}
	return out
}

func checkLines(lines []types.CartLine, menuItems map[string]models.MenuItem) error {
	var unknown []string
	for _, line := range lines {
		if _, ok := menuItems[line.ItemID]; !ok {
			unknown = append(unknown, line.ItemID)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown menu items").
			WithDetails(map[string]any{"menu_item_ids": unknown})
	}

	for _, line := range lines {
		item := menuItems[line.ItemID]
		available := item.StockAvailable
		if item.IsOutOfStock || available < 0 {
			available = 0
		}
		if line.Quantity > available {
			return pkgerrors.New(
				pkgerrors.CodeStockExceeded,
				fmt.Sprintf("only %d of %s available", available, item.Name),
			).WithDetails(map[string]any{
				"menu_item_id":    line.ItemID,
				"stock_available": available,
				"requested":       line.Quantity,
			})
		}
	}
	return nil
}

func toLine(quantity int, item models.MenuItem) types.CartLine {
	return types.CartLine{
		ItemID:          item.ID,
		Name:            item.Name,
		UnitPrice:       item.Price,
		Quantity:        quantity,
		DiscountPercent: menu.DiscountOf(item),
	}
}
