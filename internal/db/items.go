package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationware/medsync/internal/mapper"
	"github.com/stationware/medsync/internal/models"
)

// ItemRepository serves the item catalog. Stock is never a column; it is
// computed from the inventory event log on every read so that applied sync
// packages change the answer without any reconciliation step.
type ItemRepository struct {
	db      DBTX
	dialect mapper.Dialect
}

func NewItemRepository(db DBTX, dialect mapper.Dialect) *ItemRepository {
	return &ItemRepository{db: db, dialect: dialect}
}

func (r *ItemRepository) Get(ctx context.Context, itemCode string) (*models.Item, error) {
	query := rebind(r.dialect, `
		SELECT item_code, item_name, item_category, category, unit, min_stock,
		       created_at, updated_at
		FROM items WHERE item_code = ?`)

	var (
		item                   models.Item
		itemCategory, category sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, itemCode).Scan(
		&item.ItemCode, &item.ItemName, &itemCategory, &category,
		&item.Unit, &item.MinStock, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", itemCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch item %s: %v", itemCode, err)
	}

	if itemCategory.Valid {
		v := itemCategory.String
		item.ItemCategory = &v
	}
	if category.Valid {
		v := category.String
		item.Category = &v
	}
	return &item, nil
}

// ListWithStock returns the whole catalog, each item carrying the running sum
// of its RECEIVE minus CONSUME events.
func (r *ItemRepository) ListWithStock(ctx context.Context) ([]models.ItemStock, error) {
	query := `
		SELECT i.item_code, i.item_name, i.item_category, i.category, i.unit,
		       i.min_stock, i.created_at, i.updated_at,
		       COALESCE(stock.current_stock, 0) AS current_stock
		FROM items i
		LEFT JOIN (
			SELECT item_code,
			       SUM(CASE WHEN event_type = 'RECEIVE' THEN quantity
			                WHEN event_type = 'CONSUME' THEN -quantity
			                ELSE 0 END) AS current_stock
			FROM inventory_events
			GROUP BY item_code
		) stock ON i.item_code = stock.item_code
		ORDER BY i.category, i.item_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %v", err)
	}
	defer rows.Close()

	var out []models.ItemStock
	for rows.Next() {
		var (
			item                   models.ItemStock
			itemCategory, category sql.NullString
		)
		err := rows.Scan(
			&item.ItemCode, &item.ItemName, &itemCategory, &category,
			&item.Unit, &item.MinStock, &item.CreatedAt, &item.UpdatedAt,
			&item.CurrentStock)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %v", err)
		}
		if itemCategory.Valid {
			v := itemCategory.String
			item.ItemCategory = &v
		}
		if category.Valid {
			v := category.String
			item.Category = &v
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %v", err)
	}
	return out, nil
}

// Stock returns the current computed stock for one item.
func (r *ItemRepository) Stock(ctx context.Context, itemCode string) (int, error) {
	query := rebind(r.dialect, `
		SELECT COALESCE(SUM(CASE WHEN event_type = 'RECEIVE' THEN quantity
		                         WHEN event_type = 'CONSUME' THEN -quantity
		                         ELSE 0 END), 0)
		FROM inventory_events WHERE item_code = ?`)

	var stock int
	if err := r.db.QueryRowContext(ctx, query, itemCode).Scan(&stock); err != nil {
		return 0, fmt.Errorf("failed to compute stock for %s: %v", itemCode, err)
	}
	return stock, nil
}

// Upsert registers a catalog entry, leaving an existing row untouched.
func (r *ItemRepository) Upsert(ctx context.Context, item *models.Item) error {
	query := rebind(r.dialect, `
		INSERT INTO items (item_code, item_name, item_category, category, unit, min_stock)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_code) DO NOTHING`)

	_, err := r.db.ExecContext(ctx, query,
		item.ItemCode, item.ItemName, item.ItemCategory, item.Category,
		item.Unit, item.MinStock)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %v", item.ItemCode, err)
	}
	return nil
}
