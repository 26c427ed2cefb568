package postgres

import (
	"context"
	"fmt"
	"time"

	"souschef/internal/core/grocery"
	"souschef/internal/pkg/common"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type listRow struct {
	ID        string    `db:"id"`
	OwnerID   *string   `db:"owner_id"`
	Name      string    `db:"name"`
	IsMaster  bool      `db:"is_master"`
	CreatedAt time.Time `db:"created_at"`
}

func (r listRow) toList() *grocery.List {
	return &grocery.List{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		IsMaster:  r.IsMaster,
		CreatedAt: r.CreatedAt,
		Items:     []grocery.Item{},
	}
}

type itemRow struct {
	ID           string    `db:"id"`
	ListID       string    `db:"list_id"`
	IngredientID *string   `db:"ingredient_id"`
	RecipeID     *string   `db:"recipe_id"`
	RecipeTitle  *string   `db:"recipe_title"`
	Name         string    `db:"name"`
	Quantity     string    `db:"quantity"`
	QuantityNote *string   `db:"quantity_note"`
	Unit         *string   `db:"unit"`
	Completed    bool      `db:"completed"`
	CreatedAt    time.Time `db:"created_at"`
}

const (
	listColumns = `id, owner_id, name, is_master, created_at`
	itemColumns = `id, list_id, ingredient_id, recipe_id, recipe_title, name, quantity, quantity_note, unit, completed, created_at`
)

// CreateList 建立清單
func (s *Store) CreateList(ctx context.Context, l *grocery.List) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grocery_lists (`+listColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.OwnerID, l.Name, l.IsMaster, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create grocery list: %w", err)
	}
	return nil
}

// GetList 取得清單及其項目
func (s *Store) GetList(ctx context.Context, id string) (*grocery.List, error) {
	var row listRow
	err := s.db.GetContext(ctx, &row, `SELECT `+listColumns+` FROM grocery_lists WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, common.ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get grocery list: %w", err)
	}
	l := row.toList()
	if err := s.attachItems(ctx, []*grocery.List{l}); err != nil {
		return nil, err
	}
	return l, nil
}

// ListLists 列出擁有者範圍內的清單，最新的在前
func (s *Store) ListLists(ctx context.Context, ownerID *string) ([]*grocery.List, error) {
	var rows []listRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+listColumns+` FROM grocery_lists WHERE owner_id IS NOT DISTINCT FROM $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery lists: %w", err)
	}
	lists := make([]*grocery.List, 0, len(rows))
	for _, row := range rows {
		lists = append(lists, row.toList())
	}
	if err := s.attachItems(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (s *Store) attachItems(ctx context.Context, lists []*grocery.List) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]string, 0, len(lists))
	byID := make(map[string]*grocery.List, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID)
		byID[l.ID] = l
	}

	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+itemColumns+` FROM grocery_items WHERE list_id = ANY($1) ORDER BY created_at DESC, id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to load grocery items: %w", err)
	}
	for _, row := range rows {
		l := byID[row.ListID]
		l.Items = append(l.Items, grocery.Item(row))
	}
	return nil
}

// GetOrCreateMasterList 取得或建立主清單，唯一索引保證每個擁有者範圍只有一個
func (s *Store) GetOrCreateMasterList(ctx context.Context, ownerID *string) (*grocery.List, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO grocery_lists (`+listColumns+`) VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT ((COALESCE(owner_id::text, ''))) WHERE is_master DO NOTHING`,
		common.GenerateUUID(), ownerID, grocery.MasterListName, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create master list: %w", err)
	}

	var row listRow
	err = s.db.GetContext(ctx, &row,
		`SELECT `+listColumns+` FROM grocery_lists WHERE is_master AND owner_id IS NOT DISTINCT FROM $1`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get master list: %w", err)
	}
	return row.toList(), nil
}

// RenameList 重新命名清單
func (s *Store) RenameList(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE grocery_lists SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("failed to rename grocery list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrListNotFound
	}
	return nil
}

// DeleteList 刪除清單，項目由外鍵串聯刪除
func (s *Store) DeleteList(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grocery_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grocery list: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrListNotFound
	}
	return nil
}

// ApplyToList 鎖定清單列後讀取項目、計算並寫入，同一清單的並行聚合依序執行
func (s *Store) ApplyToList(ctx context.Context, listID string, build grocery.PlanFunc) (grocery.Plan, error) {
	var plan grocery.Plan
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var locked string
		err := tx.GetContext(ctx, &locked, `SELECT id FROM grocery_lists WHERE id = $1 FOR UPDATE`, listID)
		if err != nil {
			if isNoRows(err) {
				return common.ErrListNotFound
			}
			return fmt.Errorf("failed to lock grocery list: %w", err)
		}

		var rows []itemRow
		err = tx.SelectContext(ctx, &rows,
			`SELECT `+itemColumns+` FROM grocery_items WHERE list_id = $1 ORDER BY created_at, id`,
			listID,
		)
		if err != nil {
			return fmt.Errorf("failed to load grocery items: %w", err)
		}
		existing := make([]grocery.Item, 0, len(rows))
		for _, row := range rows {
			existing = append(existing, grocery.Item(row))
		}

		plan = build(existing)

		for _, u := range plan.Updates {
			res, err := tx.ExecContext(ctx,
				`UPDATE grocery_items SET quantity = $2, quantity_note = $3 WHERE id = $1 AND list_id = $4`,
				u.ID, u.Quantity, u.QuantityNote, listID,
			)
			if err != nil {
				return fmt.Errorf("failed to update grocery item: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return common.ErrItemNotFound
			}
		}

		for _, item := range plan.Inserts {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO grocery_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				item.ID, listID, item.IngredientID, item.RecipeID, item.RecipeTitle,
				item.Name, item.Quantity, item.QuantityNote, item.Unit, item.Completed, item.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert grocery item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return grocery.Plan{}, err
	}
	return plan, nil
}

// GetItem 取得項目
func (s *Store) GetItem(ctx context.Context, id string) (*grocery.Item, error) {
	var row itemRow
	err := s.db.GetContext(ctx, &row, `SELECT `+itemColumns+` FROM grocery_items WHERE id = $1`, id)
	if err != nil {
		if isNoRows(err) {
			return nil, common.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get grocery item: %w", err)
	}
	item := grocery.Item(row)
	return &item, nil
}

// UpdateItem 更新項目欄位，ListID 變更即為移動
func (s *Store) UpdateItem(ctx context.Context, item *grocery.Item) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE grocery_items SET list_id = $2, name = $3, quantity = $4, quantity_note = $5, unit = $6, completed = $7
		 WHERE id = $1`,
		item.ID, item.ListID, item.Name, item.Quantity, item.QuantityNote, item.Unit, item.Completed,
	)
	if err != nil {
		return fmt.Errorf("failed to update grocery item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// DeleteItem 刪除項目
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grocery_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete grocery item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// ClearList 刪除清單所有項目
func (s *Store) ClearList(ctx context.Context, listID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM grocery_items WHERE list_id = $1`, listID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear grocery list: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
