package rdb

import (
	"context"

	"gorm.io/gorm"
)

// AwardTable is one imported reference dataset.
type AwardTable struct {
	Table       string `json:"table"`
	DisplayName string `json:"display_name"`
}

// AwardTables is the only source of table names used in award queries.
var AwardTables = []AwardTable{
	{Table: "booker_prize", DisplayName: "Booker Prize"},
	{Table: "golden_globes", DisplayName: "Golden Globes"},
	{Table: "grammy", DisplayName: "Grammy Awards"},
	{Table: "nobel_laureates", DisplayName: "Nobel Laureates"},
	{Table: "nobel_prizes", DisplayName: "Nobel Prizes"},
	{Table: "oscars", DisplayName: "Oscars"},
}

// LookupAwardTable reports whether name is an allowed table.
func LookupAwardTable(name string) (AwardTable, bool) {
	for _, t := range AwardTables {
		if t.Table == name {
			return t, true
		}
	}
	return AwardTable{}, false
}

type AwardTableInfo struct {
	AwardTable
	RowCount int64 `json:"row_count"`
}

type AwardPage struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

type AwardRepository struct {
	DB *gorm.DB
}

// Tables lists every allowed table with its row count. Tables that were
// never imported report 0.
func (r *AwardRepository) Tables(ctx context.Context) ([]AwardTableInfo, error) {
	db := r.DB.WithContext(ctx)
	out := make([]AwardTableInfo, 0, len(AwardTables))
	for _, t := range AwardTables {
		info := AwardTableInfo{AwardTable: t}
		if db.Migrator().HasTable(t.Table) {
			if err := db.Table(t.Table).Count(&info.RowCount).Error; err != nil {
				return nil, err
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// Page reads raw rows of an allowed table. The caller validates table via
// LookupAwardTable and clamps limit and offset.
func (r *AwardRepository) Page(ctx context.Context, table AwardTable, limit, offset int) (*AwardPage, error) {
	page := &AwardPage{Columns: []string{}, Rows: []map[string]any{}}
	db := r.DB.WithContext(ctx)
	if !db.Migrator().HasTable(table.Table) {
		return page, nil
	}

	rows, err := db.Table(table.Table).Limit(limit).Offset(offset).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	page.Columns = cols
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			// text columns arrive as []byte from the MySQL driver
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		page.Rows = append(page.Rows, row)
	}
	return page, rows.Err()
}
