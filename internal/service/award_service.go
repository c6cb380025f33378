package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/repository/rdb"
)

const (
	// DefaultAwardRows applies when the caller sends no limit.
	DefaultAwardRows = 50
	maxAwardRows     = 200
)

// AwardService reads the imported award tables. Table names reach SQL only
// through the rdb allow-list.
type AwardService struct {
	awards *rdb.AwardRepository
	log    *zap.Logger
}

func NewAwardService(db *gorm.DB, log *zap.Logger) *AwardService {
	return &AwardService{
		awards: &rdb.AwardRepository{DB: db},
		log:    log.Named("award"),
	}
}

func (s *AwardService) Tables(ctx context.Context) ([]rdb.AwardTableInfo, error) {
	list, err := s.awards.Tables(ctx)
	if err != nil {
		return nil, storeErr(s.log, "list award tables", err, "")
	}
	return list, nil
}

// AwardTableData is one page of an award table with the bounds actually used.
type AwardTableData struct {
	rdb.AwardTable
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// Table returns one page of rows. limit is kept within 1..200.
func (s *AwardService) Table(ctx context.Context, name string, limit, offset int) (*AwardTableData, error) {
	table, ok := rdb.LookupAwardTable(name)
	if !ok {
		return nil, apperr.Missing("Unknown award table")
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxAwardRows {
		limit = maxAwardRows
	}
	if offset < 0 {
		offset = 0
	}
	page, err := s.awards.Page(ctx, table, limit, offset)
	if err != nil {
		return nil, storeErr(s.log, "read award table", err, "")
	}
	return &AwardTableData{
		AwardTable: table,
		Columns:    page.Columns,
		Rows:       page.Rows,
		Limit:      limit,
		Offset:     offset,
	}, nil
}
