package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Trinaxus/TON.BAND/internal/model"
	"github.com/Trinaxus/TON.BAND/internal/tablestore"
)

var ErrPortfolioNotFound = errors.New("portfolio entry not found")

type PortfolioRepository interface {
	All(ctx context.Context) ([]*model.PortfolioEntry, error)
	ByGallery(ctx context.Context, gallery string) (*model.PortfolioEntry, error)
	// Create assigns the next id.
	Create(ctx context.Context, entry *model.PortfolioEntry) error
	Update(ctx context.Context, entry *model.PortfolioEntry) error
}

type portfolioRepository struct {
	db *sqlx.DB
}

// NewPortfolioRepository stores entries in the local database.
func NewPortfolioRepository(db *sqlx.DB) PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) All(ctx context.Context) ([]*model.PortfolioEntry, error) {
	entries := []*model.PortfolioEntry{}
	err := r.db.SelectContext(ctx, &entries, `SELECT id, gallery, url, category, year FROM portfolio ORDER BY id`)
	return entries, err
}

func (r *portfolioRepository) ByGallery(ctx context.Context, gallery string) (*model.PortfolioEntry, error) {
	entry := &model.PortfolioEntry{}
	query := r.db.Rebind(`SELECT id, gallery, url, category, year FROM portfolio WHERE gallery = ?`)
	err := r.db.GetContext(ctx, entry, query, gallery)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPortfolioNotFound
	}
	return entry, err
}

func (r *portfolioRepository) Create(ctx context.Context, entry *model.PortfolioEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var maxID sql.NullInt64
	if err := tx.GetContext(ctx, &maxID, `SELECT MAX(id) FROM portfolio`); err != nil {
		return err
	}
	entry.ID = int(maxID.Int64) + 1

	query := tx.Rebind(`INSERT INTO portfolio (id, gallery, url, category, year) VALUES (?, ?, ?, ?, ?)`)
	if _, err := tx.ExecContext(ctx, query, entry.ID, entry.Gallery, entry.URL, entry.Category, entry.Year); err != nil {
		return fmt.Errorf("failed to insert portfolio entry: %w", err)
	}
	return tx.Commit()
}

func (r *portfolioRepository) Update(ctx context.Context, entry *model.PortfolioEntry) error {
	query := r.db.Rebind(`UPDATE portfolio SET gallery = ?, url = ?, category = ?, year = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, entry.Gallery, entry.URL, entry.Category, entry.Year, entry.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPortfolioNotFound
	}
	return nil
}

type portfolioTableRepository struct {
	store   RowStore
	tableID string
}

// NewPortfolioTableRepository stores entries in the table store's portfolio table.
func NewPortfolioTableRepository(store RowStore, tableID string) PortfolioRepository {
	return &portfolioTableRepository{store: store, tableID: tableID}
}

func (r *portfolioTableRepository) All(ctx context.Context) ([]*model.PortfolioEntry, error) {
	rows, err := r.store.ListAll(ctx, r.tableID, tablestore.ListOptions{UserFieldNames: true})
	if err != nil {
		return nil, err
	}
	entries := make([]*model.PortfolioEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toPortfolio(row))
	}
	return entries, nil
}

func (r *portfolioTableRepository) ByGallery(ctx context.Context, gallery string) (*model.PortfolioEntry, error) {
	page, err := r.store.List(ctx, r.tableID, tablestore.ListOptions{UserFieldNames: true, Search: gallery})
	if err != nil {
		return nil, err
	}
	// search is fuzzy; keep only the exact match
	for _, row := range page.Results {
		if strings.EqualFold(row.String("gallery"), gallery) {
			return toPortfolio(row), nil
		}
	}
	return nil, ErrPortfolioNotFound
}

func (r *portfolioTableRepository) Create(ctx context.Context, entry *model.PortfolioEntry) error {
	row, err := r.store.Create(ctx, r.tableID, portfolioRow(entry), true)
	if err != nil {
		return err
	}
	entry.ID = row.ID()
	return nil
}

func (r *portfolioTableRepository) Update(ctx context.Context, entry *model.PortfolioEntry) error {
	_, err := r.store.Update(ctx, r.tableID, entry.ID, portfolioRow(entry), true)
	if errors.Is(err, tablestore.ErrNotFound) {
		return ErrPortfolioNotFound
	}
	return err
}

func portfolioRow(e *model.PortfolioEntry) tablestore.Row {
	return tablestore.Row{
		"gallery":  e.Gallery,
		"url":      e.URL,
		"category": e.Category,
		"year":     e.Year,
	}
}

func toPortfolio(row tablestore.Row) *model.PortfolioEntry {
	year := row.String("year")
	if n, err := strconv.ParseFloat(year, 64); err == nil {
		year = strconv.Itoa(int(n))
	}
	return &model.PortfolioEntry{
		ID:       row.ID(),
		Gallery:  row.String("gallery"),
		URL:      row.String("url"),
		Category: row.String("category"),
		Year:     year,
	}
}
