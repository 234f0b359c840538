//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-brandmaster/internal/brand"
	"github.com/pgEdge/pgedge-brandmaster/internal/db"
	"github.com/pgEdge/pgedge-brandmaster/internal/logging"
)

// RunLockKey is the advisory lock key held by every write transaction.
const RunLockKey int64 = 0x62726e646d7374

// insertChunkSize bounds the rows per multi-row INSERT so the statement stays
// below the protocol's bind parameter limit.
const insertChunkSize = 1000

// PostgreSQL error codes mapped to sentinel errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError wraps PostgreSQL constraint errors with the matching sentinel.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
		}
	}
	return err
}

// queries implements Reader over a pool or a transaction.
type queries struct {
	db db.DB
}

func (q queries) RawBrands(ctx context.Context) ([]brand.RawBrand, error) {
	rows, err := q.db.Query(ctx, `
        SELECT brand_id, COALESCE(brand_name, '')
        FROM dim_brand
        ORDER BY brand_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw brands: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[brand.RawBrand])
}

func (q queries) Products(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
        SELECT product_id, COALESCE(name, ''), brand_id, brand_master_id
        FROM dim_product
        ORDER BY product_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Product])
}

func (q queries) Masters(ctx context.Context) ([]Master, error) {
	rows, err := q.db.Query(ctx, `
        SELECT brand_master_id, brand_canonical, brand_parent,
               COALESCE(is_sub_brand, FALSE), COALESCE(active_flag, TRUE)
        FROM brand_master
        ORDER BY brand_master_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand masters: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Master])
}

func (q queries) Aliases(ctx context.Context) ([]AliasRow, error) {
	rows, err := q.db.Query(ctx, `
        SELECT a.alias_id, a.brand_master_id, a.alias_text,
               COALESCE(a.source, ''), COALESCE(a.confidence, 0)::float8,
               m.brand_canonical
        FROM brand_alias a
        JOIN brand_master m ON m.brand_master_id = a.brand_master_id
        ORDER BY a.brand_master_id, a.alias_text
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand aliases: %w", err)
	}
	defer rows.Close()

	var aliases []AliasRow
	for rows.Next() {
		var a AliasRow
		if err := rows.Scan(&a.ID, &a.MasterID, &a.Text, &a.Source, &a.Confidence, &a.CanonicalName); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (q queries) Coverage(ctx context.Context) (Coverage, error) {
	var c Coverage
	err := q.db.QueryRow(ctx, `
        SELECT COUNT(*), COUNT(brand_master_id) FROM dim_product
    `).Scan(&c.Total, &c.Linked)
	if err != nil {
		return Coverage{}, fmt.Errorf("failed to count linked products: %w", err)
	}
	return c, nil
}

func (q queries) Metadata(ctx context.Context) (map[string]string, error) {
	return db.GetAllMetadata(ctx, q.db)
}

// Postgres is a Store backed by a connection pool.
type Postgres struct {
	queries
	pool *pgxpool.Pool
}

// NewPostgres returns a Store over pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{queries: queries{db: pool}, pool: pool}
}

// MetadataValue returns one run metadata value, or ErrNotFound.
func (p *Postgres) MetadataValue(ctx context.Context, key string) (string, error) {
	value, err := db.GetMetadataValue(ctx, p.pool, key)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("metadata %q: %w", key, ErrNotFound)
	}
	return value, err
}

// Begin opens a read committed transaction and waits for the run advisory
// lock, so write transactions from concurrent processes run one at a time.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", RunLockKey); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}

	return &pgTx{queries: queries{db: tx}, tx: tx}, nil
}

type pgTx struct {
	queries
	tx pgx.Tx
}

func (t *pgTx) ClearProductMasters(ctx context.Context) (int64, error) {
	tag, err := t.tx.Exec(ctx, `
        UPDATE dim_product SET brand_master_id = NULL
        WHERE brand_master_id IS NOT NULL
    `)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) DeleteAliases(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM brand_alias")
	return mapError(err)
}

func (t *pgTx) DeleteMasters(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM brand_master")
	return mapError(err)
}

// ResetSequence runs inside a savepoint so a failure leaves the enclosing
// transaction usable.
func (t *pgTx) ResetSequence(ctx context.Context, table, column string) error {
	return db.WithTx(ctx, t.tx, func(sp pgx.Tx) error {
		var seq *string
		err := sp.QueryRow(ctx, "SELECT pg_get_serial_sequence($1, $2)", table, column).Scan(&seq)
		if err != nil {
			return err
		}
		if seq == nil {
			return fmt.Errorf("%s.%s has no owned sequence", table, column)
		}
		_, err = sp.Exec(ctx, "SELECT setval($1::regclass, 1, false)", *seq)
		return err
	})
}

func (t *pgTx) InsertMasters(ctx context.Context, canonicalNames []string) error {
	return t.insertChunks(ctx, MasterTable, []string{"brand_canonical"}, len(canonicalNames),
		func(i int) []any { return []any{canonicalNames[i]} })
}

func (t *pgTx) MasterIDs(ctx context.Context) (map[string]int64, error) {
	return t.nameToID(ctx, `SELECT brand_canonical, brand_master_id FROM brand_master`)
}

func (t *pgTx) InsertAliases(ctx context.Context, aliases []Alias) error {
	return t.insertChunks(ctx, AliasTable,
		[]string{"brand_master_id", "alias_text", "source", "confidence"}, len(aliases),
		func(i int) []any {
			a := aliases[i]
			return []any{a.MasterID, a.Text, a.Source, a.Confidence}
		})
}

// LinkProducts updates products in one statement joined against the alias
// mapping passed as two parallel arrays.
func (t *pgTx) LinkProducts(ctx context.Context, masterByAlias map[string]int64) (int64, error) {
	if len(masterByAlias) == 0 {
		return 0, nil
	}

	texts := make([]string, 0, len(masterByAlias))
	for text := range masterByAlias {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	ids := make([]int64, len(texts))
	for i, text := range texts {
		ids[i] = masterByAlias[text]
	}

	tag, err := t.tx.Exec(ctx, `
        UPDATE dim_product p
        SET brand_master_id = m.brand_master_id
        FROM dim_brand b,
             unnest($1::text[], $2::bigint[]) AS m(alias_text, brand_master_id)
        WHERE p.brand_id = b.brand_id
          AND COALESCE(b.brand_name, '') = m.alias_text
    `, texts, ids)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) ClearProductBrands(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `
        UPDATE dim_product SET brand_id = NULL
        WHERE brand_id IS NOT NULL
    `)
	return mapError(err)
}

func (t *pgTx) DeleteRawBrands(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, "DELETE FROM dim_brand")
	return mapError(err)
}

func (t *pgTx) InsertRawBrands(ctx context.Context, names []string) error {
	return t.insertChunks(ctx, RawBrandTable, []string{"brand_name"}, len(names),
		func(i int) []any { return []any{names[i]} })
}

func (t *pgTx) RawBrandIDs(ctx context.Context) (map[string]int64, error) {
	return t.nameToID(ctx, `
        SELECT brand_name, MIN(brand_id) FROM dim_brand
        WHERE brand_name IS NOT NULL
        GROUP BY brand_name
    `)
}

func (t *pgTx) AssignProductBrands(ctx context.Context, brandByProduct map[int64]int64) (int64, error) {
	if len(brandByProduct) == 0 {
		return 0, nil
	}

	productIDs := make([]int64, 0, len(brandByProduct))
	for id := range brandByProduct {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	brandIDs := make([]int64, len(productIDs))
	for i, id := range productIDs {
		brandIDs[i] = brandByProduct[id]
	}

	tag, err := t.tx.Exec(ctx, `
        UPDATE dim_product p
        SET brand_id = m.brand_id
        FROM unnest($1::bigint[], $2::bigint[]) AS m(product_id, brand_id)
        WHERE p.product_id = m.product_id
    `, productIDs, brandIDs)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) SaveMetadata(ctx context.Context, values map[string]string) error {
	return db.SaveMetadata(ctx, t.tx, values)
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// insertChunks inserts n rows into table in multi-row statements. row returns
// the column values of row i.
func (t *pgTx) insertChunks(ctx context.Context, table string, cols []string, n int, row func(i int) []any) error {
	for start := 0; start < n; start += insertChunkSize {
		end := min(start+insertChunkSize, n)

		sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		sb.InsertInto(table)
		sb.Cols(cols...)
		for i := start; i < end; i++ {
			sb.Values(row(i)...)
		}

		query, args := sb.Build()
		if _, err := t.tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, mapError(err))
		}

		logging.Debug().
			Str("table", table).
			Int("rows", end-start).
			Msg("Inserted batch")
	}
	return nil
}

func (t *pgTx) nameToID(ctx context.Context, query string) (map[string]int64, error) {
	rows, err := t.tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}
