package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

// importMarker prefixes records created by bulk imports; they are never shown
const importMarker = "*IMPORT*"

// Catalog implements ports.ItemRepository over one catalog database
type Catalog struct {
	db   *sql.DB
	path string
}

// Ensure Catalog implements ItemRepository
var _ ports.ItemRepository = (*Catalog)(nil)

// OpenCatalog opens an existing catalog database for reading
func OpenCatalog(path string) (*Catalog, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog database: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Path returns the catalog file
func (c *Catalog) Path() string {
	return c.path
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// LoadItems returns the visible rows of layer under parentID
func (c *Catalog) LoadItems(ctx context.Context, layer domain.Layer, parentID int) ([]domain.ItemRecord, error) {
	query, args := listQuery(layer, parentID)
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", layer, err)
	}
	defer rows.Close()

	var items []domain.ItemRecord
	for rows.Next() {
		rec, err := scanRecord(rows, layer)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

// LoadItem returns one row, or an empty row when the item is gone or hidden
func (c *Catalog) LoadItem(ctx context.Context, layer domain.Layer, id int) (domain.Row, error) {
	query, args := itemQuery(layer, id)
	rec, err := scanRecord(c.db.QueryRowContext(ctx, query, args...), layer)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewRow(layer), nil
	}
	if err != nil {
		return domain.Row{}, fmt.Errorf("load %s %d: %w", layer, id, err)
	}
	return rec.Row, nil
}

// CountChildren counts the visible rows one layer below (layer, id)
func (c *Catalog) CountChildren(ctx context.Context, layer domain.Layer, id int) (int, error) {
	if layer.IsLeaf() {
		return 0, nil
	}
	query, args := listQuery(layer.Child(), id)
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ("+query+")", args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count children of %s %d: %w", layer, id, err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads the display columns followed by id and knowledge type id
func scanRecord(s scanner, layer domain.Layer) (domain.ItemRecord, error) {
	n := domain.ExpectedColumnCount(layer)
	fields := make([]sql.NullString, n)
	var (
		id       int
		knowType sql.NullInt64
	)

	dest := make([]any, 0, n+2)
	for i := range fields {
		dest = append(dest, &fields[i])
	}
	dest = append(dest, &id, &knowType)
	if err := s.Scan(dest...); err != nil {
		return domain.ItemRecord{}, err
	}

	values := make([]string, n)
	for i, f := range fields {
		values[i] = f.String
	}
	rec := domain.ItemRecord{ID: id, Row: domain.NewRow(layer, values...), KnowledgeTypeID: domain.NoID}
	if knowType.Valid {
		rec.KnowledgeTypeID = int(knowType.Int64)
	}
	return rec, nil
}

// listQuery selects the rows of layer scoped by the selected parent.
// Subject ignores parentID; SpecificKnowledge is scoped by its own knowledge id.
func listQuery(layer domain.Layer, parentID int) (string, []any) {
	switch {
	case layer == domain.LayerSubject:
		return baseQuery(layer, "", nil)
	case layer.IsLeaf():
		return baseQuery(layer, idColumn(layer), parentID)
	default:
		return baseQuery(layer, idColumn(layer.Parent()), parentID)
	}
}

// itemQuery selects a single row of layer by its own id
func itemQuery(layer domain.Layer, id int) (string, []any) {
	return baseQuery(layer, idColumn(layer), id)
}

func baseQuery(layer domain.Layer, scope string, scopeID any) (string, []any) {
	var (
		b     strings.Builder
		where []string
		args  []any
	)
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectColumns(layer), ", "))
	b.WriteString(" ")
	b.WriteString(fromClause(layer))

	if scope != "" {
		where = append(where, scope+" = ?")
		args = append(args, scopeID)
	}
	for _, col := range visibleColumns(layer) {
		where = append(where, col.deleted+" IS NULL", "COALESCE("+col.name+", '') NOT LIKE ?")
		args = append(args, importMarker+"%")
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(idColumn(layer))
	return b.String(), args
}

// selectColumns lists the display columns of layer, then id and knowledge type id
func selectColumns(layer domain.Layer) []string {
	cols := []string{"sub.name"}
	if layer >= domain.LayerPackage {
		cols = append(cols, "pac.name || ' - ' || COALESCE(pac.description, '')")
	}
	if layer >= domain.LayerTheme {
		cols = append(cols, "thm.name")
	}
	if layer >= domain.LayerKnowledge {
		cols = append(cols, "thm_p.name", "tsk.knowledge_text_preview")
	}
	if layer.IsLeaf() {
		cols = append(cols, "tsk_t.name")
	}

	cols = append(cols, idColumn(layer))
	if layer >= domain.LayerKnowledge {
		cols = append(cols, "tsk.id_knowledge_type")
	} else {
		cols = append(cols, "NULL")
	}
	return cols
}

func fromClause(layer domain.Layer) string {
	joins := []string{"FROM subject_type AS sub"}
	if layer >= domain.LayerPackage {
		joins = append(joins, "INNER JOIN package AS pac ON sub.id = pac.id_subject_type")
	}
	if layer >= domain.LayerTheme {
		joins = append(joins, "INNER JOIN theme AS thm ON pac.id = thm.id_package")
	}
	if layer >= domain.LayerKnowledge {
		joins = append(joins,
			"INNER JOIN theme_part AS thm_p ON thm_p.id_theme = thm.id",
			"INNER JOIN knowledge AS tsk ON tsk.id_theme_part = thm_p.id")
	}
	if layer.IsLeaf() {
		joins = append(joins, "INNER JOIN knowledge_type AS tsk_t ON tsk_t.id = tsk.id_knowledge_type")
	}
	return strings.Join(joins, " ")
}

type visibility struct {
	deleted string
	name    string
}

// visibleColumns lists the soft-delete and name columns filtered for layer.
// Subjects are never filtered.
func visibleColumns(layer domain.Layer) []visibility {
	var cols []visibility
	if layer >= domain.LayerPackage {
		cols = append(cols, visibility{"pac.date_deleted", "pac.name"})
	}
	if layer >= domain.LayerTheme {
		cols = append(cols, visibility{"thm.date_deleted", "thm.name"})
	}
	if layer >= domain.LayerKnowledge {
		cols = append(cols, visibility{"tsk.date_deleted", "tsk.knowledge_text_preview"})
	}
	return cols
}

func idColumn(layer domain.Layer) string {
	switch layer {
	case domain.LayerSubject:
		return "sub.id"
	case domain.LayerPackage:
		return "pac.id"
	case domain.LayerTheme:
		return "thm.id"
	default:
		return "tsk.id"
	}
}
