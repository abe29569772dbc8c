package casestore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gardar/laudo/pkg/casedata"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite://" + filepath.Join(t.TempDir(), "cases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn    string
		driver string
		source string
	}{
		{"postgres://user:pw@db:5432/laudos?sslmode=disable", driverPostgres, "postgres://user:pw@db:5432/laudos?sslmode=disable"},
		{"postgresql://db/laudos", driverPostgres, "postgresql://db/laudos"},
		{"sqlite:///tmp/cases.db", driverSQLite, "/tmp/cases.db"},
		{"file:cases.db?_busy_timeout=5000", driverSQLite, "file:cases.db?_busy_timeout=5000"},
		{" cases.db ", driverSQLite, "cases.db"},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, source := parseDSN(tt.dsn)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestRebind(t *testing.T) {
	q := `SELECT data FROM cases WHERE id = $1 AND x = $12`
	assert.Equal(t, `SELECT data FROM cases WHERE id = ?1 AND x = ?12`, New(nil, driverSQLite).rebind(q))
	assert.Equal(t, q, New(nil, driverPostgres).rebind(q))
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	raw := `{"process_number":"1234567-89.2024.5.02.0001","flammable_products":[{"name":"Gasolina","attachment_path":"fispq/gasolina.pdf"}]}`
	require.NoError(t, s.Put(ctx, "c1", []byte(raw)))

	c, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "1234567-89.2024.5.02.0001", c.ProcessNumber.Trim())
	require.Len(t, c.FlammableProducts, 1)
	assert.Equal(t, "Gasolina", c.FlammableProducts[0].Name.Trim())

	require.NoError(t, s.Put(ctx, "c1", []byte(`{"process_number":"2"}`)))
	c, err = s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "2", c.ProcessNumber.Trim())

	assert.Error(t, s.Put(ctx, "c2", []byte(`[1,2]`)))
}

func TestSaveFlammableProducts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Put(ctx, "c1", []byte(`{"flammable_products":[{"name":"Do snapshot","attachment_path":"a.pdf"}]}`)))

	products := []casedata.FlammableProduct{
		{Name: "Diesel", AttachmentPath: "fispq/diesel.pdf", Notes: "tanque 2"},
		{Name: "Etanol", AttachmentPath: "fispq/etanol.pdf"},
	}
	require.NoError(t, s.SaveFlammableProducts(ctx, "c1", products))

	c, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, c.FlammableProducts, 2)
	assert.Equal(t, "Diesel", c.FlammableProducts[0].Name.Trim())
	assert.Equal(t, "tanque 2", c.FlammableProducts[0].Notes.Trim())
	assert.Equal(t, "fispq/etanol.pdf", c.FlammableProducts[1].AttachmentPath.Trim())

	invalid := []casedata.FlammableProduct{{Name: "Querosene"}}
	err = s.SaveFlammableProducts(ctx, "c1", invalid)
	var verr *casedata.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "flammable_products[0].attachment_path", verr.Field)

	c, err = s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, c.FlammableProducts, 2, "rejected list leaves stored rows untouched")
}

func TestGetWithoutProductTable(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open(driverSQLite, filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(schema[0])
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cases (id, data) VALUES ('c1', '{"process_number":"9"}')`)
	require.NoError(t, err)

	c, err := New(db, driverSQLite).Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "9", c.ProcessNumber.Trim())
	assert.Empty(t, c.FlammableProducts)
}

func TestMissingTable(t *testing.T) {
	assert.False(t, missingTable(nil))
	assert.False(t, missingTable(errors.New("no such table: x")))
}
