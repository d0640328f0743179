package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/ecommerce-backend/pkg/pagination"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type widget struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	//nolint:staticcheck // nil context keeps the raw connection
	if base.DB(nil) != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseWithTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if got := base.WithTx(nil); got.db != db {
		t.Fatalf("nil tx should keep the connection")
	}

	tx := db.Begin()
	defer tx.Rollback()
	if got := base.WithTx(tx); got.db != tx {
		t.Fatalf("expected tx to be bound")
	}
}

func TestPage(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&widget{Name: fmt.Sprintf("w%d", i)}).Error)
	}

	rows, total, err := Page[widget](context.Background(), NewBase(db), pagination.Params{Skip: 1, Take: 2}, "id ASC")
	require.NoError(t, err)
	require.EqualValues(t, 5, total)
	require.Len(t, rows, 2)
	require.Equal(t, "w1", rows[0].Name)
	require.Equal(t, "w2", rows[1].Name)
}
