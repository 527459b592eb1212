package repo

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return conn
}

func TestDBWithContextFlowsThrough(t *testing.T) {
	conn := openMemoryDB(t)
	base := NewBase(conn)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	bound := base.DB(ctx)
	if bound == nil || bound.Statement == nil {
		t.Fatalf("expected statement after WithContext")
	}
	if bound.Statement.Context != ctx {
		t.Fatalf("context did not flow through")
	}
}

func TestDBNilContextReturnsRawConnection(t *testing.T) {
	conn := openMemoryDB(t)
	base := NewBase(conn)

	if base.DB(nil) != conn {
		t.Fatalf("nil context should return the raw connection")
	}
}
