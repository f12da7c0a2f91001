package store

import (
	"context"
	"testing"
)

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if err := s.IncrStats(ctx, "Asia/Shanghai", false); err != nil {
		t.Fatal(err)
	}
	if err := s.IncrVisitor(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordDataset(ctx, "2025b", 10, "rtree"); err != nil {
		t.Fatal(err)
	}
	tot, err := s.GetTotals(ctx)
	if err != nil || tot == nil || tot.Total != 0 {
		t.Fatalf("GetTotals = %+v, %v", tot, err)
	}
	if z, err := s.TopZones(ctx, 5); err != nil || z != nil {
		t.Fatalf("TopZones = %v, %v", z, err)
	}
	if s.DB() != nil || s.Close() != nil {
		t.Fatal("nil store exposed a db")
	}
	if AttachDB(nil) != nil {
		t.Fatal("AttachDB(nil) != nil")
	}
}
