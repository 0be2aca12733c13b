package bitmap

import "testing"

func TestBitmapSetAndIsSet(t *testing.T) {
	bm := NewBits(16)
	if set, err := bm.IsSet(3); err != nil || set {
		t.Fatalf("IsSet(3) = %v, %v, want false, nil", set, err)
	}
	if err := bm.Set(3); err != nil {
		t.Fatalf("Set(3): %v", err)
	}
	if set, err := bm.IsSet(3); err != nil || !set {
		t.Fatalf("IsSet(3) after Set = %v, %v, want true, nil", set, err)
	}
	if set, _ := bm.IsSet(4); set {
		t.Fatalf("IsSet(4) = true, want false (unrelated bit)")
	}
}

func TestBitmapGrowToPreservesSetBits(t *testing.T) {
	bm := NewBits(0)
	bm.GrowTo(1)
	if err := bm.Set(0); err != nil {
		t.Fatalf("Set(0): %v", err)
	}
	bm.GrowTo(100)
	if bm.Len() < 100 {
		t.Fatalf("Len() = %d, want >= 100", bm.Len())
	}
	if set, _ := bm.IsSet(0); !set {
		t.Fatal("bit 0 lost across GrowTo")
	}
	if set, _ := bm.IsSet(99); set {
		t.Fatal("newly grown bit should start unset")
	}
}

func TestBitmapGrowToIsNoopWhenAlreadyLargeEnough(t *testing.T) {
	bm := NewBits(64)
	bm.GrowTo(8)
	if bm.Len() != 64 {
		t.Fatalf("Len() = %d, want 64 (GrowTo with smaller size must not shrink)", bm.Len())
	}
}

func TestBitmapSetOutOfRangeErrors(t *testing.T) {
	bm := NewBits(8)
	if err := bm.Set(8); err == nil {
		t.Fatal("Set(8) on an 8-bit bitmap should error")
	}
	if _, err := bm.IsSet(-1); err == nil {
		t.Fatal("IsSet(-1) should error")
	}
}
