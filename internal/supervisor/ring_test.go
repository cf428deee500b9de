package supervisor

import "testing"

func TestOrderIDDecimalParse(t *testing.T) {
	id, ok := OrderID([]byte("1234"), []byte(`"live"`))
	if !ok {
		t.Fatalf("OrderID failed to parse")
	}
	if id.Uint64() != 1234 {
		t.Fatalf("id = %d, want 1234", id.Uint64())
	}
}

func TestOrderIDCancelledNamespaceSeparation(t *testing.T) {
	live, ok := OrderID([]byte("9"), []byte(`"live"`))
	if !ok {
		t.Fatalf("live OrderID failed")
	}
	cancelled, ok := OrderID([]byte("9"), []byte(`"cancelled"`))
	if !ok {
		t.Fatalf("cancelled OrderID failed")
	}
	if live.Uint64() != 9 {
		t.Fatalf("live id = %d, want 9", live.Uint64())
	}
	if cancelled.Uint64() != 90 {
		t.Fatalf("cancelled id = %d, want 90", cancelled.Uint64())
	}
}

func TestOrderIDRejectsNonDecimal(t *testing.T) {
	if _, ok := OrderID([]byte("12a4"), []byte(`"live"`)); ok {
		t.Fatalf("OrderID should reject non-decimal bytes")
	}
	if _, ok := OrderID(nil, []byte(`"live"`)); ok {
		t.Fatalf("OrderID should reject an empty ordId")
	}
}

func TestDuplicateRingFirstSeenReturnsZero(t *testing.T) {
	r := NewDuplicateRing()
	if count := r.QueryAndRegister(9); count != 0 {
		t.Fatalf("first QueryAndRegister = %d, want 0", count)
	}
}

func TestDuplicateRingRepeatCountsIncrement(t *testing.T) {
	r := NewDuplicateRing()
	r.QueryAndRegister(9)

	if count := r.QueryAndRegister(9); count != 1 {
		t.Fatalf("second QueryAndRegister = %d, want 1", count)
	}
	if count := r.QueryAndRegister(9); count != 2 {
		t.Fatalf("third QueryAndRegister = %d, want 2", count)
	}
}

func TestDuplicateRingFineAccrual(t *testing.T) {
	r := NewDuplicateRing()
	r.QueryAndRegister(9) // first occurrence: no fine, count becomes 1

	count := r.QueryAndRegister(9) // second occurrence
	fine := (uint64(1) << (count - 1)) - 1
	if fine != 0 {
		t.Fatalf("fine on second occurrence = %d, want 0", fine)
	}

	count = r.QueryAndRegister(9) // third occurrence
	fine = (uint64(1) << (count - 1)) - 1
	if fine != 1 {
		t.Fatalf("fine on third occurrence = %d, want 1", fine)
	}
}

func TestDuplicateRingDistinctIDsDoNotCollide(t *testing.T) {
	r := NewDuplicateRing()
	r.QueryAndRegister(9)
	if count := r.QueryAndRegister(90); count != 0 {
		t.Fatalf("distinct id QueryAndRegister = %d, want 0", count)
	}
}

func TestDuplicateRingWrapsAfterCapacity(t *testing.T) {
	r := NewDuplicateRing()
	for i := 0; i < ringSize; i++ {
		r.QueryAndRegister(uint64(i))
	}
	// id 0 has now been evicted by the wrap-around write of id ringSize.
	r.QueryAndRegister(uint64(ringSize))
	if count := r.QueryAndRegister(0); count != 0 {
		t.Fatalf("id 0 after wrap = %d, want 0 (evicted)", count)
	}
}
