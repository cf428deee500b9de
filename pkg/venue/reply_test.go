package venue

import "testing"

func TestExtractAndWriteReplySingleOrder(t *testing.T) {
	msg := []byte(`{"data":[{"ordId":"1234","side":"buy","px":"100.5","sz":"2","state":"live","uTime":"1700000000000"}]}`)

	ex := NewExtractor()
	if !ex.Extract(msg) {
		t.Fatalf("Extract failed")
	}
	records := ex.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	out := newOutputMessage()
	WriteReply(out, &records[0], "K", "S")

	want := `{"orderId":1234,"side":"buy","price":"100.5","volume":"2","state":"live","uTime":"1700000000000","apiKey":"K","sign":"S"}`
	if got := string(out.Payload()); got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestExtractAndWriteReplyPartialFields(t *testing.T) {
	msg := []byte(`{"data":[{"ordId":"7","state":"live"}]}`)

	ex := NewExtractor()
	if !ex.Extract(msg) {
		t.Fatalf("Extract failed")
	}
	records := ex.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	out := newOutputMessage()
	WriteReply(out, &records[0], "K", "S")

	want := `{"orderId":7,"state":"live","apiKey":"K","sign":"S"}`
	if got := string(out.Payload()); got != want {
		t.Fatalf("reply = %q, want %q", got, want)
	}
}

func TestExtractMultipleOrders(t *testing.T) {
	msg := []byte(`{"data":[{"ordId":"1","side":"buy"},{"ordId":"2","side":"sell"}]}`)

	ex := NewExtractor()
	if !ex.Extract(msg) {
		t.Fatalf("Extract failed")
	}
	records := ex.Records()
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if string(records[0].Fields[FieldOrderID]) != "1" || string(records[1].Fields[FieldOrderID]) != "2" {
		t.Fatalf("unexpected ordId slices: %q %q", records[0].Fields[FieldOrderID], records[1].Fields[FieldOrderID])
	}
}

func TestExtractReusesExtractorAcrossMessages(t *testing.T) {
	ex := NewExtractor()

	if !ex.Extract([]byte(`{"data":[{"ordId":"1"},{"ordId":"2"},{"ordId":"3"}]}`)) {
		t.Fatalf("first Extract failed")
	}
	if len(ex.Records()) != 3 {
		t.Fatalf("first message records = %d, want 3", len(ex.Records()))
	}

	if !ex.Extract([]byte(`{"data":[{"ordId":"9"}]}`)) {
		t.Fatalf("second Extract failed")
	}
	records := ex.Records()
	if len(records) != 1 || string(records[0].Fields[FieldOrderID]) != "9" {
		t.Fatalf("second message records = %v", records)
	}
}

func TestExtractMalformedMessageFails(t *testing.T) {
	ex := NewExtractor()
	if ex.Extract([]byte(`{"data":[{"ordId":"1"`)) {
		t.Fatalf("Extract should fail on truncated document")
	}
}
