package supervisor

import "testing"

func TestLoginFrameTemplate(t *testing.T) {
	got := loginFrame(Credentials{APIKey: "K", Sign: "S"}, 1700000000)
	want := `{"op":"login","args":[{"apiKey":"K","passphrase":"","timestamp":1700000000,"sign":"S"}]}`
	if got != want {
		t.Fatalf("loginFrame = %q, want %q", got, want)
	}
}

func TestSubscribeFrameOmitsEmptyInstID(t *testing.T) {
	got := subscribeFrame(SubscribeTemplate{Channel: "orders", InstType: "ANY"})
	want := `{"op":"subscribe","args":[{"channel":"orders","instType":"ANY"}]}`
	if got != want {
		t.Fatalf("subscribeFrame = %q, want %q", got, want)
	}
}

func TestSubscribeFrameIncludesInstID(t *testing.T) {
	got := subscribeFrame(SubscribeTemplate{Channel: "orders", InstType: "SWAP", InstID: "BTC-USDT"})
	want := `{"op":"subscribe","args":[{"channel":"orders","instType":"SWAP","instId":"BTC-USDT"}]}`
	if got != want {
		t.Fatalf("subscribeFrame = %q, want %q", got, want)
	}
}
