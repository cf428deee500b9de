package supervisor

import "fmt"

// Credentials are the static apiKey/sign pair every reply and the login
// frame carry.
type Credentials struct {
	APIKey string
	Sign   string
}

// SubscribeTemplate holds the channel/instType/instId pieces a
// subscribe frame is built from; instId is omitted from the rendered
// frame when empty.
type SubscribeTemplate struct {
	Channel  string
	InstType string
	InstID   string
}

// loginFrame renders the login request sent once per connection, ahead
// of any subscribe request.
func loginFrame(cred Credentials, timestampUnix int64) string {
	return fmt.Sprintf(
		`{"op":"login","args":[{"apiKey":"%s","passphrase":"","timestamp":%d,"sign":"%s"}]}`,
		cred.APIKey, timestampUnix, cred.Sign,
	)
}

// subscribeFrame renders the channel subscription request, omitting
// instId when the template leaves it blank (a wildcard subscription).
func subscribeFrame(t SubscribeTemplate) string {
	if t.InstID == "" {
		return fmt.Sprintf(
			`{"op":"subscribe","args":[{"channel":"%s","instType":"%s"}]}`,
			t.Channel, t.InstType,
		)
	}
	return fmt.Sprintf(
		`{"op":"subscribe","args":[{"channel":"%s","instType":"%s","instId":"%s"}]}`,
		t.Channel, t.InstType, t.InstID,
	)
}
