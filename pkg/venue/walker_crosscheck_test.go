package venue

import (
	"testing"

	"github.com/goccy/go-json"
)

// crossCheckCallback captures the raw (quoted) value of every
// recognized field in the top-level object, for comparison against a
// reference JSON decoder. It never recurses into nested values, which
// is sufficient for the flat envelopes this feed uses.
type crossCheckCallback struct {
	buf    []byte
	trie   *FieldTrie
	values map[string]string
}

func (c *crossCheckCallback) IDMap() *FieldTrie { return c.trie }

func (c *crossCheckCallback) ValueForField(id int, begin, end int) {
	if id < 0 {
		return
	}
	c.values[fieldNames[id]] = string(c.buf[begin:end])
}

func (c *crossCheckCallback) WillParseObject(int) ObjectCallback { return nil }
func (c *crossCheckCallback) WillParseArray(int) ArrayCallback   { return nil }
func (c *crossCheckCallback) ObjectFinished()                    {}

var fieldNames = []string{"ordId", "side", "px", "sz", "state", "uTime"}

// TestWalkerMatchesReferenceDecoder feeds the same flat order document
// through the trie-driven walker and through goccy/go-json, and asserts
// the walker's captured raw values agree with what the reference
// decoder parsed — with quotes stripped for the string fields, since
// the walker reports raw (quoted) bytes and goccy/go-json reports
// decoded Go strings.
func TestWalkerMatchesReferenceDecoder(t *testing.T) {
	docs := []string{
		`{"ordId":"1234","side":"buy","px":"100.5","sz":"2","state":"live","uTime":"1700000000000"}`,
		`{"ordId":"7","state":"live"}`,
		`{"ordId":"9","side":"sell","px":"1","sz":"1","state":"cancelled","uTime":"1"}`,
	}

	for _, doc := range docs {
		buf := []byte(doc)
		cb := &crossCheckCallback{buf: buf, trie: BuildFieldTrie(fieldNames), values: map[string]string{}}
		if !ParseObject(buf, cb) {
			t.Fatalf("ParseObject failed on %s", doc)
		}

		var ref map[string]string
		if err := json.Unmarshal(buf, &ref); err != nil {
			t.Fatalf("reference decode failed on %s: %v", doc, err)
		}

		for k, refVal := range ref {
			got, ok := cb.values[k]
			if !ok {
				t.Errorf("%s: walker missing field %q", doc, k)
				continue
			}
			if got != `"`+refVal+`"` {
				t.Errorf("%s: field %q = %q, reference decoded %q", doc, k, got, refVal)
			}
		}
		if len(cb.values) != len(ref) {
			t.Errorf("%s: walker captured %d fields, reference has %d", doc, len(cb.values), len(ref))
		}
	}
}
