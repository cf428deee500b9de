package venue

// Field ids for the inner order object, matching the bit positions of
// Record.Mask and the index into DataFieldNames / outputFieldNames.
const (
	FieldOrderID = iota
	FieldSide
	FieldPrice
	FieldVolume
	FieldState
	FieldUTime
	numFields = 6
)

// DataFieldNames are the inner-object keys the venue's order envelope
// carries, in field-id order.
var DataFieldNames = []string{"ordId", "side", "px", "sz", "state", "uTime"}

// outputFieldNames are the corresponding reply keys, pre-quoted so they
// can be appended to the output buffer with no extra formatting.
var outputFieldNames = [numFields]string{
	`"orderId"`, `"side"`, `"price"`, `"volume"`, `"state"`, `"uTime"`,
}

var dataFieldTrie = BuildFieldTrie(DataFieldNames)
var quoteFieldTrie = BuildFieldTrie([]string{"data"})

// maxRecordsPerMessage is the slot count of a RecordSet. The last slot
// is always the record being filled, so at most maxRecordsPerMessage-1
// inner order objects of one inbound message are committed; once that
// many are, later objects in the same message are captured into the
// last slot and discarded, trading a rare dropped record for a
// fixed-size, allocation-free set.
const maxRecordsPerMessage = 64

// Record is a captured inner order object: up to six (begin,end) byte
// slices — here represented as sub-slices of the inbound buffer, which
// is equivalent and idiomatic in Go — plus a presence mask.
type Record struct {
	Fields [numFields][]byte
	Mask   uint8
}

func (r *Record) reset() {
	r.Mask = 0
}

// Has reports whether field id was present in this record.
func (r *Record) Has(id int) bool {
	return r.Mask&(1<<uint(id)) != 0
}

// RecordSet is a fixed-capacity append target for one message's
// extracted order records.
type RecordSet struct {
	records [maxRecordsPerMessage]Record
	count   int
}

// Records returns the records committed so far.
func (s *RecordSet) Records() []Record {
	return s.records[:s.count]
}

// Extractor walks the venue's envelope — {"data":[{...},{...},...]} —
// and captures one Record per inner order object. It is constructed
// once per connection and reused message after message: its three
// callback layers (outer object, array, inner object) are struct fields
// with stable addresses, so driving the walker allocates nothing beyond
// the Extractor itself.
type Extractor struct {
	buf   []byte
	set   RecordSet
	outer quoteCallback
	arr   dataArrayCallback
	obj   dataObjectCallback
}

// NewExtractor returns a ready-to-use Extractor.
func NewExtractor() *Extractor {
	e := &Extractor{}
	e.outer.ex = e
	e.arr.ex = e
	e.obj.ex = e
	return e
}

// Extract parses buf as the venue's envelope and returns the committed
// records via Records. It returns false if the document was malformed
// (the walker hit ParseFailure); a malformed frame is non-fatal to the
// caller, which should simply skip it.
func (e *Extractor) Extract(buf []byte) bool {
	e.buf = buf
	e.set.count = 0
	e.obj.cur = &e.set.records[0]
	e.obj.cur.reset()
	return ParseObject(buf, &e.outer)
}

// Records returns the records captured by the most recent Extract call.
func (e *Extractor) Records() []Record {
	return e.set.Records()
}

// quoteCallback is the outer-object layer: it only cares about the
// "data" array.
type quoteCallback struct {
	ex *Extractor
}

func (q *quoteCallback) IDMap() *FieldTrie                    { return quoteFieldTrie }
func (q *quoteCallback) ValueForField(int, int, int)           {}
func (q *quoteCallback) WillParseObject(int) ObjectCallback    { return nil }
func (q *quoteCallback) ObjectFinished()                       {}
func (q *quoteCallback) WillParseArray(fieldID int) ArrayCallback {
	if fieldID == 0 {
		return &q.ex.arr
	}
	return nil
}

// dataArrayCallback is the array layer: every element is an inner order
// object.
type dataArrayCallback struct {
	ex *Extractor
}

func (a *dataArrayCallback) WillParseArray() ArrayCallback   { return nil }
func (a *dataArrayCallback) WillParseObject() ObjectCallback { return &a.ex.obj }
func (a *dataArrayCallback) NextValue(int, int)              {}
func (a *dataArrayCallback) ArrayFinished()                   {}

// dataObjectCallback is the inner-object layer: it captures the six
// recognized fields into the current Record and commits it on
// objectFinished if at least one field was present.
type dataObjectCallback struct {
	ex  *Extractor
	cur *Record
}

func (o *dataObjectCallback) IDMap() *FieldTrie                 { return dataFieldTrie }
func (o *dataObjectCallback) WillParseObject(int) ObjectCallback { return nil }
func (o *dataObjectCallback) WillParseArray(int) ArrayCallback   { return nil }

func (o *dataObjectCallback) ValueForField(fieldID int, begin, end int) {
	if fieldID < 0 {
		return
	}
	if fieldID == FieldOrderID {
		// ordId is always a quoted string on this feed; trim the outer
		// quotes so the reply can re-emit the digits bare.
		begin++
		end--
	}
	o.cur.Fields[fieldID] = o.ex.buf[begin:end]
	o.cur.Mask |= 1 << uint(fieldID)
}

func (o *dataObjectCallback) ObjectFinished() {
	set := &o.ex.set
	if o.cur.Mask != 0 {
		if set.count < len(set.records)-1 {
			set.count++
		}
		o.cur = &set.records[set.count]
	}
	o.cur.reset()
}

// WriteReply appends one reply payload to out: present fields from bit
// 0 to bit 5, verbatim raw bytes, followed by the static apiKey/sign
// suffix. Every committed Record has at least one bit set, so the
// leading '{' always flips to ',' before the suffix is appended.
func WriteReply(out *OutputMessage, rec *Record, apiKey, sign string) {
	prefix := byte('{')
	for id := 0; id < numFields; id++ {
		if !rec.Has(id) {
			continue
		}
		out.WriteByte(prefix)
		prefix = ','
		out.WriteString(outputFieldNames[id])
		out.WriteByte(':')
		out.Write(rec.Fields[id])
	}
	out.WriteString(`,"apiKey":"`)
	out.WriteString(apiKey)
	out.WriteString(`","sign":"`)
	out.WriteString(sign)
	out.WriteString(`"}`)
}
