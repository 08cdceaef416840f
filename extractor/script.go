package extractor

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/buger/jsonparser"
	"golang.org/x/net/html"
)

var (
	sigiStateScript = cascadia.MustCompile(`script#SIGI_STATE`)
	nextDataScript  = cascadia.MustCompile(`script#__NEXT_DATA__[type="application/json"]`)
)

// scriptJSON returns the body of the first <script> matched by m, provided
// it is well-formed JSON.
func scriptJSON(rawHTML string, m goquery.Matcher) ([]byte, bool) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, false
	}
	sel := goquery.NewDocumentFromNode(root).FindMatcher(m).First()
	if sel.Length() == 0 {
		return nil, false
	}
	payload := []byte(strings.TrimSpace(sel.Text()))
	if !json.Valid(payload) {
		return nil, false
	}
	return payload, true
}

// lookup walks keys into data. A missing key is not a failure: it returns
// NotExist with ok=true. ok=false means the document could not be walked.
func lookup(data []byte, keys ...string) ([]byte, jsonparser.ValueType, bool) {
	v, t, _, err := jsonparser.Get(data, keys...)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, jsonparser.NotExist, true
	}
	if err != nil {
		return nil, jsonparser.NotExist, false
	}
	return v, t, true
}

// object returns the value at keys when it is a JSON object.
func object(data []byte, keys ...string) ([]byte, bool) {
	v, t, ok := lookup(data, keys...)
	if !ok || t != jsonparser.Object {
		return nil, false
	}
	return v, true
}

// stringField returns the unescaped string at keys, or nil when the value
// is missing or not a string.
func stringField(data []byte, keys ...string) *string {
	v, t, ok := lookup(data, keys...)
	if !ok || t != jsonparser.String {
		return nil
	}
	s, err := jsonparser.ParseString(v)
	if err != nil {
		return nil
	}
	return &s
}

var errStopIteration = errors.New("stop iteration")

// firstValue returns the first member value of obj in document order.
func firstValue(obj []byte) ([]byte, jsonparser.ValueType, bool) {
	var (
		value []byte
		typ   jsonparser.ValueType
		found bool
	)
	err := jsonparser.ObjectEach(obj, func(_ []byte, v []byte, t jsonparser.ValueType, _ int) error {
		value, typ, found = v, t, true
		return errStopIteration
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, jsonparser.NotExist, false
	}
	return value, typ, found
}

// isEmptyObject reports whether obj has no members.
func isEmptyObject(obj []byte) bool {
	_, _, found := firstValue(obj)
	return !found
}
