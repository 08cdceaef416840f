package extractor

import "github.com/buger/jsonparser"

// FromSIGIState reads the server-rendered global state blob
// (<script id="SIGI_STATE">). The video is the first entry of ItemModule,
// in document order; its desc and author fields are plain strings.
func FromSIGIState(html string) (Partial, bool) {
	payload, ok := scriptJSON(html, sigiStateScript)
	if !ok {
		return Partial{}, false
	}

	module, ok := object(payload, "ItemModule")
	if !ok {
		return Partial{}, false
	}
	item, t, found := firstValue(module)
	if !found || t != jsonparser.Object {
		return Partial{}, false
	}

	stats, ok := itemCounters(item)
	if !ok {
		return Partial{}, false
	}

	return Partial{
		Title:      stringField(item, "desc"),
		AuthorName: stringField(item, "author"),
		Stats:      stats,
	}, true
}
