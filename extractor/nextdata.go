package extractor

import "github.com/buger/jsonparser"

// itemStructPath locates the video inside the framework page props.
var itemStructPath = []string{"props", "pageProps", "itemInfo", "itemStruct"}

// FromNextData reads the framework data blob
// (<script id="__NEXT_DATA__" type="application/json">) and takes the
// video from props.pageProps.itemInfo.itemStruct.
func FromNextData(html string) (Partial, bool) {
	payload, ok := scriptJSON(html, nextDataScript)
	if !ok {
		return Partial{}, false
	}

	// Walk one segment at a time: every step must be an object.
	node := payload
	for _, key := range itemStructPath {
		next, ok := object(node, key)
		if !ok {
			return Partial{}, false
		}
		node = next
	}
	item := node
	if isEmptyObject(item) {
		return Partial{}, false
	}

	stats, ok := itemCounters(item)
	if !ok {
		return Partial{}, false
	}
	author, ok := authorName(item)
	if !ok {
		return Partial{}, false
	}

	return Partial{
		Title:      stringField(item, "desc"),
		AuthorName: author,
		Stats:      stats,
	}, true
}

// authorName prefers author.uniqueId and falls back to author.nickname;
// empty strings do not count. A missing author is fine, an author that is
// not an object is not.
func authorName(item []byte) (*string, bool) {
	author, t, ok := lookup(item, "author")
	switch {
	case !ok:
		return nil, false
	case t == jsonparser.NotExist:
		return nil, true
	case t != jsonparser.Object:
		return nil, false
	}
	for _, key := range []string{"uniqueId", "nickname"} {
		if s := stringField(author, key); s != nil && *s != "" {
			return s, true
		}
	}
	return nil, true
}
