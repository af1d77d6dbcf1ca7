// Package collector implements the two ranked snapshot collectors.
//
// BrowserCollector renders each listing page, scrolls it until the document
// height settles, and reads the ranked table. APICollector reads the static
// listing feed and enriches each entry from the detail API. Both normalize
// rows into model.RankedEntry and hand them to a Sink one at a time.
package collector
