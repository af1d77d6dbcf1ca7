// Package browser drives a headless Chrome through the DevTools Protocol.
//
// The Browser interface is what the snapshot collector depends on. Page is
// the production implementation:
//   - Launch starts Chrome (or attaches to a running one) and opens a page target
//   - Session carries CDP request/response pairs over one websocket
//   - Page translates Browser calls into Runtime.evaluate and Page.navigate
package browser
