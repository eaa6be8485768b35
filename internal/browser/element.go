package browser

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// element is a node handle bound to the session that found it.
type element struct {
	session *Session
	node    *cdp.Node
}

// Text returns the visible text content of the element.
func (e *element) Text(ctx context.Context) (string, error) {
	opCtx, cancel := e.session.opContext(ctx)
	defer cancel()

	var text string
	err := chromedp.Run(opCtx,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID),
	)
	return text, err
}

// Attribute returns the value of the named attribute and whether it exists.
func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	opCtx, cancel := e.session.opContext(ctx)
	defer cancel()

	var value string
	var ok bool
	err := chromedp.Run(opCtx,
		chromedp.AttributeValue([]cdp.NodeID{e.node.NodeID}, name, &value, &ok, chromedp.ByNodeID),
	)
	return value, ok, err
}
