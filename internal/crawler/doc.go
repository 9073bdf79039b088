// Package crawler fetches retailer product pages politely: robots.txt,
// per-site page caps and deadlines, bounded retries, and an optional
// headless-rendering escalation for JS-only storefronts.
package crawler
