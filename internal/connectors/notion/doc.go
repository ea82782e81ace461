// Package notion verifies Notion integration tokens using the notionapi SDK.
package notion
