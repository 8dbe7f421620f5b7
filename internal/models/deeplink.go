package models

// ContentItem is one ltiResourceLink entry of a deep-linking response.
type ContentItem struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Custom map[string]string `json:"custom,omitempty"`
}

// ContentItemTypeResourceLink is the only content item type this tool
// offers.
const ContentItemTypeResourceLink = "ltiResourceLink"

// NewResourceLinkItem builds the content item for one selected catalog
// resource. The platform echoes custom.value back on the next launch.
func NewResourceLinkItem(name, value string) ContentItem {
	return ContentItem{
		Type:   ContentItemTypeResourceLink,
		Title:  name,
		Custom: map[string]string{"value": value},
	}
}
