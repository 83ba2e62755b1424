package constants

// LineItemType discriminates quote_line_items rows.
type LineItemType string

const (
	LineItemLabour    LineItemType = "labour"
	LineItemMaterials LineItemType = "materials"
	LineItemFee       LineItemType = "fee"
)

// PlaceholderMarker is embedded in the notes of synthetic line items inserted
// only so a quote is never empty. Eviction matches on this exact string, so it
// must stay stable across releases.
const PlaceholderMarker = "Placeholder"

// NeedsReviewNote annotates line items derived from free-text scope of work.
const NeedsReviewNote = "Needs review"

// NeedsPricingNote annotates material lines we could not price.
const NeedsPricingNote = "Needs pricing"
