// Package domain models the disaster dashboard's data: geo-anchored text
// items, the classifications a remote model assigns to them, and the
// ground-truth records (disasters, relief centers, emergency reports) shown
// alongside them on the map.
//
// # Enrichment
//
// A [TextItem] is enriched by two independent classification calls:
//
//	disaster model  → [Prediction]  (label, score, IsDisaster)
//	sentiment model → [Sentiment]   (label, score)
//
// Each call's outcome is kept in its own tagged [Result] so callers can tell
// "not yet computed" (pending) from "computed, failed" and "computed,
// succeeded". A failed call never removes the item: the enriched output has
// exactly one [EnrichedItem] per input item, in input order.
//
// # Classification responses
//
// Inference endpoints return a ranked list of label/score pairs. The
// highest-scoring entry wins. A prediction is flagged as a disaster when the
// winning label matches one of the configured disaster labels
// (case-insensitive). Sentiment-style models emit labels such as
// "NEG"/"NEU"/"POS" or "LABEL_0".."LABEL_2", so the disaster label set is
// configuration rather than a constant.
//
// # Ground truth
//
//	Disaster severity: 1 (minor) … 5 (catastrophic)
//	Disaster types:    earthquake, flood, hurricane, wildfire, tornado
//	Disaster status:   active, contained, resolved
//	Center status:     operational, full, closed
//	Supplies:          percentage of stock remaining, 0–100
package domain
