// Package media defines the asset record exchanged between pipeline stages.
//
// An Asset is produced once by the strategy that fetched, synthesized or
// passed it through and is treated as read-only afterwards. Sub-packages wrap
// the media engine's inspection tooling.
package media
