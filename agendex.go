// Package agendex implements an agenda discovery and event extraction
// pipeline for municipal event listings. It crawls an organizer's paginated
// agenda page to discover event-detail URLs, extracts structured event data
// from each page using operator-configured CSS selector rules with an
// LLM-backed fallback pass, merges the two extraction sources under a strict
// field-ownership rule, and creates idempotent ingestion requests for
// downstream moderation.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, goquery/, gemini/).
package agendex
