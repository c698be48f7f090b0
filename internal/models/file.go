// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package models

// Content-type identifiers for related-content references.
//
// These key the access strategy registry: each identifier resolves to the
// strategy that decides whether a principal may see documents of that family.
const (
	ContentTypeCourse    = "course"
	ContentTypeEvent     = "event"
	ContentTypeCommunity = "community"
)

// RelatedContent references a document that a protected file belongs to.
// Access to the file can be granted transitively through access to the
// referenced document (course membership, event staff, and so on).
type RelatedContent struct {
	// ContentType identifies the document family and selects the strategy.
	ContentType string `json:"content_type"`

	// DocumentID is the identifier of the target document.
	DocumentID string `json:"document_id"`
}

// ProtectedFile is a stored file whose visibility is decided by the
// file access authorizer.
//
// Invariants:
//   - OwnerID == "" marks a legacy file with no recorded owner; such files
//     are treated as publicly accessible (explicit compatibility rule).
//   - A file with an owner and no related content is visible to the owner only.
type ProtectedFile struct {
	ID      string           `json:"id"`
	Name    string           `json:"name,omitempty"`
	OwnerID string           `json:"owner_id,omitempty"`
	Related []RelatedContent `json:"related,omitempty"`
}

// HasOwner reports whether the file carries an owner reference.
func (f *ProtectedFile) HasOwner() bool {
	return f.OwnerID != ""
}

// OwnedBy reports whether the file is owned by the given principal.
// An unowned file is owned by nobody.
func (f *ProtectedFile) OwnedBy(principalID string) bool {
	return f.OwnerID != "" && f.OwnerID == principalID
}
