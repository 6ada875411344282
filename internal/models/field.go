package models

import "sort"

// ComplaintField names a mutable part of a complaint for policy decisions.
type ComplaintField string

const (
	FieldTitle       ComplaintField = "title"
	FieldDescription ComplaintField = "description"
	FieldCategory    ComplaintField = "category"
	FieldPriority    ComplaintField = "priority"
	FieldAttachments ComplaintField = "attachments"
	FieldStatus      ComplaintField = "status"
	FieldAssignee    ComplaintField = "assignee"
	FieldNotes       ComplaintField = "notes"
	FieldFeedback    ComplaintField = "feedback"
)

// AllComplaintFields lists every field the policy resolver knows about.
var AllComplaintFields = []ComplaintField{
	FieldTitle, FieldDescription, FieldCategory, FieldPriority, FieldAttachments,
	FieldStatus, FieldAssignee, FieldNotes, FieldFeedback,
}

// FieldSet is an unordered set of complaint fields.
type FieldSet map[ComplaintField]struct{}

// NewFieldSet builds a set from the given fields.
func NewFieldSet(fields ...ComplaintField) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports whether the field is in the set.
func (s FieldSet) Has(f ComplaintField) bool {
	_, ok := s[f]
	return ok
}

// Missing returns the fields of requested that are not in s, sorted for stable output.
func (s FieldSet) Missing(requested FieldSet) []ComplaintField {
	out := make([]ComplaintField, 0)
	for f := range requested {
		if !s.Has(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Sorted returns the members in lexical order.
func (s FieldSet) Sorted() []ComplaintField {
	out := make([]ComplaintField, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
