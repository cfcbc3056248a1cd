package assignment

import "github.com/erazemk/zimmet/internal/model"

// Patch carries the fields an update proposes to change. Nil fields are left
// as they are. A ReturnDate pointing at the zero Date clears it.
type Patch struct {
	PersonnelID    *int64
	ItemID         *int64
	Status         *model.Status
	AssignmentDate *model.Date
	ReturnDate     *model.Date
	Notes          *string
	SignedForm     *string
	Item           ItemPatch
}

// ItemPatch carries proposed changes to the referenced item.
type ItemPatch struct {
	Name         *string
	Category     *string
	Brand        *string
	Model        *string
	SerialNumber *string
	AssetTag     *string
}

// Empty reports whether the item patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Brand == nil &&
		p.Model == nil && p.SerialNumber == nil && p.AssetTag == nil
}

// Apply returns s with the patch applied. Swapping the item reference only
// changes the id: the caller loads the new item into the snapshot first.
func (p Patch) Apply(s Snapshot) Snapshot {
	next := s
	a := &next.Assignment
	if p.PersonnelID != nil {
		a.PersonnelID = *p.PersonnelID
	}
	if p.ItemID != nil {
		a.ItemID = *p.ItemID
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AssignmentDate != nil {
		a.AssignmentDate = *p.AssignmentDate
	}
	if p.ReturnDate != nil {
		a.ReturnDate = *p.ReturnDate
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.SignedForm != nil {
		a.SignedForm = *p.SignedForm
	}

	it := &next.Item
	if p.Item.Name != nil {
		it.Name = *p.Item.Name
	}
	if p.Item.Category != nil {
		it.Category = *p.Item.Category
	}
	if p.Item.Brand != nil {
		it.Brand = *p.Item.Brand
	}
	if p.Item.Model != nil {
		it.Model = *p.Item.Model
	}
	if p.Item.SerialNumber != nil {
		it.SerialNumber = *p.Item.SerialNumber
	}
	if p.Item.AssetTag != nil {
		it.AssetTag = *p.Item.AssetTag
	}
	return next
}
