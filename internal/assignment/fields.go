package assignment

import (
	"strconv"

	"github.com/erazemk/zimmet/internal/model"
)

// RegistryVersion identifies the field set below. Bump it whenever a field is
// added, removed or renamed; every history entry records the version it was
// computed with.
const RegistryVersion = 1

// Snapshot is the tracked state of one assignment and the item it references.
type Snapshot struct {
	Assignment model.Assignment
	Item       model.Item
}

// Field names. Item fields are namespaced with "item.".
const (
	FieldPersonnel      = "personnel"
	FieldItem           = "item"
	FieldStatus         = "status"
	FieldAssignmentDate = "assignmentDate"
	FieldReturnDate     = "returnDate"
	FieldNotes          = "notes"
	FieldSignedForm     = "signedForm"

	FieldItemName         = "item.name"
	FieldItemCategory     = "item.category"
	FieldItemBrand        = "item.brand"
	FieldItemModel        = "item.model"
	FieldItemSerialNumber = "item.serialNumber"
	FieldItemAssetTag     = "item.assetTag"
)

// field reads the canonical value of one tracked field. The empty string
// means the field is unset.
type field struct {
	name string
	get  func(s *Snapshot) string
	set  func(s *Snapshot, v string)
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func parseID(v string) int64 {
	id, _ := strconv.ParseInt(v, 10, 64)
	return id
}

func parseDate(v string) model.Date {
	if v == "" {
		return model.Date{}
	}
	d, _ := model.ParseDate(v)
	return d
}

// registry is the ordered list of tracked fields. Changes are emitted in this
// order.
var registry = []field{
	{
		name: FieldPersonnel,
		get:  func(s *Snapshot) string { return formatID(s.Assignment.PersonnelID) },
		set:  func(s *Snapshot, v string) { s.Assignment.PersonnelID = parseID(v) },
	},
	{
		name: FieldItem,
		get:  func(s *Snapshot) string { return formatID(s.Assignment.ItemID) },
		set:  func(s *Snapshot, v string) { s.Assignment.ItemID = parseID(v) },
	},
	{
		name: FieldStatus,
		get:  func(s *Snapshot) string { return string(s.Assignment.Status) },
		set:  func(s *Snapshot, v string) { s.Assignment.Status = model.Status(v) },
	},
	{
		name: FieldAssignmentDate,
		get:  func(s *Snapshot) string { return s.Assignment.AssignmentDate.String() },
		set:  func(s *Snapshot, v string) { s.Assignment.AssignmentDate = parseDate(v) },
	},
	{
		name: FieldReturnDate,
		get:  func(s *Snapshot) string { return s.Assignment.ReturnDate.String() },
		set:  func(s *Snapshot, v string) { s.Assignment.ReturnDate = parseDate(v) },
	},
	{
		name: FieldNotes,
		get:  func(s *Snapshot) string { return s.Assignment.Notes },
		set:  func(s *Snapshot, v string) { s.Assignment.Notes = v },
	},
	{
		name: FieldSignedForm,
		get:  func(s *Snapshot) string { return s.Assignment.SignedForm },
		set:  func(s *Snapshot, v string) { s.Assignment.SignedForm = v },
	},
	{
		name: FieldItemName,
		get:  func(s *Snapshot) string { return s.Item.Name },
		set:  func(s *Snapshot, v string) { s.Item.Name = v },
	},
	{
		name: FieldItemCategory,
		get:  func(s *Snapshot) string { return s.Item.Category },
		set:  func(s *Snapshot, v string) { s.Item.Category = v },
	},
	{
		name: FieldItemBrand,
		get:  func(s *Snapshot) string { return s.Item.Brand },
		set:  func(s *Snapshot, v string) { s.Item.Brand = v },
	},
	{
		name: FieldItemModel,
		get:  func(s *Snapshot) string { return s.Item.Model },
		set:  func(s *Snapshot, v string) { s.Item.Model = v },
	},
	{
		name: FieldItemSerialNumber,
		get:  func(s *Snapshot) string { return s.Item.SerialNumber },
		set:  func(s *Snapshot, v string) { s.Item.SerialNumber = v },
	},
	{
		name: FieldItemAssetTag,
		get:  func(s *Snapshot) string { return s.Item.AssetTag },
		set:  func(s *Snapshot, v string) { s.Item.AssetTag = v },
	},
}

// FieldNames returns the registered field names in registry order.
func FieldNames() []string {
	names := make([]string, len(registry))
	for i, f := range registry {
		names[i] = f.name
	}
	return names
}

// Values returns the canonical value of every registered field of s.
func Values(s Snapshot) map[string]string {
	out := make(map[string]string, len(registry))
	for _, f := range registry {
		out[f.name] = f.get(&s)
	}
	return out
}
