package model

// Preferences are per-user UI settings. Pointer fields mark values a layer
// leaves unset.
type Preferences struct {
	PageSize    *int    `json:"pageSize,omitempty"`
	DefaultSort *string `json:"defaultSort,omitempty"`
	Language    *string `json:"language,omitempty"`
}

// DefaultPreferences returns the built-in preference values.
func DefaultPreferences() Preferences {
	pageSize := 25
	sort := "-assignmentDate"
	lang := "tr"
	return Preferences{PageSize: &pageSize, DefaultSort: &sort, Language: &lang}
}

// MergePreferences applies layers in order; later layers win for every field
// they set.
func MergePreferences(layers ...Preferences) Preferences {
	var out Preferences
	for _, l := range layers {
		if l.PageSize != nil {
			v := *l.PageSize
			out.PageSize = &v
		}
		if l.DefaultSort != nil {
			v := *l.DefaultSort
			out.DefaultSort = &v
		}
		if l.Language != nil {
			v := *l.Language
			out.Language = &v
		}
	}
	return out
}
