package model

import "time"

// Item is an individually tracked physical asset. DisplayStatus and its label are derived
// from the item's assignments at read time and never stored.
type Item struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Category      string        `json:"category,omitempty"`
	Brand         string        `json:"brand,omitempty"`
	Model         string        `json:"model,omitempty"`
	SerialNumber  string        `json:"serialNumber,omitempty"`
	AssetTag      string        `json:"assetTag"`
	DisplayStatus DisplayStatus `json:"displayStatus,omitempty"`
	DisplayLabel  string        `json:"displayStatusLabel,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	DeletedAt     *time.Time    `json:"deletedAt,omitempty"`
}

// SetDisplayStatus sets the derived display status and its label.
func (i *Item) SetDisplayStatus(d DisplayStatus) {
	i.DisplayStatus = d
	i.DisplayLabel = d.Label()
}
