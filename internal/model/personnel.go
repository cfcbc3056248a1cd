package model

import "time"

// Personnel is a person that items can be assigned to.
type Personnel struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Department string     `json:"department,omitempty"`
	RegistryNo string     `json:"registryNo,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}
