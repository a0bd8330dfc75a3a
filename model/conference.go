package model

import (
	"strconv"
	"strings"
)

type Conference struct {
	ID           int         `json:"conference"`
	ParentID     *int        `json:"parent_id,omitempty"`
	Parent       *Conference `json:"parent,omitempty"`
	Name         string      `json:"name"`
	Abbreviation string      `json:"abbreviation"`
	Description  string      `json:"description"`
	URL          string      `json:"url"`
	TypeID       *int        `json:"type_id,omitempty"`
	TagIDs       []int       `json:"-"`
	Tags         []string    `json:"tags"`
}

// Label is how a conference is listed in pickers, e.g. "CCS: Computer and Communications Security".
func (c Conference) Label() string {
	return c.Abbreviation + ": " + c.Name
}

func (c Conference) HasTag(name string) bool {
	for _, tag := range c.Tags {
		if tag == name {
			return true
		}
	}
	return false
}

// ParseTagIDs reads the comma-separated tag id list stored with a conference.
func ParseTagIDs(s string) []int {
	ids := []int{}
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func JoinTagIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ",")
}
