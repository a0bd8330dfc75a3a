package model

type Location struct {
	ID         int    `json:"location_id"`
	Name       string `json:"location"`
	Region     string `json:"region,omitempty"`
	RegionCode string `json:"region_code,omitempty"`
	Country    string `json:"country"`
}

func (l Location) Where() string {
	return joinPlace(l.Name, l.Region, l.Country)
}

type MeetingType struct {
	ID   int    `json:"type_id"`
	Name string `json:"name"`
}

type Tag struct {
	ID   int    `json:"tag"`
	Name string `json:"name"`
}

// Table is the content of a simple lookup table: a key column followed by
// text columns.
type Table struct {
	Name    string     `json:"table"`
	Key     string     `json:"key"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
