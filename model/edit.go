package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

// Edit records one change made through the editing interface.
type Edit struct {
	Id         primitive.ObjectID `json:"_id" bson:"_id"`
	Editor     string             `json:"editor" bson:"editor"`
	Action     string             `json:"action" bson:"action"`
	Table      string             `json:"table" bson:"table"`
	RowID      int64              `json:"row_id" bson:"row_id"`
	Values     map[string]any     `json:"values" bson:"values"`
	RemoteAddr string             `json:"remote_addr" bson:"remote_addr"`
	EditedAt   string             `json:"edited_at" bson:"edited_at"`
}
