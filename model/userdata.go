package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

type UserData struct {
	Id             primitive.ObjectID `json:"_id" bson:"_id"`
	Login          string             `json:"login" bson:"login,omitempty"`
	HashedPassword string             `json:"password_hash" bson:"password_hash,omitempty"`
	Role           string             `json:"role" bson:"role,omitempty"`
}

func (u UserData) CanEdit() bool {
	return u.Role == RoleEditor || u.Role == RoleAdmin
}
