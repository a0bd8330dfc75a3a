package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"secconfdb/config"
	"secconfdb/model"
)

const (
	USERS_COLLECTION = "users"
	EDITS_COLLECTION = "edits"
)

func DBInit(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, error) {
	clientOptions := options.Client().ApplyURI(cfg.ConnString)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to the db: %v", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("db is not available: %v", err)
	}

	return client.Database(cfg.Database), nil
}

// Accounts keeps editor accounts and the history of their edits.
type Accounts struct {
	users *mongo.Collection
	edits *mongo.Collection
}

func NewAccounts(db *mongo.Database) *Accounts {
	return &Accounts{
		users: db.Collection(USERS_COLLECTION),
		edits: db.Collection(EDITS_COLLECTION),
	}
}

func (a *Accounts) GetUserData(ctx context.Context, userLogin string) (model.UserData, error) {
	var user model.UserData
	cur, err := a.users.Find(ctx, bson.D{primitive.E{Key: "login", Value: userLogin}})
	if err != nil {
		return model.UserData{}, fmt.Errorf("server side problem occured while reading user data from database: %v", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		err := cur.Decode(&user)
		if err != nil {
			return model.UserData{}, fmt.Errorf("server side problem occured while reading user data from database: %v", err)
		}
	}

	if err := cur.Err(); err != nil {
		return model.UserData{}, fmt.Errorf("server side problem occured while reading user data from database: %v", err)
	}

	if user.Login == "" {
		return model.UserData{}, fmt.Errorf("user %v: %w", userLogin, ErrNotFound)
	}

	return user, nil
}

// Authenticate checks a login and password against the stored bcrypt hash.
// Unknown users and wrong passwords are both ErrUnauthorized.
func (a *Accounts) Authenticate(ctx context.Context, login, password string) (model.UserData, error) {
	user, err := a.GetUserData(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return model.UserData{}, fmt.Errorf("unknown user %v: %w", login, ErrUnauthorized)
	}
	if err != nil {
		return model.UserData{}, err
	}

	if !IsPasswordHashCorrect(user.HashedPassword, password) {
		return model.UserData{}, fmt.Errorf("invalid password for %v: %w", login, ErrUnauthorized)
	}

	return user, nil
}

func (a *Accounts) CreateUser(ctx context.Context, login, password, role string) (model.UserData, error) {
	if _, err := a.GetUserData(ctx, login); err == nil {
		return model.UserData{}, fmt.Errorf("user %v already exists", login)
	} else if !errors.Is(err, ErrNotFound) {
		return model.UserData{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return model.UserData{}, err
	}

	user := model.UserData{
		Id:             primitive.NewObjectID(),
		Login:          login,
		HashedPassword: hash,
		Role:           role,
	}
	if _, err := a.users.InsertOne(ctx, user); err != nil {
		return model.UserData{}, fmt.Errorf("cannot write user %v: %v", login, err)
	}

	return user, nil
}

func (a *Accounts) RecordEdit(ctx context.Context, edit model.Edit) error {
	if edit.Id.IsZero() {
		edit.Id = primitive.NewObjectID()
	}
	if edit.EditedAt == "" {
		edit.EditedAt = time.Now().Format(time.RFC3339)
	}

	if _, err := a.edits.InsertOne(ctx, edit); err != nil {
		return fmt.Errorf("cannot record edit of %v: %v", edit.Table, err)
	}
	return nil
}

func IsPasswordHashCorrect(dbHash, pass string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(dbHash), []byte(pass))
	return err == nil
}

func HashPassword(pass string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("cannot hash password: %v", err)
	}
	return string(hash), nil
}
