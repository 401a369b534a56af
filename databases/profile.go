package databases

// go generate: mockery --name ProfileDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idltd/CCTV-Log/models"
)

const profileName = "profile"

// ProfileDatabase contains the methods to use with the single-document
// profile collection
type ProfileDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Profile, error)
	ReplaceOne(ctx context.Context, filter interface{}, profile models.Profile, opts ...*options.ReplaceOptions) error
}

type profileDatabase struct {
	db DatabaseHelper
}

// NewProfileDatabase initializes a new instance of profile database with the provided db connection
func NewProfileDatabase(db DatabaseHelper) ProfileDatabase {
	return &profileDatabase{
		db: db,
	}
}

func (c *profileDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Profile, error) {
	profile := &models.Profile{}
	err := c.db.Collection(profileName).FindOne(ctx, filter, opts...).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (c *profileDatabase) ReplaceOne(ctx context.Context, filter interface{}, profile models.Profile, opts ...*options.ReplaceOptions) error {
	return c.db.Collection(profileName).ReplaceOne(ctx, filter, profile, opts...)
}
