package databases

// go generate: mockery --name ContactDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idltd/CCTV-Log/models"
)

const contactName = "contacts"

// ContactDatabase contains the methods to use with the contacts collection
type ContactDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Contact, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
}

type contactDatabase struct {
	db DatabaseHelper
}

// NewContactDatabase initializes a new instance of contact database with the provided db connection
func NewContactDatabase(db DatabaseHelper) ContactDatabase {
	return &contactDatabase{
		db: db,
	}
}

func (c *contactDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Contact, error) {
	contact := &models.Contact{}
	err := c.db.Collection(contactName).FindOne(ctx, filter, opts...).Decode(&contact)
	if err != nil {
		return nil, err
	}
	return contact, nil
}

func (c *contactDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return c.db.Collection(contactName).UpdateOne(ctx, filter, update, opts...)
}
