package databases

// go generate: mockery --name LocalCameraDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idltd/CCTV-Log/models"
)

const localCameraName = "local_cameras"

// LocalCameraDatabase contains the methods to use with the local cameras
// collection. These are the user's own unsubmitted or pending entries; the
// registry holds everything else.
type LocalCameraDatabase interface {
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Camera, error)
	InsertOne(ctx context.Context, camera models.Camera, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type localCameraDatabase struct {
	db DatabaseHelper
}

// NewLocalCameraDatabase initializes a new instance of local camera database with the provided db connection
func NewLocalCameraDatabase(db DatabaseHelper) LocalCameraDatabase {
	return &localCameraDatabase{
		db: db,
	}
}

func (c *localCameraDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Camera, error) {
	var cameras []models.Camera
	cr, err := c.db.Collection(localCameraName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&cameras)
	if err != nil {
		return nil, err
	}
	return cameras, nil
}

func (c *localCameraDatabase) InsertOne(ctx context.Context, camera models.Camera, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(localCameraName).InsertOne(ctx, camera, opts...)
}

func (c *localCameraDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return c.db.Collection(localCameraName).UpdateOne(ctx, filter, update, opts...)
}

func (c *localCameraDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(localCameraName).DeleteOne(ctx, filter, opts...)
}
