package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/idltd/CCTV-Log/models"
)

const incidentName = "incidents"

// IncidentDatabase contains the methods to use with the incidents collection
type IncidentDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Incident, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Incident, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, incident models.Incident, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (c *incidentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Incident, error) {
	incident := &models.Incident{}
	err := c.db.Collection(incidentName).FindOne(ctx, filter, opts...).Decode(&incident)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (c *incidentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Incident, error) {
	var incidents []models.Incident
	cr, err := c.db.Collection(incidentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&incidents)
	if err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *incidentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(incidentName).CountDocuments(ctx, filter, opts...)
}

func (c *incidentDatabase) InsertOne(ctx context.Context, incident models.Incident, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	return c.db.Collection(incidentName).InsertOne(ctx, incident, opts...)
}

func (c *incidentDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (int64, error) {
	return c.db.Collection(incidentName).UpdateOne(ctx, filter, update, opts...)
}

func (c *incidentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(incidentName).DeleteOne(ctx, filter, opts...)
}
