// Package docs CCTV Log API.
//
// Documentation of the CCTV Log subject access request API.
//
//     Schemes: http
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/idltd/CCTV-Log/models"
)

// swagger:route GET /health health healthEndpointID
// Lists the healthchex of the web service api.
// responses:
//   200: healthResponse

// Shows the current health of the api. true means it is alive, false means it is not.
// swagger:response healthResponse
type healthResponseWrapper struct {
	// in:body
	Body models.HealthCheckResponse
}

// swagger:route GET /api/v1/cameras/nearby cameras nearbyEndpointID
// Proximity search for cameras around a point.
// responses:
//   200: camerasResponse

// The cameras within the requested radius, nearest first.
// swagger:response camerasResponse
type camerasResponseWrapper struct {
	// in:body
	Body []models.Camera
}

// swagger:route GET /api/v1/incidents incidents incidentsEndpointID
// Lists all incidents, newest capture first.
// responses:
//   200: incidentsResponse

// The recorded incidents.
// swagger:response incidentsResponse
type incidentsResponseWrapper struct {
	// in:body
	Body []models.Incident
}
