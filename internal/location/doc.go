// Package location groups the directory's cameras by Ring location.
//
// Each Location carries its raw record, the cameras whose location_id
// matches and whether a hub (base station or beams bridge) is installed
// there. Locations are built once by the directory builder.
package location
