package geometry

import (
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/aukilabs/surfgrid/spatial"
)

const (
	ErrTypeInvalidElement = mesh.ErrTypeInvalidElement
	ErrTypeIndexBuild     = spatial.ErrTypeIndexBuild
	ErrTypeProvider       = "provider_error"
	ErrTypeConfig         = "config_error"
)
