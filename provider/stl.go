package provider

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/surfgrid/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
)

// STLFile serves the facets of an ASCII or binary STL file. The file is read
// once, on first use. Facet ids are assigned in file order, starting at 1.
type STLFile struct {
	Path string

	once   sync.Once
	facets []mesh.Facet
	err    error
}

func NewSTLFile(path string) *STLFile {
	return &STLFile{Path: path}
}

func (f *STLFile) load() {
	f.once.Do(func() {
		triangles, err := loadSTL(f.Path)
		if err != nil {
			f.err = errors.New("reading stl file failed").
				WithType(ErrTypeProvider).
				WithTag("path", f.Path).
				Wrap(err)
			return
		}

		if len(triangles) == 0 {
			f.err = errors.New("stl file has no facets").
				WithType(ErrTypeProvider).
				WithTag("path", f.Path)
			return
		}
		f.facets = facetsFromTriangles(triangles)
	})
}

// loadSTL reads the triangles of path. The ascii reader indexes vertices
// three by three and panics on a truncated facet, which is reported as an
// error.
func loadSTL(path string) (triangles []*sdf.Triangle3, err error) {
	defer func() {
		if r := recover(); r != nil {
			triangles = nil
			err = errors.Newf("malformed stl data: %v", r).
				WithType(ErrTypeProvider)
		}
	}()
	return render.LoadSTL(path)
}

func (f *STLFile) Elements() ([]mesh.Facet, error) {
	f.load()
	return f.facets, f.err
}

func (f *STLFile) GlobalBoundingBox() (mesh.Box, error) {
	f.load()
	if f.err != nil {
		return mesh.Box{}, f.err
	}
	return facetsBox(f.facets), nil
}
