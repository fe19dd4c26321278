package tupleproc

import (
	"github.com/columnfold/tupleproc/errors"
	"github.com/columnfold/tupleproc/source"
	"github.com/google/uuid"
)

// Storage opens the backing source.PageSource for an OpenSpec. Concrete
// backends (memsource.Handle, or a real on-disk store outside this
// module's scope) implement it.
type Storage interface {
	Open() (source.PageSource, error)
}

// PathStorage opens a page source by filesystem path. It is a placeholder
// boundary: on-disk encoding is out of scope for this module, so Open
// always fails with AttachFailed; real deployments inject a concrete
// source.PageSource directly via OpenSpec.Source instead of a path.
type PathStorage string

// Open always fails; see PathStorage's doc comment.
func (p PathStorage) Open() (source.PageSource, error) {
	return nil, errors.AttachFailed("on-disk page source backends are out of scope: path " + string(p))
}

// OpenSpec names one tuple to attach a processor to.
type OpenSpec struct {
	// Name identifies the tuple, and becomes the auxiliary's namespace
	// prefix when used in a join. If empty, Create* generates one.
	Name string
	// Storage opens the backing page source.
	Storage Storage
	// Source, when set, is used directly instead of calling
	// Storage.Open, for callers (tests, in-process pipelines) that
	// already hold a live source.PageSource.
	Source source.PageSource
}

func (s OpenSpec) open() (source.PageSource, error) {
	if s.Source != nil {
		return s.Source, nil
	}
	if s.Storage != nil {
		return s.Storage.Open()
	}
	return nil, errors.AttachFailed("open spec has neither Source nor Storage")
}

func (s OpenSpec) resolvedName() string {
	if s.Name != "" {
		return s.Name
	}
	return uuid.NewString()
}
