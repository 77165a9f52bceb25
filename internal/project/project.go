package project

import (
	"context"
	"errors"
	"fmt"

	"astra-msgdb/internal/archive"
	"astra-msgdb/internal/msgdb"

	"github.com/rs/zerolog/log"
)

// ErrDuplicateArchive is returned when a backend yields two archives with the same name.
var ErrDuplicateArchive = errors.New("duplicate archive name")

// Backend loads and persists message archives.
type Backend interface {
	// Load returns every archive in aggregation order.
	Load(ctx context.Context) ([]*archive.Archive, error)
	// Save persists one archive's current contents.
	Save(ctx context.Context, a *archive.Archive) error
}

// Options configures an opened project.
type Options struct {
	// Override names the archive new message keys are created in, ahead of
	// any per-call default.
	Override string
}

// Project is an open session over a set of message archives.
type Project struct {
	backend  Backend
	archives []*archive.Archive
	byName   map[string]*archive.Archive
	override string
}

// Open loads every archive from backend.
func Open(ctx context.Context, backend Backend, opts Options) (*Project, error) {
	archives, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load archives: %w", err)
	}

	byName := make(map[string]*archive.Archive, len(archives))
	for _, a := range archives {
		if _, dup := byName[a.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArchive, a.Name())
		}
		byName[a.Name()] = a
	}

	if opts.Override != "" {
		if _, ok := byName[opts.Override]; !ok {
			log.Warn().Str("archive", opts.Override).Msg("Override archive not found, new keys will use the default archive")
		}
	}

	log.Info().Int("archives", len(archives)).Msg("Project opened")
	return &Project{
		backend:  backend,
		archives: archives,
		byName:   byName,
		override: opts.Override,
	}, nil
}

// ListArchives returns archive names in aggregation order.
func (p *Project) ListArchives() []string {
	names := make([]string, len(p.archives))
	for i, a := range p.archives {
		names[i] = a.Name()
	}
	return names
}

// GetArchive returns the named archive.
func (p *Project) GetArchive(name string) (*archive.Archive, bool) {
	a, ok := p.byName[name]
	return a, ok
}

// OverrideArchiveName returns the configured override archive, if any.
func (p *Project) OverrideArchiveName() (string, bool) {
	return p.override, p.override != ""
}

// Save persists every archive with committed changes and returns how many
// were written. It stops at the first failure; archives already written stay
// clean.
func (p *Project) Save(ctx context.Context) (int, error) {
	saved := 0
	for _, a := range p.archives {
		if !a.Dirty() {
			continue
		}
		if err := p.backend.Save(ctx, a); err != nil {
			return saved, fmt.Errorf("save archive %s: %w", a.Name(), err)
		}
		a.MarkClean()
		saved++
		log.Info().Str("archive", a.Name()).Int("keys", a.Len()).Msg("Archive saved")
	}
	return saved, nil
}

// MessageSource exposes the project's archives to the message index.
func (p *Project) MessageSource() msgdb.Source {
	return messageSource{p}
}

type messageSource struct {
	p *Project
}

func (s messageSource) ListArchives() []string { return s.p.ListArchives() }

func (s messageSource) GetArchive(name string) (msgdb.Archive, bool) {
	a, ok := s.p.GetArchive(name)
	if !ok {
		return nil, false
	}
	return a, true
}

func (s messageSource) OverrideArchiveName() (string, bool) { return s.p.OverrideArchiveName() }
