package standoff

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"text2phenotype.com/standoff/logger"
	"text2phenotype.com/standoff/types"
	"text2phenotype.com/standoff/utils"
)

// Source is a named stream opened on demand, so a builder can finish one
// stream before the next is opened.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

func FileSource(path string) Source {
	return Source{
		Name: path,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

func StringSource(name string, data string) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(data)), nil
		},
	}
}

// Document is one entity stream plus the event streams that annotate it.
type Document struct {
	ID     string
	Themes Source
	Events []Source
}

// Loader turns a document into its annotation graph.
type Loader func(doc Document) (*Graph, error)

type Builder struct {
	config    types.Configuration
	fdlLogger zerolog.Logger
}

func NewBuilder(cfg types.Configuration) *Builder {
	return &Builder{
		config:    cfg,
		fdlLogger: logger.NewLogger("Standoff builder").With().Str("config", cfg.Name).Logger(),
	}
}

func NewLoader(cfg types.Configuration) Loader {
	return NewBuilder(cfg).Build
}

// Loaders maps a configuration name to its loader. The empty name is the
// default configuration.
type Loaders map[string]Loader

func NewLoaders(cfgs types.Configurations) Loaders {
	loaders := make(Loaders, len(cfgs)+1)
	for name, cfg := range cfgs {
		loaders[name] = NewLoader(cfg)
	}
	defaultCfg, _ := cfgs.Get("")
	loaders[""] = NewLoader(defaultCfg)
	return loaders
}

func (loaders Loaders) Get(name string) (Loader, bool) {
	load, ok := loaders[name]
	return load, ok
}

func (b *Builder) NewIDMap() *IDMap {
	return NewIDMap(b.config.DuplicateIDs)
}

// Preload drains an entity stream into a fresh id map. The stream is
// closed before Preload returns, on success and on failure.
func (b *Builder) Preload(src Source) (*IDMap, error) {
	return b.preload(src, utils.NewStringStore())
}

func (b *Builder) preload(src Source, store utils.StringStore) (*IDMap, error) {
	r, err := src.Open()
	if err != nil {
		return nil, &ReadError{Source: src.Name, Err: err}
	}
	it := NewThemeIterator(src.Name, r)
	it.store = store

	ids := b.NewIDMap()
	count, err := it.Drain(ids)
	closeErr := it.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, &ReadError{Source: src.Name, Err: closeErr}
	}
	b.fdlLogger.Debug().Str("source", src.Name).Int("themes", count).Msg("Preloaded themes")
	return ids, nil
}

// Events iterates an event stream against a copy of seed, leaving seed
// untouched. A nil seed starts from an empty map. The caller closes the
// returned iterator.
func (b *Builder) Events(src Source, seed *IDMap) (*EventIterator, *IDMap, error) {
	var ids *IDMap
	if seed == nil {
		ids = b.NewIDMap()
	} else {
		ids = seed.Copy()
	}
	r, err := src.Open()
	if err != nil {
		return nil, nil, &ReadError{Source: src.Name, Err: err}
	}
	return NewEventIterator(src.Name, r, ids, b.config.Grammar), ids, nil
}

// Build preloads the entity stream, then resolves every event stream in
// order against the same map. No graph is returned on any failure.
func (b *Builder) Build(doc Document) (*Graph, error) {
	docLogger := b.fdlLogger.With().Str("doc_id", doc.ID).Logger()
	docLogger.Debug().Str("themes", doc.Themes.Name).Int("event_sources", len(doc.Events)).Msg("Building annotation graph")

	// one store per document keeps type names from outliving the graph
	store := utils.NewStringStore()
	ids, err := b.preload(doc.Themes, store)
	if err != nil {
		docLogger.Err(err).Str("error_class", ErrorClass(err)).Msg("Failed to preload themes")
		return nil, err
	}
	graph := &Graph{
		DocID:       doc.ID,
		Config:      b.config.Name,
		ids:         ids,
		orderBySpan: b.config.OrderBySpan,
	}
	for _, src := range doc.Events {
		events, err := b.extend(src, ids, store)
		if err != nil {
			docLogger.Err(err).Str("error_class", ErrorClass(err)).Msg("Failed to resolve events")
			return nil, err
		}
		graph.events = append(graph.events, events...)
	}

	docLogger.Info().
		Int("annotations", ids.Len()).
		Int("events", len(graph.events)).
		Msg("Built annotation graph")
	return graph, nil
}

// LoadFiles builds a graph from a theme file and its event files. The
// document id is the theme file name without the theme suffix.
func (b *Builder) LoadFiles(themePath string, eventPaths ...string) (*Graph, error) {
	doc := Document{
		ID:     strings.TrimSuffix(filepath.Base(themePath), b.config.ThemeSuffix),
		Themes: FileSource(themePath),
	}
	for _, path := range eventPaths {
		doc.Events = append(doc.Events, FileSource(path))
	}
	return b.Build(doc)
}

func (b *Builder) extend(src Source, ids *IDMap, store utils.StringStore) ([]*types.Annotation, error) {
	r, err := src.Open()
	if err != nil {
		return nil, &ReadError{Source: src.Name, Err: err}
	}
	it := NewEventIterator(src.Name, r, ids, b.config.Grammar)
	it.store = store
	events, err := it.Collect()
	if closeErr := it.Close(); err == nil && closeErr != nil {
		return nil, &ReadError{Source: src.Name, Err: closeErr}
	}
	return events, err
}
