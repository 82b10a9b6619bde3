// Package loader runs processing batches: it reads input files, pulls
// candidate documents out of PDX archives, parses every document into a
// container, and merges the containers into one database with per-input
// failure isolation.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/CreativeSoln/refactored-potato/internal/infrastructure/logging"
	"github.com/CreativeSoln/refactored-potato/internal/odx"
	"github.com/CreativeSoln/refactored-potato/internal/pdx"
	"github.com/CreativeSoln/refactored-potato/internal/xmltree"
)

// DefaultWorkers is the worker count used when Options.Workers is zero.
const DefaultWorkers = 4

// documentName matches entry names that carry diagnostic documents:
// an .odx extension with an optional category suffix (.odx-d, .odx-c),
// or a generic .xml whose path carries an index marker.
var documentName = regexp.MustCompile(`(?i)\.odx(-[a-z0-9]+)?$`)

// Options configure a Loader.
type Options struct {
	// Workers bounds the number of documents parsed concurrently.
	Workers int

	// SharedIndex spans one identifier index across the whole batch
	// instead of one per document. Cross-document references resolve,
	// at the cost of the per-document identifier-uniqueness guarantee
	// (first document wins on collisions). Forces sequential parsing.
	SharedIndex bool
}

// Input records one input that contributed to the database.
type Input struct {
	// Name is the display name: file path, or entry path for archive
	// members.
	Name string `json:"name"`

	// Archive is the containing archive's path, empty for plain files.
	Archive string `json:"archive,omitempty"`

	// Size is the payload size in bytes.
	Size int64 `json:"size"`
}

// Skipped records one input dropped from the batch and why.
type Skipped struct {
	Name    string `json:"name"`
	Archive string `json:"archive,omitempty"`
	Reason  string `json:"reason"`
}

// Result is the outcome of one batch.
type Result struct {
	// Database is the merged database over every input that parsed.
	Database *odx.Database `json:"database"`

	// Inputs lists contributing inputs in submission order.
	Inputs []Input `json:"inputs"`

	// Skipped lists inputs that failed to parse. A non-empty list does
	// not make the batch an error.
	Skipped []Skipped `json:"skipped,omitempty"`
}

// Payload is one document ready to parse.
type Payload struct {
	Name    string
	Archive string
	Data    []byte
}

// Loader runs batches.
type Loader struct {
	log  *logging.Logger
	opts Options
}

// New creates a Loader.
func New(log *logging.Logger, opts Options) *Loader {
	if log == nil {
		log = logging.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Loader{log: log, opts: opts}
}

// Load reads the given files (documents or PDX archives), parses every
// candidate document, and merges the results. Unreadable files and
// unopenable archives fail the batch; documents that fail to parse are
// recorded and skipped.
func (l *Loader) Load(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}

	var payloads []Payload
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, p, err)
		}
		expanded, err := l.expand(p, data)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, expanded...)
	}

	return l.LoadPayloads(ctx, payloads)
}

// expand turns one file into document payloads: archives contribute
// every candidate entry, anything else is a single document.
func (l *Loader) expand(path string, data []byte) ([]Payload, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdx" && ext != ".zip" && !pdx.IsArchive(data) {
		return []Payload{{Name: path, Data: data}}, nil
	}

	archive, err := pdx.Open(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
	}

	var out []Payload
	for _, e := range archive.Entries() {
		if e.Dir || !IsDocumentName(e.Name) {
			continue
		}
		body, err := archive.Read(e.Name)
		if err != nil {
			// Failing to decompress one entry is an archive I/O
			// failure, fatal to the batch.
			return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableInput, path, err)
		}
		out = append(out, Payload{Name: e.Name, Archive: path, Data: body})
	}
	l.log.Debug("expanded archive", "path", path, "documents", len(out))
	return out, nil
}

// LoadPayloads parses the given documents and merges them. Parsing runs
// one worker per document up to Options.Workers; results aggregate in
// submission order.
func (l *Loader) LoadPayloads(ctx context.Context, payloads []Payload) (*Result, error) {
	if len(payloads) == 0 {
		return nil, ErrNoInputs
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	containers := make([]*odx.Container, len(payloads))
	errs := make([]error, len(payloads))

	if l.opts.SharedIndex {
		ix := odx.NewIndex()
		for i, pl := range payloads {
			containers[i], errs[i] = parseWith(pl, ix)
		}
	} else {
		p := pool.New().WithMaxGoroutines(l.opts.Workers)
		for i, pl := range payloads {
			i, pl := i, pl // per-iteration copies; required under the go 1.21 language version
			p.Go(func() {
				containers[i], errs[i] = parseWith(pl, nil)
			})
		}
		p.Wait()
	}

	res := &Result{Database: &odx.Database{}}
	for i, pl := range payloads {
		if errs[i] != nil {
			l.log.Warn("skipping input", "name", pl.Name, "archive", pl.Archive, "error", errs[i])
			res.Skipped = append(res.Skipped, Skipped{
				Name:    pl.Name,
				Archive: pl.Archive,
				Reason:  errs[i].Error(),
			})
			continue
		}
		res.Database.AddContainer(containers[i])
		res.Inputs = append(res.Inputs, Input{
			Name:    pl.Name,
			Archive: pl.Archive,
			Size:    int64(len(pl.Data)),
		})
	}

	// Links first, flatten second: parameters of inherited services must
	// reach the flattened collections of the inheriting layer.
	odx.ResolveLinks(res.Database)
	res.Database.Flatten()

	l.log.Info("batch complete",
		"inputs", len(res.Inputs),
		"skipped", len(res.Skipped),
		"layers", len(res.Database.Layers()),
		"params", len(res.Database.Params))
	return res, nil
}

func parseWith(pl Payload, ix *odx.Index) (*odx.Container, error) {
	if ix == nil {
		return odx.ParseDocument(pl.Data)
	}
	root, err := xmltree.Parse(pl.Data)
	if err != nil {
		return nil, err
	}
	return odx.BuildContainer(root, ix), nil
}

// IsDocumentName reports whether an entry name looks like a diagnostic
// document.
func IsDocumentName(name string) bool {
	lower := strings.ToLower(name)
	if documentName.MatchString(lower) {
		return true
	}
	return strings.HasSuffix(lower, ".xml") && strings.Contains(lower, "index")
}
