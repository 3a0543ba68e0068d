// package resource services the deferred-loading instructions an asset bundle
// carries after conversion: it fetches external byte ranges into GPU buffers
// and decodes images into GPU textures. It is the only part of the pipeline
// that touches the filesystem or decodes pixels.
package resource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/lumen3d/assetio/common"
	"github.com/lumen3d/assetio/engine/asset"
)

// executorImpl is the implementation of the Executor interface.
type executorImpl struct {
	workers int

	poolOnce sync.Once
	pool     worker.DynamicWorkerPool
}

// Executor services an asset's buffer and pixel accessors: external URIs are
// read relative to the asset's base directory, embedded image bytes are
// decoded, and the results pushed into the destination GPU objects.
//
// An Executor may be reused across assets and shared across goroutines.
type Executor interface {
	// Run services every accessor of the asset. Each file is read once even
	// when several accessors reference it. Failures do not abort the
	// remaining accessors; all errors are collected and returned joined.
	//
	// Parameters:
	//   - a: the asset whose accessors to service
	//
	// Returns:
	//   - error: the joined errors of every accessor that failed, or nil
	Run(a asset.Asset) error
}

var _ Executor = &executorImpl{}

// NewExecutor creates a new Executor with options applied. By default
// accessors are serviced serially; configure workers to decode and fetch in
// parallel.
//
// Parameters:
//   - options: a variadic list of ExecutorBuilderOption functions to configure the Executor
//
// Returns:
//   - Executor: the configured Executor instance
func NewExecutor(options ...ExecutorBuilderOption) Executor {
	e := &executorImpl{workers: 1}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *executorImpl) Run(a asset.Asset) error {
	if a == nil {
		return errors.New("nil asset")
	}

	fetcher := newFileFetcher(a.BaseDir())
	buffers := a.BufferAccessors()
	pixels := a.PixelAccessors()

	tasks := make([]func() error, 0, len(buffers)+len(pixels))
	for i := range buffers {
		acc := buffers[i]
		tasks = append(tasks, func() error {
			return serviceBufferAccessor(fetcher, acc)
		})
	}
	for i := range pixels {
		acc := pixels[i]
		tasks = append(tasks, func() error {
			return servicePixelAccessor(fetcher, acc)
		})
	}

	if e.workers <= 1 {
		var errs []error
		for _, task := range tasks {
			if err := task(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	return e.runParallel(tasks)
}

// runParallel submits the tasks to the worker pool and barriers on a
// WaitGroup. The pool is created on first use and reused across Run calls;
// idle workers exit on their own.
func (e *executorImpl) runParallel(tasks []func() error) error {
	e.poolOnce.Do(func() {
		e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	})

	var mu sync.Mutex
	var errs []error
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		taskCap := task
		e.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := taskCap(); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	return errors.Join(errs...)
}

// serviceBufferAccessor fetches the accessor's byte range and pushes it into
// its destination buffer.
func serviceBufferAccessor(fetcher *fileFetcher, acc asset.BufferAccessor) error {
	data, err := fetcher.fetch(acc.URI)
	if err != nil {
		return fmt.Errorf("buffer accessor %q: %w", acc.URI, err)
	}

	end := int(acc.ByteOffset) + int(acc.ByteSize)
	if end > len(data) {
		return fmt.Errorf("buffer accessor %q: range [%d, %d) exceeds %d bytes", acc.URI, acc.ByteOffset, end, len(data))
	}
	payload := data[acc.ByteOffset:end]

	switch {
	case acc.VertexBuffer != nil:
		if err := acc.VertexBuffer.SetBufferAt(acc.Slot, payload); err != nil {
			return fmt.Errorf("buffer accessor %q: %w", acc.URI, err)
		}
	case acc.IndexBuffer != nil:
		if err := acc.IndexBuffer.SetBuffer(payload); err != nil {
			return fmt.Errorf("buffer accessor %q: %w", acc.URI, err)
		}
	default:
		return fmt.Errorf("buffer accessor %q has no destination buffer", acc.URI)
	}

	return nil
}

// servicePixelAccessor decodes the accessor's image to RGBA and pushes the
// region into its destination texture.
func servicePixelAccessor(fetcher *fileFetcher, acc asset.PixelAccessor) error {
	data := acc.Data
	if data == nil {
		fetched, err := fetcher.fetch(acc.URI)
		if err != nil {
			return fmt.Errorf("pixel accessor %q: %w", acc.URI, err)
		}
		data = fetched
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("pixel accessor %q: failed to decode image: %w", acc.URI, err)
	}

	rgba := toRGBA(img)
	bounds := rgba.Bounds()

	staging := common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}

	if err := acc.Texture.SetImage(acc.Level, acc.XOffset, acc.YOffset, staging); err != nil {
		return fmt.Errorf("pixel accessor %q: %w", acc.URI, err)
	}

	return nil
}

// toRGBA converts any decoded image to tightly packed RGBA.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Bounds().Dx()*4 {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// fileFetcher reads URI contents relative to a base directory, caching each
// URI so accessors sharing a source file read it once. Safe for concurrent
// use by pool workers.
type fileFetcher struct {
	mu      sync.Mutex
	baseDir string
	cache   map[string][]byte
}

func newFileFetcher(baseDir string) *fileFetcher {
	return &fileFetcher{
		baseDir: baseDir,
		cache:   make(map[string][]byte),
	}
}

func (f *fileFetcher) fetch(uri string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if data, ok := f.cache[uri]; ok {
		return data, nil
	}

	var data []byte
	var err error
	switch {
	case strings.HasPrefix(uri, "data:"):
		data, err = common.DecodeDataURI(uri)
	case strings.Contains(uri, "://"):
		err = fmt.Errorf("unsupported URI scheme in %q", uri)
	default:
		path := uri
		if !filepath.IsAbs(path) {
			path = filepath.Join(f.baseDir, uri)
		}
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	f.cache[uri] = data
	return data, nil
}
