package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lof/customer-profile/internal/api/metrics"
	"github.com/lof/customer-profile/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
	mirrorTimeout  = 30 * time.Second
)

type mirrorJob struct {
	name string
	data []byte
}

// MirrorDispatcher uploads media files to remote storage in the background.
// Jobs are sharded by file name so that writes to the same name keep their
// order. Reads go straight to the wrapped storage.
type MirrorDispatcher struct {
	storage ports.MediaStorage
	workers []chan mirrorJob
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// NewMirrorDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMirrorDispatcher(storage ports.MediaStorage, numWorkers int, log zerolog.Logger) *MirrorDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MirrorDispatcher{
		storage: storage,
		workers: make([]chan mirrorJob, numWorkers),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan mirrorJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines.
func (d *MirrorDispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Stop closes the queues and waits until pending jobs are uploaded or ctx is
// done.
func (d *MirrorDispatcher) Stop(ctx context.Context) error {
	for _, ch := range d.workers {
		close(ch)
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *MirrorDispatcher) ProcessStorageFile(ctx context.Context, absPath string) (bool, error) {
	return d.storage.ProcessStorageFile(ctx, absPath)
}

// SaveFile queues the upload. It blocks only while the shard queue is full.
func (d *MirrorDispatcher) SaveFile(ctx context.Context, name string, data []byte) error {
	select {
	case d.workers[d.shardIndex(name)] <- mirrorJob{name: name, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a file name deterministically to a worker index.
func (d *MirrorDispatcher) shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *MirrorDispatcher) runWorker(id int, ch <-chan mirrorJob) {
	defer d.wg.Done()
	for job := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		err := d.storage.SaveFile(ctx, job.name, job.data)
		cancel()
		if err != nil {
			metrics.StorageSyncTotal.WithLabelValues("mirror_error").Inc()
			d.log.Error().Err(err).
				Str("file", job.name).
				Int("worker_id", id).
				Msg("media mirror failed")
			continue
		}
		metrics.StorageSyncTotal.WithLabelValues("mirrored").Inc()
	}
}
