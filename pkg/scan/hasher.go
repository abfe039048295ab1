package scan

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/dedupnorris/pkg/logging"
	"github.com/sdejongh/dedupnorris/pkg/models"
	"github.com/sdejongh/dedupnorris/pkg/ratelimit"
	"github.com/sdejongh/dedupnorris/pkg/storage"
)

// Partial hashing configuration
const (
	// Minimum file size to enable partial hashing (1MB)
	partialHashThreshold = 1 * 1024 * 1024
	// Size of partial hash to compute (256KB)
	partialHashSize = 256 * 1024
)

// HashIndex maps a content fingerprint to the files that produced it
type HashIndex struct {
	Groups map[string][]string
	Sizes  map[string]int64

	Hashed  int // Files fully hashed
	Failed  int // Files excluded after a read error
	Avoided int // Files ruled out by the partial hash
}

// Hasher fingerprints file content with a streaming digest
type Hasher struct {
	backend     storage.Backend
	algorithm   models.HashAlgorithm
	bufferPool  *sync.Pool
	workers     int
	partialHash bool
	limiter     *ratelimit.Limiter
	logger      logging.Logger
	progress    func(path string, done, total int) // Optional progress callback
}

// NewHasher creates a hasher reading through backend
func NewHasher(backend storage.Backend, algorithm models.HashAlgorithm, bufferSize, workers int) *Hasher {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	if workers < 1 {
		workers = 1
	}
	return &Hasher{
		backend:     backend,
		algorithm:   algorithm,
		workers:     workers,
		partialHash: true,
		logger:      logging.NewNullLogger(),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetPartialHashEnabled enables or disables the leading-bytes prefilter
func (h *Hasher) SetPartialHashEnabled(enabled bool) {
	h.partialHash = enabled
}

// SetLimiter throttles every read through limiter
func (h *Hasher) SetLimiter(limiter *ratelimit.Limiter) {
	h.limiter = limiter
}

// SetLogger sets the logger used for per-file warnings
func (h *Hasher) SetLogger(logger logging.Logger) {
	if logger != nil {
		h.logger = logger
	}
}

// SetProgressCallback is called after every full hash completes
func (h *Hasher) SetProgressCallback(callback func(path string, done, total int)) {
	h.progress = callback
}

// newDigest returns a fresh digest for the configured algorithm
func (h *Hasher) newDigest() hash.Hash {
	switch h.algorithm {
	case models.HashMD5:
		return md5.New()
	case models.HashSHA1:
		return sha1.New()
	default:
		return sha256.New()
	}
}

// HashFile computes the digest of a whole file
func (h *Hasher) HashFile(ctx context.Context, path string) (string, error) {
	return h.hash(ctx, path, -1)
}

// hash streams up to limit bytes of path into the digest; limit < 0 reads everything
func (h *Hasher) hash(ctx context.Context, path string, limit int64) (string, error) {
	reader, err := h.backend.Open(ctx, path)
	if err != nil {
		return "", err
	}
	reader = ratelimit.NewReadCloser(ctx, reader, h.limiter)
	defer reader.Close()

	var src io.Reader = reader
	if limit >= 0 {
		src = io.LimitReader(reader, limit)
	}

	digest := h.newDigest()

	// Get buffer from pool
	bufPtr := h.bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer h.bufferPool.Put(bufPtr)

	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := src.Read(buffer)
		if n > 0 {
			digest.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// HashBuckets fingerprints every size bucket with at least two members.
// Large buckets are first split by a partial hash so only files sharing
// their leading bytes are read in full. Unreadable files are logged and
// dropped; only cancellation aborts.
func (h *Hasher) HashBuckets(ctx context.Context, idx *SizeIndex) (*HashIndex, error) {
	result := &HashIndex{
		Groups: make(map[string][]string),
		Sizes:  make(map[string]int64),
	}

	type job struct {
		path string
		size int64
	}

	var jobs []job
	var partialJobs []job
	for _, size := range idx.Candidates() {
		for _, path := range idx.Buckets[size] {
			if h.partialHash && size >= partialHashThreshold {
				partialJobs = append(partialJobs, job{path, size})
			} else {
				jobs = append(jobs, job{path, size})
			}
		}
	}

	// Stage 1: partial hashes of large files
	if len(partialJobs) > 0 {
		prefixes := make(map[string][]job)
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(h.workers)
		for _, j := range partialJobs {
			j := j
			g.Go(func() error {
				sum, err := h.hash(gctx, j.path, partialHashSize)
				if err != nil {
					return h.recordFailure(gctx, result, &mu, j.path, err)
				}
				key := fmt.Sprintf("%d:%s", j.size, sum)
				mu.Lock()
				prefixes[key] = append(prefixes[key], j)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, group := range prefixes {
			if len(group) < 2 {
				result.Avoided += len(group)
				continue
			}
			jobs = append(jobs, group...)
		}
	}

	// Stage 2: full hashes
	var mu sync.Mutex
	done := 0
	total := len(jobs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			sum, err := h.HashFile(gctx, j.path)
			if err != nil {
				return h.recordFailure(gctx, result, &mu, j.path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			result.Groups[sum] = append(result.Groups[sum], j.path)
			result.Sizes[sum] = j.size
			result.Hashed++
			done++
			if h.progress != nil {
				h.progress(j.path, done, total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h.logger.Info(ctx, "Hashing complete", logging.Fields{
		"algorithm": string(h.algorithm),
		"hashed":    result.Hashed,
		"failed":    result.Failed,
		"avoided":   result.Avoided,
	})

	return result, nil
}

// recordFailure logs a per-file error and swallows it unless the run was cancelled
func (h *Hasher) recordFailure(ctx context.Context, result *HashIndex, mu *sync.Mutex, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	h.logger.Warn(ctx, "Skipping file that could not be hashed", logging.Fields{
		"path":  path,
		"error": err.Error(),
	})

	mu.Lock()
	result.Failed++
	mu.Unlock()
	return nil
}
