package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/semaphore"

	"kioskgate/internal/identity"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

const defaultFaceThreshold = 0.9

// FaceVerifier matches a captured frame against every enrolled face. Matching
// is the one expensive verification path, so calls run under a bounded
// timeout and a weighted semaphore caps concurrent extractions instead of
// letting request handlers pile onto the extractor.
//
// The scan is linear over all active identities. That is fine at the expected
// personnel count; it is the first component to replace with an indexed
// nearest-neighbor search if the population grows materially.
type FaceVerifier struct {
	identities identity.Store
	extractor  Extractor
	threshold  float64
	timeout    time.Duration
	workers    *semaphore.Weighted
}

// NewFaceVerifier wires the matcher. A non-positive threshold falls back to
// the default 0.9; maxWorkers caps concurrent extract+match calls.
func NewFaceVerifier(identities identity.Store, extractor Extractor, threshold float64, timeout time.Duration, maxWorkers int64) *FaceVerifier {
	if threshold <= 0 {
		threshold = defaultFaceThreshold
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &FaceVerifier{
		identities: identities,
		extractor:  extractor,
		threshold:  threshold,
		timeout:    timeout,
		workers:    semaphore.NewWeighted(maxWorkers),
	}
}

func (v *FaceVerifier) Kind() id.MethodKind { return id.MethodPhoto }

func (v *FaceVerifier) Verify(ctx context.Context, cred Credential) (*identity.Identity, error) {
	if len(cred.Image) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "captured image is required")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	ctx, span := otel.Tracer("kioskgate/verify").Start(ctx, "face.verify")
	defer span.End()

	if err := v.workers.Acquire(ctx, 1); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "face verification timed out waiting for a worker")
	}
	defer v.workers.Release(1)

	if !v.extractor.Ready(ctx) {
		return nil, dErrors.New(dErrors.CodeExtractorDown, "embedding extractor is not ready")
	}

	probe, err := v.extractor.Extract(ctx, cred.Image)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "embedding extraction timed out")
		}
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, fmt.Errorf("extract probe embedding: %w", err)
	}

	candidates, err := v.identities.ListActiveWithEmbeddings(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "face matching timed out")
		}
		return nil, fmt.Errorf("list enrolled identities: %w", err)
	}

	best, bestSim := v.bestMatch(probe, candidates)
	if best == nil || bestSim < v.threshold {
		return nil, dErrors.New(dErrors.CodeNoMatch, "no enrolled face matches the captured frame")
	}
	return best, nil
}

// bestMatch returns the arg-max candidate by cosine similarity.
func (v *FaceVerifier) bestMatch(probe []float64, candidates []identity.Identity) (*identity.Identity, float64) {
	var (
		best    *identity.Identity
		bestSim float64
	)
	for i := range candidates {
		sim := Cosine(probe, candidates[i].FaceEmbedding)
		if best == nil || sim > bestSim {
			best = &candidates[i]
			bestSim = sim
		}
	}
	return best, bestSim
}
