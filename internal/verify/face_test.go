package verify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"kioskgate/internal/identity"
	id "kioskgate/pkg/domain"
	dErrors "kioskgate/pkg/domain-errors"
)

// fakeExtractor returns a canned embedding or simulates an outage.
type fakeExtractor struct {
	embedding []float64
	ready     bool
	delay     time.Duration
}

func (f *fakeExtractor) Extract(ctx context.Context, _ []byte) ([]float64, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.embedding, nil
}

func (f *fakeExtractor) Ready(context.Context) bool { return f.ready }

type FaceVerifierSuite struct {
	suite.Suite
	ctx        context.Context
	identities *identity.InMemoryStore

	alice id.IdentityID
	bob   id.IdentityID
}

func TestFaceVerifierSuite(t *testing.T) {
	suite.Run(t, new(FaceVerifierSuite))
}

func (s *FaceVerifierSuite) SetupTest() {
	s.ctx = context.Background()
	s.identities = identity.NewInMemoryStore()
	s.alice = id.IdentityID(uuid.New())
	s.bob = id.IdentityID(uuid.New())

	s.Require().NoError(s.identities.Save(s.ctx, identity.Identity{
		ID:            s.alice,
		Active:        true,
		FaceEmbedding: []float64{1, 0, 0},
	}))
	s.Require().NoError(s.identities.Save(s.ctx, identity.Identity{
		ID:            s.bob,
		Active:        true,
		FaceEmbedding: []float64{0, 1, 0},
	}))
}

func (s *FaceVerifierSuite) verifier(extractor Extractor) *FaceVerifier {
	return NewFaceVerifier(s.identities, extractor, 0.9, time.Second, 2)
}

func (s *FaceVerifierSuite) TestMatchesBestCandidateAboveThreshold() {
	v := s.verifier(&fakeExtractor{embedding: []float64{0.99, 0.05, 0}, ready: true})

	ident, err := v.Verify(s.ctx, Credential{Image: []byte("frame")})
	s.Require().NoError(err)
	s.Equal(s.alice, ident.ID)
}

func (s *FaceVerifierSuite) TestBelowThresholdIsNoMatch() {
	// Equidistant from both candidates, similarity well under 0.9.
	v := s.verifier(&fakeExtractor{embedding: []float64{1, 1, 1}, ready: true})

	_, err := v.Verify(s.ctx, Credential{Image: []byte("frame")})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoMatch))
}

func (s *FaceVerifierSuite) TestNoEnrolledEmbeddingsIsNoMatch() {
	empty := identity.NewInMemoryStore()
	v := NewFaceVerifier(empty, &fakeExtractor{embedding: []float64{1, 0, 0}, ready: true}, 0.9, time.Second, 2)

	_, err := v.Verify(s.ctx, Credential{Image: []byte("frame")})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoMatch))
}

func (s *FaceVerifierSuite) TestExtractorNotReady() {
	v := s.verifier(&fakeExtractor{embedding: []float64{1, 0, 0}, ready: false})

	_, err := v.Verify(s.ctx, Credential{Image: []byte("frame")})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeExtractorDown))
}

func (s *FaceVerifierSuite) TestSlowExtractionTimesOut() {
	slow := &fakeExtractor{embedding: []float64{1, 0, 0}, ready: true, delay: 200 * time.Millisecond}
	v := NewFaceVerifier(s.identities, slow, 0.9, 20*time.Millisecond, 2)

	_, err := v.Verify(s.ctx, Credential{Image: []byte("frame")})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *FaceVerifierSuite) TestMissingImageIsValidationError() {
	v := s.verifier(&fakeExtractor{embedding: []float64{1, 0, 0}, ready: true})

	_, err := v.Verify(s.ctx, Credential{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
