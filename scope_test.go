package axon_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/centraunit/axon"
	"github.com/centraunit/axon/mock"
	"github.com/stretchr/testify/suite"
)

type ScopeTestSuite struct {
	suite.Suite
	container *axon.Container
}

func (s *ScopeTestSuite) SetupTest() {
	s.container = axon.New()
}

func (s *ScopeTestSuite) TestScopedCaching() {
	s.NoError(s.container.Register(axon.Scoped[mock.Database](mock.NewMockDB)))

	scope1, err := s.container.NewScope()
	s.NoError(err)
	defer scope1.Close()

	first, err := axon.Resolve[mock.Database](context.Background(), scope1)
	s.NoError(err)
	second, err := axon.Resolve[mock.Database](context.Background(), scope1)
	s.NoError(err)
	s.Same(first, second)

	scope2, err := s.container.NewScope()
	s.NoError(err)
	defer scope2.Close()

	other, err := axon.Resolve[mock.Database](context.Background(), scope2)
	s.NoError(err)
	s.NotSame(first, other)
}

func (s *ScopeTestSuite) TestTransientAlwaysFresh() {
	s.NoError(s.container.Register(axon.Transient[mock.Database](mock.NewMockDB)))

	scope, err := s.container.NewScope()
	s.NoError(err)
	defer scope.Close()

	first, err := axon.Resolve[mock.Database](context.Background(), scope)
	s.NoError(err)
	second, err := axon.Resolve[mock.Database](context.Background(), scope)
	s.NoError(err)
	s.NotSame(first, second)
}

func (s *ScopeTestSuite) TestTeardownReverseOrder() {
	rec := &mock.TeardownRecorder{}

	type resourceA struct{}
	type resourceB struct{}
	type resourceC struct{}

	err := s.container.Register(
		axon.Scoped[*resourceA](func() (*resourceA, func() error) {
			return &resourceA{}, rec.Finalizer("A")
		}),
		axon.Scoped[*resourceB](func() (*resourceB, func() error) {
			return &resourceB{}, rec.Finalizer("B")
		}),
		axon.Scoped[*resourceC](func() (*resourceC, func() error) {
			return &resourceC{}, rec.Finalizer("C")
		}),
	)
	s.NoError(err)

	scope, err := s.container.NewScope()
	s.NoError(err)

	_, err = axon.Resolve[*resourceA](context.Background(), scope)
	s.NoError(err)
	_, err = axon.Resolve[*resourceB](context.Background(), scope)
	s.NoError(err)
	_, err = axon.Resolve[*resourceC](context.Background(), scope)
	s.NoError(err)

	s.Empty(rec.Order())
	s.NoError(scope.Close())
	s.Equal([]string{"C", "B", "A"}, rec.Order())
}

func (s *ScopeTestSuite) TestTeardownAggregatesFailures() {
	rec := &mock.TeardownRecorder{}

	type resourceA struct{}
	type resourceB struct{}
	type resourceC struct{}

	err := s.container.Register(
		axon.Scoped[*resourceA](func() (*resourceA, func() error) {
			return &resourceA{}, rec.FailingFinalizer("A")
		}),
		axon.Scoped[*resourceB](func() (*resourceB, func() error) {
			return &resourceB{}, rec.Finalizer("B")
		}),
		axon.Scoped[*resourceC](func() (*resourceC, func() error) {
			return &resourceC{}, rec.FailingFinalizer("C")
		}),
	)
	s.NoError(err)

	scope, err := s.container.NewScope()
	s.NoError(err)

	for _, resolve := range []func() error{
		func() error { _, err := axon.Resolve[*resourceA](context.Background(), scope); return err },
		func() error { _, err := axon.Resolve[*resourceB](context.Background(), scope); return err },
		func() error { _, err := axon.Resolve[*resourceC](context.Background(), scope); return err },
	} {
		s.NoError(resolve())
	}

	err = scope.Close()
	var teardownErr *axon.TeardownError
	s.ErrorAs(err, &teardownErr)
	s.Len(teardownErr.Errors, 2)

	// every finalizer ran despite the failures, in reverse order
	s.Equal([]string{"C", "B", "A"}, rec.Order())
}

func (s *ScopeTestSuite) TestDoubleCloseIsNoop() {
	rec := &mock.TeardownRecorder{}

	s.NoError(s.container.Register(axon.Scoped[string](func() (string, func() error) {
		return "value", rec.Finalizer("once")
	})))

	scope, err := s.container.NewScope()
	s.NoError(err)

	_, err = axon.Resolve[string](context.Background(), scope)
	s.NoError(err)

	s.NoError(scope.Close())
	s.NoError(scope.Close())
	s.Equal([]string{"once"}, rec.Order())
}

func (s *ScopeTestSuite) TestResolveAfterClose() {
	s.NoError(s.container.Register(axon.Scoped[mock.Database](mock.NewMockDB)))

	scope, err := s.container.NewScope()
	s.NoError(err)
	s.NoError(scope.Close())

	_, err = axon.Resolve[mock.Database](context.Background(), scope)
	s.ErrorAs(err, new(*axon.ScopeClosedError))
}

func (s *ScopeTestSuite) TestSuppliedValue() {
	s.NoError(s.container.Register(
		axon.FromScope[*mock.Config](),
		axon.Scoped[string](func(cfg *mock.Config) string { return cfg.Env }),
	))

	cfg := &mock.Config{Env: "staging"}
	scope, err := s.container.NewScope(axon.Supply(cfg))
	s.NoError(err)
	defer scope.Close()

	resolved, err := axon.Resolve[*mock.Config](context.Background(), scope)
	s.NoError(err)
	s.Same(cfg, resolved)

	env, err := axon.Resolve[string](context.Background(), scope)
	s.NoError(err)
	s.Equal("staging", env)
}

func (s *ScopeTestSuite) TestMissingSuppliedValue() {
	s.NoError(s.container.Register(axon.FromScope[*mock.Config]()))

	scope, err := s.container.NewScope()
	s.NoError(err)
	defer scope.Close()

	_, err = axon.Resolve[*mock.Config](context.Background(), scope)
	s.ErrorAs(err, new(*axon.MissingScopeValueError))
}

func (s *ScopeTestSuite) TestPartialFailureStillTearsDown() {
	rec := &mock.TeardownRecorder{}
	boom := errors.New("boom")

	type upstream struct{}
	type downstream struct{}

	err := s.container.Register(
		axon.Scoped[*upstream](func() (*upstream, func() error) {
			return &upstream{}, rec.Finalizer("upstream")
		}),
		axon.Scoped[*downstream](func(u *upstream) (*downstream, error) {
			return nil, boom
		}),
	)
	s.NoError(err)

	scope, err := s.container.NewScope()
	s.NoError(err)

	_, err = axon.Resolve[*downstream](context.Background(), scope)
	var constructionErr *axon.ConstructionError
	s.ErrorAs(err, &constructionErr)
	s.ErrorIs(err, boom)

	// the upstream resource was fully opened before the failure and is
	// finalized by normal close-time teardown
	s.Empty(rec.Order())
	s.NoError(scope.Close())
	s.Equal([]string{"upstream"}, rec.Order())
}

func (s *ScopeTestSuite) TestTransientFinalizerOwnedByScope() {
	rec := &mock.TeardownRecorder{}
	n := 0

	s.NoError(s.container.Register(axon.Transient[int](func() (int, func() error) {
		n++
		return n, rec.Finalizer(fmt.Sprintf("conn-%d", n))
	})))

	scope, err := s.container.NewScope()
	s.NoError(err)

	first, err := axon.Resolve[int](context.Background(), scope)
	s.NoError(err)
	second, err := axon.Resolve[int](context.Background(), scope)
	s.NoError(err)
	s.Equal(1, first)
	s.Equal(2, second)

	s.NoError(scope.Close())
	s.Equal([]string{"conn-2", "conn-1"}, rec.Order())
}

func TestScopeSuite(t *testing.T) {
	suite.Run(t, new(ScopeTestSuite))
}
