package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/sony/gobreaker"

	"github.com/okian/appraise/internal/adapters/repository"
	"github.com/okian/appraise/internal/domain/criteria"
)

type flakyStore struct {
	*repository.MemoryStore
	crit *flakyCriteria
}

func (f flakyStore) Criteria() repository.CriteriaStore { return f.crit }

type flakyCriteria struct {
	repository.CriteriaStore
	fail  bool
	calls int
}

func (f *flakyCriteria) FetchAll(ctx context.Context) ([]criteria.Criterion, error) {
	f.calls++
	if f.fail {
		return nil, fmt.Errorf("%w: backend down", repository.ErrLookup)
	}
	return f.CriteriaStore.FetchAll(ctx)
}

func TestBreakerStore(t *testing.T) {
	Convey("Given a breaker over a failing criteria store", t, func() {
		ctx := context.Background()
		mem := repository.NewMemoryStore()
		crit := &flakyCriteria{CriteriaStore: mem.Criteria(), fail: true}
		st := repository.NewBreakerStore(flakyStore{MemoryStore: mem, crit: crit}, repository.BreakerSettings{
			Name:        "test",
			MaxFailures: 2,
			Timeout:     time.Hour,
		}, nil)

		Convey("When failures reach the threshold", func() {
			for i := 0; i < 2; i++ {
				_, err := st.Criteria().FetchAll(ctx)
				So(errors.Is(err, repository.ErrLookup), ShouldBeTrue)
			}

			Convey("Then the circuit opens and calls fail fast", func() {
				So(st.State(), ShouldEqual, gobreaker.StateOpen)
				_, err := st.Criteria().FetchAll(ctx)
				So(errors.Is(err, repository.ErrLookup), ShouldBeTrue)
				So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeTrue)
				So(crit.calls, ShouldEqual, 2)
			})
		})

		Convey("When lookups miss rows", func() {
			for i := 0; i < 5; i++ {
				_, err := st.Employees().Get(ctx, "ghost")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			}

			Convey("Then the circuit stays closed", func() {
				So(st.State(), ShouldEqual, gobreaker.StateClosed)
			})
		})

		Convey("When the backend is healthy", func() {
			crit.fail = false
			cs, err := st.Criteria().FetchAll(ctx)

			Convey("Then results pass through", func() {
				So(err, ShouldBeNil)
				So(cs, ShouldBeEmpty)
			})
		})
	})
}
