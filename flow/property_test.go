package flow

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/richinex/calcflow/gateway/gatewaytest"
	"github.com/richinex/calcflow/model"
	"github.com/stretchr/testify/require"
)

// TestRandomIntentSequencesKeepInvariants drives the controller with random
// intents while gateway calls complete concurrently.
func TestRandomIntentSequencesKeepInvariants(t *testing.T) {
	ctx := context.Background()
	vars := []model.Variable{model.VarX, model.VarY, model.VarZ}
	views := []View{ViewStart, ViewTopics, ViewPartialForm, ViewDirectionalForm, ViewResult, ViewSolution, ViewPracticeList, ViewPracticeDetail}

	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7))
		fake := gatewaytest.New()
		c := New(fake, nil)

		intents := []func(){
			func() { _ = c.NavigateTo(views[rng.IntN(len(views))]) },
			func() { c.Reset() },
			func() {
				c.Sessions().SetPartialFunction("x*y")
				c.Sessions().SetPartialPoint(model.Point{X: "1", Y: []string{"", "2"}[rng.IntN(2)]})
				_ = c.SubmitPartial(ctx, vars[rng.IntN(2)])
			},
			func() {
				fillDirectional(c)
				_ = c.SubmitDirectional(ctx)
			},
			func() { _ = c.OpenHigher() },
			func() { _ = c.ChooseHigherPoint(rng.IntN(2) == 0) },
			func() { _ = c.SubmitHigher(ctx, vars[rng.IntN(3)]) },
			func() { c.CancelHigher() },
			func() { _ = c.RevealSolution() },
			func() { _ = c.SelectProblem([]string{"1", "2", "3", "4", "5"}[rng.IntN(5)]) },
			func() { _ = c.SetPracticeAnswer([]string{"", "17", "0"}[rng.IntN(3)]) },
			func() { _ = c.SubmitPracticeAnswer(ctx) },
			func() { _ = c.RevealPracticeSolution() },
			func() { _ = c.RetryPractice() },
			func() {
				if rng.IntN(2) == 0 {
					fake.Fail(nil)
				} else {
					fake.Succeed()
				}
			},
		}

		for step := 0; step < 200; step++ {
			intents[rng.IntN(len(intents))]()
			s := c.Snapshot()
			requireConsistent(t, s)
			if s.Higher.Stage != HigherClosed {
				require.Equal(t, ViewResult, s.View, "seed %d step %d", seed, step)
				require.Equal(t, PhaseSuccess, s.Calculation.Phase, "seed %d step %d", seed, step)
			}
			if s.Practice.SolutionRevealed {
				require.Equal(t, PhaseSuccess, s.Practice.Phase, "seed %d step %d", seed, step)
			}
		}
		c.Wait()
		s := c.Snapshot()
		requireConsistent(t, s)
		require.NotEqual(t, PhaseLoading, s.Calculation.Phase, "seed %d", seed)
		require.NotEqual(t, PhaseLoading, s.Practice.Phase, "seed %d", seed)

		c.Reset()
		require.NoError(t, c.NavigateTo(ViewPartialForm))
		s = c.Snapshot()
		require.Equal(t, PhaseIdle, s.Calculation.Phase)
		require.Nil(t, s.Calculation.Payload)
		require.Empty(t, s.Calculation.ErrorMessage)
	}
}
