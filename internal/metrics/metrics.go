package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecipeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epirun_recipe_runs_total",
		Help: "Total number of recipe runs reaching a terminal state, labelled by outcome.",
	}, []string{"status"})

	StepsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "epirun_steps_executed_total",
		Help: "Total number of recipe steps executed, labelled by action type and outcome.",
	}, []string{"action_type", "status"})

	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "epirun_step_duration_seconds",
		Help:    "Wall-clock duration of individual recipe steps.",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
	})

	WaitPollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epirun_wait_poll_failures_total",
		Help: "Total number of transient hardware read failures during wait polling.",
	})

	DuplicateCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "epirun_duplicate_completions_total",
		Help: "Total number of actions that fired their completion signal more than once.",
	})

	RunnerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "epirun_runner_state",
		Help: "Current runner state (0 idle, 1 running, 2 paused, 3 aborting, 4 completed, 5 failed).",
	})
)
