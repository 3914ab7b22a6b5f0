// Package metrics exposes rollout counters for Prometheus.
//
//   - tradingenv_episodes_total{policy}     finished episodes
//   - tradingenv_steps_total                simulator steps
//   - tradingenv_trades_total{side}         position changes (entry|exit)
//   - tradingenv_commission_points_total    commission charged, in reward points
//   - tradingenv_episode_reward{policy}     total reward per episode
//   - tradingenv_position                   1 while the simulated trader is long
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	SideEntry = "entry"
	SideExit  = "exit"
)

// Recorder updates the rollout metrics. A nil *Recorder is a no-op.
type Recorder struct {
	episodes   *prometheus.CounterVec
	steps      prometheus.Counter
	trades     *prometheus.CounterVec
	commission prometheus.Counter
	reward     *prometheus.HistogramVec
	position   prometheus.Gauge
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		episodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingenv_episodes_total",
				Help: "Episodes finished",
			},
			[]string{"policy"},
		),
		steps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradingenv_steps_total",
				Help: "Simulator steps taken",
			},
		),
		trades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradingenv_trades_total",
				Help: "Position entries and exits",
			},
			[]string{"side"},
		),
		commission: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradingenv_commission_points_total",
				Help: "Commission charged, in reward points",
			},
		),
		reward: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradingenv_episode_reward",
				Help:    "Total reward per episode",
				Buckets: []float64{-50, -20, -10, -5, -1, 0, 1, 5, 10, 20, 50},
			},
			[]string{"policy"},
		),
		position: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradingenv_position",
				Help: "1 while the simulated trader holds a position",
			},
		),
	}

	for _, c := range []prometheus.Collector{r.episodes, r.steps, r.trades, r.commission, r.reward, r.position} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ObserveStep(havePosition int) {
	if r == nil {
		return
	}
	r.steps.Inc()
	r.position.Set(float64(havePosition))
}

func (r *Recorder) ObserveTrade(side string) {
	if r == nil {
		return
	}
	r.trades.WithLabelValues(side).Inc()
}

func (r *Recorder) ObserveCommission(points float64) {
	if r == nil {
		return
	}
	r.commission.Add(points)
}

func (r *Recorder) ObserveEpisode(policy string, reward float64) {
	if r == nil {
		return
	}
	r.episodes.WithLabelValues(policy).Inc()
	r.reward.WithLabelValues(policy).Observe(reward)
}
