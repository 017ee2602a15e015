// Package workflow runs the generate and schedule flows against a session.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pbaille/contentforge/internal/domain"
	"github.com/pbaille/contentforge/internal/embedding"
	"github.com/pbaille/contentforge/internal/generator"
	"github.com/pbaille/contentforge/internal/metrics"
	"github.com/pbaille/contentforge/internal/planner"
	"github.com/pbaille/contentforge/internal/scorer"
	"github.com/pbaille/contentforge/internal/session"
	"github.com/pbaille/contentforge/internal/tier"
)

// Fetcher downloads reference text for a brief
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Deps are the collaborators a generation run needs. Embedder and Fetcher are
// optional.
type Deps struct {
	Generator     generator.Generator
	GeneratorName string
	Planner       *planner.Store
	Embedder      embedding.Embedder
	Fetcher       Fetcher
	Log           logrus.FieldLogger
	Now           func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) log() logrus.FieldLogger {
	if d.Log != nil {
		return d.Log
	}
	return logrus.StandardLogger()
}

// Run generates a batch for the brief. The generation counter only moves when
// a batch comes back.
func Run(ctx context.Context, d Deps, sess *session.Session, t tier.Tier, b generator.Brief) ([]domain.Variant, error) {
	if d.Generator == nil {
		return nil, errors.New("no generator configured")
	}

	sess.Roll(d.now())
	if err := sess.CanGenerate(t); err != nil {
		metrics.QuotaRejections.WithLabelValues(t.Name, "generations").Inc()
		return nil, err
	}

	b.Plan = t.Name
	log := d.log().WithFields(logrus.Fields{
		"generator": d.GeneratorName,
		"platform":  b.Platform,
		"copy_mode": b.CopyMode,
		"plan":      t.Name,
	})

	start := time.Now()
	variants, err := d.Generator.Generate(ctx, b)
	metrics.GenerationDuration.WithLabelValues(d.GeneratorName).Observe(time.Since(start).Seconds())
	metrics.GenerationsTotal.WithLabelValues(d.GeneratorName, metrics.StatusOf(err)).Inc()
	if err != nil {
		log.WithError(err).Warn("generation failed")
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(variants) == 0 {
		return nil, errors.New("generate: empty batch")
	}

	variants = generator.Normalize(variants)

	if t.AnalysisEnabled {
		scorer.ScoreAll(variants, scorer.Context{
			Objective: b.Goal,
			CopyMode:  b.CopyMode,
			Platform:  b.Platform,
		})
		metrics.VariantsScored.Add(float64(len(variants)))
	}
	if id, ok := scorer.Recommend(variants); ok {
		log = log.WithField("recommended", id)
	}

	if d.Embedder != nil && d.Planner != nil {
		past := append(d.Planner.Events(), d.Planner.History()...)
		if err := embedding.FindRepeats(ctx, d.Embedder, variants, past, embedding.DefaultThreshold); err != nil {
			log.WithError(err).Warn("repetition check skipped")
		}
	}

	sess.RecordGeneration()
	log.WithField("variants", len(variants)).Info("batch generated")
	return variants, nil
}

// AttachReference fetches url and stores its text on the brief
func AttachReference(ctx context.Context, f Fetcher, b *generator.Brief, url string) error {
	if url == "" {
		return nil
	}
	if f == nil {
		return errors.New("no fetcher configured")
	}
	text, err := f.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("fetch reference: %w", err)
	}
	b.Reference = text
	return nil
}

// Schedule puts a variant on the planner and counts it against the daily quota
func Schedule(store *planner.Store, sess *session.Session, t tier.Tier, v domain.Variant, platform domain.Platform, day, hhmm string) (domain.PlannerEvent, error) {
	return ScheduleAt(time.Now(), store, sess, t, planner.FromVariant(v, platform, day, hhmm))
}

// ScheduleAt adds a prepared input, rolling the session against now. Plans
// without analysis store no score.
func ScheduleAt(now time.Time, store *planner.Store, sess *session.Session, t tier.Tier, in planner.EventInput) (domain.PlannerEvent, error) {
	sess.Roll(now)
	if err := sess.CanAddToPlanner(t); err != nil {
		metrics.QuotaRejections.WithLabelValues(t.Name, "planner_adds").Inc()
		return domain.PlannerEvent{}, err
	}

	if !t.AnalysisEnabled {
		in.Score = nil
	}

	e, err := store.Add(in)
	metrics.PlannerActions.WithLabelValues("add", metrics.StatusOf(err)).Inc()
	if err != nil {
		return domain.PlannerEvent{}, err
	}

	sess.RecordPlannerAdd()
	return e, nil
}
