// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/proofmeet/court-card-service/internal/domain/models"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/pkg/constants"
)

// EngagementConfig holds the scorer's weights and thresholds. Passing the
// config explicitly keeps the weights testable and swappable instead of
// living in package-level mutable state.
type EngagementConfig struct {
	FocusWeight        float64
	ActivityRateWeight float64
	AudioVideoWeight   float64
	ConsistencyWeight  float64

	// ExpectedEventsPerMinute is the baseline activity rate the monitor is
	// expected to produce under the nominal heartbeat cadence.
	ExpectedEventsPerMinute float64
	// AutomationEventsPerMinute is the rate above which activity looks scripted.
	AutomationEventsPerMinute float64
	// IdleFractionPenaltyAt is the idle-event fraction above which consistency
	// is penalized.
	IdleFractionPenaltyAt float64
	// ZeroActivityMinutes is the session length beyond which a total absence
	// of events is treated as near-certain disengagement.
	ZeroActivityMinutes int
	// LowFocusFraction is the focus fraction below which the session is
	// force-rejected.
	LowFocusFraction float64
}

// DefaultEngagementConfig returns the production scoring configuration.
func DefaultEngagementConfig() EngagementConfig {
	return EngagementConfig{
		FocusWeight:               0.40,
		ActivityRateWeight:        0.25,
		AudioVideoWeight:          0.15,
		ConsistencyWeight:         0.20,
		ExpectedEventsPerMinute:   0.5,
		AutomationEventsPerMinute: 5,
		IdleFractionPenaltyAt:     0.6,
		ZeroActivityMinutes:       10,
		LowFocusFraction:          0.3,
	}
}

// EngagementScorer computes the behavioral quality assessment of a session
// from its normalized timeline. It is stateless and safe for concurrent use.
type EngagementScorer struct {
	config EngagementConfig
}

// NewEngagementScorer creates a scorer with the given configuration.
func NewEngagementScorer(config EngagementConfig) *EngagementScorer {
	return &EngagementScorer{config: config}
}

// Score computes the engagement analysis. It never fails: the result feeds a
// compliance decision that must always receive a well-formed analysis, so any
// internal failure yields the safe default (score 0, SUSPICIOUS,
// ANALYSIS_ERROR) instead of an error.
func (s *EngagementScorer) Score(ctx context.Context, timeline []models.ActivityEvent, totalDurationMin int) (analysis models.EngagementAnalysis) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "engagement analysis failed, using safe default",
				logging.ErrKey, r,
				logging.PriorityCritical(),
			)
			analysis = models.EngagementAnalysis{
				Score:          0,
				Level:          models.EngagementLevelSuspicious,
				Flags:          []string{models.FlagAnalysisError},
				Recommendation: models.RecommendationFlagForReview,
			}
		}
	}()

	var flags []string

	focusScore, focusFraction := s.focusScore(timeline, totalDurationMin)
	activityScore, eventsPerMinute := s.activityRateScore(timeline, totalDurationMin)
	audioVideoScore := s.audioVideoScore(timeline)
	consistencyScore, consistencyFlags := s.consistencyScore(timeline, totalDurationMin, eventsPerMinute)
	flags = append(flags, consistencyFlags...)

	if audioVideoScore == 0 {
		flags = append(flags, models.FlagNoAudioVideo)
	}

	lowFocus := focusFraction < s.config.LowFocusFraction
	if lowFocus {
		flags = append(flags, models.FlagLowFocus)
	}

	weighted := focusScore*s.config.FocusWeight +
		activityScore*s.config.ActivityRateWeight +
		audioVideoScore*s.config.AudioVideoWeight +
		consistencyScore*s.config.ConsistencyWeight
	score := int(math.Round(weighted))

	var level models.EngagementLevel
	switch {
	case score >= 70:
		level = models.EngagementLevelHigh
	case score >= 50:
		level = models.EngagementLevelMedium
	case score >= 30:
		level = models.EngagementLevelLow
	default:
		level = models.EngagementLevelSuspicious
	}

	recommendation := s.recommend(level, flags)

	// Zero activity over a long session or critically low focus overrides the
	// computed level: both are too strong a fraud signal to approve.
	zeroActivity := containsFlag(flags, models.FlagNoActivity)
	if zeroActivity || lowFocus {
		recommendation = models.RecommendationReject
	}

	return models.EngagementAnalysis{
		Score:          score,
		Level:          level,
		Flags:          flags,
		Recommendation: recommendation,
	}
}

// focusScore derives focus time by counting samples tagged as foreground
// focus, each worth one heartbeat interval.
func (s *EngagementScorer) focusScore(timeline []models.ActivityEvent, totalDurationMin int) (score, fraction float64) {
	if totalDurationMin <= 0 {
		return 0, 0
	}

	focusSamples := 0
	for i := range timeline {
		if timeline[i].HasTag(models.TagFocus) {
			focusSamples++
		}
	}

	focusTime := time.Duration(focusSamples) * constants.HeartbeatIntervalSeconds * time.Second
	totalTime := time.Duration(totalDurationMin) * time.Minute

	fraction = float64(focusTime) / float64(totalTime)
	score = math.Min(100, fraction*100)
	return score, fraction
}

// activityRateScore normalizes events-per-minute against the expected baseline.
func (s *EngagementScorer) activityRateScore(timeline []models.ActivityEvent, totalDurationMin int) (score, eventsPerMinute float64) {
	if totalDurationMin <= 0 {
		return 0, 0
	}

	eventsPerMinute = float64(len(timeline)) / float64(totalDurationMin)
	score = math.Min(100, eventsPerMinute/s.config.ExpectedEventsPerMinute*100)
	return score, eventsPerMinute
}

// audioVideoScore awards 50 points each for any observed audio-engaged and
// video-engaged signal.
func (s *EngagementScorer) audioVideoScore(timeline []models.ActivityEvent) float64 {
	var audioSeen, videoSeen bool
	for i := range timeline {
		if timeline[i].HasTag(models.TagAudio) {
			audioSeen = true
		}
		if timeline[i].Kind == models.EventKindVideoOn {
			videoSeen = true
		}
		if audioSeen && videoSeen {
			break
		}
	}

	score := 0.0
	if audioSeen {
		score += 50
	}
	if videoSeen {
		score += 50
	}
	return score
}

// consistencyScore starts at 100 and deducts for idle-heavy or
// automation-like activity patterns; a total absence of events on a long
// session forces it to zero.
func (s *EngagementScorer) consistencyScore(timeline []models.ActivityEvent, totalDurationMin int, eventsPerMinute float64) (float64, []string) {
	var flags []string

	if len(timeline) == 0 && totalDurationMin > s.config.ZeroActivityMinutes {
		flags = append(flags, models.FlagNoActivity)
		return 0, flags
	}

	score := 100.0

	if len(timeline) > 0 {
		idleEvents := 0
		for i := range timeline {
			if timeline[i].Kind == models.EventKindIdle {
				idleEvents++
			}
		}
		if float64(idleEvents)/float64(len(timeline)) > s.config.IdleFractionPenaltyAt {
			score -= 30
			flags = append(flags, models.FlagIdleHeavy)
		}
	}

	if eventsPerMinute > s.config.AutomationEventsPerMinute {
		score -= 40
		flags = append(flags, models.FlagExcessiveEventRate)
	}

	if score < 0 {
		score = 0
	}
	return score, flags
}

func (s *EngagementScorer) recommend(level models.EngagementLevel, flags []string) models.Recommendation {
	switch level {
	case models.EngagementLevelHigh:
		return models.RecommendationApprove
	case models.EngagementLevelMedium:
		if len(flags) > 2 {
			return models.RecommendationFlagForReview
		}
		return models.RecommendationApprove
	case models.EngagementLevelLow:
		return models.RecommendationFlagForReview
	default:
		return models.RecommendationReject
	}
}

func containsFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
