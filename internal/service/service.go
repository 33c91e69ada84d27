// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service holds the attendance finalization pipeline and the
// lifecycle services around it. The pipeline stages (normalizer, duration
// calculator, engagement scorer, compliance validator, integrity chain) are
// pure functions over their inputs; only the orchestrating services persist
// anything.
package service

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// ProofMeetEnvironment is the environment name for app URL generation.
	ProofMeetEnvironment string
}
