package model

import "time"

// JobID uniquely identifies a demo formatting job
type JobID string

// JobStage identifies how far through the fake pipeline a job has progressed
type JobStage string

const (
	StageReceived   JobStage = "received"
	StageAnalyzing  JobStage = "analyzing"
	StageFormatting JobStage = "formatting"
	StagePolishing  JobStage = "polishing"
	StageDone       JobStage = "done"
)

// Stages lists the pipeline stages in order
var Stages = []JobStage{
	StageReceived,
	StageAnalyzing,
	StageFormatting,
	StagePolishing,
	StageDone,
}

// Next returns the stage after this one, or the same stage if terminal
func (s JobStage) Next() JobStage {
	for i, stage := range Stages {
		if stage == s && i+1 < len(Stages) {
			return Stages[i+1]
		}
	}
	return s
}

// Terminal reports whether the stage is the final pipeline stage
func (s JobStage) Terminal() bool {
	return s == StageDone
}

// Job is a demo manuscript-formatting job. The pipeline is entirely fake:
// stages advance on timers, no formatting actually happens.
type Job struct {
	ID        JobID     `json:"id"`
	Title     string    `json:"title"`
	WordCount int       `json:"word_count"`
	Stage     JobStage  `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Progress returns the job's completion as a 0-100 percentage
func (j *Job) Progress() int {
	for i, stage := range Stages {
		if stage == j.Stage {
			return i * 100 / (len(Stages) - 1)
		}
	}
	return 0
}
