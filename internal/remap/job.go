package remap

import (
	"github.com/google/uuid"

	"github.com/fukkitmc/mapjar/internal/artifact"
	"github.com/fukkitmc/mapjar/internal/mapping"
)

// Job is one transformation: input jar to output jar through a table.
type Job struct {
	// ID correlates log lines and names the staged output file.
	ID string

	Input  artifact.Ref
	Output artifact.Ref
	Table  *mapping.Table

	// Classpath holds supporting jars for symbol resolution. They are never
	// copied into the output.
	Classpath []string
}

// NewJob creates a job with a fresh ID.
func NewJob(input, output artifact.Ref, table *mapping.Table, classpath []string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Input:     input,
		Output:    output,
		Table:     table,
		Classpath: classpath,
	}
}

// stagingPath is where the output is assembled before it is moved into place.
func (j *Job) stagingPath() string {
	return j.Output.Path + "." + j.ID + ".tmp"
}
