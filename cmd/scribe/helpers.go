package main

import (
	"fmt"

	"scribe/internal/audioanalysis"
	"scribe/internal/jobs"
)

// selectionFromRecord rebuilds the analysis parameters a record was
// submitted with.
func selectionFromRecord(rec *jobs.Record) (audioanalysis.Selection, error) {
	switch audioanalysis.Mode(rec.Mode) {
	case audioanalysis.ModeSpeakerPartitioning:
		return audioanalysis.Selection{
			Mode:        audioanalysis.ModeSpeakerPartitioning,
			MaxSpeakers: rec.MaxSpeakers,
		}, nil
	case audioanalysis.ModeChannelIdentification:
		role, err := audioanalysis.ParseRole(rec.Channel0Role)
		if err != nil {
			return audioanalysis.Selection{}, err
		}
		return audioanalysis.Selection{
			Mode:     audioanalysis.ModeChannelIdentification,
			Channel0: role,
		}, nil
	default:
		return audioanalysis.Selection{}, fmt.Errorf("job %s has unknown analysis mode %q", rec.JobName, rec.Mode)
	}
}
