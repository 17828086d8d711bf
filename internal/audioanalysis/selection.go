package audioanalysis

import (
	"fmt"
	"regexp"
	"strings"

	"scribe/internal/services"
	"scribe/internal/services/healthscribe"
)

// Mode selects how the transcription service partitions the audio.
type Mode string

const (
	// ModeSpeakerPartitioning diarizes a single-channel recording into up to
	// MaxSpeakers speakers.
	ModeSpeakerPartitioning Mode = "speaker_partitioning"
	// ModeChannelIdentification maps a two-channel recording onto the
	// clinician and patient roles, one channel each.
	ModeChannelIdentification Mode = "channel_identification"
)

const (
	// MinSpeakers and MaxSpeakers bound the speaker-partitioning count
	// accepted by the remote service.
	MinSpeakers = 2
	MaxSpeakers = 30

	maxJobNameLength = 200
)

var jobNamePattern = regexp.MustCompile(`^[0-9A-Za-z._-]+$`)

// ParseMode maps user-facing mode names onto the enumeration.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "speaker", "speaker_partitioning":
		return ModeSpeakerPartitioning, nil
	case "channel", "channel_identification":
		return ModeChannelIdentification, nil
	default:
		return "", services.Wrap(services.ErrValidation, "audioanalysis", "parse mode",
			fmt.Sprintf("unknown analysis mode %q (want speaker or channel)", value), nil)
	}
}

// ParseRole maps user-facing role names onto the participant enumeration.
func ParseRole(value string) (healthscribe.ParticipantRole, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CLINICIAN":
		return healthscribe.RoleClinician, nil
	case "PATIENT":
		return healthscribe.RolePatient, nil
	default:
		return "", services.Wrap(services.ErrValidation, "audioanalysis", "parse role",
			fmt.Sprintf("unknown participant role %q (want clinician or patient)", value), nil)
	}
}

// Selection is the validated audio-analysis choice of one submission attempt.
// Exactly one mode is active; the per-mode parameter is ignored for the other.
type Selection struct {
	Mode        Mode
	MaxSpeakers int
	// Channel0 is the role assigned to channel 0 under channel identification.
	// Channel 1 always receives the complementary role.
	Channel0 healthscribe.ParticipantRole
}

// Validate rejects invalid mode/parameter combinations. It is pure and posts
// no notifications; callers surface the error inline.
func (s Selection) Validate() error {
	switch s.Mode {
	case ModeSpeakerPartitioning:
		if s.MaxSpeakers < MinSpeakers || s.MaxSpeakers > MaxSpeakers {
			return services.Wrap(services.ErrValidation, "audioanalysis", "validate",
				fmt.Sprintf("max speakers must be between %d and %d, got %d", MinSpeakers, MaxSpeakers, s.MaxSpeakers), nil)
		}
	case ModeChannelIdentification:
		if s.Channel0 != healthscribe.RoleClinician && s.Channel0 != healthscribe.RolePatient {
			return services.Wrap(services.ErrValidation, "audioanalysis", "validate",
				fmt.Sprintf("channel 0 role must be clinician or patient, got %q", s.Channel0), nil)
		}
	default:
		return services.Wrap(services.ErrValidation, "audioanalysis", "validate",
			fmt.Sprintf("unknown analysis mode %q", s.Mode), nil)
	}
	return nil
}

// Settings builds the job-creation settings payload for the selection.
func (s Selection) Settings() healthscribe.Settings {
	switch s.Mode {
	case ModeChannelIdentification:
		return healthscribe.Settings{ChannelIdentification: true}
	default:
		return healthscribe.Settings{
			ShowSpeakerLabels: true,
			MaxSpeakerLabels:  s.MaxSpeakers,
		}
	}
}

// ChannelDefinitions returns the two complementary channel role assignments
// for channel identification, or nil for speaker partitioning.
func (s Selection) ChannelDefinitions() []healthscribe.ChannelDefinition {
	if s.Mode != ModeChannelIdentification {
		return nil
	}
	return []healthscribe.ChannelDefinition{
		{ChannelID: 0, ParticipantRole: s.Channel0},
		{ChannelID: 1, ParticipantRole: s.Channel0.Complement()},
	}
}

// ValidateJobName enforces the remote service's job name grammar.
func ValidateJobName(name string) error {
	if name == "" {
		return services.Wrap(services.ErrValidation, "audioanalysis", "validate job name", "job name must not be empty", nil)
	}
	if len(name) > maxJobNameLength {
		return services.Wrap(services.ErrValidation, "audioanalysis", "validate job name",
			fmt.Sprintf("job name exceeds %d characters", maxJobNameLength), nil)
	}
	if !jobNamePattern.MatchString(name) {
		return services.Wrap(services.ErrValidation, "audioanalysis", "validate job name",
			fmt.Sprintf("job name %q may only contain letters, digits, '.', '_', and '-'", name), nil)
	}
	return nil
}
